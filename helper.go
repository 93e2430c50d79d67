package predictions

import (
	"fmt"
	"regexp"
	"strings"
)

// reservedID matches ids Firestore reserves for internal use.
var reservedID = regexp.MustCompile(`^__.*__$`)

// validateID ensures id addresses a single document in the collection.
func validateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: must not be empty", ErrInvalidID)
	case strings.Contains(id, "/"):
		return fmt.Errorf("%w: %q must not contain '/'", ErrInvalidID, id)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q is reserved", ErrInvalidID, id)
	case reservedID.MatchString(id):
		return fmt.Errorf("%w: %q matches the reserved __.*__ pattern", ErrInvalidID, id)
	}
	return nil
}
