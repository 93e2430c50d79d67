// Package credentials loads the service-account key used to reach the
// document database.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// EnvVar holds the JSON-serialised service-account key.
const EnvVar = "SERVICE_ACCOUNT_KEY"

// ScopeDatastore covers both Firestore and Datastore-mode access.
const ScopeDatastore = "https://www.googleapis.com/auth/datastore"

var (
	// ErrConfigMissing is returned when EnvVar is unset or blank.
	ErrConfigMissing = errors.New(EnvVar + " not found, make sure .env exists and contains valid credentials")
	// ErrConfigMalformed is returned when EnvVar is not a usable service-account key.
	ErrConfigMalformed = errors.New(EnvVar + " could not be parsed, make sure it is valid JSON")
)

// ServiceAccount is a Google service-account key.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id,omitempty"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id,omitempty"`
	AuthURI      string `json:"auth_uri,omitempty"`
	TokenURI     string `json:"token_uri,omitempty"`
}

// Parse decodes raw and normalises the escaped newlines in the private key.
func Parse(raw string) (ServiceAccount, error) {
	if strings.TrimSpace(raw) == "" {
		return ServiceAccount{}, ErrConfigMissing
	}

	var sa ServiceAccount
	if err := json.Unmarshal([]byte(raw), &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}

	for _, f := range []struct{ name, value string }{
		{"project_id", sa.ProjectID},
		{"client_email", sa.ClientEmail},
		{"private_key", sa.PrivateKey},
	} {
		if strings.TrimSpace(f.value) == "" {
			return ServiceAccount{}, fmt.Errorf("%w: missing field %q", ErrConfigMalformed, f.name)
		}
	}

	// PEM keys are often stored on one line with literal \n sequences.
	sa.PrivateKey = strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
	if sa.Type == "" {
		sa.Type = "service_account"
	}
	return sa, nil
}

// Load reads EnvVar from the environment. A .env file in the working
// directory is loaded first when present; existing variables win.
func Load() (ServiceAccount, error) {
	_ = godotenv.Load()
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads EnvVar through lookup.
func LoadFrom(lookup func(string) (string, bool)) (ServiceAccount, error) {
	raw, ok := lookup(EnvVar)
	if !ok {
		return ServiceAccount{}, ErrConfigMissing
	}
	return Parse(raw)
}

// JSON returns the normalised key in service-account JSON form.
func (sa ServiceAccount) JSON() ([]byte, error) {
	return json.Marshal(sa)
}

// ClientOptions returns the options that authenticate a cloud client as sa.
// Scopes default to ScopeDatastore.
func (sa ServiceAccount) ClientOptions(ctx context.Context, scopes ...string) ([]option.ClientOption, error) {
	if len(scopes) == 0 {
		scopes = []string{ScopeDatastore}
	}
	data, err := sa.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode service account: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build credentials for %s: %w", sa.ClientEmail, err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// String omits the private key.
func (sa ServiceAccount) String() string {
	return fmt.Sprintf("%s (project %s)", sa.ClientEmail, sa.ProjectID)
}
