package stores

import (
	"bytes"
	"encoding/json"

	"github.com/BagasRo/predictions"
)

// decodeDocument decodes a stored JSON payload. Integral numbers come back
// as int64 and all other numbers as float64, matching Firestore's typing.
func decodeDocument(encoded []byte) (predictions.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()

	doc := predictions.Document{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	for k, v := range doc {
		doc[k] = normalizeNumbers(v)
	}
	return doc, nil
}

func normalizeNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		for k, e := range v {
			v[k] = normalizeNumbers(e)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = normalizeNumbers(e)
		}
		return v
	}
	return v
}
