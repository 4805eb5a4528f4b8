// Package envelope decodes the backend's uniform response envelope and
// implements the optional snake_case-to-camelCase payload adapter.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the response shape every backend service uses:
// { "status": "success", "message": "...", "data": ... }.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Decode parses body into an Envelope.
func Decode(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// DecodeData parses body and unmarshals the envelope's data member into out.
// A missing or null data member leaves out untouched.
func DecodeData(body []byte, out any) error {
	env, err := Decode(body)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode envelope data: %w", err)
	}
	return nil
}

// CamelizeData rewrites every key inside the envelope's data member from
// snake_case to camelCase, recursively through nested objects and arrays.
// The rest of the envelope is left as-is. Bodies without a data member pass
// through unchanged.
func CamelizeData(body []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("camelize body: %w", err)
	}
	data, ok := doc["data"]
	if !ok || data == nil {
		return body, nil
	}
	doc["data"] = camelize(data)
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("camelize body: %w", err)
	}
	return out, nil
}

func camelize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[camelKey(k)] = camelize(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = camelize(inner)
		}
		return out
	default:
		return v
	}
}

// camelKey turns report_id into reportId. An underscore is only folded when
// a lowercase letter follows it, so keys like sla_2024 keep their shape and
// the rewrite is idempotent.
func camelKey(key string) string {
	if !strings.ContainsRune(key, '_') {
		return key
	}
	b := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '_' && i+1 < len(key) && key[i+1] >= 'a' && key[i+1] <= 'z' {
			b = append(b, key[i+1]-('a'-'A'))
			i++
			continue
		}
		b = append(b, c)
	}
	return string(b)
}
