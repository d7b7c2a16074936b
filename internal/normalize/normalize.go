// Package normalize reduces heterogeneous webhook reply shapes to a single answer string.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// answerFields are checked in priority order on the reply object.
var answerFields = []string{"output", "response", "message", "text", "content"}

// nestedFields are checked inside a nested "data" object.
var nestedFields = []string{"output", "response"}

// Bytes decodes raw JSON and normalizes it. It fails only when raw is not JSON.
func Bytes(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if dec.More() {
		return "", fmt.Errorf("failed to decode response: trailing data")
	}
	return Output(v), nil
}

// Output extracts the answer text from a decoded JSON value. It never fails;
// unrecognized shapes are returned as their JSON serialization.
func Output(v any) string {
	if arr, ok := v.([]any); ok && len(arr) > 0 {
		if item, ok := arr[0].(map[string]any); ok {
			if s, ok := pick(item, answerFields); ok {
				return s
			}
		}
	}

	if obj, ok := v.(map[string]any); ok {
		if s, ok := pick(obj, answerFields); ok {
			return s
		}
		if data, ok := obj["data"].(map[string]any); ok {
			if s, ok := pick(data, nestedFields); ok {
				return s
			}
		}
	}

	if s, ok := v.(string); ok {
		return s
	}
	return serialize(v)
}

func pick(obj map[string]any, fields []string) (string, bool) {
	for _, f := range fields {
		val, ok := obj[f]
		if !ok || !truthy(val) {
			continue
		}
		if s, ok := val.(string); ok {
			return s, true
		}
		return serialize(val), true
	}
	return "", false
}

// truthy mirrors the loose presence check webhook backends are written against:
// null, false, zero and empty strings count as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func serialize(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
