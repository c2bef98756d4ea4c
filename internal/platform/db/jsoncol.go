package db

import (
	"encoding/json"
	"log/slog"
)

// DecodeJSON decodes a JSON column, returning fallback for empty or malformed
// input. Historical rows carry drifted shapes, so read paths never fail here.
func DecodeJSON[T any](raw []byte, fallback T) T {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.Warn("json column decode failed", "err", err)
		return fallback
	}
	return out
}

// EncodeJSON marshals v for a JSON column. Unmarshalable values encode as
// the empty document for their kind.
func EncodeJSON(v any, empty string) []byte {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return []byte(empty)
	}
	return raw
}
