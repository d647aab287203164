package repository

import (
	"encoding/json"
	"fmt"
)

// Records are stored as Redis hashes with one field per JSON property.
// Each hash value holds the JSON encoding of that property, so strings keep
// their quotes and numbers and booleans round-trip without per-type parsing.

func recordToHash[T Record](rec T) (map[string]interface{}, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("record is not a JSON object: %w", err)
	}

	hash := make(map[string]interface{}, len(fields))
	for name, raw := range fields {
		hash[name] = string(raw)
	}
	return hash, nil
}

func hashToRecord[T Record](hash map[string]string) (T, error) {
	var rec T

	fields := make(map[string]json.RawMessage, len(hash))
	for name, value := range hash {
		if !json.Valid([]byte(value)) {
			return rec, fmt.Errorf("field %q does not hold JSON", name)
		}
		fields[name] = json.RawMessage(value)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return rec, fmt.Errorf("failed to marshal hash fields: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}
