package fileutils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode"
)

// UnmarshalJSON parses data as a JSON array of T, or as a single T object
// which is returned as a one element slice.
func UnmarshalJSON[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) == 0 {
		return nil, errors.New("empty JSON input")
	}

	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("couldn't parse JSON array: %v", err)
		}
		return out, nil
	}

	var single T
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("couldn't parse JSON object: %v", err)
	}
	return []T{single}, nil
}
