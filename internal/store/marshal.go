package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vrymel/serverless-python-requirements/internal/canonical"
)

// timeLayout stores timestamps as sortable UTC text.
const timeLayout = time.RFC3339Nano

// marshalStrings converts a string list to canonical JSON TEXT for storage.
func marshalStrings(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := canonical.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings parses a JSON TEXT array. Empty input yields an empty
// slice.
func unmarshalStrings(data string) ([]string, error) {
	list := []string{}
	if data == "" || data == "[]" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	return list, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
