package feed

import (
	"bytes"
	"encoding/json"
	"log/slog"
)

// Normalize converts a decoded JSON array into canonical records.
//
// Entries that are JSON null are dropped. Entries that cannot be decoded
// into T (for example a bare string instead of an object) are dropped
// and logged at debug level. Missing fields are left at their zero value.
// Source order is preserved.
func Normalize[T any](raw []json.RawMessage, logger *slog.Logger) []*T {
	if logger == nil {
		logger = slog.Default()
	}

	records := make([]*T, 0, len(raw))
	for i, entry := range raw {
		trimmed := bytes.TrimSpace(entry)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}

		var rec T
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			logger.Debug("dropping malformed feed entry",
				"index", i,
				"error", err,
			)
			continue
		}
		records = append(records, &rec)
	}
	return records
}

// DecodeArray splits a JSON array into raw elements.
// An empty body or a JSON null is treated as an empty array.
func DecodeArray(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []json.RawMessage{}, nil
	}
	if trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
