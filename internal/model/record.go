package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field names shared by Victim and Attack records.
// The names match the JSON keys used by the ransomware.live feed.
const (
	FieldVictim      = "victim"
	FieldGroup       = "group"
	FieldAttackDate  = "attackdate"
	FieldCountry     = "country"
	FieldSector      = "sector"
	FieldDescription = "description"
	FieldWebsite     = "website"
	FieldPublished   = "published"
	FieldPostTitle   = "post_title"
	FieldInfostealer = "infostealer"
	FieldScreenshot  = "screenshot"
	FieldActivity    = "activity"

	// FieldMatchedKeywords holds the comma-joined labels of a classified record.
	FieldMatchedKeywords = "matchedKeywords"
)

// Field is a single named scalar value of a record.
type Field struct {
	Name  string
	Value string
}

// Identity is the deduplication key of a record.
// Both parts are compared case-sensitively, exactly as delivered by the feed.
type Identity struct {
	Name       string
	AttackDate string
}

// Record is the capability shared by every feed record.
// Classification and filtering are written against this interface so that
// victims and attacks go through the same code path.
type Record interface {
	// Identity returns the deduplication key.
	Identity() Identity

	// Fields returns the non-empty scalar fields in declaration order.
	Fields() []Field

	// Lookup returns the value of the named field, or "" when absent.
	Lookup(name string) string
}

// appendField appends a field only when the value is present.
func appendField(fields []Field, name, value string) []Field {
	if value == "" {
		return fields
	}
	return append(fields, Field{Name: name, Value: value})
}

// appendKeywords appends the matched keywords as a single field.
func appendKeywords(fields []Field, keywords []string) []Field {
	return appendField(fields, FieldMatchedKeywords, strings.Join(keywords, ","))
}

// lookupField finds name in fields.
func lookupField(fields []Field, name string) string {
	for _, f := range fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// decodeText decodes a JSON object into the string fields named by dst.
// The feed is loosely typed, so numbers and booleans keep their literal
// text and nested objects or arrays keep their compact JSON text.
// Unknown keys are ignored and null leaves the field empty.
func decodeText(data []byte, dst map[string]*string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for name, raw := range obj {
		p, ok := dst[name]
		if !ok {
			continue
		}
		text, err := textValue(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		*p = text
	}
	return nil
}

// decodeKeywords reads the matchedKeywords member of a classified record.
func decodeKeywords(data []byte) ([]string, error) {
	var wrapper struct {
		MatchedKeywords []string `json:"matchedKeywords"` //nolint:tagliatelle // dashboard format
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("field %s: %w", FieldMatchedKeywords, err)
	}
	return wrapper.MatchedKeywords, nil
}

// textValue coerces one JSON value to text.
func textValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case trimmed[0] == '{', trimmed[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(trimmed), nil
	}
}
