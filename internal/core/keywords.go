package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Keywords is the ordered list of classification hints of a category.
// It is persisted as a JSON array in a text column.
type Keywords []string

// NormalizeKeywords trims entries, drops blanks and case-insensitive repeats,
// and keeps the first spelling seen.
func NormalizeKeywords(in []string) Keywords {
	out := make(Keywords, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		key := strings.ToLower(k)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}

func (k Keywords) Value() (driver.Value, error) {
	if k == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(k))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (k *Keywords) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*k = Keywords{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan keywords: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*k = Keywords{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan keywords: %w", err)
	}
	*k = out
	return nil
}

// MarshalJSON never emits null so clients can always iterate.
func (k Keywords) MarshalJSON() ([]byte, error) {
	if k == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(k))
}
