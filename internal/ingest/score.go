package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ScoreValue is a factor score as reported by a data source. Sources send
// either a bare number, a numeric string or an object with a "total" field.
type ScoreValue float64

func (s *ScoreValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("score is null")
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("decode score string: %w", err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return fmt.Errorf("parse score %q: %w", str, err)
		}
		*s = ScoreValue(v)
		return nil
	case '{':
		var obj struct {
			Total *float64 `json:"total"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode score object: %w", err)
		}
		if obj.Total == nil {
			return fmt.Errorf("score object has no total")
		}
		*s = ScoreValue(*obj.Total)
		return nil
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode score: %w", err)
		}
		*s = ScoreValue(v)
		return nil
	}
}

// RawCountry is a country as received at the boundary, before validation.
// Decoding never fails on a single bad entry: a score that cannot be read is
// kept in Invalid and a country that cannot be read at all is marked
// Malformed, so the rest of the batch still goes through.
type RawCountry struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	Code   string                `json:"code"`
	Scores map[string]ScoreValue `json:"scores"`

	// Invalid maps a reported factor key to the reason its value was unreadable.
	Invalid   map[string]string `json:"-"`
	Malformed string            `json:"-"`
}

func (c *RawCountry) UnmarshalJSON(data []byte) error {
	*c = RawCountry{}

	var fields struct {
		ID     string                     `json:"id"`
		Name   string                     `json:"name"`
		Code   string                     `json:"code"`
		Scores map[string]json.RawMessage `json:"scores"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		c.ID = fields.ID
		c.Malformed = err.Error()
		return nil
	}

	c.ID, c.Name, c.Code = fields.ID, fields.Name, fields.Code
	if fields.Scores == nil {
		return nil
	}
	c.Scores = make(map[string]ScoreValue, len(fields.Scores))
	for key, raw := range fields.Scores {
		var v ScoreValue
		if err := v.UnmarshalJSON(raw); err != nil {
			if c.Invalid == nil {
				c.Invalid = make(map[string]string)
			}
			c.Invalid[key] = err.Error()
			continue
		}
		c.Scores[key] = v
	}
	return nil
}

// DecodeBatch reads either a JSON array of countries or an object with a
// "countries" array.
func DecodeBatch(data []byte) ([]RawCountry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	if data[0] == '[' {
		var list []RawCountry
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode country list: %w", err)
		}
		return list, nil
	}
	var wrapped struct {
		Countries []RawCountry `json:"countries"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode country batch: %w", err)
	}
	return wrapped.Countries, nil
}
