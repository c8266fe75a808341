package pubsources

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// StringList is the canonical list form of an upstream field whose native
// shape varies between records: absent, a scalar, an array, or a structured
// object exposing a "text" member (DBLP author entries).
//
// Decoding resolves the shape once:
//
//	absent / null        -> empty list
//	"x", 12, true        -> ["x"], ["12"], ["true"]
//	[...]                -> each element decoded by the same rules, flattened
//	{"text": "x", ...}   -> ["x"]; an object without text yields [""]
//
// Decoding an already canonical list is a no-op.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	values, err := decodeStrings(data)
	if err != nil {
		return err
	}
	*l = values
	return nil
}

// First returns the first element, or "" for an empty list.
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// Strings returns the list as a plain slice, never nil.
func (l StringList) Strings() []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}

func decodeStrings(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			values, err := decodeStrings(item)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
		return out, nil
	case '{':
		var obj struct {
			Text json.RawMessage `json:"text"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		text, err := decodeStrings(obj.Text)
		if err != nil {
			return nil, err
		}
		if len(text) == 0 {
			return []string{""}, nil
		}
		return text[:1], nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	default:
		return []string{string(data)}, nil
	}
}

// FlexYear decodes a publication year sent either as a JSON number or as a
// numeric string. Anything else, including 0, leaves the year unknown rather
// than failing the whole response.
type FlexYear struct {
	value int
	valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (y *FlexYear) UnmarshalJSON(data []byte) error {
	values, err := decodeStrings(data)
	if err != nil {
		return err
	}
	*y = FlexYear{}
	if len(values) == 0 {
		return nil
	}
	raw := strings.TrimSpace(values[0])
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return nil
		}
		n = int(f)
	}
	// Sources use 0 as "no date".
	if n > 0 {
		y.value, y.valid = n, true
	}
	return nil
}

// Ptr returns the year, or nil when unknown.
func (y FlexYear) Ptr() *int {
	if !y.valid {
		return nil
	}
	v := y.value
	return &v
}

// NewFlexYear returns a known year, for building fixtures.
func NewFlexYear(v int) FlexYear {
	return FlexYear{value: v, valid: true}
}
