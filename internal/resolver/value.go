package resolver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Stringify renders a resolved JSON value as text. Numbers decoded with
// UseNumber keep their source form; null is "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// Template is a mapper template as written in the schema document. Any JSON
// scalar is accepted: falsy values become the empty template, anything else
// its textual form.
type Template string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Template) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode template: %w", err)
	}
	*t = Template(coerce(v))
	return nil
}

// Resolve evaluates the template against doc.
func (t Template) Resolve(doc any) string {
	return Resolve(string(t), doc)
}

// coerce turns a non-string template into text.
func coerce(v any) string {
	if falsy(v) {
		return ""
	}
	return Stringify(v)
}

func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
