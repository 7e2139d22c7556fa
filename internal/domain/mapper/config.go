// Package mapper holds the per-source mapping recipe read from the schema document.
package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/resolver"
)

// Config is the "mapper" block of an API definition.
type Config struct {
	Strategy     Strategy          `json:"strategy"`
	Label        resolver.Template `json:"label"`
	Sublabel     resolver.Template `json:"sublabel"`
	ID           resolver.Template `json:"id"`
	Scheme       *string           `json:"scheme,omitempty"`
	Xrefs        *XrefSet          `json:"xrefs,omitempty"`
	FunctionName string            `json:"function_name,omitempty"`

	// members counts the keys of the decoded block, known or not.
	members int
}

// UnmarshalJSON implements json.Unmarshaler, remembering how many members
// the block had.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode mapper: %w", err)
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("decode mapper: %w", err)
	}
	*c = Config(p)
	c.members = len(members)
	return nil
}

// SchemeOr returns the configured scheme, or def when the key is absent.
func (c *Config) SchemeOr(def string) string {
	if c == nil || c.Scheme == nil {
		return def
	}
	return *c.Scheme
}

// IsEmpty reports whether there is no mapper: no block, or a block without
// members. A block with only blank or unknown members is still a mapper.
func (c *Config) IsEmpty() bool {
	return c == nil || (c.members == 0 && c.Strategy == "" && c.Label == "" && c.Sublabel == "" &&
		c.ID == "" && c.Scheme == nil && c.Xrefs == nil && c.FunctionName == "")
}

// XrefTemplate describes one cross reference. Condition and Label are
// non-nil whenever their key is present, null included.
type XrefTemplate struct {
	Condition *resolver.Template `json:"condition,omitempty"`
	ID        resolver.Template  `json:"id"`
	URI       resolver.Template  `json:"uri"`
	Label     *string            `json:"label,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Unknown members are ignored
// and a null entry decodes as a template without id.
func (x *XrefTemplate) UnmarshalJSON(data []byte) error {
	*x = XrefTemplate{}
	if isNull(data) {
		return nil
	}
	return domain.DecodeOrderedObject(data, func(name string, dec *json.Decoder) error {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}

		var err error
		switch name {
		case "condition":
			var cond resolver.Template
			err = decodeTemplate(raw, &cond)
			x.Condition = &cond
		case "id":
			err = decodeTemplate(raw, &x.ID)
		case "uri":
			err = decodeTemplate(raw, &x.URI)
		case "label":
			var label string
			if !isNull(raw) {
				err = json.Unmarshal(raw, &label)
			}
			x.Label = &label
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return nil
	})
}

func decodeTemplate(raw json.RawMessage, dst *resolver.Template) error {
	if isNull(raw) {
		*dst = ""
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// NamedXrefTemplate pairs a template with its namespace key.
type NamedXrefTemplate struct {
	Name     string
	Template XrefTemplate
}

// XrefSet is the ordered "xrefs" block: entries keep schema document order.
type XrefSet struct {
	Entries []NamedXrefTemplate
}

// NewXrefSet builds a set from entries, in order.
func NewXrefSet(entries ...NamedXrefTemplate) *XrefSet {
	s := &XrefSet{}
	for _, e := range entries {
		s.set(e.Name, e.Template)
	}
	return s
}

// set keeps the first position of a repeated key and its last value.
func (s *XrefSet) set(name string, tpl XrefTemplate) {
	for i := range s.Entries {
		if s.Entries[i].Name == name {
			s.Entries[i].Template = tpl
			return
		}
	}
	s.Entries = append(s.Entries, NamedXrefTemplate{Name: name, Template: tpl})
}

// UnmarshalJSON implements json.Unmarshaler, preserving member order.
func (s *XrefSet) UnmarshalJSON(data []byte) error {
	s.Entries = nil
	return domain.DecodeOrderedObject(data, func(name string, dec *json.Decoder) error {
		var tpl XrefTemplate
		if err := dec.Decode(&tpl); err != nil {
			return fmt.Errorf("decode xref %s: %w", name, err)
		}
		s.set(name, tpl)
		return nil
	})
}
