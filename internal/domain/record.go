package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is the normalized shape every mapping strategy produces.
type Record struct {
	Label    string `json:"label"`
	Sublabel string `json:"sublabel"`
	ID       string `json:"id"`
	Scheme   string `json:"scheme"`
	// Xrefs is nil when the mapper configures no cross references.
	Xrefs *Xrefs `json:"xrefs,omitempty"`
}

// Xref is one resolved cross reference.
type Xref struct {
	ID    string `json:"id"`
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// NamedXref pairs a cross reference with its namespace.
type NamedXref struct {
	Name string
	Xref Xref
}

// Xrefs is an insertion-ordered set of cross references keyed by namespace.
// It encodes as a JSON object whose members keep that order.
type Xrefs struct {
	entries []NamedXref
}

// NewXrefs creates an empty set.
func NewXrefs() *Xrefs {
	return &Xrefs{}
}

// Set adds or replaces the cross reference for name, keeping its first position.
func (x *Xrefs) Set(name string, ref Xref) {
	for i := range x.entries {
		if x.entries[i].Name == name {
			x.entries[i].Xref = ref
			return
		}
	}
	x.entries = append(x.entries, NamedXref{Name: name, Xref: ref})
}

// Get returns the cross reference for name.
func (x *Xrefs) Get(name string) (Xref, bool) {
	if x == nil {
		return Xref{}, false
	}
	for _, e := range x.entries {
		if e.Name == name {
			return e.Xref, true
		}
	}
	return Xref{}, false
}

// Len returns the number of cross references.
func (x *Xrefs) Len() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

// Entries returns the cross references in order.
func (x *Xrefs) Entries() []NamedXref {
	if x == nil {
		return nil
	}
	out := make([]NamedXref, len(x.entries))
	copy(out, x.entries)
	return out
}

// MarshalJSON implements json.Marshaler.
func (x *Xrefs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if x != nil {
		for i, e := range x.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(e.Name)
			if err != nil {
				return nil, fmt.Errorf("marshal xref name: %w", err)
			}
			val, err := json.Marshal(e.Xref)
			if err != nil {
				return nil, fmt.Errorf("marshal xref %s: %w", e.Name, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving member order.
func (x *Xrefs) UnmarshalJSON(data []byte) error {
	x.entries = nil
	return DecodeOrderedObject(data, func(name string, dec *json.Decoder) error {
		var ref Xref
		if err := dec.Decode(&ref); err != nil {
			return fmt.Errorf("decode xref %s: %w", name, err)
		}
		x.Set(name, ref)
		return nil
	})
}

// DecodeOrderedObject walks the members of a JSON object in document order,
// calling member once per key with the decoder positioned at its value.
func DecodeOrderedObject(data []byte, member func(name string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read object start: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("expected JSON object")
	}

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("read object key: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return errors.New("expected string object key")
		}
		if err := member(name, dec); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read object end: %w", err)
	}
	return nil
}
