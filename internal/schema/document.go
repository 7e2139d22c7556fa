// Package schema loads the declarative schema document that describes every
// lookup API and its mapper.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/precliniverse/wizard/internal/domain/mapper"
	"github.com/precliniverse/wizard/internal/resolver"
)

// DefaultResultLimit caps hits per search when an API sets no result_limit.
const DefaultResultLimit = 10

// APIDefinition describes one upstream lookup API.
type APIDefinition struct {
	URL        string `json:"url"`
	Method     string `json:"method"`
	QueryParam string `json:"query_param"`
	// ExtraParams are sent with every request; values may be any JSON scalar.
	ExtraParams map[string]any `json:"extra_params"`
	// ExtraParamsFromContext maps a request parameter name to a context key
	// such as "organism_taxon_id".
	ExtraParamsFromContext map[string]string `json:"extra_params_from_context"`
	Headers                map[string]string `json:"headers"`
	ResultPath             string            `json:"result_path"`
	ResultLimit            *int              `json:"result_limit"`
	Mapper                 *mapper.Config    `json:"mapper"`
}

// Limit returns the configured result limit or DefaultResultLimit.
func (d APIDefinition) Limit() int {
	if d.ResultLimit == nil {
		return DefaultResultLimit
	}
	return *d.ResultLimit
}

// Document is a parsed schema document.
type Document struct {
	raw       map[string]any
	source    []byte
	version   string
	changelog string
	apis      map[string]APIDefinition
	invalid   map[string]string
}

// Empty returns a document with no APIs, used when nothing could be loaded.
func Empty() *Document {
	return &Document{
		raw:     map[string]any{},
		source:  []byte("{}"),
		apis:    map[string]APIDefinition{},
		invalid: map[string]string{},
	}
}

// Parse decodes a schema document. An API definition that does not decode is
// left out and reported by Invalid; only malformed JSON fails the whole parse.
func Parse(data []byte) (*Document, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	var envelope struct {
		Version any `json:"version"`
		Meta    struct {
			Changelog any `json:"changelog"`
		} `json:"meta"`
		APIs map[string]json.RawMessage `json:"apis"`
	}
	// Shape errors in version/meta/apis leave those parts empty.
	_ = decodeInto(data, &envelope)

	doc := Empty()
	doc.raw = raw
	doc.source = bytes.Clone(data)
	doc.version = resolver.Stringify(envelope.Version)
	doc.changelog = resolver.Stringify(envelope.Meta.Changelog)

	for key, msg := range envelope.APIs {
		var def APIDefinition
		if err := decodeInto(msg, &def); err != nil {
			doc.invalid[key] = err.Error()
			continue
		}
		doc.apis[key] = def
	}

	return doc, nil
}

// Raw returns the full document as decoded JSON.
func (d *Document) Raw() map[string]any {
	return d.raw
}

// JSON returns the document as it was read, member order included.
func (d *Document) JSON() []byte {
	return d.source
}

// Version returns the document version, or def when it has none.
func (d *Document) Version(def string) string {
	if d.version == "" {
		return def
	}
	return d.version
}

// Changelog returns meta.changelog.
func (d *Document) Changelog() string {
	return d.changelog
}

// API returns the definition registered under key.
func (d *Document) API(key string) (APIDefinition, bool) {
	def, ok := d.apis[key]
	return def, ok
}

// APIKeys returns the keys of all usable API definitions, sorted.
func (d *Document) APIKeys() []string {
	keys := make([]string, 0, len(d.apis))
	for k := range d.apis {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Invalid returns API keys whose definitions failed to decode, with the reason.
func (d *Document) Invalid() map[string]string {
	return d.invalid
}

func decodeObject(data []byte) (map[string]any, error) {
	var v map[string]any
	if err := decodeInto(data, &v); err != nil {
		return nil, err
	}
	if v == nil {
		v = map[string]any{}
	}
	return v, nil
}

func decodeInto(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
