package mapping

import (
	"strings"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
	"github.com/precliniverse/wizard/internal/resolver"
)

// MapOBO maps an OLS search document. description is accepted in the hit
// but not part of the record.
func MapOBO(hit any, cfg *mapper.Config) domain.Record {
	return domain.Record{
		Label:    member(hit, "label", "?"),
		Sublabel: member(hit, "obo_id", ""),
		ID:       member(hit, "iri", ""),
		Scheme:   cfg.SchemeOr("OBO"),
	}
}

// NormalizeMGI maps a MyGene hit to an identifiers.org MGI record, accepting
// "MGI:88057", "88057", 88057 or a list holding one of those.
func NormalizeMGI(hit any, _ *mapper.Config) domain.Record {
	raw, _ := memberValue(hit, "MGI")
	if list, ok := raw.([]any); ok {
		raw = nil
		if len(list) > 0 {
			raw = list[0]
		}
	}

	mgiID := resolver.Stringify(raw)
	if mgiID != "" && !strings.HasPrefix(mgiID, "MGI:") {
		mgiID = "MGI:" + mgiID
	}

	id := ""
	if mgiID != "" {
		id = "https://identifiers.org/mgi:" + mgiID
	}

	return domain.Record{
		Label:    member(hit, "symbol", "?"),
		Sublabel: member(hit, "name", ""),
		ID:       id,
		Scheme:   "MGI",
	}
}

// member reads a top-level field as text, or def when hit has no such key.
// A present null reads as "".
func member(hit any, key, def string) string {
	v, ok := memberValue(hit, key)
	if !ok {
		return def
	}
	return resolver.Stringify(v)
}

func memberValue(hit any, key string) (any, bool) {
	obj, ok := hit.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}
