package upstream

import (
	"strings"

	"github.com/precliniverse/wizard/internal/resolver"
	"github.com/precliniverse/wizard/internal/schema"
)

// speciesContextKeys are the context keys filled from the species parameter.
var speciesContextKeys = map[string]struct{}{
	"organism_taxon_id": {},
	"organism.taxon_id": {},
}

// BuildParams assembles request parameters: the search term under
// def.QueryParam, then extra_params, then species for context-bound params.
func BuildParams(def schema.APIDefinition, q, species string) map[string]any {
	params := make(map[string]any, 1+len(def.ExtraParams)+len(def.ExtraParamsFromContext))
	params[def.QueryParam] = q
	for k, v := range def.ExtraParams {
		params[k] = v
	}

	if species != "" {
		for name, ctxKey := range def.ExtraParamsFromContext {
			if _, ok := speciesContextKeys[ctxKey]; ok {
				params[name] = species
			}
		}
	}
	return params
}

// ExtractHits walks resultPath through data and returns the list found there,
// truncated to limit. Anything that is not a list yields no hits.
func ExtractHits(data any, resultPath string, limit int) []any {
	hits := data
	for _, key := range strings.Split(resultPath, ".") {
		if key == "" {
			continue
		}
		obj, ok := hits.(map[string]any)
		if !ok {
			hits = []any{}
			continue
		}
		v, present := obj[key]
		if !present {
			v = []any{}
		}
		hits = v
	}

	list, ok := hits.([]any)
	if !ok {
		return []any{}
	}

	// Negative limits count from the end, like a slice bound.
	if limit < 0 {
		limit += len(list)
		if limit < 0 {
			limit = 0
		}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

func paramString(v any) string {
	return resolver.Stringify(v)
}
