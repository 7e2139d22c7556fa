package mapping

import (
	"strings"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
)

// MapGeneric resolves the label, sublabel and id templates against hit. The
// scheme is copied as is; xrefs are attached only when configured.
func MapGeneric(hit any, cfg *mapper.Config) domain.Record {
	rec := domain.Record{
		Label:    cfg.Label.Resolve(hit),
		Sublabel: cfg.Sublabel.Resolve(hit),
		ID:       cfg.ID.Resolve(hit),
		Scheme:   cfg.SchemeOr(""),
	}
	if cfg.Xrefs != nil {
		rec.Xrefs = ResolveXrefs(hit, cfg.Xrefs)
	}
	return rec
}

// ResolveXrefs resolves cross references in configuration order. An entry
// whose condition resolves empty, or whose id resolves empty, is left out.
func ResolveXrefs(hit any, set *mapper.XrefSet) *domain.Xrefs {
	out := domain.NewXrefs()
	if set == nil {
		return out
	}

	for _, e := range set.Entries {
		tpl := e.Template
		if tpl.Condition != nil && tpl.Condition.Resolve(hit) == "" {
			continue
		}

		id := tpl.ID.Resolve(hit)
		if id == "" {
			continue
		}

		label := strings.ToUpper(e.Name)
		if tpl.Label != nil {
			label = *tpl.Label
		}

		out.Set(e.Name, domain.Xref{
			ID:    id,
			URI:   tpl.URI.Resolve(hit),
			Label: label,
		})
	}
	return out
}
