package wizard

import (
	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
	"github.com/precliniverse/wizard/internal/resolver"
	schemaupdateuc "github.com/precliniverse/wizard/internal/usecase/schemaupdate"
	searchuc "github.com/precliniverse/wizard/internal/usecase/search"
)

// Record is a normalized search hit.
type Record struct {
	Label    string
	Sublabel string
	ID       string
	Scheme   string
	// Xrefs keeps the order of the schema; nil when the API configures none.
	Xrefs []Xref
}

// Xref is a cross reference of a Record.
type Xref struct {
	Name  string
	ID    string
	URI   string
	Label string
}

// Result holds the outcome of a search. APIs without a mapper fill Raw
// instead of Records.
type Result struct {
	Records []Record
	Raw     []any
	Total   int
}

// MapperConfig is the mapper block of an API, as seen by a custom mapper.
// Templates are unresolved; use Resolve to evaluate them against a hit.
type MapperConfig struct {
	Strategy     string
	FunctionName string
	Label        string
	Sublabel     string
	ID           string
	Scheme       string
	// HasScheme is false when the block has no scheme key.
	HasScheme bool
	Xrefs     []XrefTemplate
}

// SchemeOr returns the configured scheme, or def when none is set.
func (c MapperConfig) SchemeOr(def string) string {
	if !c.HasScheme {
		return def
	}
	return c.Scheme
}

// XrefTemplate is one configured cross reference, unresolved.
type XrefTemplate struct {
	Name         string
	Condition    string
	HasCondition bool
	ID           string
	URI          string
	Label        string
	HasLabel     bool
}

// Resolve evaluates a {{...}} template against a decoded JSON hit.
func Resolve(template string, hit any) string {
	return resolver.Resolve(template, hit)
}

// UpdateStatus compares the local schema with the published one.
type UpdateStatus struct {
	UpToDate      bool
	LocalVersion  string
	RemoteVersion string
	Changelog     string
	// Error is set when the published schema could not be read.
	Error string
}

func resultFromUC(r searchuc.Result) Result {
	out := Result{Total: r.Total}
	for _, item := range r.Results {
		rec, ok := item.(domain.Record)
		if !ok {
			out.Raw = append(out.Raw, item)
			continue
		}
		out.Records = append(out.Records, recordFromDomain(rec))
	}
	return out
}

func recordFromDomain(r domain.Record) Record {
	rec := Record{Label: r.Label, Sublabel: r.Sublabel, ID: r.ID, Scheme: r.Scheme}
	if r.Xrefs != nil {
		rec.Xrefs = make([]Xref, 0, r.Xrefs.Len())
		for _, e := range r.Xrefs.Entries() {
			rec.Xrefs = append(rec.Xrefs, Xref{Name: e.Name, ID: e.Xref.ID, URI: e.Xref.URI, Label: e.Xref.Label})
		}
	}
	return rec
}

func recordToDomain(r Record) domain.Record {
	rec := domain.Record{Label: r.Label, Sublabel: r.Sublabel, ID: r.ID, Scheme: r.Scheme}
	if r.Xrefs != nil {
		rec.Xrefs = domain.NewXrefs()
		for _, x := range r.Xrefs {
			rec.Xrefs.Set(x.Name, domain.Xref{ID: x.ID, URI: x.URI, Label: x.Label})
		}
	}
	return rec
}

func updateFromUC(r schemaupdateuc.Report) UpdateStatus {
	st := UpdateStatus{
		LocalVersion:  r.LocalVersion,
		RemoteVersion: r.RemoteVersion,
		Error:         r.Error,
	}
	if r.UpToDate != nil {
		st.UpToDate = *r.UpToDate
	}
	if r.Changelog != nil {
		st.Changelog = *r.Changelog
	}
	return st
}

func mapperConfigFromDomain(cfg *mapper.Config) MapperConfig {
	if cfg == nil {
		return MapperConfig{}
	}
	out := MapperConfig{
		Strategy:     string(cfg.Strategy),
		FunctionName: cfg.FunctionName,
		Label:        string(cfg.Label),
		Sublabel:     string(cfg.Sublabel),
		ID:           string(cfg.ID),
		Scheme:       cfg.SchemeOr(""),
		HasScheme:    cfg.Scheme != nil,
	}
	if cfg.Xrefs != nil {
		out.Xrefs = make([]XrefTemplate, 0, len(cfg.Xrefs.Entries))
		for _, e := range cfg.Xrefs.Entries {
			x := XrefTemplate{Name: e.Name, ID: string(e.Template.ID), URI: string(e.Template.URI)}
			if e.Template.Condition != nil {
				x.Condition, x.HasCondition = string(*e.Template.Condition), true
			}
			if e.Template.Label != nil {
				x.Label, x.HasLabel = *e.Template.Label, true
			}
			out.Xrefs = append(out.Xrefs, x)
		}
	}
	return out
}
