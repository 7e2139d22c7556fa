package mapping

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func config(t *testing.T, raw string) *mapper.Config {
	t.Helper()
	var cfg mapper.Config
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	return &cfg
}

func strPtr(s string) *string { return &s }

func TestMapHit_OBOOntology(t *testing.T) {
	e := New(nil, zap.NewNop())
	hit := decode(t, `{
		"label": "Mus musculus",
		"obo_id": "NCBITaxon:10090",
		"iri": "http://purl.obolibrary.org/obo/NCBITaxon_10090",
		"description": ["House mouse"]
	}`)

	rec := e.MapHit(mapper.OBOOntology, hit, &mapper.Config{Scheme: strPtr("NCBITaxon")})

	assert.Equal(t, domain.Record{
		Label:    "Mus musculus",
		Sublabel: "NCBITaxon:10090",
		ID:       "http://purl.obolibrary.org/obo/NCBITaxon_10090",
		Scheme:   "NCBITaxon",
	}, rec)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "description")
}

func TestMapHit_OBOOntologyMissingFields(t *testing.T) {
	e := New(nil, zap.NewNop())

	rec := e.MapHit(mapper.OBOOntology, map[string]any{}, &mapper.Config{Scheme: strPtr("EFO")})
	assert.Equal(t, domain.Record{Label: "?", Sublabel: "", ID: "", Scheme: "EFO"}, rec)

	rec = e.MapHit(mapper.OBOOntology, map[string]any{}, &mapper.Config{})
	assert.Equal(t, "OBO", rec.Scheme)

	rec = e.MapHit(mapper.OBOOntology, "not an object", nil)
	assert.Equal(t, domain.Record{Label: "?", Scheme: "OBO"}, rec)
}

func TestMapHit_FlatObject(t *testing.T) {
	e := New(nil, zap.NewNop())
	hit := decode(t, `{"symbol": "Apoe", "name": "apolipoprotein E", "_id": "11287"}`)
	cfg := config(t, `{
		"strategy": "flat_object",
		"label": "{{symbol}}",
		"sublabel": "{{name}}",
		"id": "https://identifiers.org/ncbigene:{{_id}}",
		"scheme": "GeneID"
	}`)

	rec := e.Map(hit, cfg)
	assert.Equal(t, domain.Record{
		Label:    "Apoe",
		Sublabel: "apolipoprotein E",
		ID:       "https://identifiers.org/ncbigene:11287",
		Scheme:   "GeneID",
	}, rec)
	assert.Nil(t, rec.Xrefs)
}

func TestMapHit_NestedObject(t *testing.T) {
	e := New(nil, zap.NewNop())
	hit := decode(t, `{
		"given-names": "Marie",
		"family-names": "Curie",
		"institution-name": ["Institut Pasteur"],
		"orcid-id": "0000-0001-2345-6789"
	}`)
	cfg := config(t, `{
		"strategy": "nested_object",
		"label": "{{given-names}} {{family-names}}",
		"sublabel": "{{institution-name.[0]}}",
		"id": "https://orcid.org/{{orcid-id}}",
		"scheme": "ORCID"
	}`)

	rec := e.Map(hit, cfg)
	assert.Equal(t, "Marie Curie", rec.Label)
	assert.Equal(t, "Institut Pasteur", rec.Sublabel)
	assert.Equal(t, "https://orcid.org/0000-0001-2345-6789", rec.ID)
	assert.Equal(t, "ORCID", rec.Scheme)
}

func TestMapHit_ArrayFind(t *testing.T) {
	e := New(nil, zap.NewNop())
	hit := decode(t, `{
		"names": [
			{"types": ["label"], "value": "ROR Label"},
			{"types": ["ror_display"], "value": "ROR Display"}
		],
		"addresses": [{"city": "Paris"}],
		"country": {"country_name": "France"},
		"id": "https://ror.org/abc123"
	}`)
	cfg := config(t, `{
		"strategy": "array_find",
		"label": "{{names.[?types=ror_display].value || names.[?types=label].value}}",
		"sublabel": "{{addresses.[0].city}}, {{country.country_name}}",
		"id": "{{id}}",
		"scheme": "ROR"
	}`)

	rec := e.Map(hit, cfg)
	assert.Equal(t, "ROR Display", rec.Label)
	assert.Equal(t, "Paris, France", rec.Sublabel)
	assert.Equal(t, "https://ror.org/abc123", rec.ID)
	assert.Equal(t, "ROR", rec.Scheme)
}

func TestMapHit_TemplateStrategiesAreIdentical(t *testing.T) {
	e := New(DefaultRegistry(), zap.NewNop())
	hits := []string{
		`{"symbol": "Apoe", "_id": 11287, "MGI": "88057", "names": [{"types": "a", "value": "v"}]}`,
		`{}`,
		`[]`,
		`"scalar"`,
	}
	cfg := config(t, `{
		"label": "{{symbol || names.[?types=a].value}}",
		"sublabel": "{{names.[0].value}}",
		"id": "x:{{_id}}",
		"scheme": "S",
		"xrefs": {"mgi": {"condition": "{{MGI}}", "id": "{{MGI}}", "uri": "u:{{MGI}}"}}
	}`)

	for _, raw := range hits {
		hit := decode(t, raw)
		flat := e.MapHit(mapper.FlatObject, hit, cfg)
		assert.Equal(t, flat, e.MapHit(mapper.NestedObject, hit, cfg), raw)
		assert.Equal(t, flat, e.MapHit(mapper.ArrayFind, hit, cfg), raw)
		assert.Equal(t, flat, e.MapHit("no_such_strategy", hit, cfg), raw)
		assert.Equal(t, flat, e.MapHit("", hit, cfg), raw)
	}
}

func TestMapHit_SchemeIsNotTemplated(t *testing.T) {
	e := New(nil, zap.NewNop())
	rec := e.MapHit(mapper.FlatObject, map[string]any{"s": "x"}, &mapper.Config{Scheme: strPtr("{{s}}")})
	assert.Equal(t, "{{s}}", rec.Scheme)

	rec = e.MapHit(mapper.FlatObject, map[string]any{}, &mapper.Config{})
	assert.Equal(t, "", rec.Scheme)
}

func TestMapHit_CustomRegistered(t *testing.T) {
	reg := NewRegistry()
	reg.Register("upper", func(hit any, cfg *mapper.Config) domain.Record {
		return domain.Record{Label: "custom", Scheme: cfg.SchemeOr("C")}
	})
	e := New(reg, zap.NewNop())

	rec := e.MapHit(mapper.Custom, map[string]any{}, &mapper.Config{FunctionName: "upper"})
	assert.Equal(t, domain.Record{Label: "custom", Scheme: "C"}, rec)
}

func TestMapHit_CustomUnknownFallsBackWithWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := New(DefaultRegistry(), zap.New(core))
	cfg := &mapper.Config{FunctionName: "does_not_exist", Label: "{{symbol}}", Scheme: strPtr("X")}

	rec := e.MapHit(mapper.Custom, map[string]any{"symbol": "Apoe"}, cfg)

	assert.Equal(t, domain.Record{Label: "Apoe", Scheme: "X"}, rec)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "does_not_exist", entry.ContextMap()["function_name"])
}

func TestMapHit_CustomMissingNameFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := New(nil, zap.New(core))

	rec := e.MapHit(mapper.Custom, map[string]any{}, nil)
	assert.Equal(t, domain.Record{}, rec)
	assert.Equal(t, 1, logs.Len())
}

func TestMapHit_CustomPanicFallsBack(t *testing.T) {
	reg := NewRegistry()
	reg.Register("boom", func(any, *mapper.Config) domain.Record { panic("boom") })
	core, logs := observer.New(zapcore.ErrorLevel)
	e := New(reg, zap.New(core))

	rec := e.MapHit(mapper.Custom, map[string]any{"a": "x"}, &mapper.Config{FunctionName: "boom", Label: "{{a}}"})
	assert.Equal(t, "x", rec.Label)
	assert.Equal(t, 1, logs.Len())
}

func TestMapHit_CustomNormalizeMGI(t *testing.T) {
	e := New(DefaultRegistry(), zap.NewNop())
	hit := decode(t, `{"symbol": "Apoe", "name": "apolipoprotein E", "MGI": "88057"}`)

	rec := e.MapHit(mapper.Custom, hit, &mapper.Config{FunctionName: "normalize_mgi"})
	assert.Equal(t, domain.Record{
		Label:    "Apoe",
		Sublabel: "apolipoprotein E",
		ID:       "https://identifiers.org/mgi:MGI:88057",
		Scheme:   "MGI",
	}, rec)
}
