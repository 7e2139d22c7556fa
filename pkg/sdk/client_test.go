package wizard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/genes":
			_, _ = fmt.Fprintf(w, `{"hits":[{"symbol":"Pax6","name":"paired box 6","_id":"18508","MGI":"MGI:97490","taxid":%q}]}`,
				r.URL.Query().Get("species"))
		case "/plain":
			_, _ = io.WriteString(w, `[{"anything":1}]`)
		case "/down":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/schema.json":
			_, _ = io.WriteString(w, `{"version":"2.0.0","meta":{"changelog":"new"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSchema(base string) []byte {
	return []byte(fmt.Sprintf(`{
		"version": "1.0.0",
		"apis": {
			"genes": {
				"url": %[1]q, "query_param": "q", "result_path": "hits",
				"extra_params_from_context": {"species": "organism_taxon_id"},
				"mapper": {
					"strategy": "flat_object",
					"label": "{{symbol}}", "sublabel": "{{name}}",
					"id": "https://identifiers.org/ncbigene:{{_id}}", "scheme": "NCBI Gene",
					"xrefs": {
						"mgi": {"condition": "{{MGI}}", "id": "{{MGI}}", "uri": "https://identifiers.org/{{MGI}}"},
						"taxon": {"id": "{{taxid}}", "uri": "", "label": "Taxon"}
					}
				}
			},
			"mgi": {"url": %[1]q, "query_param": "q", "result_path": "hits",
				"mapper": {"strategy": "custom", "function_name": "normalize_mgi"}},
			"shout": {"url": %[1]q, "query_param": "q", "result_path": "hits",
				"mapper": {"strategy": "custom", "function_name": "shout", "label": "{{symbol}}"}},
			"loud": {"url": %[1]q, "query_param": "q", "result_path": "hits",
				"mapper": {"strategy": "custom", "function_name": "shout", "label": "{{name}}", "scheme": "LOUD"}},
			"plain": {"url": %[2]q, "query_param": "q"},
			"down": {"url": %[3]q, "query_param": "q"}
		}
	}`, base+"/genes", base+"/plain", base+"/down"))
}

func TestNew_RequiresSchema(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without schema")
	}
	if _, err := New(WithSchemaJSON([]byte("nope"))); err == nil {
		t.Fatal("expected error for invalid schema")
	}
	if _, err := New(WithSchemaFile(filepath.Join(t.TempDir(), "missing.json"))); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSearch_MappedWithXrefs(t *testing.T) {
	up := testUpstream(t)
	c, err := New(WithSchemaJSON(testSchema(up.URL)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.Search(context.Background(), "genes", "Pax6", WithSpecies("10090"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || len(res.Records) != 1 {
		t.Fatalf("got %d records (total %d), want 1", len(res.Records), res.Total)
	}

	rec := res.Records[0]
	if rec.Label != "Pax6" || rec.ID != "https://identifiers.org/ncbigene:18508" || rec.Scheme != "NCBI Gene" {
		t.Errorf("unexpected record: %+v", rec)
	}
	want := []Xref{
		{Name: "mgi", ID: "MGI:97490", URI: "https://identifiers.org/MGI:97490", Label: "MGI"},
		{Name: "taxon", ID: "10090", URI: "", Label: "Taxon"},
	}
	if fmt.Sprint(rec.Xrefs) != fmt.Sprint(want) {
		t.Errorf("xrefs = %+v, want %+v", rec.Xrefs, want)
	}
}

func TestSearch_RawAndErrors(t *testing.T) {
	up := testUpstream(t)
	c, err := New(WithSchemaJSON(testSchema(up.URL)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.Search(context.Background(), "plain", "x")
	if err != nil {
		t.Fatalf("Search plain: %v", err)
	}
	if len(res.Raw) != 1 || len(res.Records) != 0 {
		t.Errorf("plain: want one raw hit, got %+v", res)
	}

	_, err = c.Search(context.Background(), "down", "x")
	var statusErr *UpstreamStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("down: want UpstreamStatusError 503, got %v", err)
	}

	if _, err = c.Search(context.Background(), "missing", "x"); !errors.Is(err, ErrAPINotFound) {
		t.Errorf("missing: want ErrAPINotFound, got %v", err)
	}
}

func TestCustomMappers(t *testing.T) {
	up := testUpstream(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	shout := func(hit any, cfg MapperConfig) Record {
		return Record{Label: Resolve(cfg.Label, hit) + "!", Scheme: cfg.SchemeOr("SHOUT")}
	}

	c, err := New(WithSchemaJSON(testSchema(up.URL)), WithMapper("shout", shout), WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if bytes.Contains(logs.Bytes(), []byte("custom mapper not registered")) {
		t.Errorf("unexpected warning: %s", logs.String())
	}

	res, err := c.Search(context.Background(), "shout", "Pax6")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := res.Records[0]; got.Label != "Pax6!" || got.Scheme != "SHOUT" {
		t.Errorf("custom mapper not applied: %+v", got)
	}

	res, err = c.Search(context.Background(), "loud", "Pax6")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := res.Records[0]; got.Label != "paired box 6!" || got.Scheme != "LOUD" {
		t.Errorf("custom mapper did not read its config: %+v", got)
	}

	res, err = c.Search(context.Background(), "mgi", "Pax6")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := res.Records[0].ID; got != "https://identifiers.org/mgi:MGI:97490" {
		t.Errorf("normalize_mgi id = %q", got)
	}
}

func TestNew_WarnsOnUnknownMapper(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	if _, err := New(WithSchemaJSON(testSchema("http://127.0.0.1:1")), WithLogger(logger)); err != nil {
		t.Fatalf("New: %v", err)
	}
	if !bytes.Contains(logs.Bytes(), []byte("function_name=shout")) {
		t.Errorf("expected warning for shout, got %q", logs.String())
	}
}

func TestMap(t *testing.T) {
	c, err := New(WithSchemaJSON(testSchema("http://127.0.0.1:1")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.Map(context.Background(), "mgi", []any{map[string]any{"symbol": "Kit", "MGI": "96677"}})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got := res.Records[0]; got.Label != "Kit" || got.ID != "https://identifiers.org/mgi:MGI:96677" || got.Xrefs != nil {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestSchemaFileAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, testSchema("http://127.0.0.1:1"), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := New(WithSchemaFile(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.SchemaVersion() != "1.0.0" || len(c.APIs()) != 6 {
		t.Fatalf("version %q, apis %v", c.SchemaVersion(), c.APIs())
	}

	if err := os.WriteFile(path, []byte(`{"version":"1.1.0","apis":{}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if c.SchemaVersion() != "1.1.0" || len(c.APIs()) != 0 {
		t.Errorf("after reload: version %q, apis %v", c.SchemaVersion(), c.APIs())
	}

	inMemory, _ := New(WithSchemaJSON([]byte(`{}`)))
	if err := inMemory.Reload(); err == nil {
		t.Error("expected Reload to fail for an in-memory schema")
	}
}

func TestCheckUpdate(t *testing.T) {
	up := testUpstream(t)

	c, err := New(WithSchemaJSON(testSchema(up.URL)), WithRemoteSchemaURL(up.URL+"/schema.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	st, err := c.CheckUpdate(context.Background())
	if err != nil {
		t.Fatalf("CheckUpdate: %v", err)
	}
	if st.UpToDate || st.RemoteVersion != "2.0.0" || st.Changelog != "new" || st.LocalVersion != "1.0.0" {
		t.Errorf("unexpected status: %+v", st)
	}

	c, _ = New(WithSchemaJSON(testSchema(up.URL)), WithRemoteSchemaURL(up.URL+"/gone.json"))
	st, err = c.CheckUpdate(context.Background())
	if err == nil || st.Error != "GitHub responded with 404" {
		t.Errorf("want 404 error, got %+v (%v)", st, err)
	}
}
