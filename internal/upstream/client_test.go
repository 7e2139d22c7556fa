package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/schema"
)

func newTestClient(timeout time.Duration) *Client {
	return NewClient(&Config{Timeout: timeout, UserAgent: "wizard-test"})
}

func intPtr(v int) *int { return &v }

func TestSearch_GETQueryString(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = io.WriteString(w, `{"response":{"docs":[{"label":"a"},{"label":"b"},{"label":"c"}]}}`)
	}))
	defer srv.Close()

	def := schema.APIDefinition{
		URL:         srv.URL + "/api/search?fixed=1",
		QueryParam:  "q",
		ExtraParams: map[string]any{"ontology": "efo", "rows": json.Number("20"), "exact": true},
		Headers:     map[string]string{"Accept": "application/json"},
		ResultPath:  "response.docs",
		ResultLimit: intPtr(2),
	}

	hits, err := newTestClient(time.Second).Search(context.Background(), "ols_efo", def, "asthma", "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, map[string]any{"label": "a"}, hits[0])

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	query := got.URL.Query()
	assert.Equal(t, "asthma", query.Get("q"))
	assert.Equal(t, "efo", query.Get("ontology"))
	assert.Equal(t, "20", query.Get("rows"))
	assert.Equal(t, "true", query.Get("exact"))
	assert.Equal(t, "1", query.Get("fixed"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "wizard-test", got.Header.Get("User-Agent"))
}

func TestSearch_POSTJSONBody(t *testing.T) {
	var body map[string]any
	var method, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `[{"id":1},{"id":2}]`)
	}))
	defer srv.Close()

	def := schema.APIDefinition{
		URL:         srv.URL,
		Method:      "put",
		QueryParam:  "term",
		ExtraParams: map[string]any{"size": json.Number("5")},
	}

	hits, err := newTestClient(time.Second).Search(context.Background(), "impc", def, "Pax6", "")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]any{"term": "Pax6", "size": float64(5)}, body)
}

func TestSearch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(time.Second).Search(context.Background(), "ror",
		schema.APIDefinition{URL: srv.URL, QueryParam: "query"}, "x", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
	assert.Equal(t, "API returned 503", err.Error())
}

func TestSearch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(50*time.Millisecond).Search(context.Background(), "orcid",
		schema.APIDefinition{URL: srv.URL, QueryParam: "q"}, "x", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestSearch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()

	_, err := newTestClient(time.Second).Search(context.Background(), "orcid",
		schema.APIDefinition{URL: srv.URL, QueryParam: "q"}, "x", "")
	assert.ErrorIs(t, err, domain.ErrUpstreamDecode)
}

func TestSearch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestClient(time.Second).Search(context.Background(), "orcid",
		schema.APIDefinition{URL: addr, QueryParam: "q"}, "x", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUpstreamTimeout))
	assert.False(t, errors.Is(err, domain.ErrUpstreamStatus))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"version":"2.0.0"}`)
	}))
	defer srv.Close()

	c := newTestClient(time.Second)

	body, err := c.Fetch(context.Background(), srv.URL+"/schema.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"2.0.0"}`, string(body))

	_, err = c.Fetch(context.Background(), srv.URL+"/missing")
	var statusErr *domain.UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}
