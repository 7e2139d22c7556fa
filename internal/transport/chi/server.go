// Package chi serves the wizard HTTP API on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/logger"
	"github.com/precliniverse/wizard/internal/schema"
	healthuc "github.com/precliniverse/wizard/internal/usecase/health"
	schemaupdateuc "github.com/precliniverse/wizard/internal/usecase/schemaupdate"
	searchuc "github.com/precliniverse/wizard/internal/usecase/search"
)

var errEmptyQuery = errors.New("must contain at least 1 character")

// SchemaSource provides the schema document in use.
type SchemaSource interface {
	Current() *schema.Document
}

// Server implements ServerInterface.
type Server struct {
	schema    SchemaSource
	search    *searchuc.Service
	updates   *schemaupdateuc.Service
	health    *healthuc.Service
	indexPath string
	logger    *zap.Logger
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. indexPath is the frontend page served at /.
func NewServer(
	source SchemaSource,
	search *searchuc.Service,
	updates *schemaupdateuc.Service,
	health *healthuc.Service,
	indexPath string,
	logger *zap.Logger,
) *Server {
	return &Server{
		schema:    source,
		search:    search,
		updates:   updates,
		health:    health,
		indexPath: indexPath,
		logger:    logger,
	}
}

// GetIndex handles GET /.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	page, err := os.ReadFile(s.indexPath)
	if err != nil {
		s.logger.Error("Frontend page unavailable", zap.String("path", s.indexPath), zap.Error(err))
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "index.html not found"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// GetSchema handles GET /api/schema.
func (s *Server) GetSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.schema.Current().JSON())
}

// CheckSchemaUpdate handles GET /api/schema/check-update.
func (s *Server) CheckSchemaUpdate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.updates.Check(r.Context()))
}

// SearchAPI handles GET /api/search/{api_key}.
func (s *Server) SearchAPI(w http.ResponseWriter, r *http.Request, apiKey string, params SearchParams) {
	species := ""
	if params.Species != nil {
		species = *params.Species
	}

	res, err := s.search.Search(r.Context(), apiKey, params.Q, species)
	if err != nil {
		s.handleSearchError(w, r, apiKey, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchFailure is the body of a failed search. Upstream failures keep a 200
// status so the form can show the message next to the field.
type searchFailure struct {
	Results []any  `json:"results"`
	Error   string `json:"error"`
}

func (s *Server) handleSearchError(w http.ResponseWriter, r *http.Request, apiKey string, err error) {
	log := logger.FromContextOr(r.Context(), s.logger).With(zap.String("api", apiKey))

	if errors.Is(err, domain.ErrAPINotFound) {
		writeJSON(w, http.StatusNotFound, searchFailure{
			Results: []any{},
			Error:   fmt.Sprintf("API '%s' not found in schema", apiKey),
		})
		return
	}

	writeJSON(w, http.StatusOK, searchFailure{Results: []any{}, Error: upstreamMessage(err)})

	var statusErr *domain.UpstreamStatusError
	switch {
	case errors.As(err, &statusErr):
		log.Warn("Upstream returned an error status", zap.Int("status", statusErr.StatusCode))
	case errors.Is(err, domain.ErrUpstreamTimeout):
		log.Error("Upstream timeout")
	default:
		log.Error("Upstream search failed", zap.Error(err))
	}
}

// upstreamMessage renders err for the client.
func upstreamMessage(err error) string {
	var statusErr *domain.UpstreamStatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "Request timeout"
	default:
		return err.Error()
	}
}

// ParamErrorHandler answers binding failures with 422.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, searchFailure{Results: []any{}, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
