// Package search looks up a term on a configured API and normalizes the hits.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
	"github.com/precliniverse/wizard/internal/logger"
	"github.com/precliniverse/wizard/internal/metrics"
	"github.com/precliniverse/wizard/internal/schema"
)

// Result is the outcome of one search. Results holds domain.Record values, or
// the raw hits when the API has no mapper.
type Result struct {
	Results []any `json:"results"`
	Total   int   `json:"total"`
}

// Service handles lookups across the APIs of the schema document.
type Service struct {
	schema  SchemaSource
	fetcher Fetcher
	mapper  Mapper
}

// New creates a search service.
func New(source SchemaSource, fetcher Fetcher, mapper Mapper) *Service {
	return &Service{schema: source, fetcher: fetcher, mapper: mapper}
}

// Search queries apiKey for q. species, when not empty, feeds parameters bound
// to the organism context.
func (s *Service) Search(ctx context.Context, apiKey, q, species string) (Result, error) {
	def, err := s.api(apiKey)
	if err != nil {
		return Result{}, err
	}

	hits, err := s.fetcher.Search(ctx, apiKey, def, q, species)
	if err != nil {
		return Result{}, fmt.Errorf("search %s: %w", apiKey, err)
	}

	return s.normalize(ctx, apiKey, def, hits), nil
}

// Normalize maps hits already fetched from apiKey, as Search would.
func (s *Service) Normalize(ctx context.Context, apiKey string, hits []any) (Result, error) {
	def, err := s.api(apiKey)
	if err != nil {
		return Result{}, err
	}
	return s.normalize(ctx, apiKey, def, hits), nil
}

func (s *Service) api(apiKey string) (schema.APIDefinition, error) {
	def, ok := s.schema.Current().API(apiKey)
	if !ok {
		return schema.APIDefinition{}, fmt.Errorf("%w: %s", domain.ErrAPINotFound, apiKey)
	}
	return def, nil
}

func (s *Service) normalize(ctx context.Context, apiKey string, def schema.APIDefinition, hits []any) Result {
	if def.Mapper.IsEmpty() {
		logger.FromContext(ctx).Warn("No mapper configured, returning raw hits", zap.String("api", apiKey))
		return Result{Results: hits, Total: len(hits)}
	}
	return s.MapHits(hits, def.Mapper)
}

// MapHits normalizes hits with cfg.
func (s *Service) MapHits(hits []any, cfg *mapper.Config) Result {
	results := make([]any, 0, len(hits))
	for _, hit := range hits {
		results = append(results, s.mapper.Map(hit, cfg))
	}
	metrics.MappedRecordsTotal.WithLabelValues(strategyLabel(cfg.Strategy)).Add(float64(len(results)))
	return Result{Results: results, Total: len(results)}
}

func strategyLabel(s mapper.Strategy) string {
	if s.IsValid() {
		return string(s)
	}
	return "generic"
}
