package search

import (
	"context"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
	"github.com/precliniverse/wizard/internal/schema"
)

// SchemaSource provides the schema document in use.
type SchemaSource interface {
	Current() *schema.Document
}

// Fetcher runs an upstream lookup and returns its raw hits.
type Fetcher interface {
	Search(ctx context.Context, apiKey string, def schema.APIDefinition, q, species string) ([]any, error)
}

// Mapper normalizes a raw hit.
type Mapper interface {
	Map(hit any, cfg *mapper.Config) domain.Record
}
