package schemaupdate

import (
	"context"

	"github.com/precliniverse/wizard/internal/schema"
)

// SchemaSource provides the local schema document.
type SchemaSource interface {
	Current() *schema.Document
}

// Fetcher downloads a remote document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
