package health

import "context"

// SchemaPinger reports whether a usable schema document is loaded.
type SchemaPinger interface {
	Ping(ctx context.Context) error
}
