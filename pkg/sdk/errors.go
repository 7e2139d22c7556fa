package wizard

import "github.com/precliniverse/wizard/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrAPINotFound     = domain.ErrAPINotFound
	ErrUpstreamTimeout = domain.ErrUpstreamTimeout
	ErrUpstreamStatus  = domain.ErrUpstreamStatus
	ErrUpstreamDecode  = domain.ErrUpstreamDecode
)

// UpstreamStatusError carries the status code of a failed upstream call.
// Use errors.As() to read it.
type UpstreamStatusError = domain.UpstreamStatusError
