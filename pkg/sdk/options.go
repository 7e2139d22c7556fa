package wizard

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// MapperFunc is a custom mapper: it turns one raw hit into a Record, given
// the mapper block that selected it.
type MapperFunc func(hit any, cfg MapperConfig) Record

type clientConfig struct {
	schemaFile string
	schemaJSON []byte

	timeout   time.Duration
	userAgent string
	remoteURL string

	mappers map[string]MapperFunc

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSchemaFile loads the schema document from path.
func WithSchemaFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.schemaFile = path
	})
}

// WithSchemaJSON uses an in-memory schema document. It takes precedence
// over WithSchemaFile.
func WithSchemaJSON(doc []byte) Option {
	return optionFunc(func(c *clientConfig) {
		c.schemaJSON = doc
	})
}

// WithTimeout bounds each upstream call. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithUserAgent sets the User-Agent sent to upstream APIs.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithRemoteSchemaURL sets where CheckUpdate reads the published schema.
func WithRemoteSchemaURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.remoteURL = url
	})
}

// WithMapper registers a custom mapper under name, the "function_name" of
// a custom mapper block. It replaces a built-in mapper of the same name.
func WithMapper(name string, fn MapperFunc) Option {
	return optionFunc(func(c *clientConfig) {
		if c.mappers == nil {
			c.mappers = make(map[string]MapperFunc)
		}
		c.mappers[name] = fn
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// SearchOption configures one Search call.
type SearchOption func(*searchConfig)

type searchConfig struct {
	species string
}

// WithSpecies passes an NCBI taxon id to parameters bound to the organism.
func WithSpecies(taxonID string) SearchOption {
	return func(s *searchConfig) {
		s.species = taxonID
	}
}
