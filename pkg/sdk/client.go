package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/config"
	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
	"github.com/precliniverse/wizard/internal/mapping"
	"github.com/precliniverse/wizard/internal/schema"
	"github.com/precliniverse/wizard/internal/upstream"
	schemaupdateuc "github.com/precliniverse/wizard/internal/usecase/schemaupdate"
	searchuc "github.com/precliniverse/wizard/internal/usecase/search"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultCheckTimeout = 5 * time.Second
	defaultUserAgent    = "metadata-wizard-sdk"
)

// Client is the wizard SDK entry point. It is safe for concurrent use.
type Client struct {
	store     *schema.Store
	fileBased bool
	registry  *mapping.Registry
	searchSvc *searchuc.Service
	updateSvc *schemaupdateuc.Service
	obs       *observer
}

// New creates a Client from a schema document (WithSchemaFile or WithSchemaJSON).
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
		remoteURL: config.DefaultRemoteSchemaURL,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	store, fileBased, err := openSchema(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	registry := mapping.DefaultRegistry()
	for name, fn := range cfg.mappers {
		registry.Register(name, adaptMapper(fn))
	}

	client := upstream.NewClient(&upstream.Config{Timeout: cfg.timeout, UserAgent: cfg.userAgent})
	engine := mapping.New(registry, zap.NewNop())

	c := &Client{
		store:     store,
		fileBased: fileBased,
		registry:  registry,
		searchSvc: searchuc.New(store, client, engine),
		updateSvc: schemaupdateuc.New(store, client, cfg.remoteURL, defaultCheckTimeout),
		obs:       obs,
	}
	c.warnUnknownMappers()
	return c, nil
}

func openSchema(cfg *clientConfig) (*schema.Store, bool, error) {
	switch {
	case cfg.schemaJSON != nil:
		doc, err := schema.Parse(cfg.schemaJSON)
		if err != nil {
			return nil, false, fmt.Errorf("wizard: %w", err)
		}
		return schema.NewStoreWithDocument(doc), false, nil
	case cfg.schemaFile != "":
		store := schema.NewStore(cfg.schemaFile, zap.NewNop())
		if err := store.Load(); err != nil {
			return nil, false, fmt.Errorf("wizard: %w", err)
		}
		return store, true, nil
	default:
		return nil, false, errors.New("wizard: schema required (use WithSchemaFile or WithSchemaJSON)")
	}
}

func adaptMapper(fn MapperFunc) mapping.MapperFunc {
	return func(hit any, cfg *mapper.Config) domain.Record {
		return recordToDomain(fn(hit, mapperConfigFromDomain(cfg)))
	}
}

// warnUnknownMappers logs custom mapper blocks naming an unregistered function.
func (c *Client) warnUnknownMappers() {
	if c.obs == nil || c.obs.logger == nil {
		return
	}
	doc := c.store.Current()
	for _, key := range doc.APIKeys() {
		def, _ := doc.API(key)
		if def.Mapper == nil || def.Mapper.Strategy != mapper.Custom {
			continue
		}
		if !c.registry.Has(def.Mapper.FunctionName) {
			c.obs.logger.Warn("custom mapper not registered, generic mapping will be used",
				"api", key, "function_name", def.Mapper.FunctionName, "registered", c.registry.Names())
		}
	}
}

// Search queries the API registered as apiKey and normalizes its hits.
func (c *Client) Search(ctx context.Context, apiKey, q string, opts ...SearchOption) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", apiKey, start, err) }()

	var sc searchConfig
	for _, o := range opts {
		o(&sc)
	}

	r, err := c.searchSvc.Search(ctx, apiKey, q, sc.species)
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return resultFromUC(r), nil
}

// Map normalizes hits fetched elsewhere with the mapper of apiKey.
func (c *Client) Map(ctx context.Context, apiKey string, hits []any) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("map", apiKey, start, err) }()

	r, err := c.searchSvc.Normalize(ctx, apiKey, hits)
	if err != nil {
		return Result{}, fmt.Errorf("map: %w", err)
	}
	return resultFromUC(r), nil
}

// APIs lists the API keys of the schema document, sorted.
func (c *Client) APIs() []string {
	return c.store.Current().APIKeys()
}

// SchemaVersion returns the version of the schema document, or "0.0.0".
func (c *Client) SchemaVersion() string {
	return c.store.Current().Version(schemaupdateuc.UnknownVersion)
}

// Reload re-reads a file-based schema. On failure the previous document stays.
func (c *Client) Reload() (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", "", start, err) }()

	if !c.fileBased {
		return errors.New("wizard: schema was not loaded from a file")
	}
	if err := c.store.Load(); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	c.warnUnknownMappers()
	return nil
}

// CheckUpdate compares the schema version with the one published at the
// URL given by WithRemoteSchemaURL.
func (c *Client) CheckUpdate(ctx context.Context) (UpdateStatus, error) {
	start := time.Now()
	st := updateFromUC(c.updateSvc.Check(ctx))

	var err error
	if st.Error != "" {
		err = errors.New(st.Error)
	}
	c.obs.observe("check_update", "", start, err)
	return st, err
}
