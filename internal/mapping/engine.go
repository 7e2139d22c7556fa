// Package mapping turns raw upstream hits into normalized records following
// the mapper block of each API definition.
package mapping

import (
	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
)

// Engine dispatches hits to mapping strategies. It is safe for concurrent use
// as long as its registry is no longer written to.
type Engine struct {
	registry *Registry
	logger   *zap.Logger
}

// New creates an Engine. registry may be nil (no custom mappers).
func New(registry *Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, logger: logger}
}

// Map maps hit with the strategy named in cfg.
func (e *Engine) Map(hit any, cfg *mapper.Config) domain.Record {
	if cfg == nil {
		return e.MapHit(mapper.FlatObject, hit, cfg)
	}
	return e.MapHit(cfg.Strategy, hit, cfg)
}

// MapHit maps hit with the given strategy. Unknown strategies behave like
// flat_object; the result always carries label, sublabel, id and scheme.
func (e *Engine) MapHit(strategy mapper.Strategy, hit any, cfg *mapper.Config) domain.Record {
	if cfg == nil {
		cfg = &mapper.Config{}
	}

	switch strategy {
	case mapper.OBOOntology:
		return MapOBO(hit, cfg)
	case mapper.Custom:
		return e.mapCustom(hit, cfg)
	default:
		// flat_object, nested_object and array_find differ only in the hit shape
		// they document; all of them, and unknown names, use templates.
		return MapGeneric(hit, cfg)
	}
}

// mapCustom runs the registered function_name, or falls back to templates.
func (e *Engine) mapCustom(hit any, cfg *mapper.Config) (rec domain.Record) {
	fn, ok := e.registry.Lookup(cfg.FunctionName)
	if !ok {
		e.logger.Warn("Custom mapper not found, using generic",
			zap.String("function_name", cfg.FunctionName),
		)
		return MapGeneric(hit, cfg)
	}

	defer func() {
		if rvr := recover(); rvr != nil {
			e.logger.Error("Custom mapper panicked, using generic",
				zap.String("function_name", cfg.FunctionName),
				zap.Any("panic", rvr),
			)
			rec = MapGeneric(hit, cfg)
		}
	}()
	return fn(hit, cfg)
}
