package mapping

import (
	"sort"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/domain/mapper"
)

// MapperFunc is a named custom mapper, selected with strategy "custom" and
// the mapper's function_name.
type MapperFunc func(hit any, cfg *mapper.Config) domain.Record

// Registry maps custom mapper names to their functions.
// It is filled once at startup and only read afterwards.
type Registry struct {
	funcs map[string]MapperFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]MapperFunc)}
}

// DefaultRegistry returns a registry holding the built-in custom mappers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("normalize_mgi", NormalizeMGI)
	return r
}

// Register adds fn under name, replacing any previous function.
func (r *Registry) Register(name string, fn MapperFunc) {
	r.funcs[name] = fn
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (MapperFunc, bool) {
	if r == nil || name == "" {
		return nil, false
	}
	fn, ok := r.funcs[name]
	return fn, ok && fn != nil
}

// Has returns true if a mapper with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns registered mapper names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
