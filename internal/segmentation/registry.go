package segmentation

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// BuilderFunc builds a processor from loosely typed options, as read from
// configuration.
type BuilderFunc func(cfg map[string]any) (driven.ClauseProcessor, error)

// Registry resolves processor names to builders so pipelines can be
// assembled by name.
type Registry struct {
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// Register binds name to builder, replacing any earlier binding. The name
// should equal the built processor's Name().
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build constructs the named processor.
func (r *Registry) Build(name string, cfg map[string]any) (driven.ClauseProcessor, error) {
	if b, ok := r.builders[name]; ok {
		return b(cfg)
	}
	return nil, fmt.Errorf("segmentation: no processor named %q", name)
}

func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names lists registered processors alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for n := range r.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
