// Package registry maintains the catalog of analyses the server can run
// against a resident dataset. Handlers look analyses up by name so that the
// HTTP layer stays free of per-analysis wiring.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// Params carries the tunables a caller may override per request. Zero values
// mean "use the configured default".
type Params struct {
	Contamination float64
	Clusters      int
	Periods       int
	WindowDays    int
	Columns       []string
	Advanced      bool
}

// Runner executes one analysis over a dataset. A non-nil *analytics.Error is
// a data-quality outcome and is still serialized with HTTP 200; transport and
// validation failures travel through the error return instead.
type Runner func(ctx context.Context, t *dataset.Table, p Params) (any, *analytics.Error)

// Descriptor describes a registered analysis.
type Descriptor struct {
	Name        string
	Description string
	Kinds       []dataset.Kind
	Run         Runner
}

// Supports reports whether the analysis applies to the given dataset kind.
// An empty Kinds list means the analysis applies to every kind.
func (d Descriptor) Supports(kind dataset.Kind) bool {
	if len(d.Kinds) == 0 {
		return true
	}
	for _, k := range d.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Registry is a concurrency-safe name -> Descriptor catalog.
type Registry struct {
	mu       sync.RWMutex
	analyses map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{analyses: make(map[string]Descriptor)}
}

// Register adds an analysis to the registry. Registering a duplicate or
// incomplete descriptor returns an error.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("registry: analysis name is required")
	}
	if d.Run == nil {
		return fmt.Errorf("registry: analysis %q has no runner", d.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.analyses[d.Name]; exists {
		return fmt.Errorf("registry: analysis already registered: %s", d.Name)
	}
	r.analyses[d.Name] = d
	return nil
}

// MustRegister is Register that panics on error, for static wiring at startup.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.analyses[name]
	return d, ok
}

// List returns all descriptors sorted by name for stable presentation.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.analyses))
	for _, d := range r.analyses {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted analysis names.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, d := range list {
		names[i] = d.Name
	}
	return names
}
