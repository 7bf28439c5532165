// Package export writes a course graph in the formats selected with -export.
package export

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/graph"
)

// Exporter writes g somewhere. File formats write to w; sinks such as a
// database write a one-line summary to w instead.
type Exporter interface {
	// Type returns the name the exporter is selected by.
	Type() string
	Export(ctx context.Context, g *graph.Graph, w io.Writer) error
}

// Registry maps export type names to exporters.
type Registry struct {
	mu        sync.RWMutex
	exporters map[string]Exporter
}

// NewRegistry returns a registry holding the built-in file exporters.
func NewRegistry() *Registry {
	r := &Registry{exporters: make(map[string]Exporter)}
	r.Register(DOT{})
	r.Register(JSON{})
	return r
}

// Register adds an exporter. Panics on duplicate type.
func (r *Registry) Register(e Exporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.exporters[e.Type()]; exists {
		panic(fmt.Sprintf("export registry: duplicate type %q", e.Type()))
	}
	r.exporters[e.Type()] = e
}

// Get returns the exporter for typ.
func (r *Registry) Get(typ string) (Exporter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exporters[typ]
	if !ok {
		return nil, fmt.Errorf("export: unknown type %q (have %v)", typ, r.typesLocked())
	}
	return e, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typesLocked()
}

func (r *Registry) typesLocked() []string {
	out := make([]string, 0, len(r.exporters))
	for k := range r.exporters {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
