package graph

import (
	"fmt"
	"sync"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
)

// Graph wraps a quiesced registry and its closure engine for concurrent
// readers. Closure caches fill on read, so every call takes the same lock.
type Graph struct {
	mu  sync.Mutex
	reg *course.Registry
	eng *Engine
}

// New wraps reg. Enrichment must have finished before the first call.
func New(reg *course.Registry) *Graph {
	return &Graph{reg: reg, eng: NewEngine()}
}

// Course looks up a single course.
func (g *Graph) Course(code string) (*course.Course, bool) {
	return g.reg.Lookup(code)
}

// Courses returns every course ordered by code.
func (g *Graph) Courses() []*course.Course {
	return g.reg.Sorted()
}

// Len returns the number of courses.
func (g *Graph) Len() int {
	return g.reg.Len()
}

// Ancestors returns the transitive prerequisites of code ordered by code.
func (g *Graph) Ancestors(code string) ([]*course.Course, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.reg.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("ancestors of %q: %w", code, course.ErrUnknownCourse)
	}
	return g.eng.ancestorsOf(c).Sorted(), nil
}

// Descendants returns the transitive dependents of code ordered by code.
func (g *Graph) Descendants(code string) ([]*course.Course, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.reg.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("descendants of %q: %w", code, course.ErrUnknownCourse)
	}
	return g.eng.descendantsOf(c).Sorted(), nil
}

// ClosureSizes returns the number of ancestors and descendants of c.
func (g *Graph) ClosureSizes(c *course.Course) (ancestors, descendants int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.eng.ancestorsOf(c)), len(g.eng.descendantsOf(c))
}

// Prune applies Prune under the graph lock.
func (g *Graph) Prune(seeds []string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Prune(g.reg, g.eng, seeds)
}
