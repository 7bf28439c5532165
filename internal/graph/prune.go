package graph

import (
	"log/slog"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
)

// Prune cuts reg down to the seeds plus everything connected to them by a
// prerequisite path in either direction. It reports whether anything was
// cut. An empty seed list, or one where no code is registered, leaves reg
// untouched.
//
// Closures are measured on the unpruned graph, then the course set is
// replaced, then dangling edges are removed. eng is reset on both sides of
// the cut.
func Prune(reg *course.Registry, eng *Engine, seeds []string) bool {
	if len(seeds) == 0 {
		return false
	}
	eng.Reset()

	keep := make(map[string]*course.Course)
	for _, code := range seeds {
		c, ok := reg.Lookup(code)
		if !ok {
			slog.Warn("prune seed not registered", "code", code)
			continue
		}
		keep[c.Code] = c
		for k, v := range eng.ancestorsOf(c) {
			keep[k] = v
		}
		for k, v := range eng.descendantsOf(c) {
			keep[k] = v
		}
	}
	if len(keep) == 0 {
		slog.Warn("prune skipped: no seed resolved", "seeds", seeds)
		return false
	}

	before := reg.Len()
	reg.Retain(keep)
	eng.Reset()
	slog.Info("graph pruned", "seeds", len(seeds), "before", before, "after", len(keep))
	return true
}
