package graph

import (
	"log/slog"
	"sort"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
)

// DropIsolated removes every course with neither prerequisites nor
// dependents and returns the removed codes in ascending order.
func DropIsolated(reg *course.Registry) []string {
	var drop []string
	for _, c := range reg.All() {
		if in, out := c.Degree(); in == 0 && out == 0 {
			drop = append(drop, c.Code)
		}
	}
	sort.Strings(drop)
	reg.Remove(drop...)
	slog.Info("dropped isolated courses", "dropped", len(drop), "remaining", reg.Len())
	return drop
}
