package graph

import (
	"maps"
	"sort"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
)

// Set is a set of courses keyed by code.
type Set map[string]*course.Course

// Sorted returns the members ordered by code.
func (s Set) Sorted() []*course.Course {
	out := make([]*course.Course, 0, len(s))
	for _, c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Codes returns the member codes sorted ascending.
func (s Set) Codes() []string {
	return course.Codes(s.Sorted())
}

type neighbors func(*course.Course) []*course.Course

// Engine computes transitive prerequisites (ancestors) and transitive
// dependents (descendants) and memoizes every closure it finishes.
//
// Caches are only valid for the edge set they were computed on. Call Reset
// after removing edges. Engine is not safe for concurrent use.
type Engine struct {
	ancestors   map[string]Set
	descendants map[string]Set
}

// NewEngine returns an Engine with empty caches.
func NewEngine() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// Reset discards every cached closure.
func (e *Engine) Reset() {
	e.ancestors = make(map[string]Set)
	e.descendants = make(map[string]Set)
}

// Ancestors returns every course reachable from c through prerequisite
// edges. c itself is included only when it sits on a cycle.
func (e *Engine) Ancestors(c *course.Course) Set {
	return maps.Clone(e.ancestorsOf(c))
}

// Descendants returns every course reachable from c through dependent edges.
func (e *Engine) Descendants(c *course.Course) Set {
	return maps.Clone(e.descendantsOf(c))
}

// Cached reports how many ancestor and descendant closures are memoized.
func (e *Engine) Cached() (ancestors, descendants int) {
	return len(e.ancestors), len(e.descendants)
}

func (e *Engine) ancestorsOf(c *course.Course) Set {
	return closure(c, e.ancestors, (*course.Course).Prerequisites)
}

func (e *Engine) descendantsOf(c *course.Course) Set {
	return closure(c, e.descendants, (*course.Course).Dependents)
}

// frame is one level of the explicit DFS stack.
type frame struct {
	c    *course.Course
	next []*course.Course
	i    int
}

// closure runs an iterative Tarjan traversal from root. Each strongly
// connected component is finished as a unit: its members share one closure,
// namely every member reachable by an internal edge plus every external
// neighbor and that neighbor's cached closure. Components finish in reverse
// topological order, so external neighbors are always cached already.
func closure(root *course.Course, cache map[string]Set, next neighbors) Set {
	if s, ok := cache[root.Code]; ok {
		return s
	}

	var (
		counter int
		index   = make(map[string]int)
		low     = make(map[string]int)
		onStack = make(map[string]bool)
		adj     = make(map[string][]*course.Course)
		stack   []*course.Course
		frames  []frame
	)

	push := func(c *course.Course) {
		index[c.Code] = counter
		low[c.Code] = counter
		counter++
		stack = append(stack, c)
		onStack[c.Code] = true
		adj[c.Code] = next(c)
		frames = append(frames, frame{c: c, next: adj[c.Code]})
	}

	push(root)
	for len(frames) > 0 {
		top := &frames[len(frames)-1]
		if top.i < len(top.next) {
			n := top.next[top.i]
			top.i++
			if _, done := cache[n.Code]; done {
				continue
			}
			if _, seen := index[n.Code]; !seen {
				push(n)
				continue
			}
			if onStack[n.Code] {
				low[top.c.Code] = min(low[top.c.Code], index[n.Code])
			}
			continue
		}

		c := top.c
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := frames[len(frames)-1].c
			low[parent.Code] = min(low[parent.Code], low[c.Code])
		}
		if low[c.Code] != index[c.Code] {
			continue
		}

		// c roots a component; pop it.
		members := make(map[string]struct{})
		var component []*course.Course
		for {
			m := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[m.Code] = false
			members[m.Code] = struct{}{}
			component = append(component, m)
			if m == c {
				break
			}
		}

		set := make(Set)
		for _, m := range component {
			for _, n := range adj[m.Code] {
				set[n.Code] = n
				if _, internal := members[n.Code]; internal {
					continue
				}
				for code, r := range cache[n.Code] {
					set[code] = r
				}
			}
		}
		for _, m := range component {
			cache[m.Code] = set
		}
	}
	return cache[root.Code]
}
