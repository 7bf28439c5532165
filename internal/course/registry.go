package course

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownCourse is returned when a code is not registered.
var ErrUnknownCourse = errors.New("unknown course")

// Registry maps course codes to their single Course instance.
// Map access is guarded by mu; edge lists are guarded per course.
type Registry struct {
	mu      sync.RWMutex
	courses map[string]*Course
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{courses: make(map[string]*Course)}
}

// Register returns the course stored under code, creating it on first sight.
// Re-registering an existing code keeps the original name and URL.
func (r *Registry) Register(code, url, name string) *Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.courses[code]; ok {
		return c
	}
	c := newCourse(code, url, name)
	r.courses[code] = c
	return c
}

// Lookup returns the course for code.
func (r *Registry) Lookup(code string) (*Course, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.courses[code]
	return c, ok
}

// Len returns the number of registered courses.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.courses)
}

// All returns every registered course in no particular order.
func (r *Registry) All() []*Course {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, c)
	}
	return out
}

// Codes returns the registered codes sorted ascending.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.courses))
	for code := range r.courses {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Sorted returns every course ordered by code.
func (r *Registry) Sorted() []*Course {
	all := r.All()
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return all
}

// AddEdge records that subject recommends prereq as prior knowledge.
// It returns false when the edge already existed.
func (r *Registry) AddEdge(subject, prereq *Course) bool {
	unlock := lockPair(subject, prereq)
	defer unlock()
	return link(subject, prereq)
}

// SetCredits stores the credit points read from the course page.
func (r *Registry) SetCredits(c *Course, credits int) {
	c.mu.Lock()
	c.credits = credits
	c.mu.Unlock()
}

// Retain replaces the registry contents with exactly keep and then removes
// every edge that points at a course outside keep.
func (r *Registry) Retain(keep map[string]*Course) {
	r.mu.Lock()
	next := make(map[string]*Course, len(keep))
	for code, c := range keep {
		next[code] = c
	}
	r.courses = next
	r.mu.Unlock()

	for _, c := range next {
		c.filterEdges(next)
	}
}

// Remove deletes the given codes without touching edges. Callers must only
// remove courses no surviving edge points at.
func (r *Registry) Remove(codes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range codes {
		delete(r.courses, code)
	}
}

// RestoreEdges sets the edge lists of code verbatim. It is meant for
// rebuilding a registry from a snapshot, where dependents must keep their
// recorded order.
func (r *Registry) RestoreEdges(code string, credits int, prereqs, deps []string) error {
	c, ok := r.Lookup(code)
	if !ok {
		return fmt.Errorf("restore %s: %w", code, ErrUnknownCourse)
	}
	pc, err := r.resolve(prereqs)
	if err != nil {
		return fmt.Errorf("restore %s prerequisites: %w", code, err)
	}
	dc, err := r.resolve(deps)
	if err != nil {
		return fmt.Errorf("restore %s dependents: %w", code, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credits = credits
	c.prereqs = pc
	c.deps = dc
	clear(c.prereqIn)
	for _, p := range pc {
		c.prereqIn[p.Code] = struct{}{}
	}
	return nil
}

func (r *Registry) resolve(codes []string) ([]*Course, error) {
	out := make([]*Course, 0, len(codes))
	for _, code := range codes {
		c, ok := r.Lookup(code)
		if !ok {
			return nil, fmt.Errorf("%q: %w", code, ErrUnknownCourse)
		}
		out = append(out, c)
	}
	return out, nil
}
