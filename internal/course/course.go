package course

import (
	"log/slog"
	"regexp"
	"sync"
)

// levelByDigit maps the leading digit of a course number to a level bucket.
var levelByDigit = map[byte]int{
	'0': 0, '1': 0,
	'2': 1,
	'3': 2,
	'4': 3, '5': 3, '6': 3,
	'7': 4, '8': 4, '9': 4,
}

// MaxLevel is the highest bucket Level can return.
const MaxLevel = 4

var numberRe = regexp.MustCompile(`\d+`)

// Course is a single catalog entry. Code is its identity; the edge lists are
// only reachable through methods so writers can hold the course lock.
type Course struct {
	Code  string
	Name  string
	URL   string
	Level int

	mu       sync.RWMutex
	credits  int
	prereqs  []*Course
	prereqIn map[string]struct{}
	deps     []*Course
}

func newCourse(code, url, name string) *Course {
	return &Course{
		Code:     code,
		Name:     name,
		URL:      url,
		Level:    Level(code),
		prereqIn: make(map[string]struct{}),
	}
}

// Level derives the level bucket from the first digit of the first number in
// code. Codes without a number land in level 0.
func Level(code string) int {
	num := numberRe.FindString(code)
	if num == "" {
		slog.Warn("level classification failed", "code", code)
		return 0
	}
	return levelByDigit[num[0]]
}

// Credits returns the credit points recorded during enrichment.
func (c *Course) Credits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credits
}

// Prerequisites returns a copy of the direct prerequisites in discovery order.
func (c *Course) Prerequisites() []*Course {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Course, len(c.prereqs))
	copy(out, c.prereqs)
	return out
}

// Dependents returns a copy of the courses that list c as a prerequisite.
func (c *Course) Dependents() []*Course {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Course, len(c.deps))
	copy(out, c.deps)
	return out
}

// PrerequisiteCodes is a convenience for logging and serialization.
func (c *Course) PrerequisiteCodes() []string {
	return Codes(c.Prerequisites())
}

// DependentCodes is a convenience for logging and serialization.
func (c *Course) DependentCodes() []string {
	return Codes(c.Dependents())
}

// Degree returns the number of direct prerequisites and dependents.
func (c *Course) Degree() (in, out int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prereqs), len(c.deps)
}

func (c *Course) String() string { return "course " + c.Code }

// Codes maps courses to their codes, preserving order.
func Codes(cs []*Course) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Code
	}
	return out
}

// link appends prereq to subject and subject to prereq's dependents. The
// caller must hold both course locks.
func link(subject, prereq *Course) bool {
	if _, ok := subject.prereqIn[prereq.Code]; ok {
		return false
	}
	subject.prereqIn[prereq.Code] = struct{}{}
	subject.prereqs = append(subject.prereqs, prereq)
	prereq.deps = append(prereq.deps, subject)
	return true
}

// lockPair locks a and b in code order so two writers touching the same pair
// from opposite sides cannot deadlock.
func lockPair(a, b *Course) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if b.Code < a.Code {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

// filterEdges drops every edge pointing outside keep. The registry calls it
// after the course set has been cut.
func (c *Course) filterEdges(keep map[string]*Course) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prereqs := c.prereqs[:0]
	for _, p := range c.prereqs {
		if keep[p.Code] == p {
			prereqs = append(prereqs, p)
		} else {
			delete(c.prereqIn, p.Code)
		}
	}
	clear(c.prereqs[len(prereqs):])
	c.prereqs = prereqs

	deps := c.deps[:0]
	for _, d := range c.deps {
		if keep[d.Code] == d {
			deps = append(deps, d)
		}
	}
	clear(c.deps[len(deps):])
	c.deps = deps
}
