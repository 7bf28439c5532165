package query

import (
	"math"
	"slices"
	"strings"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
)

// Query is a parsed, type-checked filter expression.
type Query struct {
	src  string
	root node
}

// Parse compiles src.
func Parse(src string) (*Query, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Query{src: src, root: root}, nil
}

// String returns the source text.
func (q *Query) String() string { return q.src }

// Match reports whether c satisfies the query.
func (q *Query) Match(c *course.Course) bool {
	return q.root.eval(record{c: c})
}

// Filter returns the courses matching q, keeping their order.
func (q *Query) Filter(cs []*course.Course) []*course.Course {
	var out []*course.Course
	for _, c := range cs {
		if q.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// record reads fields lazily so edge lists are only copied when asked for.
type record struct {
	c *course.Course
}

func (r record) str(field string) string {
	switch field {
	case "code":
		return r.c.Code
	case "name":
		return r.c.Name
	case "url":
		return r.c.URL
	}
	return ""
}

func (r record) num(field string) float64 {
	switch field {
	case "level":
		return float64(r.c.Level)
	case "credits":
		return float64(r.c.Credits())
	}
	return 0
}

func (r record) list(field string) []string {
	switch field {
	case "prerequisites":
		return r.c.PrerequisiteCodes()
	case "dependents":
		return r.c.DependentCodes()
	}
	return nil
}

func (n *andNode) eval(r record) bool { return n.left.eval(r) && n.right.eval(r) }
func (n *orNode) eval(r record) bool  { return n.left.eval(r) || n.right.eval(r) }
func (n *notNode) eval(r record) bool { return !n.inner.eval(r) }

func (n *cmpNode) eval(r record) bool {
	switch n.kind {
	case kindString:
		v := r.str(n.field)
		switch n.op {
		case OpEq:
			return v == n.str
		case OpNeq:
			return v != n.str
		case OpContains:
			return strings.Contains(v, n.str)
		case OpMatches:
			return n.re.MatchString(v)
		}
	case kindNumber:
		return compareNum(n.op, r.num(n.field), n.num)
	case kindList:
		v := r.list(n.field)
		if n.op == OpContains {
			return slices.Contains(v, n.str)
		}
		return compareNum(n.op, float64(len(v)), n.num)
	}
	return false
}

func compareNum(op Operator, a, b float64) bool {
	switch op {
	case OpEq:
		return math.Abs(a-b) < 1e-9
	case OpNeq:
		return math.Abs(a-b) >= 1e-9
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	}
	return false
}
