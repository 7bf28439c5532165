package course_test

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := course.NewRegistry()

	first := reg.Register("MAT1100", "https://uio.no/mat1100.html", "Calculus")
	again := reg.Register("MAT1100", "https://other", "Renamed")

	assert.Same(t, first, again)
	assert.Equal(t, "Calculus", again.Name)
	assert.Equal(t, 1, reg.Len())
}

func TestLookup_NotFound(t *testing.T) {
	reg := course.NewRegistry()
	c, ok := reg.Lookup("nope")
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestLevel(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{"MAT1100", 0},
		{"INF0100", 0},
		{"IN2010", 1},
		{"FYS3150", 2},
		{"MAT4301", 3},
		{"STK5000", 3},
		{"MED6000", 3},
		{"INF9380", 4},
		{"math101", 0},
		{"math201", 1},
		{"EXPHIL", 0},
		{"", 0},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			assert.Equal(t, tc.want, course.Level(tc.code))
		})
	}
}

func TestAddEdge_Idempotent(t *testing.T) {
	reg := course.NewRegistry()
	a := reg.Register("A", "", "")
	b := reg.Register("B", "", "")

	assert.True(t, reg.AddEdge(a, b))
	assert.False(t, reg.AddEdge(a, b))

	assert.Equal(t, []string{"B"}, a.PrerequisiteCodes())
	assert.Equal(t, []string{"A"}, b.DependentCodes())
	assert.Empty(t, a.Dependents())
	assert.Empty(t, b.Prerequisites())
}

func TestAddEdge_SelfLoop(t *testing.T) {
	reg := course.NewRegistry()
	a := reg.Register("A", "", "")

	assert.True(t, reg.AddEdge(a, a))
	assert.False(t, reg.AddEdge(a, a))
	assert.Equal(t, []string{"A"}, a.PrerequisiteCodes())
	assert.Equal(t, []string{"A"}, a.DependentCodes())
}

func TestAddEdge_ConcurrentWritersKeepOneEdge(t *testing.T) {
	reg := course.NewRegistry()
	target := reg.Register("TARGET", "", "")
	subjects := make([]*course.Course, 50)
	for i := range subjects {
		subjects[i] = reg.Register(fmt.Sprintf("S%02d", i), "", "")
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, s := range subjects {
				reg.AddEdge(s, target)
				// Opposite direction exercises lock ordering.
				reg.AddEdge(target, s)
			}
		}()
	}
	wg.Wait()

	deps := target.DependentCodes()
	sort.Strings(deps)
	require.Len(t, deps, len(subjects))
	for i, s := range subjects {
		assert.Equal(t, s.Code, deps[i])
		assert.Equal(t, []string{"TARGET"}, s.PrerequisiteCodes())
	}
	assert.Len(t, target.Prerequisites(), len(subjects))
}

func TestRetain_FiltersEdges(t *testing.T) {
	reg := course.NewRegistry()
	a := reg.Register("A", "", "")
	b := reg.Register("B", "", "")
	c := reg.Register("C", "", "")
	reg.AddEdge(a, b)
	reg.AddEdge(a, c)
	reg.AddEdge(b, c)

	reg.Retain(map[string]*course.Course{"A": a, "B": b})

	assert.Equal(t, []string{"A", "B"}, reg.Codes())
	assert.Equal(t, []string{"B"}, a.PrerequisiteCodes())
	assert.Empty(t, b.Prerequisites())
	assert.Equal(t, []string{"A"}, b.DependentCodes())

	// The filtered edge can be inserted again once C is back.
	reg.Retain(map[string]*course.Course{"A": a, "B": b, "C": c})
	assert.True(t, reg.AddEdge(a, c))
}

func TestRestoreEdges_UnknownCode(t *testing.T) {
	reg := course.NewRegistry()
	reg.Register("A", "", "")

	err := reg.RestoreEdges("A", 10, []string{"missing"}, nil)
	require.ErrorIs(t, err, course.ErrUnknownCourse)

	err = reg.RestoreEdges("missing", 10, nil, nil)
	require.ErrorIs(t, err, course.ErrUnknownCourse)
}

func TestSetCredits(t *testing.T) {
	reg := course.NewRegistry()
	a := reg.Register("A", "", "")
	reg.SetCredits(a, 10)
	assert.Equal(t, 10, a.Credits())
}
