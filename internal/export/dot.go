package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/graph"
)

// DOT writes Graphviz source with one same-rank cluster per level bucket
// and an edge from each prerequisite to the course that recommends it.
type DOT struct{}

func (DOT) Type() string { return "dot" }

func (DOT) Export(_ context.Context, g *graph.Graph, w io.Writer) error {
	courses := g.Courses()
	byLevel := make([][]*course.Course, course.MaxLevel+1)
	for _, c := range courses {
		byLevel[c.Level] = append(byLevel[c.Level], c)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph prerequisites {")
	fmt.Fprintln(bw, "  rankdir=BT;")
	fmt.Fprintln(bw, "  node [shape=box];")
	for level, cs := range byLevel {
		if len(cs) == 0 {
			continue
		}
		fmt.Fprintf(bw, "  subgraph cluster_level%d {\n", level)
		fmt.Fprintf(bw, "    label=%s;\n    rank=same;\n", strconv.Quote("level "+strconv.Itoa(level)))
		for _, c := range cs {
			label := c.Code
			if c.Name != "" {
				label += "\n" + c.Name
			}
			fmt.Fprintf(bw, "    %s [label=%s];\n", strconv.Quote(c.Code), strconv.Quote(label))
		}
		fmt.Fprintln(bw, "  }")
	}
	for _, c := range courses {
		for _, p := range c.PrerequisiteCodes() {
			fmt.Fprintf(bw, "  %s -> %s;\n", strconv.Quote(p), strconv.Quote(c.Code))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
