package export

import (
	"context"
	"encoding/json"
	"io"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/graph"
)

// JSON writes every course with its direct edges and closure sizes.
type JSON struct{}

// Node is one course in the JSON export.
type Node struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Level         int      `json:"level"`
	Credits       int      `json:"credits"`
	Prerequisites []string `json:"prerequisites"`
	Dependents    []string `json:"dependents"`
	Ancestors     int      `json:"ancestors"`
	Descendants   int      `json:"descendants"`
}

func (JSON) Type() string { return "json" }

func (JSON) Export(_ context.Context, g *graph.Graph, w io.Writer) error {
	courses := g.Courses()
	nodes := make([]Node, 0, len(courses))
	for _, c := range courses {
		anc, desc := g.ClosureSizes(c)
		nodes = append(nodes, Node{
			Code:          c.Code,
			Name:          c.Name,
			URL:           c.URL,
			Level:         c.Level,
			Credits:       c.Credits(),
			Prerequisites: c.PrerequisiteCodes(),
			Dependents:    c.DependentCodes(),
			Ancestors:     anc,
			Descendants:   desc,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"courses": nodes})
}
