package api

import (
	"encoding/json"
	"net/http"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type courseSummary struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Level   int    `json:"level"`
	Credits int    `json:"credits"`
}

type courseDetail struct {
	courseSummary
	URL           string   `json:"url"`
	Prerequisites []string `json:"prerequisites"`
	Dependents    []string `json:"dependents"`
}

type listResponse struct {
	Count   int             `json:"count"`
	Courses []courseSummary `json:"courses"`
}

type closureResponse struct {
	Code    string          `json:"code"`
	Count   int             `json:"count"`
	Courses []courseSummary `json:"courses"`
}

func summary(c *course.Course) courseSummary {
	return courseSummary{Code: c.Code, Name: c.Name, Level: c.Level, Credits: c.Credits()}
}

func summaries(cs []*course.Course) []courseSummary {
	out := make([]courseSummary, 0, len(cs))
	for _, c := range cs {
		out = append(out, summary(c))
	}
	return out
}

func detail(c *course.Course) courseDetail {
	return courseDetail{
		courseSummary: summary(c),
		URL:           c.URL,
		Prerequisites: c.PrerequisiteCodes(),
		Dependents:    c.DependentCodes(),
	}
}
