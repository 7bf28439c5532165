// Package snapshot persists a crawled registry so a repeat run can skip
// discovery and enrichment.
package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
)

// Document is the stored form of a registry.
type Document struct {
	ID        string    `json:"id"`
	Subtree   string    `json:"subtree"`
	CreatedAt time.Time `json:"created_at"`
	Courses   []Entry   `json:"courses"`
}

// Entry is one course with its edges stored as codes.
type Entry struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Credits       int      `json:"credits"`
	Level         int      `json:"level"`
	Prerequisites []string `json:"prerequisites"`
	Dependents    []string `json:"dependents"`
}

// Key returns the storage key for a catalog subtree: "matnat/math" becomes
// "matnat_math_courses.json".
func Key(subtree string) string {
	return strings.ReplaceAll(strings.Trim(subtree, "/"), "/", "_") + "_courses.json"
}

// Encode serialises every course of reg, sorted by code.
func Encode(reg *course.Registry, subtree string) ([]byte, error) {
	doc := Document{
		ID:        uuid.NewString(),
		Subtree:   subtree,
		CreatedAt: time.Now().UTC(),
	}
	for _, c := range reg.Sorted() {
		doc.Courses = append(doc.Courses, Entry{
			Code:          c.Code,
			Name:          c.Name,
			URL:           c.URL,
			Credits:       c.Credits(),
			Level:         c.Level,
			Prerequisites: c.PrerequisiteCodes(),
			Dependents:    c.DependentCodes(),
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Decode rebuilds a registry. Every edge points at the single registered
// course of its code, so identity is shared exactly as before encoding.
func Decode(data []byte) (*course.Registry, Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Document{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	reg := course.NewRegistry()
	for _, e := range doc.Courses {
		if e.Code == "" {
			return nil, Document{}, fmt.Errorf("snapshot: decode: course without code")
		}
		reg.Register(e.Code, e.URL, e.Name)
	}
	for _, e := range doc.Courses {
		if err := reg.RestoreEdges(e.Code, e.Credits, e.Prerequisites, e.Dependents); err != nil {
			return nil, Document{}, fmt.Errorf("snapshot: decode: %w", err)
		}
	}
	return reg, doc, nil
}
