package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reference is a course link found in a prerequisites section.
type Reference struct {
	Code string
	Href string
	Text string
}

// Page is what a course page contributes to the graph.
type Page struct {
	Credits int
	Refs    []Reference
}

// Extractor reads a course page. A failure to obtain the page wraps
// fetch.ErrFetch; a page without a prerequisites section is not an error.
type Extractor interface {
	Extract(ctx context.Context, url string) (Page, error)
}

// Fetcher is the subset of fetch.Client the extractor needs.
type Fetcher interface {
	Get(ctx context.Context, kind, url string) ([]byte, error)
}

// profile holds the section headings of one page language.
type profile struct {
	credits     string
	admission   string
	overlap     string
	recommended string
}

var (
	norwegian = profile{
		credits:     "Studiepoeng",
		admission:   "Opptak til emnet",
		overlap:     "Overlappende emner",
		recommended: "Anbefalte forkunnskaper",
	}
	english = profile{
		credits:     "Credits",
		admission:   "Admission to the course",
		overlap:     "Overlapping courses",
		recommended: "Recommended previous knowledge",
	}
)

// retiredMarkers flag links to courses that no longer run.
var retiredMarkers = []string{"nedlagt", "videreført", "discontinued", "continued"}

var intRe = regexp.MustCompile(`\d+`)

// creditsWindow is how far past the credits heading the number may sit.
const creditsWindow = 100

// HTMLExtractor implements Extractor for catalog course pages.
type HTMLExtractor struct {
	fetcher    Fetcher
	pathMarker string
}

// NewHTMLExtractor returns an extractor that keeps only links whose href
// contains pathMarker (e.g. "emne").
func NewHTMLExtractor(f Fetcher, pathMarker string) *HTMLExtractor {
	return &HTMLExtractor{fetcher: f, pathMarker: pathMarker}
}

// Extract fetches url and parses it with ParsePage.
func (e *HTMLExtractor) Extract(ctx context.Context, url string) (Page, error) {
	body, err := e.fetcher.Get(ctx, "course", url)
	if err != nil {
		return Page{}, fmt.Errorf("extract %s: %w", url, err)
	}
	return ParsePage(string(body), e.pathMarker), nil
}

// ParsePage reads the credit points and the recommended-prerequisite links
// from raw course page HTML.
func ParsePage(doc, pathMarker string) Page {
	p := norwegian
	st := strings.Index(doc, p.credits)
	if st == -1 {
		p = english
		st = strings.Index(doc, p.credits)
	}

	var page Page
	if st >= 0 {
		end := min(st+creditsWindow, len(doc))
		if n := intRe.FindString(doc[st:end]); n != "" {
			page.Credits, _ = strconv.Atoi(n)
		}
	}

	overlap := strings.LastIndex(doc, p.overlap)
	admission := strings.LastIndex(doc, p.admission)
	if overlap == -1 || admission >= overlap {
		return page
	}
	rec := strings.LastIndex(doc[:overlap], p.recommended)
	if rec == -1 {
		return page
	}

	for _, a := range Anchors(doc[rec:overlap]) {
		if !strings.Contains(a.Href, pathMarker) || retired(a.Text) {
			continue
		}
		code, ok := CodeFromHref(a.Href)
		if !ok {
			continue
		}
		page.Refs = append(page.Refs, Reference{Code: code, Href: a.Href, Text: a.Text})
	}
	return page
}

func retired(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range retiredMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
