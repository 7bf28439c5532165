package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Anchor is an <a href> element with its flattened text.
type Anchor struct {
	Href string
	Text string
}

// Anchors returns every anchor with a non-empty href in document order.
// The input may be a fragment; the parser closes open elements.
func Anchors(doc string) []Anchor {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil
	}
	return collectAnchors(root, nil)
}

func collectAnchors(n *html.Node, out []Anchor) []Anchor {
	if n.Type == html.ElementNode && n.Data == "a" {
		if href, ok := attr(n, "href"); ok && strings.TrimSpace(href) != "" {
			out = append(out, Anchor{Href: strings.TrimSpace(href), Text: text(n)})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = collectAnchors(c, out)
	}
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClasses(n *html.Node, want []string) bool {
	class, ok := attr(n, "class")
	if !ok {
		return false
	}
	have := make(map[string]struct{})
	for _, c := range strings.Fields(class) {
		have[c] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// find returns the first element in document order matching pred.
func find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := find(c, pred); m != nil {
			return m
		}
	}
	return nil
}

// CodeFromHref returns the second-to-last path segment of a course href:
// "/studier/emner/matnat/math/MAT1100/index.html" and
// "/studier/emner/matnat/math/MAT1100/" both give "MAT1100".
func CodeFromHref(href string) (string, bool) {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	parts := strings.Split(href, "/")
	if len(parts) < 2 {
		return "", false
	}
	code := strings.TrimSpace(parts[len(parts)-2])
	if code == "" || strings.Contains(code, ":") {
		return "", false
	}
	return code, true
}
