package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/metrics"
)

// Resolver maps a link to a discontinued course onto the code of the course
// that replaced it.
type Resolver interface {
	Resolve(ctx context.Context, href string) (string, bool)
}

// noticeClasses identify the info box a discontinued course page shows.
var noticeClasses = []string{"vrtx-context-message-box", "uio-info-message", "blue"}

// Redirects resolves discontinued-course notices and caches the outcome per
// href, including "no notice". Fetch failures are not cached.
type Redirects struct {
	fetcher Fetcher
	cache   *lru.Cache[string, string]
}

// NewRedirects creates a resolver with a bounded cache of size entries.
func NewRedirects(f Fetcher, size int) (*Redirects, error) {
	if size <= 0 {
		size = 4096
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("redirect cache: %w", err)
	}
	return &Redirects{fetcher: f, cache: cache}, nil
}

// Resolve fetches href once and follows its notice link. Any failure means
// "not redirected".
func (r *Redirects) Resolve(ctx context.Context, href string) (string, bool) {
	if code, ok := r.cache.Get(href); ok {
		metrics.RedirectLookups.WithLabelValues("hit").Inc()
		return code, code != ""
	}
	metrics.RedirectLookups.WithLabelValues("miss").Inc()

	body, err := r.fetcher.Get(ctx, "redirect", href)
	if err != nil {
		slog.Debug("redirect lookup failed", "href", href, "err", err)
		return "", false
	}
	code, _ := ParseRedirect(string(body))
	r.cache.Add(href, code)
	return code, code != ""
}

// ParseRedirect returns the course code linked from the discontinued-course
// notice box, if the page has one.
func ParseRedirect(doc string) (string, bool) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", false
	}
	box := find(root, func(n *html.Node) bool {
		return n.Data == "div" && hasClasses(n, noticeClasses)
	})
	if box == nil {
		return "", false
	}
	link := find(box, func(n *html.Node) bool {
		if n.Data != "a" {
			return false
		}
		_, ok := attr(n, "href")
		return ok
	})
	if link == nil {
		return "", false
	}
	href, _ := attr(link, "href")
	return CodeFromHref(href)
}
