// Package discovery walks the paginated catalog listing pages and registers
// every course they link to.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	neturl "net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/extract"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/metrics"
)

// Fetcher is the subset of fetch.Client discovery needs.
type Fetcher interface {
	Get(ctx context.Context, kind, url string) ([]byte, error)
	Resolve(href string) string
}

// Options configures a Crawler.
type Options struct {
	// CourseSuffix is the extension of per-course pages ("html").
	CourseSuffix string
	// PageMarker marks pagination links ("page").
	PageMarker string
	// Parallel bounds how many roots are crawled at once.
	Parallel int
	Logger   *slog.Logger
}

// Crawler registers courses found on listing pages.
type Crawler struct {
	fetcher Fetcher
	opts    Options
	log     *slog.Logger
}

// New creates a Crawler.
func New(f Fetcher, opts Options) *Crawler {
	if opts.CourseSuffix == "" {
		opts.CourseSuffix = "html"
	}
	if opts.PageMarker == "" {
		opts.PageMarker = "page"
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Crawler{fetcher: f, opts: opts, log: log}
}

// visited is shared by every branch of one Discover call.
type visited struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// claim reports whether url was unseen, marking it seen.
func (v *visited) claim(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[url]; ok {
		return false
	}
	v.seen[url] = struct{}{}
	return true
}

// Discover crawls every root listing into reg. Roots run concurrently; the
// first listing fetch failure cancels the others and is returned.
func (c *Crawler) Discover(ctx context.Context, reg *course.Registry, roots ...string) error {
	v := &visited{seen: make(map[string]struct{})}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Parallel)
	for _, root := range roots {
		g.Go(func() error {
			return c.crawl(gctx, reg, v, root)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.log.Info("discovery finished", "roots", len(roots), "courses", reg.Len())
	return nil
}

// crawl follows one root and every pagination link reachable from it.
func (c *Crawler) crawl(ctx context.Context, reg *course.Registry, v *visited, root string) error {
	if !v.claim(root) {
		return nil
	}
	pending := []string{root}
	for len(pending) > 0 {
		url := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		body, err := c.fetcher.Get(ctx, "listing", url)
		if err != nil {
			return fmt.Errorf("discovery: listing %s: %w", url, err)
		}
		metrics.ListingsVisited.Inc()

		for _, href := range c.scan(string(body), reg) {
			u, err := resolveAgainst(url, href)
			if err != nil {
				c.log.Debug("malformed pagination anchor", "href", href, "err", err)
				continue
			}
			if v.claim(u) {
				pending = append(pending, u)
			}
		}
	}
	return nil
}

// scan registers the course anchors of one listing page and returns its
// pagination hrefs.
func (c *Crawler) scan(doc string, reg *course.Registry) []string {
	var pages []string
	for _, a := range extract.Anchors(doc) {
		if c.isCourse(a.Href) {
			code, ok := extract.CodeFromHref(a.Href)
			if !ok {
				c.log.Debug("malformed course anchor", "href", a.Href)
			} else {
				reg.Register(code, c.fetcher.Resolve(a.Href), a.Text)
				metrics.CoursesDiscovered.Inc()
			}
		}
		if strings.Contains(a.Href, c.opts.PageMarker) {
			pages = append(pages, a.Href)
		}
	}
	return pages
}

func (c *Crawler) isCourse(href string) bool {
	return strings.HasPrefix(href, "/") && strings.HasSuffix(href, "."+c.opts.CourseSuffix)
}

func resolveAgainst(page, href string) (string, error) {
	base, err := neturl.Parse(page)
	if err != nil {
		return "", err
	}
	ref, err := neturl.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
