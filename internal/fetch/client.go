package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/metrics"
)

// ErrFetch marks every failure to obtain a page: transport errors, timeouts
// and non-2xx responses.
var ErrFetch = errors.New("fetch failed")

// maxBody caps how much of a page is read.
const maxBody = 8 << 20

// Client fetches catalog pages with a per-request timeout.
type Client struct {
	http      *http.Client
	base      *url.URL
	userAgent string
	timeout   time.Duration
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Transport overrides http.DefaultTransport (tests).
	Transport http.RoundTripper
}

// New creates a Client. BaseURL is used to resolve site-relative hrefs.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: base url %q: %w", opts.BaseURL, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		http:      &http.Client{Transport: transport},
		base:      base,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
	}, nil
}

// Resolve turns href into an absolute URL against the catalog base.
// Hrefs without a scheme such as "/studier/..." are site-relative.
func (c *Client) Resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return c.base.ResolveReference(ref).String()
}

// Get fetches rawURL (resolved against the base) and returns its body.
// kind labels the request in metrics ("listing", "course", "redirect").
func (c *Client) Get(ctx context.Context, kind, rawURL string) ([]byte, error) {
	target := c.Resolve(rawURL)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		metrics.PagesFetched.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("%w: build request %s: %v", ErrFetch, target, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PagesFetched.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("%w: get %s: %v", ErrFetch, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.PagesFetched.WithLabelValues(kind, "status_"+statusClass(resp.StatusCode)).Inc()
		return nil, fmt.Errorf("%w: get %s: status %d", ErrFetch, target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		metrics.PagesFetched.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("%w: read %s: %v", ErrFetch, target, err)
	}
	metrics.PagesFetched.WithLabelValues(kind, "ok").Inc()
	return body, nil
}

// statusClass buckets status codes to keep label cardinality small.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "other"
	}
}
