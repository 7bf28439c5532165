package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/fetch"
)

func TestResolve(t *testing.T) {
	c, err := fetch.New(fetch.Options{BaseURL: "https://www.uio.no"})
	require.NoError(t, err)

	assert.Equal(t, "https://www.uio.no/studier/emner/hf/", c.Resolve("/studier/emner/hf/"))
	assert.Equal(t, "https://example.org/x", c.Resolve("https://example.org/x"))
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
		case "/slow":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c, err := fetch.New(fetch.Options{BaseURL: srv.URL, UserAgent: "prereqgraph-test", Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	ctx := context.Background()

	body, err := c.Get(ctx, "course", "/ok")
	require.NoError(t, err)
	assert.Equal(t, "prereqgraph-test", string(body))

	_, err = c.Get(ctx, "course", "/down")
	require.ErrorIs(t, err, fetch.ErrFetch)
	assert.Contains(t, err.Error(), "status 503")

	_, err = c.Get(ctx, "course", "/slow")
	require.ErrorIs(t, err, fetch.ErrFetch)
}
