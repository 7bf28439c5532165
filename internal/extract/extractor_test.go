package extract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/extract"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/fetch"
)

const norwegianPage = `<html><body>
<div class="facts"><dt>Studiepoeng</dt><dd>10</dd></div>
<h2>Opptak til emnet</h2>
<h2>Anbefalte forkunnskaper</h2>
<p>Du bør ha tatt
 <a href="/studier/emner/matnat/math/MAT1100/index.html">MAT1100 – Kalkulus</a> og
 <a href="/studier/emner/matnat/math/MAT1110/">MAT1110</a>.
 Se også <a href="https://www.uio.no/om/">om UiO</a>
 og <a href="/studier/emner/matnat/math/MAT1001/index.html">MAT1001 (nedlagt)</a>.</p>
<h2>Overlappende emner</h2>
<p><a href="/studier/emner/matnat/math/MAT1012/index.html">MAT1012</a></p>
</body></html>`

const englishPage = `<html><body>
<p>Credits: 5</p>
<h2>Admission to the course</h2>
<h2>Recommended previous knowledge</h2>
<a href="/studier/emner/matnat/ifi/IN1000/index.html">IN1000</a>
<a href="/studier/emner/matnat/ifi/INF1000/index.html">INF1000 (discontinued)</a>
<h2>Overlapping courses</h2>
</body></html>`

func TestParsePage_Norwegian(t *testing.T) {
	page := extract.ParsePage(norwegianPage, "emne")

	assert.Equal(t, 10, page.Credits)
	require.Len(t, page.Refs, 2)
	assert.Equal(t, "MAT1100", page.Refs[0].Code)
	assert.Equal(t, "MAT1110", page.Refs[1].Code)
	assert.Equal(t, "/studier/emner/matnat/math/MAT1110/", page.Refs[1].Href)
}

func TestParsePage_English(t *testing.T) {
	page := extract.ParsePage(englishPage, "emne")

	assert.Equal(t, 5, page.Credits)
	require.Len(t, page.Refs, 1)
	assert.Equal(t, "IN1000", page.Refs[0].Code)
}

func TestParsePage_NoSection(t *testing.T) {
	page := extract.ParsePage(`<p>Studiepoeng 20</p><p>Ingen krav</p>`, "emne")
	assert.Equal(t, 20, page.Credits)
	assert.Empty(t, page.Refs)
}

func TestParsePage_AdmissionAfterOverlap(t *testing.T) {
	doc := `<p>Studiepoeng 10</p>
<h2>Anbefalte forkunnskaper</h2><a href="/emner/X/Y/A100/index.html">A100</a>
<h2>Overlappende emner</h2>
<h2>Opptak til emnet</h2>`
	page := extract.ParsePage(doc, "emne")
	assert.Equal(t, 10, page.Credits)
	assert.Empty(t, page.Refs)
}

func TestCodeFromHref(t *testing.T) {
	cases := map[string]string{
		"/studier/emner/matnat/math/MAT1100/index.html":    "MAT1100",
		"/studier/emner/matnat/math/MAT1100/":              "MAT1100",
		"https://www.uio.no/studier/emner/hf/iln/NOR1101/": "NOR1101",
		"/a/B/index.html?lang=en":                          "B",
	}
	for href, want := range cases {
		got, ok := extract.CodeFromHref(href)
		assert.True(t, ok, href)
		assert.Equal(t, want, got, href)
	}
	_, ok := extract.CodeFromHref("index.html")
	assert.False(t, ok)
}

func newClient(t *testing.T, srv *httptest.Server) *fetch.Client {
	t.Helper()
	c, err := fetch.New(fetch.Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestHTMLExtractor_FetchFailureIsDistinguishable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok/index.html":
			_, _ = w.Write([]byte(`<p>Studiepoeng 10</p>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ex := extract.NewHTMLExtractor(newClient(t, srv), "emne")

	page, err := ex.Extract(context.Background(), "/ok/index.html")
	require.NoError(t, err)
	assert.Equal(t, 10, page.Credits)
	assert.Empty(t, page.Refs)

	_, err = ex.Extract(context.Background(), "/missing/index.html")
	require.ErrorIs(t, err, fetch.ErrFetch)
}

const noticePage = `<html><body>
<div class="vrtx-context-message-box uio-info-message blue grid-container">
  <p>Emnet er nedlagt, se <a href="/studier/emner/matnat/ifi/IN1000/index.html">IN1000</a></p>
</div></body></html>`

func TestParseRedirect(t *testing.T) {
	code, ok := extract.ParseRedirect(noticePage)
	assert.True(t, ok)
	assert.Equal(t, "IN1000", code)

	_, ok = extract.ParseRedirect(`<div class="blue"><a href="/x/Y/index.html">y</a></div>`)
	assert.False(t, ok)
}

func TestRedirects_CachesOutcome(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/old/INF1000/index.html":
			_, _ = w.Write([]byte(noticePage))
		case "/plain/X1/index.html":
			_, _ = w.Write([]byte(`<p>nothing here</p>`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	res, err := extract.NewRedirects(newClient(t, srv), 16)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		code, ok := res.Resolve(ctx, "/old/INF1000/index.html")
		assert.True(t, ok)
		assert.Equal(t, "IN1000", code)
	}
	for i := 0; i < 2; i++ {
		_, ok := res.Resolve(ctx, "/plain/X1/index.html")
		assert.False(t, ok)
	}
	assert.Equal(t, int32(2), hits.Load())

	// Failures are fail-open and retried on the next call.
	_, ok := res.Resolve(ctx, "/broken/Z/index.html")
	assert.False(t, ok)
	_, ok = res.Resolve(ctx, "/broken/Z/index.html")
	assert.False(t, ok)
	assert.Equal(t, int32(4), hits.Load())
}
