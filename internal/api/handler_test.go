package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/api"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/graph"
)

func mathGraph(t *testing.T) *graph.Graph {
	t.Helper()
	reg := course.NewRegistry()
	m100 := reg.Register("math100", "/math100.html", "Intro")
	m101 := reg.Register("math101", "/math101.html", "Calculus")
	m201 := reg.Register("math201", "/math201.html", "Analysis")
	other := reg.Register("bio100", "/bio100.html", "Biology")
	bio := reg.Register("bio200", "/bio200.html", "Genetics")
	reg.AddEdge(m101, m100)
	reg.AddEdge(m201, m101)
	reg.AddEdge(bio, other)
	return graph.New(reg)
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func codes(t *testing.T, v any) []string {
	t.Helper()
	list, ok := v.([]any)
	require.True(t, ok)
	var out []string
	for _, item := range list {
		out = append(out, item.(map[string]any)["code"].(string))
	}
	return out
}

func TestListCourses(t *testing.T) {
	h := api.New(mathGraph(t), nil)

	rec, body := do(t, h, http.MethodGet, "/v1/courses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), body["count"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, body = do(t, h, http.MethodGet, "/v1/courses?where="+url.QueryEscape(`code matches "^math" AND dependents == 0`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"math201"}, codes(t, body["courses"]))

	rec, body = do(t, h, http.MethodGet, "/v1/courses?where="+url.QueryEscape(`nonsense ==`), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestGetCourse(t *testing.T) {
	h := api.New(mathGraph(t), nil)

	rec, body := do(t, h, http.MethodGet, "/v1/courses/math101", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Calculus", body["name"])
	assert.Equal(t, []any{"math100"}, body["prerequisites"])
	assert.Equal(t, []any{"math201"}, body["dependents"])

	rec, _ = do(t, h, http.MethodGet, "/v1/courses/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClosureRoutes(t *testing.T) {
	h := api.New(mathGraph(t), nil)

	rec, body := do(t, h, http.MethodGet, "/v1/courses/math201/ancestors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"math100", "math101"}, codes(t, body["courses"]))

	rec, body = do(t, h, http.MethodGet, "/v1/courses/math100/descendants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"math101", "math201"}, codes(t, body["courses"]))

	rec, _ = do(t, h, http.MethodGet, "/v1/courses/nope/ancestors", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrune(t *testing.T) {
	h := api.New(mathGraph(t), nil)

	rec, _ := do(t, h, http.MethodPost, "/v1/prune", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/v1/prune", `{"seeds":["math101"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["pruned"])
	assert.Equal(t, float64(3), body["courses"])

	rec, _ = do(t, h, http.MethodGet, "/v1/courses/bio200", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, body = do(t, h, http.MethodPost, "/v1/prune", `{"seeds":[]}`)
	assert.Equal(t, false, body["pruned"])
}

func TestSwap(t *testing.T) {
	h := api.New(mathGraph(t), nil)
	h.Swap(graph.New(course.NewRegistry()))

	rec, body := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["courses"])
}
