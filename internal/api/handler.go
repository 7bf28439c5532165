package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/graph"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/metrics"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/query"
)

// Handler serves read queries over the current graph.
type Handler struct {
	graph atomic.Pointer[graph.Graph]
	mux   *http.ServeMux
	next  http.Handler
	log   *slog.Logger
}

// New creates a Handler serving g and registers all routes.
func New(g *graph.Graph, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{mux: http.NewServeMux(), log: log}
	h.Swap(g)

	h.mux.HandleFunc("GET /v1/courses", h.listCourses)
	h.mux.HandleFunc("GET /v1/courses/{code}", h.getCourse)
	h.mux.HandleFunc("GET /v1/courses/{code}/ancestors", h.ancestors)
	h.mux.HandleFunc("GET /v1/courses/{code}/descendants", h.descendants)
	h.mux.HandleFunc("POST /v1/prune", h.prune)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	h.next = loggingMiddleware(h.log, h.mux)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.next.ServeHTTP(w, r)
}

// Swap atomically replaces the served graph (used on hot-reload).
func (h *Handler) Swap(g *graph.Graph) {
	h.graph.Store(g)
	metrics.RegistrySize.Set(float64(g.Len()))
}

// GET /v1/courses[?where=expr]
func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses := h.graph.Load().Courses()
	if where := r.URL.Query().Get("where"); where != "" {
		q, err := query.Parse(where)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		courses = q.Filter(courses)
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(courses), Courses: summaries(courses)})
}

// GET /v1/courses/{code}
func (h *Handler) getCourse(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	c, ok := h.graph.Load().Course(code)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("course %q not found", code))
		return
	}
	writeJSON(w, http.StatusOK, detail(c))
}

// GET /v1/courses/{code}/ancestors
func (h *Handler) ancestors(w http.ResponseWriter, r *http.Request) {
	h.closure(w, r.PathValue("code"), h.graph.Load().Ancestors)
}

// GET /v1/courses/{code}/descendants
func (h *Handler) descendants(w http.ResponseWriter, r *http.Request) {
	h.closure(w, r.PathValue("code"), h.graph.Load().Descendants)
}

func (h *Handler) closure(w http.ResponseWriter, code string, fn func(string) ([]*course.Course, error)) {
	cs, err := fn(code)
	if errors.Is(err, course.ErrUnknownCourse) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("course %q not found", code))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, closureResponse{Code: code, Count: len(cs), Courses: summaries(cs)})
}

type pruneRequest struct {
	Seeds []string `json:"seeds"`
}

// POST /v1/prune: cut the served graph down to the seeds' connected set.
func (h *Handler) prune(w http.ResponseWriter, r *http.Request) {
	var req pruneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	g := h.graph.Load()
	pruned := g.Prune(req.Seeds)
	metrics.RegistrySize.Set(float64(g.Len()))
	writeJSON(w, http.StatusOK, map[string]any{
		"pruned":  pruned,
		"courses": g.Len(),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"courses": h.graph.Load().Len(),
	})
}
