package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/extract"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/metrics"
)

// Report summarises one enrichment run.
type Report struct {
	Courses  int           `json:"courses"`
	Failed   []string      `json:"failed,omitempty"`
	Edges    int           `json:"edges"`
	Dropped  int           `json:"dropped"`
	Duration time.Duration `json:"duration"`
}

// Options configures an Enricher.
type Options struct {
	Workers  int
	Seed     uint64 // 0 = seeded from the clock
	Resolver extract.Resolver
	Logger   *slog.Logger
}

// Enricher fetches every registered course page and records the
// prerequisite edges it finds.
type Enricher struct {
	extractor extract.Extractor
	resolver  extract.Resolver
	workers   int
	seed      uint64
	log       *slog.Logger
	progress  atomic.Pointer[[]atomic.Int64]
}

// tally is one worker's share of the report.
type tally struct {
	failed  []string
	edges   int
	dropped int
}

// New creates an Enricher. A nil Resolver disables redirect resolution.
func New(ex extract.Extractor, opts Options) *Enricher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Enricher{
		extractor: ex,
		resolver:  opts.Resolver,
		workers:   opts.Workers,
		seed:      opts.Seed,
		log:       opts.Logger,
	}
}

// Progress returns the number of courses each worker of the current (or
// last) run has finished.
func (e *Enricher) Progress() []int64 {
	p := e.progress.Load()
	if p == nil {
		return nil
	}
	out := make([]int64, len(*p))
	for i := range *p {
		out[i] = (*p)[i].Load()
	}
	return out
}

// Enrich processes every course in reg and blocks until all workers finish.
// Individual course failures are recorded in the report; only a cancelled
// ctx produces an error.
func (e *Enricher) Enrich(ctx context.Context, reg *course.Registry) (Report, error) {
	start := time.Now()
	all := reg.Sorted()
	e.shuffle(all)

	parts := partition(all, e.workers)
	counters := make([]atomic.Int64, len(parts))
	e.progress.Store(&counters)
	tallies := make([]tally, len(parts))

	pool := newSlicePool(parts, func(ctx context.Context, worker int, c *course.Course) {
		e.enrichOne(ctx, reg, c, &tallies[worker])
		counters[worker].Add(1)
	})
	e.log.Info("enrichment started", "courses", len(all), "workers", len(parts))
	pool.Run(ctx)

	rep := Report{Courses: len(all), Duration: time.Since(start)}
	for _, t := range tallies {
		rep.Failed = append(rep.Failed, t.failed...)
		rep.Edges += t.edges
		rep.Dropped += t.dropped
	}
	slices.Sort(rep.Failed)
	metrics.EnrichmentDuration.Observe(rep.Duration.Seconds())

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (e *Enricher) shuffle(cs []*course.Course) {
	seed := e.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(cs), func(i, j int) { cs[i], cs[j] = cs[j], cs[i] })
}

func (e *Enricher) enrichOne(ctx context.Context, reg *course.Registry, c *course.Course, t *tally) {
	page, err := e.extractor.Extract(ctx, c.URL)
	if err != nil {
		// fail-open: the course keeps what it has.
		e.log.Warn("course enrichment failed", "code", c.Code, "url", c.URL, "err", err)
		metrics.CoursesEnriched.WithLabelValues("failed").Inc()
		t.failed = append(t.failed, c.Code)
		return
	}
	reg.SetCredits(c, page.Credits)

	for _, ref := range page.Refs {
		prereq, ok := reg.Lookup(ref.Code)
		if !ok {
			prereq, ok = e.redirect(ctx, reg, ref)
		}
		if !ok {
			e.log.Debug("reference dropped", "code", c.Code, "ref", ref.Code)
			metrics.ReferencesDropped.WithLabelValues("unregistered").Inc()
			t.dropped++
			continue
		}
		if reg.AddEdge(c, prereq) {
			metrics.EdgesInserted.Inc()
			t.edges++
		}
	}
	metrics.CoursesEnriched.WithLabelValues("ok").Inc()
}

// redirect follows a discontinued-course notice once.
func (e *Enricher) redirect(ctx context.Context, reg *course.Registry, ref extract.Reference) (*course.Course, bool) {
	if e.resolver == nil {
		return nil, false
	}
	code, ok := e.resolver.Resolve(ctx, ref.Href)
	if !ok {
		return nil, false
	}
	c, ok := reg.Lookup(code)
	if ok {
		e.log.Debug("reference redirected", "from", ref.Code, "to", code)
	}
	return c, ok
}

// LogProgress logs the summed worker progress every interval until ctx ends.
func LogProgress(ctx context.Context, e *Enricher, total int, every time.Duration, log *slog.Logger) {
	if every <= 0 {
		return
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			var done int64
			for _, n := range e.Progress() {
				done += n
			}
			log.Info("enrichment progress", "done", done, "total", total)
		}
	}
}
