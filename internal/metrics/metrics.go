package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prereqgraph_pages_fetched_total",
		Help: "Total number of page fetches, labelled by page kind and outcome.",
	}, []string{"kind", "status"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prereqgraph_fetch_duration_seconds",
		Help:    "Page fetch latency in seconds, labelled by page kind.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})

	ListingsVisited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prereqgraph_listings_visited_total",
		Help: "Total number of catalog listing pages crawled during discovery.",
	})

	CoursesDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prereqgraph_course_links_seen_total",
		Help: "Total number of course links seen on listing pages (including repeats).",
	})

	CoursesEnriched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prereqgraph_courses_enriched_total",
		Help: "Total number of courses processed by enrichment workers, labelled by status.",
	}, []string{"status"})

	EdgesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prereqgraph_edges_inserted_total",
		Help: "Total number of prerequisite edges inserted into the registry.",
	})

	ReferencesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prereqgraph_references_dropped_total",
		Help: "Total number of prerequisite references that did not become an edge, labelled by reason.",
	}, []string{"reason"})

	RedirectLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prereqgraph_redirect_lookups_total",
		Help: "Discontinued-course redirect resolutions, labelled by cache result.",
	}, []string{"cache"})

	EnrichmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prereqgraph_enrichment_duration_seconds",
		Help:    "Wall time of a full enrichment run in seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	RegistrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prereqgraph_registry_courses",
		Help: "Number of courses in the currently served graph.",
	})

	QueriesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prereqgraph_api_queries_total",
		Help: "Total number of API queries, labelled by route and status code class.",
	}, []string{"route", "status"})
)
