package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/api"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/cli"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/config"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/course"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/discovery"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/engine"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/export"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/extract"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/fetch"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/graph"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/query"
	"github.com/gyaneshwarpardhi/prereqgraph/internal/snapshot"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, exit, err := cli.Parse(args, stderr)
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(stderr, "error:", exitErr.Message)
			return exitErr.Code
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if exit {
		return 0
	}

	// ── Load config ──────────────────────────────────────────────────────────
	loader := config.Static(config.Default())
	if opts.ConfigPath != "" {
		if loader, err = config.NewLoader(opts.ConfigPath); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}
	cfg := loader.Config()
	opts.Apply(cfg)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	log := cli.NewLogger(cfg.Log.Level, cfg.Log.Format, stderr)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Registry: snapshot or crawl ──────────────────────────────────────────
	store, err := openStore(cfg.Snapshot)
	if err != nil {
		log.Error("snapshot store unavailable", "err", err)
		return 1
	}
	data, err := loadOrCrawl(ctx, cfg, opts, store, log)
	if err != nil {
		log.Error("building course registry failed", "err", err)
		return 1
	}

	g, err := buildGraph(data, cfg.Prune, log)
	if err != nil {
		log.Error("building graph failed", "err", err)
		return 1
	}

	// ── Export ───────────────────────────────────────────────────────────────
	switch {
	case opts.Export != "":
		if err := runExport(ctx, cfg, opts, g, stdout, log); err != nil {
			log.Error("export failed", "format", opts.Export, "err", err)
			return 1
		}
	case opts.Serve == "":
		printCourses(stdout, g)
	}

	if opts.Serve == "" {
		return 0
	}

	// ── Query API with hot-reload ────────────────────────────────────────────
	handler := api.New(g, log)
	loader.OnChange(func(newCfg *config.Config) {
		opts.Apply(newCfg)
		next, err := buildGraph(data, newCfg.Prune, log)
		if err != nil {
			log.Warn("hot-reload skipped: graph build failed", "err", err)
			return
		}
		handler.Swap(next)
		log.Info("graph hot-reloaded", "courses", next.Len())
	})
	if opts.ConfigPath != "" {
		stopWatch, err := loader.Watch()
		if err != nil {
			log.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	srv := &http.Server{
		Addr:         opts.Serve,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", opts.Serve)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			return 1
		}
	case <-ctx.Done():
		log.Info("shutting down…")
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutCtx)
	log.Info("goodbye")
	return 0
}

func openStore(c config.SnapshotConf) (snapshot.Store, error) {
	if c.Backend == "s3" {
		return snapshot.NewS3Store(snapshot.S3Config{
			Endpoint:  c.S3.Endpoint,
			Region:    c.S3.Region,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			Bucket:    c.S3.Bucket,
			Prefix:    c.S3.Prefix,
			UseSSL:    c.S3.UseSSL,
		})
	}
	return snapshot.NewFileStore(c.Dir), nil
}

// loadOrCrawl returns the encoded snapshot for the subtree, crawling and
// storing it when there is none (or -refresh was given).
func loadOrCrawl(ctx context.Context, cfg *config.Config, opts *cli.Options, store snapshot.Store, log *slog.Logger) ([]byte, error) {
	key := snapshot.Key(opts.Subtree)
	if !opts.Refresh {
		data, err := store.Get(ctx, key)
		if err == nil {
			log.Info("snapshot loaded", "key", key)
			return data, nil
		}
		if !errors.Is(err, snapshot.ErrNotFound) {
			return nil, err
		}
	}

	reg, err := crawl(ctx, cfg, opts.Subtree, log)
	if err != nil {
		return nil, err
	}
	data, err := snapshot.Encode(reg, opts.Subtree)
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, key, data); err != nil {
		// The crawl result is still usable for this run.
		log.Warn("snapshot not stored", "key", key, "err", err)
	} else {
		log.Info("snapshot stored", "key", key)
	}
	return data, nil
}

func crawl(ctx context.Context, cfg *config.Config, subtree string, log *slog.Logger) (*course.Registry, error) {
	client, err := fetch.New(fetch.Options{
		BaseURL:   cfg.Catalog.BaseURL,
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.Crawler.RequestTimeout(),
	})
	if err != nil {
		return nil, err
	}

	reg := course.NewRegistry()
	crawler := discovery.New(client, discovery.Options{
		CourseSuffix: cfg.Catalog.CourseLinkSuffix,
		PageMarker:   cfg.Catalog.PaginationMarker,
		Parallel:     cfg.Crawler.DiscoveryParallel,
		Logger:       log,
	})
	if err := crawler.Discover(ctx, reg, cfg.Catalog.ListingURLs(subtree)...); err != nil {
		return nil, err
	}

	redirects, err := extract.NewRedirects(client, cfg.Crawler.RedirectCacheSize)
	if err != nil {
		return nil, err
	}
	en := engine.New(extract.NewHTMLExtractor(client, cfg.Catalog.CoursePathMarker), engine.Options{
		Workers:  cfg.Crawler.Workers,
		Seed:     cfg.Crawler.ShuffleSeed,
		Resolver: redirects,
		Logger:   log,
	})

	pctx, stopProgress := context.WithCancel(ctx)
	go engine.LogProgress(pctx, en, reg.Len(), cfg.Crawler.ProgressInterval(), log)
	rep, err := en.Enrich(ctx, reg)
	stopProgress()
	if err != nil {
		return nil, fmt.Errorf("enrichment: %w", err)
	}
	log.Info("enrichment finished",
		"courses", rep.Courses, "edges", rep.Edges, "dropped", rep.Dropped,
		"failed", len(rep.Failed), "duration", rep.Duration.Round(time.Millisecond))
	if len(rep.Failed) > 0 {
		log.Warn("courses without enrichment", "codes", rep.Failed)
	}
	return reg, nil
}

// buildGraph decodes a fresh registry, drops isolated courses and prunes
// around the configured seeds.
func buildGraph(data []byte, prune config.PruneConf, log *slog.Logger) (*graph.Graph, error) {
	reg, _, err := snapshot.Decode(data)
	if err != nil {
		return nil, err
	}
	graph.DropIsolated(reg)
	g := graph.New(reg)

	seeds := append([]string(nil), prune.Seeds...)
	if prune.Select != "" {
		q, err := query.Parse(prune.Select)
		if err != nil {
			return nil, fmt.Errorf("prune.select: %w", err)
		}
		selected := course.Codes(q.Filter(g.Courses()))
		log.Info("selection resolved", "expr", q.String(), "matches", len(selected))
		seeds = append(seeds, selected...)
	}
	g.Prune(seeds)
	return g, nil
}

func runExport(ctx context.Context, cfg *config.Config, opts *cli.Options, g *graph.Graph, stdout io.Writer, log *slog.Logger) error {
	reg := export.NewRegistry()
	if opts.Export == "neo4j" {
		n, err := export.NewNeo4j(ctx, export.Neo4jOptions{
			URI:      cfg.Neo4j.URI,
			User:     cfg.Neo4j.User,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
			Timeout:  time.Duration(cfg.Neo4j.TimeoutMs) * time.Millisecond,
			Logger:   log,
		})
		if err != nil {
			return err
		}
		defer n.Close(ctx)
		reg.Register(n)
	}
	ex, err := reg.Get(opts.Export)
	if err != nil {
		return err
	}

	w := stdout
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := ex.Export(ctx, g, w); err != nil {
		return err
	}
	log.Info("export written", "format", opts.Export, "courses", g.Len())
	return nil
}

func printCourses(w io.Writer, g *graph.Graph) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tLEVEL\tCREDITS\tPREREQUISITES\tNAME")
	for _, c := range g.Courses() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%v\t%s\n", c.Code, c.Level, c.Credits(), c.PrerequisiteCodes(), c.Name)
	}
	_ = tw.Flush()
}
