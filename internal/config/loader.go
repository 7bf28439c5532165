package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Static wraps an in-memory config; Watch and Reload are unavailable.
func Static(cfg *Config) *Loader {
	return &Loader{current: cfg}
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	if l.path == "" {
		return nil, fmt.Errorf("config watcher: no config file")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	if l.path == "" {
		return l.Config(), nil
	}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills in defaults for every unset field.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the built-in configuration for the UiO catalog.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	c := &cfg.Catalog
	if c.BaseURL == "" {
		c.BaseURL = "https://www.uio.no"
	}
	if c.ListingPath == "" {
		c.ListingPath = "/studier/emner/%s/"
	}
	if c.AllAlias == "" {
		c.AllAlias = "alle/uio"
	}
	if len(c.Faculties) == 0 {
		c.Faculties = []string{"hf", "odont", "jus", "matnat", "sv", "teologi", "medisin", "annet"}
	}
	if c.CourseLinkSuffix == "" {
		c.CourseLinkSuffix = "html"
	}
	if c.PaginationMarker == "" {
		c.PaginationMarker = "page"
	}
	if c.CoursePathMarker == "" {
		c.CoursePathMarker = "emne"
	}

	cr := &cfg.Crawler
	if cr.Workers == 0 {
		cr.Workers = 8
	}
	if cr.RequestTimeoutMs == 0 {
		cr.RequestTimeoutMs = 15000
	}
	if cr.UserAgent == "" {
		cr.UserAgent = "prereqgraph/1.0"
	}
	if cr.RedirectCacheSize == 0 {
		cr.RedirectCacheSize = 4096
	}
	if cr.ProgressIntervalMs == 0 {
		cr.ProgressIntervalMs = 2000
	}
	if cr.DiscoveryParallel == 0 {
		cr.DiscoveryParallel = 4
	}

	if cfg.Snapshot.Backend == "" {
		cfg.Snapshot.Backend = "file"
	}
	if cfg.Snapshot.Dir == "" {
		cfg.Snapshot.Dir = "."
	}
	if cfg.Snapshot.S3.Region == "" {
		cfg.Snapshot.S3.Region = "us-east-1"
	}

	if cfg.Neo4j.User == "" {
		cfg.Neo4j.User = "neo4j"
	}
	if cfg.Neo4j.TimeoutMs == 0 {
		cfg.Neo4j.TimeoutMs = 10000
	}

	if cfg.Server.ReadTimeoutMs == 0 {
		cfg.Server.ReadTimeoutMs = 10000
	}
	if cfg.Server.WriteTimeoutMs == 0 {
		cfg.Server.WriteTimeoutMs = 30000
	}
}
