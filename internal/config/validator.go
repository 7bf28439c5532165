package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/query"
)

// Validate checks the config for:
//   - a parseable absolute catalog base URL and a listing template with one %s
//   - a positive worker count and request timeout
//   - a known snapshot backend with the fields it needs
//   - a parseable prune selection expression
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", cfg.Log.Level))
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", cfg.Log.Format))
	}

	if u, err := url.Parse(cfg.Catalog.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("catalog.base_url %q must be an absolute URL", cfg.Catalog.BaseURL))
	}
	if strings.Count(cfg.Catalog.ListingPath, "%s") != 1 {
		errs = append(errs, fmt.Sprintf("catalog.listing_path %q must contain exactly one %%s", cfg.Catalog.ListingPath))
	}
	if len(cfg.Catalog.Faculties) == 0 {
		errs = append(errs, "catalog.faculties must not be empty")
	}

	if cfg.Crawler.Workers < 1 {
		errs = append(errs, fmt.Sprintf("crawler.workers must be >= 1, got %d", cfg.Crawler.Workers))
	}
	if cfg.Crawler.RequestTimeoutMs < 1 {
		errs = append(errs, fmt.Sprintf("crawler.request_timeout_ms must be >= 1, got %d", cfg.Crawler.RequestTimeoutMs))
	}
	if cfg.Crawler.DiscoveryParallel < 1 {
		errs = append(errs, fmt.Sprintf("crawler.discovery_parallel must be >= 1, got %d", cfg.Crawler.DiscoveryParallel))
	}

	switch cfg.Snapshot.Backend {
	case "file":
		if cfg.Snapshot.Dir == "" {
			errs = append(errs, "snapshot.dir is required for the file backend")
		}
	case "s3":
		s3 := cfg.Snapshot.S3
		if s3.Endpoint == "" || s3.Bucket == "" {
			errs = append(errs, "snapshot.s3.endpoint and snapshot.s3.bucket are required for the s3 backend")
		}
		if s3.AccessKey == "" || s3.SecretKey == "" {
			errs = append(errs, "snapshot.s3.access_key and snapshot.s3.secret_key are required for the s3 backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("snapshot.backend %q must be file or s3", cfg.Snapshot.Backend))
	}

	if cfg.Prune.Select != "" {
		if _, err := query.Parse(cfg.Prune.Select); err != nil {
			errs = append(errs, fmt.Sprintf("prune.select: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ListingURLs expands a subtree argument into the listing pages to crawl.
func (c CatalogConf) ListingURLs(subtree string) []string {
	subtree = strings.Trim(subtree, "/")
	if subtree == c.AllAlias {
		out := make([]string, 0, len(c.Faculties))
		for _, f := range c.Faculties {
			out = append(out, c.listingURL(f))
		}
		return out
	}
	return []string{c.listingURL(subtree)}
}

func (c CatalogConf) listingURL(subtree string) string {
	return strings.TrimRight(c.BaseURL, "/") + fmt.Sprintf(c.ListingPath, subtree)
}
