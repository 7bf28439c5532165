package config

import "time"

// Config is the top-level YAML structure.
type Config struct {
	Version  string       `yaml:"version"`
	Log      LogConf      `yaml:"log"`
	Catalog  CatalogConf  `yaml:"catalog"`
	Crawler  CrawlerConf  `yaml:"crawler"`
	Snapshot SnapshotConf `yaml:"snapshot"`
	Prune    PruneConf    `yaml:"prune"`
	Neo4j    Neo4jConf    `yaml:"neo4j"`
	Server   ServerConf   `yaml:"server"`
}

// LogConf selects the slog handler.
type LogConf struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// CatalogConf describes where the course listings live.
type CatalogConf struct {
	BaseURL          string   `yaml:"base_url"`
	ListingPath      string   `yaml:"listing_path"` // fmt template, %s = subtree
	AllAlias         string   `yaml:"all_alias"`    // subtree that expands to every faculty
	Faculties        []string `yaml:"faculties"`
	CourseLinkSuffix string   `yaml:"course_link_suffix"`
	PaginationMarker string   `yaml:"pagination_marker"`
	CoursePathMarker string   `yaml:"course_path_marker"`
}

// CrawlerConf holds the enrichment pool and HTTP settings.
type CrawlerConf struct {
	Workers            int    `yaml:"workers"`
	RequestTimeoutMs   int    `yaml:"request_timeout_ms"`
	UserAgent          string `yaml:"user_agent"`
	ShuffleSeed        uint64 `yaml:"shuffle_seed"` // 0 = seeded from the clock
	RedirectCacheSize  int    `yaml:"redirect_cache_size"`
	ProgressIntervalMs int    `yaml:"progress_interval_ms"`
	DiscoveryParallel  int    `yaml:"discovery_parallel"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c CrawlerConf) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// ProgressInterval returns the progress log period as a duration.
func (c CrawlerConf) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMs) * time.Millisecond
}

// SnapshotConf selects where crawled registries are cached.
type SnapshotConf struct {
	Backend string `yaml:"backend"` // file | s3
	Dir     string `yaml:"dir"`
	S3      S3Conf `yaml:"s3"`
}

// S3Conf configures the S3-compatible snapshot backend.
type S3Conf struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// PruneConf lists seeds applied after loading. Select is a course filter
// expression whose matches are added to Seeds.
type PruneConf struct {
	Seeds  []string `yaml:"seeds"`
	Select string   `yaml:"select"`
}

// Neo4jConf configures the neo4j exporter. An empty URI disables it.
type Neo4jConf struct {
	URI       string `yaml:"uri"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ServerConf tunes the query API.
type ServerConf struct {
	ReadTimeoutMs  int `yaml:"read_timeout_ms"`
	WriteTimeoutMs int `yaml:"write_timeout_ms"`
}
