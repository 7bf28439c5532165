package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, config.Validate(cfg))

	assert.Equal(t, 8, cfg.Crawler.Workers)
	assert.Equal(t, 15*time.Second, cfg.Crawler.RequestTimeout())
	assert.Equal(t, "file", cfg.Snapshot.Backend)
	assert.Equal(t, 4096, cfg.Crawler.RedirectCacheSize)
	assert.Len(t, cfg.Catalog.Faculties, 8)
}

func TestParse_OverridesAndDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
version: v1
crawler:
  workers: 16
  shuffle_seed: 42
prune:
  seeds: [MAT1100]
  select: 'code matches "^MAT"'
`))
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))

	assert.Equal(t, 16, cfg.Crawler.Workers)
	assert.Equal(t, uint64(42), cfg.Crawler.ShuffleSeed)
	assert.Equal(t, []string{"MAT1100"}, cfg.Prune.Seeds)
	assert.Equal(t, "https://www.uio.no", cfg.Catalog.BaseURL)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg, err := config.Parse([]byte(`
log: {level: loud, format: xml}
catalog: {base_url: "not a url", listing_path: "/emner/"}
crawler: {workers: -2}
snapshot: {backend: s3}
prune: {select: "level =="}
`))
	require.NoError(t, err)

	err = config.Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{
		"log.level", "log.format", "catalog.base_url", "catalog.listing_path",
		"crawler.workers", "snapshot.s3.endpoint", "prune.select",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := config.Parse([]byte("crawler: [unclosed"))
	require.Error(t, err)
}

func TestListingURLs(t *testing.T) {
	cat := config.Default().Catalog

	assert.Equal(t, []string{"https://www.uio.no/studier/emner/matnat/math/"}, cat.ListingURLs("matnat/math"))

	all := cat.ListingURLs("alle/uio")
	require.Len(t, all, 8)
	assert.Equal(t, "https://www.uio.no/studier/emner/hf/", all[0])
	assert.Equal(t, "https://www.uio.no/studier/emner/annet/", all[7])
}

func TestLoader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prereq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawler: {workers: 2}\n"), 0o644))

	l, err := config.NewLoader(path)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Config().Crawler.Workers)

	var got *config.Config
	l.OnChange(func(c *config.Config) { got = c })

	require.NoError(t, os.WriteFile(path, []byte("crawler: {workers: 5}\n"), 0o644))
	_, err = l.Reload()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.Crawler.Workers)
	assert.Equal(t, 5, l.Config().Crawler.Workers)

	// An invalid file keeps the previous config.
	require.NoError(t, os.WriteFile(path, []byte("crawler: {workers: -1}\n"), 0o644))
	_, err = l.Reload()
	require.Error(t, err)
	assert.Equal(t, 5, l.Config().Crawler.Workers)
}

func TestStatic(t *testing.T) {
	l := config.Static(config.Default())
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Same(t, l.Config(), cfg)

	_, err = l.Watch()
	require.Error(t, err)
}
