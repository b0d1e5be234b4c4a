package thredds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/seabright/wrf-wind-maps/internal/domain"
	"github.com/seabright/wrf-wind-maps/internal/observability"
)

// CachedFetcher wraps a Fetcher with an on-disk cache so repeated runs
// over the same window do not re-download multi-hundred-megabyte
// grids.
type CachedFetcher struct {
	inner   Fetcher
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedFetcher creates a disk cache decorator around a fetcher.
// The cache directory is created on first write.
func NewCachedFetcher(inner Fetcher, dir string, logger *slog.Logger, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		dir:     dir,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *CachedFetcher) FetchWindow(ctx context.Context, heightMeters int, start, end time.Time) (domain.WindField, error) {
	path := filepath.Join(c.dir, cacheKey(heightMeters, start, end))

	if field, ok := c.read(path); ok {
		c.metrics.FieldCache.WithLabelValues("hit").Inc()
		return field, nil
	}
	c.metrics.FieldCache.WithLabelValues("miss").Inc()

	field, err := c.inner.FetchWindow(ctx, heightMeters, start, end)
	if err != nil {
		return domain.WindField{}, err
	}

	if err := c.write(path, field); err != nil {
		// Cache writes are best effort; the field itself is good.
		c.metrics.FieldCache.WithLabelValues("error").Inc()
		c.logger.Warn("field cache write failed", "path", path, "error", err)
	}
	return field, nil
}

func (c *CachedFetcher) read(path string) (domain.WindField, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.WindField{}, false
	}

	var field domain.WindField
	if err := json.Unmarshal(data, &field); err != nil || field.Validate() != nil {
		// A corrupt or truncated entry is dropped and refetched.
		c.logger.Warn("discarding corrupt field cache entry", "path", path)
		os.Remove(path) //nolint:errcheck // best-effort cleanup
		return domain.WindField{}, false
	}
	return field, true
}

func (c *CachedFetcher) write(path string, field domain.WindField) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.Marshal(field)
	if err != nil {
		return fmt.Errorf("encode field: %w", err)
	}

	// Write to a temp file and rename so a crashed run never leaves a
	// half-written entry behind.
	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func cacheKey(heightMeters int, start, end time.Time) string {
	return fmt.Sprintf("wind_%dm_%s_%s.json",
		heightMeters,
		start.UTC().Format("20060102T15"),
		end.UTC().Format("20060102T15"))
}
