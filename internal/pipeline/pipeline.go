// Package pipeline orchestrates a report run: bucket the requested
// window, fetch wind fields per height, reduce them to statistics,
// render the images, and publish artifact manifests.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/seabright/wrf-wind-maps/internal/daterange"
	"github.com/seabright/wrf-wind-maps/internal/domain"
	"github.com/seabright/wrf-wind-maps/internal/observability"
	"github.com/seabright/wrf-wind-maps/internal/region"
	"github.com/seabright/wrf-wind-maps/internal/render"
)

// Fetcher retrieves hourly u/v wind grids for a height and time window.
type Fetcher interface {
	FetchWindow(ctx context.Context, heightMeters int, start, end time.Time) (domain.WindField, error)
}

// Renderer draws the report images and returns written file paths.
type Renderer interface {
	WindMap(req render.MapRequest) (string, error)
	Hovmoller(req render.HovmollerRequest) (string, error)
}

// Notifier publishes manifests for the artifacts a run produced.
type Notifier interface {
	PublishManifests(ctx context.Context, artifacts []domain.Artifact) error
}

// CrossSection is the line the divergence Hovmoller diagrams sample,
// from a coastal point out to sea.
type CrossSection struct {
	StartLat, StartLon float64
	EndLat, EndLon     float64
	Points             int
}

// DefaultCrossSection runs from the New Jersey coast southeast across
// the nearshore lease areas.
func DefaultCrossSection() CrossSection {
	return CrossSection{
		StartLat: 39.64, StartLon: -74.745,
		EndLat: 39.1, EndLon: -74.15,
		Points: 27,
	}
}

// Params selects what a run produces.
type Params struct {
	Interval daterange.Interval
	Start    time.Time
	End      time.Time

	// Maps renders the per-region wind statistics maps at MapHeights.
	Maps       bool
	MapHeights []int
	Regions    []region.Region

	// Hovmoller renders divergence diagrams at HovmollerHeights along
	// CrossSection. When SeabreezeDays is non-empty only those days
	// contribute to the hourly means.
	Hovmoller        bool
	HovmollerHeights []int
	CrossSection     CrossSection
	SeabreezeDays    []time.Time
}

// Pipeline runs report generation over the bucketed window.
type Pipeline struct {
	fetcher  Fetcher
	renderer Renderer
	notifier Notifier // nil disables manifest publishing
	logger   *slog.Logger
	metrics  *observability.Metrics
	params   Params

	ready     atomic.Bool
	completed atomic.Int64
	total     atomic.Int64
}

// New creates a Pipeline. notifier may be nil when manifest publishing
// is disabled.
func New(f Fetcher, r Renderer, n Notifier, logger *slog.Logger, metrics *observability.Metrics, params Params) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		renderer: r,
		notifier: n,
		logger:   logger,
		metrics:  metrics,
		params:   params,
	}
}

// CheckReadiness returns nil once at least one bucket has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no report bucket has completed yet")
	}
	return nil
}

// Status reports completed and total bucket counts for the run.
func (p *Pipeline) Status() (completed, total int) {
	return int(p.completed.Load()), int(p.total.Load())
}

// Run generates the report. A failed bucket is logged and skipped;
// Run returns an error only when the window is invalid or every bucket
// fails.
func (p *Pipeline) Run(ctx context.Context) error {
	buckets, err := daterange.Buckets(p.params.Interval, p.params.Start, p.params.End)
	if err != nil {
		return fmt.Errorf("bucket window: %w", err)
	}

	p.logger.Info("report run started",
		"interval", string(p.params.Interval),
		"start", p.params.Start.UTC().Format("2006-01-02"),
		"end", p.params.End.UTC().Format("2006-01-02"),
		"buckets", len(buckets))
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	p.total.Store(int64(len(buckets)))

	var artifacts []domain.Artifact
	failed := 0
	for _, bucket := range buckets {
		if ctx.Err() != nil {
			p.logger.Info("report run stopping", "reason", ctx.Err())
			return ctx.Err()
		}

		arts, err := p.processBucket(ctx, bucket)
		if err != nil {
			p.logger.Error("bucket failed, skipping",
				"bucket_start", bucket.Start.UTC().Format("2006-01-02"),
				"error", err)
			p.metrics.BucketErrors.Inc()
			failed++
			continue
		}

		artifacts = append(artifacts, arts...)
		p.metrics.BucketsProcessed.Inc()
		p.completed.Add(1)
		p.ready.Store(true)
	}

	if failed == len(buckets) && len(buckets) > 0 {
		return fmt.Errorf("all %d buckets failed", len(buckets))
	}

	p.publish(ctx, artifacts)

	p.logger.Info("report run finished",
		"buckets", len(buckets),
		"failed", failed,
		"artifacts", len(artifacts))
	return nil
}

// processBucket renders every requested image for one date bucket.
// The fetch window extends to the last hour of the bucket's final day.
func (p *Pipeline) processBucket(ctx context.Context, bucket daterange.Range) ([]domain.Artifact, error) {
	fetchEnd := bucket.End.Add(23 * time.Hour)

	var artifacts []domain.Artifact
	if p.params.Maps {
		arts, err := p.renderMaps(ctx, bucket, fetchEnd)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, arts...)
	}
	if p.params.Hovmoller {
		arts, err := p.renderHovmollers(ctx, bucket, fetchEnd)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, arts...)
	}
	return artifacts, nil
}

func (p *Pipeline) renderMaps(ctx context.Context, bucket daterange.Range, fetchEnd time.Time) ([]domain.Artifact, error) {
	var artifacts []domain.Artifact
	for _, height := range p.params.MapHeights {
		field, err := p.fetch(ctx, height, bucket.Start, fetchEnd)
		if err != nil {
			return nil, err
		}
		stats := domain.ComputeStats(field)

		for _, reg := range p.params.Regions {
			regStats := stats
			if reg.Subset {
				regStats, err = stats.Subset(reg.Extent.Pad(0.5))
				if err != nil {
					return nil, fmt.Errorf("subset %s: %w", reg.Name, err)
				}
			}

			for _, v := range region.Variables() {
				path, err := p.renderer.WindMap(render.MapRequest{
					Stats:        regStats,
					Region:       reg,
					Variable:     v,
					HeightMeters: height,
					Interval:     p.params.Interval,
					Window:       p.window(),
					Bucket:       bucket,
				})
				if err != nil {
					p.metrics.RenderErrors.Inc()
					return nil, fmt.Errorf("render %s %s %dm: %w", reg.Name, v, height, err)
				}
				p.metrics.ImagesRendered.Inc()
				artifacts = append(artifacts,
					domain.NewArtifact(path, reg.Name, string(v), height, bucket.Start, bucket.End))
			}
		}
	}
	return artifacts, nil
}

func (p *Pipeline) renderHovmollers(ctx context.Context, bucket daterange.Range, fetchEnd time.Time) ([]domain.Artifact, error) {
	cs := p.params.CrossSection
	if cs.Points == 0 {
		cs = DefaultCrossSection()
	}

	var artifacts []domain.Artifact
	for _, height := range p.params.HovmollerHeights {
		field, err := p.fetch(ctx, height, bucket.Start, fetchEnd)
		if err != nil {
			return nil, err
		}
		if len(p.params.SeabreezeDays) > 0 {
			field = field.FilterDays(p.params.SeabreezeDays)
			if len(field.Times) == 0 {
				p.logger.Warn("no seabreeze days in bucket, skipping diagram",
					"bucket_start", bucket.Start.UTC().Format("2006-01-02"),
					"height_m", height)
				continue
			}
		}

		points := field.SampleLine(cs.StartLat, cs.StartLon, cs.EndLat, cs.EndLon, cs.Points)
		lons := make([]float64, len(points))
		for i, pt := range points {
			lons[i] = pt.Lon
		}

		var hours []int
		var rows [][]float64
		for hour := 0; hour < 24; hour++ {
			u, v, ok := field.HourlyMeanUV(hour)
			if !ok {
				continue
			}
			div := domain.Divergence(u, v, domain.GridSpacingMeters, domain.GridSpacingMeters)

			row := make([]float64, len(points))
			for i, pt := range points {
				row[i] = div[pt.J][pt.I]
			}
			hours = append(hours, hour)
			rows = append(rows, row)
		}
		if len(hours) == 0 {
			return nil, fmt.Errorf("no hourly data at %dm for bucket %s",
				height, bucket.Start.UTC().Format("2006-01-02"))
		}

		path, err := p.renderer.Hovmoller(render.HovmollerRequest{
			Lons:         lons,
			Hours:        hours,
			Divergence:   rows,
			HeightMeters: height,
			Interval:     p.params.Interval,
			Window:       p.window(),
			Bucket:       bucket,
		})
		if err != nil {
			p.metrics.RenderErrors.Inc()
			return nil, fmt.Errorf("render hovmoller %dm: %w", height, err)
		}
		p.metrics.ImagesRendered.Inc()
		artifacts = append(artifacts,
			domain.NewArtifact(path, "hovmoller", "divergence", height, bucket.Start, bucket.End))
	}
	return artifacts, nil
}

func (p *Pipeline) fetch(ctx context.Context, height int, start, end time.Time) (domain.WindField, error) {
	began := time.Now()
	field, err := p.fetcher.FetchWindow(ctx, height, start, end)
	if err != nil {
		return domain.WindField{}, fmt.Errorf("fetch %dm window: %w", height, err)
	}
	p.metrics.FetchDuration.Observe(time.Since(began).Seconds())
	return field, nil
}

func (p *Pipeline) publish(ctx context.Context, artifacts []domain.Artifact) {
	if p.notifier == nil || len(artifacts) == 0 {
		return
	}
	if err := p.notifier.PublishManifests(ctx, artifacts); err != nil {
		// The images are already on disk; a manifest failure should not
		// fail the run.
		p.logger.Error("manifest publish failed", "error", err, "artifacts", len(artifacts))
		p.metrics.ManifestErrors.Inc()
		return
	}
	p.metrics.ManifestsPublished.Add(float64(len(artifacts)))
}

func (p *Pipeline) window() daterange.Range {
	return daterange.Range{Start: p.params.Start, End: p.params.End}
}
