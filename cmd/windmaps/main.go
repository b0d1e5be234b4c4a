// Command windmaps generates monthly offshore wind report images from
// the 3-km model archive: mean wind speed and variance maps per region,
// plus divergence Hovmoller diagrams along the coastal cross-section.
//
// Usage:
//
//	windmaps --start 20200601 --end 20200831 --report all --output ./reports
//
// Environment configuration (dataset URL, regions file, Kafka catalog,
// heights) is documented in internal/config; a .env file in the working
// directory is loaded when present.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/joho/godotenv"

	httpadapter "github.com/seabright/wrf-wind-maps/internal/adapter/http"
	kafkaadapter "github.com/seabright/wrf-wind-maps/internal/adapter/kafka"
	"github.com/seabright/wrf-wind-maps/internal/adapter/thredds"
	"github.com/seabright/wrf-wind-maps/internal/config"
	"github.com/seabright/wrf-wind-maps/internal/daterange"
	"github.com/seabright/wrf-wind-maps/internal/domain"
	"github.com/seabright/wrf-wind-maps/internal/leasearea"
	"github.com/seabright/wrf-wind-maps/internal/observability"
	"github.com/seabright/wrf-wind-maps/internal/pipeline"
	"github.com/seabright/wrf-wind-maps/internal/region"
	"github.com/seabright/wrf-wind-maps/internal/render"
)

const dayLayout = "20060102"

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	parser := argparse.NewParser("windmaps", "Generate offshore wind report images from the 3-km model archive")
	startArg := parser.String("s", "start", &argparse.Options{Required: true, Help: "First day of the window, YYYYMMDD"})
	endArg := parser.String("e", "end", &argparse.Options{Required: true, Help: "Last day of the window, YYYYMMDD"})
	intervalArg := parser.Selector("i", "interval", []string{string(daterange.Monthly)},
		&argparse.Options{Default: string(daterange.Monthly), Help: "Bucket interval"})
	reportArg := parser.Selector("r", "report", []string{"maps", "hovmoller", "all"},
		&argparse.Options{Default: "maps", Help: "Which images to render"})
	outArg := parser.String("o", "output", &argparse.Options{Default: "reports", Help: "Output directory root"})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	params, err := buildParams(cfg, *startArg, *endArg, *intervalArg, *reportArg, logger)
	if err != nil {
		logger.Error("invalid run parameters", "error", err)
		os.Exit(1)
	}

	leases, err := leasearea.ExtractFile(cfg.LeaseAreaKML)
	if err != nil {
		logger.Error("failed to load lease areas", "path", cfg.LeaseAreaKML, "error", err)
		os.Exit(1)
	}
	logger.Info("lease areas loaded", "count", len(leases), "path", cfg.LeaseAreaKML)

	client := thredds.NewClient(cfg.DatasetURL, cfg.DatasetTimeout, logger)
	fetcher := thredds.NewCachedFetcher(client, cfg.FieldCacheDir, logger, metrics)

	// Manifest publishing is feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var notifier pipeline.Notifier
	var closeNotifier func() error
	if cfg.KafkaEnabled {
		n := kafkaadapter.NewNotifier(cfg, logger)
		notifier = n
		closeNotifier = n.Close
		logger.Info("manifest publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("manifest publishing disabled")
	}

	renderer := render.NewRenderer(*outArg, render.DefaultStyle(), leases, logger)

	p := pipeline.New(fetcher, renderer, notifier, logger, metrics, params)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := p.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("report run failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closeNotifier != nil {
		if err := closeNotifier(); err != nil {
			logger.Error("kafka notifier close error", "error", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func buildParams(cfg *config.Config, startStr, endStr, interval, report string, logger *slog.Logger) (pipeline.Params, error) {
	start, err := time.Parse(dayLayout, startStr)
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("parse --start: %w", err)
	}
	end, err := time.Parse(dayLayout, endStr)
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("parse --end: %w", err)
	}

	params := pipeline.Params{
		Interval:         daterange.Interval(interval),
		Start:            start,
		End:              end,
		Maps:             report == "maps" || report == "all",
		MapHeights:       cfg.MapHeights,
		Hovmoller:        report == "hovmoller" || report == "all",
		HovmollerHeights: cfg.HovmollerHeights,
		CrossSection:     pipeline.DefaultCrossSection(),
	}

	if params.Maps {
		regions, err := region.Load(cfg.RegionsFile, cfg.MapHeights)
		if err != nil {
			return pipeline.Params{}, fmt.Errorf("load regions: %w", err)
		}
		params.Regions = regions
	}

	if params.Hovmoller && cfg.SeabreezeCSV != "" {
		f, err := os.Open(cfg.SeabreezeCSV)
		if err != nil {
			return pipeline.Params{}, fmt.Errorf("open seabreeze days: %w", err)
		}
		defer f.Close()

		days, err := domain.LoadSeabreezeDays(f)
		if err != nil {
			return pipeline.Params{}, fmt.Errorf("load seabreeze days: %w", err)
		}
		params.SeabreezeDays = days
		logger.Info("seabreeze day filter active", "days", len(days), "path", cfg.SeabreezeCSV)
	}

	return params, nil
}
