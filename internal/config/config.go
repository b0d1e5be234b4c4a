package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
// Run parameters (date range, interval, report kind, output directory) come
// from the command line instead; see cmd/windmaps.
type Config struct {
	// Dataset gateway serving windowed wind-field subsets as JSON.
	DatasetURL     string
	DatasetTimeout time.Duration

	// FieldCacheDir caches fetched windows on disk; empty disables it.
	FieldCacheDir string

	// LeaseAreaKML is the BOEM lease area boundary document.
	LeaseAreaKML string

	// RegionsFile optionally replaces the built-in plotting regions.
	RegionsFile string

	// SeabreezeCSV optionally restricts Hovmoller windows to flagged
	// seabreeze days.
	SeabreezeCSV string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Heights for the wind speed maps and for the divergence Hovmoller
	// diagrams, in meters.
	MapHeights       []int
	HovmollerHeights []int

	// Kafka artifact manifest publishing (feature-flagged via
	// KAFKA_ENABLED / KAFKA_BROKERS).
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	datasetTimeout, err := parseDurationEnv("DATASET_TIMEOUT", "2m")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	mapHeights, err := parseHeightsEnv("MAP_HEIGHTS", "10,160")
	if err != nil {
		return nil, err
	}

	hovHeights, err := parseHeightsEnv("HOVMOLLER_HEIGHTS", "10,160,200,250")
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DatasetURL:     envOrDefault("DATASET_URL", "https://tds.example.edu/wrf/3km/subset"),
		DatasetTimeout: datasetTimeout,
		FieldCacheDir:  envOrDefault("FIELD_CACHE_DIR", ".field_cache"),
		LeaseAreaKML:   os.Getenv("LEASE_AREA_KML"),
		RegionsFile:    os.Getenv("REGIONS_FILE"),
		SeabreezeCSV:   os.Getenv("SEABREEZE_CSV"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapHeights:       mapHeights,
		HovmollerHeights: hovHeights,

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "wind-report-artifacts"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.LeaseAreaKML == "" {
		return nil, errors.New("LEASE_AREA_KML is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

// parseHeightsEnv parses a comma-separated list of heights in meters.
func parseHeightsEnv(key, fallback string) ([]int, error) {
	s := envOrDefault(key, fallback)
	parts := strings.Split(s, ",")
	heights := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		h, err := strconv.Atoi(p)
		if err != nil || h <= 0 {
			return nil, fmt.Errorf("invalid %s: %q is not a positive height", key, p)
		}
		heights = append(heights, h)
	}
	if len(heights) == 0 {
		return nil, fmt.Errorf("invalid %s: no heights", key)
	}
	return heights, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
