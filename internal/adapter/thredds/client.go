package thredds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/seabright/wrf-wind-maps/internal/domain"
)

// Fetcher retrieves hourly u/v wind grids for a height and time window.
type Fetcher interface {
	FetchWindow(ctx context.Context, heightMeters int, start, end time.Time) (domain.WindField, error)
}

// Client fetches wind fields from the THREDDS subset endpoint fronting
// the 3-km model archive.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a dataset subset client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchWindow downloads the u/v grids at heightMeters for every hourly
// timestep in [start, end].
func (c *Client) FetchWindow(ctx context.Context, heightMeters int, start, end time.Time) (domain.WindField, error) {
	params := url.Values{
		"height": {fmt.Sprintf("%d", heightMeters)},
		"start":  {start.UTC().Format(time.RFC3339)},
		"end":    {end.UTC().Format(time.RFC3339)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WindField{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WindField{}, fmt.Errorf("subset request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WindField{}, fmt.Errorf("dataset server error: status %d: %s", resp.StatusCode, body)
	}

	var payload subsetResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WindField{}, fmt.Errorf("decode response: %w", err)
	}

	field := domain.WindField{
		HeightMeters: heightMeters,
		Lat:          payload.Lat,
		Lon:          payload.Lon,
		U:            payload.U,
		V:            payload.V,
	}
	for _, ts := range payload.Times {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return domain.WindField{}, fmt.Errorf("parse timestep %q: %w", ts, err)
		}
		field.Times = append(field.Times, t)
	}

	if err := field.Validate(); err != nil {
		return domain.WindField{}, fmt.Errorf("dataset response: %w", err)
	}

	c.logger.Debug("window fetched",
		"height_m", heightMeters,
		"start", start.UTC().Format(time.RFC3339),
		"end", end.UTC().Format(time.RFC3339),
		"timesteps", len(field.Times))
	return field, nil
}

// Subset endpoint response types.

type subsetResponse struct {
	Times []string      `json:"time"`
	Lat   [][]float64   `json:"lat"`
	Lon   [][]float64   `json:"lon"`
	U     [][][]float64 `json:"u"`
	V     [][][]float64 `json:"v"`
}
