// Package region defines the plotting regions: map extent, axis ticks,
// color limits, and glyph subsampling per region. The built-in set
// matches the group's standard four regions; a YAML file can replace it
// for one-off reports. Regions are explicit typed records so a missing
// or misspelled key fails at load time instead of at render time.
package region

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seabright/wrf-wind-maps/internal/domain"
)

// Variable names a derived field that gets its own map per region.
type Variable string

const (
	// MeanWindSpeed is the time-mean wind speed field ("meanws").
	MeanWindSpeed Variable = "meanws"

	// WindSpeedVariance is the wind speed variance field ("sdwind").
	WindSpeedVariance Variable = "sdwind"
)

// Variables lists every renderable map variable.
func Variables() []Variable {
	return []Variable{MeanWindSpeed, WindSpeedVariance}
}

// Limits bound the color scale of one variable at one height.
type Limits struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Region is one plotting region.
type Region struct {
	Name   string        `yaml:"name"`
	Extent domain.Extent `yaml:"extent"`

	// Axis tick positions in degrees.
	XTicks []float64 `yaml:"xticks"`
	YTicks []float64 `yaml:"yticks"`

	// QuiverSubset is the direction-glyph stride per height in meters;
	// a stride of n draws every n-th cell.
	QuiverSubset map[int]int `yaml:"quiver_subset"`

	// QuiverScale is the vector magnitude that would span the full
	// plot width; larger values draw shorter glyphs.
	QuiverScale float64 `yaml:"quiver_scale"`

	// Limits are color-scale bounds per variable per height in meters.
	Limits map[Variable]map[int]Limits `yaml:"limits"`

	// Subset restricts the data to the region extent (padded half a
	// degree) before rendering; the full grid renders unsubset.
	Subset bool `yaml:"subset"`

	// LeaseArea overlays the wind lease area polygons.
	LeaseArea bool `yaml:"lease_area"`
}

// ErrInvalid indicates a region record that cannot be rendered.
var ErrInvalid = errors.New("invalid region")

// Validate checks a region for the mistakes the freeform config used to
// let through.
func (r Region) Validate(heights []int) error {
	if r.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalid)
	}
	if !r.Extent.Valid() {
		return fmt.Errorf("%w: %s: extent %+v is degenerate", ErrInvalid, r.Name, r.Extent)
	}
	for _, v := range Variables() {
		byHeight, ok := r.Limits[v]
		if !ok {
			return fmt.Errorf("%w: %s: no color limits for %s", ErrInvalid, r.Name, v)
		}
		for _, h := range heights {
			lim, ok := byHeight[h]
			if !ok {
				return fmt.Errorf("%w: %s: no %s color limits at %dm", ErrInvalid, r.Name, v, h)
			}
			if lim.Min >= lim.Max {
				return fmt.Errorf("%w: %s: %s limits at %dm inverted (%g >= %g)",
					ErrInvalid, r.Name, v, h, lim.Min, lim.Max)
			}
		}
	}
	for _, h := range heights {
		if r.QuiverSubset[h] < 0 {
			return fmt.Errorf("%w: %s: negative quiver stride at %dm", ErrInvalid, r.Name, h)
		}
	}
	return nil
}

// Defaults returns the standard report regions.
func Defaults() []Region {
	meanwsLimits := map[int]Limits{10: {Min: 4, Max: 10}, 160: {Min: 6, Max: 14}}
	sdwindLimits := map[int]Limits{10: {Min: 6, Max: 12}, 160: {Min: 6, Max: 12}}

	return []Region{
		{
			Name:         "full_grid",
			Extent:       domain.Extent{MinLon: -79.79, MaxLon: -69.2, MinLat: 34.5, MaxLat: 43},
			XTicks:       []float64{-78, -76, -74, -72, -70},
			YTicks:       []float64{36, 38, 40, 42},
			QuiverSubset: map[int]int{10: 11, 160: 13},
			QuiverScale:  45,
			Limits: map[Variable]map[int]Limits{
				MeanWindSpeed:     meanwsLimits,
				WindSpeedVariance: sdwindLimits,
			},
			Subset:    false,
			LeaseArea: false,
		},
		{
			Name:         "mab",
			Extent:       domain.Extent{MinLon: -77.2, MaxLon: -69.6, MinLat: 36, MaxLat: 41.8},
			XTicks:       []float64{-75, -73, -71},
			YTicks:       []float64{37, 39, 41},
			QuiverSubset: map[int]int{10: 7, 160: 8},
			QuiverScale:  40,
			Limits: map[Variable]map[int]Limits{
				MeanWindSpeed:     meanwsLimits,
				WindSpeedVariance: sdwindLimits,
			},
			Subset:    true,
			LeaseArea: true,
		},
		{
			Name:         "nj",
			Extent:       domain.Extent{MinLon: -75.7, MaxLon: -71.5, MinLat: 38.1, MaxLat: 41.2},
			XTicks:       []float64{-75, -74, -73, -72},
			YTicks:       []float64{39, 40, 41},
			QuiverSubset: map[int]int{10: 4, 160: 5},
			QuiverScale:  40,
			Limits: map[Variable]map[int]Limits{
				MeanWindSpeed:     meanwsLimits,
				WindSpeedVariance: sdwindLimits,
			},
			Subset:    true,
			LeaseArea: true,
		},
		{
			Name:         "southern_nj",
			Extent:       domain.Extent{MinLon: -75.6, MaxLon: -73, MinLat: 38.6, MaxLat: 40.5},
			XTicks:       []float64{-75, -74.5, -74, -73.5},
			YTicks:       []float64{39, 39.5, 40},
			QuiverSubset: map[int]int{10: 3, 160: 3},
			QuiverScale:  40,
			Limits: map[Variable]map[int]Limits{
				MeanWindSpeed:     meanwsLimits,
				WindSpeedVariance: sdwindLimits,
			},
			Subset:    true,
			LeaseArea: true,
		},
	}
}

// LoadFile reads a YAML region list, replacing the defaults entirely.
// The heights are the report heights the regions must carry limits for.
func LoadFile(path string, heights []int) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}

	var doc struct {
		Regions []Region `yaml:"regions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse regions file %s: %w", path, err)
	}
	if len(doc.Regions) == 0 {
		return nil, fmt.Errorf("regions file %s defines no regions", path)
	}

	for _, r := range doc.Regions {
		if err := r.Validate(heights); err != nil {
			return nil, fmt.Errorf("regions file %s: %w", path, err)
		}
	}
	return doc.Regions, nil
}

// Load returns the regions for a report run: the YAML file when path is
// set, the validated defaults otherwise.
func Load(path string, heights []int) ([]Region, error) {
	if path != "" {
		return LoadFile(path, heights)
	}
	regions := Defaults()
	for _, r := range regions {
		if err := r.Validate(heights); err != nil {
			return nil, err
		}
	}
	return regions, nil
}
