package render

import (
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seabright/wrf-wind-maps/internal/daterange"
	"github.com/seabright/wrf-wind-maps/internal/domain"
	"github.com/seabright/wrf-wind-maps/internal/leasearea"
	"github.com/seabright/wrf-wind-maps/internal/region"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testStats builds a small 6x6 grid over the test region with westerly
// flow and speeds well above the gray-palette threshold.
func testStats() domain.FieldStats {
	const n = 6
	s := domain.FieldStats{}
	for j := 0; j < n; j++ {
		latRow := make([]float64, n)
		lonRow := make([]float64, n)
		speed := make([]float64, n)
		variance := make([]float64, n)
		uu := make([]float64, n)
		vv := make([]float64, n)
		for i := 0; i < n; i++ {
			latRow[i] = 39.0 + 0.1*float64(j)
			lonRow[i] = -74.8 + 0.1*float64(i)
			speed[i] = 8 + float64(i)
			variance[i] = 2 + float64(j)
			uu[i] = 1
			vv[i] = 0
		}
		s.Lat = append(s.Lat, latRow)
		s.Lon = append(s.Lon, lonRow)
		s.MeanSpeed = append(s.MeanSpeed, speed)
		s.SpeedVariance = append(s.SpeedVariance, variance)
		s.MeanU = append(s.MeanU, uu)
		s.MeanV = append(s.MeanV, vv)
		s.UnitU = append(s.UnitU, uu)
		s.UnitV = append(s.UnitV, vv)
	}
	return s
}

func testRegion() region.Region {
	lim := map[int]region.Limits{10: {Min: 0, Max: 15}}
	return region.Region{
		Name:         "test_coast",
		Extent:       domain.Extent{MinLon: -74.9, MaxLon: -74.2, MinLat: 38.9, MaxLat: 39.6},
		XTicks:       []float64{-74.8, -74.5},
		YTicks:       []float64{39, 39.4},
		QuiverSubset: map[int]int{10: 2},
		QuiverScale:  40,
		Limits: map[region.Variable]map[int]region.Limits{
			region.MeanWindSpeed:     lim,
			region.WindSpeedVariance: lim,
		},
		LeaseArea: true,
	}
}

func testWindow() (daterange.Range, daterange.Range) {
	window := daterange.Range{
		Start: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 8, 31, 0, 0, 0, 0, time.UTC),
	}
	bucket := daterange.Range{
		Start: window.Start,
		End:   time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	return window, bucket
}

func TestRenderer_WindMap(t *testing.T) {
	dir := t.TempDir()
	leases := leasearea.PolygonSet{
		"Area A": {Outer: []leasearea.Coordinate{
			{Lon: -74.6, Lat: 39.1},
			{Lon: -74.5, Lat: 39.1},
			{Lon: -74.5, Lat: 39.2},
			{Lon: -74.6, Lat: 39.2},
		}},
	}
	r := NewRenderer(dir, DefaultStyle(), leases, discardLogger())
	window, bucket := testWindow()

	for _, v := range region.Variables() {
		t.Run(string(v), func(t *testing.T) {
			path, err := r.WindMap(MapRequest{
				Stats:        testStats(),
				Region:       testRegion(),
				Variable:     v,
				HeightMeters: 10,
				Interval:     daterange.Monthly,
				Window:       window,
				Bucket:       bucket,
			})
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(dir,
				"monthly_20200601-20200831", "test_coast",
				"test_coast_"+string(v)+"_10m_monthly_20200601.png"), path)

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}
}

func TestRenderer_WindMap_LowWindUsesGrayPalette(t *testing.T) {
	r := NewRenderer(t.TempDir(), DefaultStyle(), nil, discardLogger())
	window, bucket := testWindow()

	stats := testStats()
	for j := range stats.MeanSpeed {
		for i := range stats.MeanSpeed[j] {
			stats.MeanSpeed[j][i] = 2 // below the 10m threshold
		}
	}

	path, err := r.WindMap(MapRequest{
		Stats:        stats,
		Region:       testRegion(),
		Variable:     region.MeanWindSpeed,
		HeightMeters: 10,
		Interval:     daterange.Monthly,
		Window:       window,
		Bucket:       bucket,
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

// renderMapBytes renders one wind map with the given style and stats
// and returns the PNG bytes.
func renderMapBytes(t *testing.T, style Style, v region.Variable, stats domain.FieldStats) []byte {
	t.Helper()
	r := NewRenderer(t.TempDir(), style, nil, discardLogger())
	window, bucket := testWindow()

	path, err := r.WindMap(MapRequest{
		Stats:        stats,
		Region:       testRegion(),
		Variable:     v,
		HeightMeters: 10,
		Interval:     daterange.Monthly,
		Window:       window,
		Bucket:       bucket,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRenderer_WindMap_GlyphsOnlyOnMeanSpeedMaps(t *testing.T) {
	red := DefaultStyle()
	red.GlyphColor = color.RGBA{R: 0xff, A: 0xff}

	// Changing the glyph color changes a mean speed map but leaves a
	// variance map untouched: variance maps carry no direction glyphs.
	assert.NotEqual(t,
		renderMapBytes(t, DefaultStyle(), region.MeanWindSpeed, testStats()),
		renderMapBytes(t, red, region.MeanWindSpeed, testStats()))
	assert.Equal(t,
		renderMapBytes(t, DefaultStyle(), region.WindSpeedVariance, testStats()),
		renderMapBytes(t, red, region.WindSpeedVariance, testStats()))
}

func TestRenderer_WindMap_LowWindGlyphColor(t *testing.T) {
	lowStats := func() domain.FieldStats {
		s := testStats()
		for j := range s.MeanSpeed {
			for i := range s.MeanSpeed[j] {
				s.MeanSpeed[j][i] = 2 // below the 10m threshold
			}
		}
		return s
	}

	// Below the threshold the glyphs take the low-wind color and the
	// regular glyph color no longer participates.
	blue := DefaultStyle()
	blue.LowWindGlyphColor = color.RGBA{B: 0xff, A: 0xff}
	assert.NotEqual(t,
		renderMapBytes(t, DefaultStyle(), region.MeanWindSpeed, lowStats()),
		renderMapBytes(t, blue, region.MeanWindSpeed, lowStats()))

	red := DefaultStyle()
	red.GlyphColor = color.RGBA{R: 0xff, A: 0xff}
	assert.Equal(t,
		renderMapBytes(t, DefaultStyle(), region.MeanWindSpeed, lowStats()),
		renderMapBytes(t, red, region.MeanWindSpeed, lowStats()))
}

func TestRenderer_WindMap_UnknownVariable(t *testing.T) {
	r := NewRenderer(t.TempDir(), DefaultStyle(), nil, discardLogger())
	window, bucket := testWindow()

	_, err := r.WindMap(MapRequest{
		Stats:        testStats(),
		Region:       testRegion(),
		Variable:     region.Variable("gusts"),
		HeightMeters: 10,
		Interval:     daterange.Monthly,
		Window:       window,
		Bucket:       bucket,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gusts")
}

func TestRenderer_Hovmoller(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, DefaultStyle(), nil, discardLogger())
	window, bucket := testWindow()

	lons := []float64{-74.7, -74.5, -74.3}
	hours := []int{0, 1, 2, 3}
	div := make([][]float64, len(hours))
	for h := range div {
		div[h] = []float64{-1e-4, 0, 1e-4}
	}

	path, err := r.Hovmoller(HovmollerRequest{
		Lons:         lons,
		Hours:        hours,
		Divergence:   div,
		HeightMeters: 160,
		Interval:     daterange.Monthly,
		Window:       window,
		Bucket:       bucket,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir,
		"monthly_20200601-20200831", "hovmoller",
		"hovmoller_divergence_160m_monthly_20200601.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderer_Hovmoller_ShapeMismatch(t *testing.T) {
	r := NewRenderer(t.TempDir(), DefaultStyle(), nil, discardLogger())
	window, bucket := testWindow()

	_, err := r.Hovmoller(HovmollerRequest{
		Lons:         []float64{-74.7, -74.5},
		Hours:        []int{0, 1},
		Divergence:   [][]float64{{1, 2, 3}, {1, 2}},
		HeightMeters: 160,
		Interval:     daterange.Monthly,
		Window:       window,
		Bucket:       bucket,
	})
	require.Error(t, err)
}

func TestWindowLabel(t *testing.T) {
	got := WindowLabel(daterange.Monthly,
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 8, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "monthly_20200101-20200831", got)
}
