package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grid4 builds a 4x4 field with one timestep and regular 0.1-degree
// spacing starting at (39.0, -75.0).
func grid4(times ...time.Time) WindField {
	const n = 4
	lat := make([][]float64, n)
	lon := make([][]float64, n)
	mkStack := func() [][]float64 {
		g := make([][]float64, n)
		for j := range g {
			g[j] = make([]float64, n)
		}
		return g
	}
	for j := 0; j < n; j++ {
		lat[j] = make([]float64, n)
		lon[j] = make([]float64, n)
		for i := 0; i < n; i++ {
			lat[j][i] = 39.0 + 0.1*float64(j)
			lon[j][i] = -75.0 + 0.1*float64(i)
		}
	}

	f := WindField{HeightMeters: 160, Times: times, Lat: lat, Lon: lon}
	for range times {
		f.U = append(f.U, mkStack())
		f.V = append(f.V, mkStack())
	}
	return f
}

func TestWindFieldValidate(t *testing.T) {
	f := grid4(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, f.Validate())

	t.Run("empty grid", func(t *testing.T) {
		bad := WindField{}
		assert.Error(t, bad.Validate())
	})

	t.Run("timestep count mismatch", func(t *testing.T) {
		bad := grid4(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
		bad.Times = append(bad.Times, time.Date(2020, 6, 1, 1, 0, 0, 0, time.UTC))
		err := bad.Validate()
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "timesteps"))
	})

	t.Run("ragged component grid", func(t *testing.T) {
		bad := grid4(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
		bad.U[0][2] = bad.U[0][2][:2]
		assert.Error(t, bad.Validate())
	})
}

func TestWindFieldSubset(t *testing.T) {
	f := grid4(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
	f.U[0][1][1] = 42

	sub, err := f.Subset(Extent{MinLon: -74.95, MaxLon: -74.75, MinLat: 39.05, MaxLat: 39.25})
	require.NoError(t, err)

	// Cells (j,i) in {1,2} x {1,2} fall strictly inside the extent.
	require.Len(t, sub.Lat, 2)
	require.Len(t, sub.Lat[0], 2)
	assert.InDelta(t, 39.1, sub.Lat[0][0], 1e-9)
	assert.InDelta(t, -74.9, sub.Lon[0][0], 1e-9)
	assert.Equal(t, 42.0, sub.U[0][0][0])
	assert.Equal(t, 160, sub.HeightMeters)

	t.Run("empty extent", func(t *testing.T) {
		_, err := f.Subset(Extent{MinLon: 0, MaxLon: 1, MinLat: 0, MaxLat: 1})
		assert.ErrorIs(t, err, ErrEmptySubset)
	})

	t.Run("subset is a copy", func(t *testing.T) {
		sub.U[0][0][0] = 7
		assert.Equal(t, 42.0, f.U[0][1][1])
	})
}

func TestHourlyMeanUV(t *testing.T) {
	times := []time.Time{
		time.Date(2020, 6, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2020, 6, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2020, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	f := grid4(times...)
	f.U[0][0][0] = 2 // 09:00 day one
	f.U[1][0][0] = 4 // 09:00 day two
	f.U[2][0][0] = 100

	u, v, ok := f.HourlyMeanUV(9)
	require.True(t, ok)
	assert.Equal(t, 3.0, u[0][0])
	assert.Equal(t, 0.0, v[0][0])

	_, _, ok = f.HourlyMeanUV(23)
	assert.False(t, ok)
}

func TestFilterDays(t *testing.T) {
	times := []time.Time{
		time.Date(2020, 6, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2020, 6, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2020, 6, 3, 9, 0, 0, 0, time.UTC),
	}
	f := grid4(times...)

	kept := f.FilterDays([]time.Time{
		time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 6, 3, 0, 0, 0, 0, time.UTC),
	})

	require.Len(t, kept.Times, 2)
	assert.Equal(t, times[0], kept.Times[0])
	assert.Equal(t, times[2], kept.Times[1])
	assert.Len(t, kept.U, 2)
}

func TestSampleLine(t *testing.T) {
	f := grid4(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))

	points := f.SampleLine(39.0, -75.0, 39.3, -74.7, 4)
	require.Len(t, points, 4)

	// The line runs along the grid diagonal; nearest cells follow it.
	assert.Equal(t, GridPoint{J: 0, I: 0, Lat: 39.0, Lon: -75.0}, points[0])
	assert.Equal(t, GridPoint{J: 3, I: 3, Lat: 39.3, Lon: -74.7}, points[3])

	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].J, points[i-1].J)
		assert.GreaterOrEqual(t, points[i].I, points[i-1].I)
	}
}

func TestSampleLine_MinimumTwoPoints(t *testing.T) {
	f := grid4(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
	points := f.SampleLine(39.0, -75.0, 39.3, -74.7, 1)
	assert.Len(t, points, 2)
}
