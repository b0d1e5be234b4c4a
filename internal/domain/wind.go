package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Speed returns the wind speed from u (west/east) and v (south/north)
// components.
func Speed(u, v float64) float64 {
	return math.Hypot(u, v)
}

// Direction returns the meteorological wind direction in degrees from u
// and v components: the direction the wind blows FROM, clockwise from
// north. Wind from the west (u > 0) is 270; a wind direction of 360
// wraps to 0.
func Direction(u, v float64) float64 {
	deg := 270 - math.Atan2(v, u)*180/math.Pi
	return math.Mod(math.Mod(deg, 360)+360, 360)
}

// FieldStats holds per-cell statistics computed over the time axis of a
// wind field. All grids share the field's lat/lon shape.
type FieldStats struct {
	Lat [][]float64
	Lon [][]float64

	// MeanSpeed is the time-mean of per-timestep wind speed.
	MeanSpeed [][]float64

	// SpeedVariance is sqrt(popvar(u) + popvar(v)), the wind speed
	// variance field plotted as "sdwind". Population, not sample,
	// variance.
	SpeedVariance [][]float64

	// MeanU and MeanV are per-component time means.
	MeanU [][]float64
	MeanV [][]float64

	// UnitU and UnitV are the mean vector standardized to unit length,
	// used for direction glyphs. Zero where the mean vector has no
	// magnitude.
	UnitU [][]float64
	UnitV [][]float64
}

// ComputeStats reduces a wind field over its time axis.
func ComputeStats(f WindField) FieldStats {
	ny, nx := f.dims()
	s := FieldStats{
		Lat:           f.Lat,
		Lon:           f.Lon,
		MeanSpeed:     newGrid(ny, nx),
		SpeedVariance: newGrid(ny, nx),
		MeanU:         newGrid(ny, nx),
		MeanV:         newGrid(ny, nx),
		UnitU:         newGrid(ny, nx),
		UnitV:         newGrid(ny, nx),
	}

	nt := len(f.Times)
	us := make([]float64, nt)
	vs := make([]float64, nt)
	speeds := make([]float64, nt)

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			for k := 0; k < nt; k++ {
				us[k] = f.U[k][j][i]
				vs[k] = f.V[k][j][i]
				speeds[k] = Speed(us[k], vs[k])
			}

			s.MeanSpeed[j][i] = stat.Mean(speeds, nil)
			s.SpeedVariance[j][i] = math.Sqrt(stat.PopVariance(us, nil) + stat.PopVariance(vs, nil))

			mu := stat.Mean(us, nil)
			mv := stat.Mean(vs, nil)
			s.MeanU[j][i] = mu
			s.MeanV[j][i] = mv

			if mag := Speed(mu, mv); mag > 0 {
				s.UnitU[j][i] = mu / mag
				s.UnitV[j][i] = mv / mag
			}
		}
	}

	return s
}

// MeanOf returns the grand mean of a grid, ignoring NaN cells. Used to
// decide low-wind styling for whole-region maps.
func MeanOf(grid [][]float64) float64 {
	var sum float64
	var n int
	for _, row := range grid {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Subset returns the statistics restricted to the bounding i/j box of
// the given extent, like WindField.Subset.
func (s FieldStats) Subset(e Extent) (FieldStats, error) {
	box, err := boundingBox(s.Lat, s.Lon, e)
	if err != nil {
		return FieldStats{}, err
	}
	return FieldStats{
		Lat:           box.slice(s.Lat),
		Lon:           box.slice(s.Lon),
		MeanSpeed:     box.slice(s.MeanSpeed),
		SpeedVariance: box.slice(s.SpeedVariance),
		MeanU:         box.slice(s.MeanU),
		MeanV:         box.slice(s.MeanV),
		UnitU:         box.slice(s.UnitU),
		UnitV:         box.slice(s.UnitV),
	}, nil
}

// Divergence computes the horizontal divergence du/dx + dv/dy on a
// uniformly spaced grid with spacings dx, dy in meters. Central
// differences in the interior, one-sided at the edges.
func Divergence(u, v [][]float64, dx, dy float64) [][]float64 {
	ny := len(u)
	nx := 0
	if ny > 0 {
		nx = len(u[0])
	}

	div := newGrid(ny, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			div[j][i] = dfdx(u[j], i, dx) + dfdy(v, j, i, dy)
		}
	}
	return div
}

func dfdx(row []float64, i int, dx float64) float64 {
	switch {
	case len(row) < 2:
		return 0
	case i == 0:
		return (row[1] - row[0]) / dx
	case i == len(row)-1:
		return (row[i] - row[i-1]) / dx
	default:
		return (row[i+1] - row[i-1]) / (2 * dx)
	}
}

func dfdy(grid [][]float64, j, i int, dy float64) float64 {
	switch {
	case len(grid) < 2:
		return 0
	case j == 0:
		return (grid[1][i] - grid[0][i]) / dy
	case j == len(grid)-1:
		return (grid[j][i] - grid[j-1][i]) / dy
	default:
		return (grid[j+1][i] - grid[j-1][i]) / (2 * dy)
	}
}

func newGrid(ny, nx int) [][]float64 {
	g := make([][]float64, ny)
	for j := range g {
		g[j] = make([]float64, nx)
	}
	return g
}
