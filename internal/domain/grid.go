package domain

import (
	"errors"
	"fmt"
	"time"
)

// GridSpacingMeters is the horizontal spacing of the 3-km WRF grid.
const GridSpacingMeters = 3000.0

// Extent is a lon/lat bounding box: [MinLon, MaxLon, MinLat, MaxLat]
// in the original's ordering.
type Extent struct {
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
}

// Pad grows the extent outward by d degrees on every side.
func (e Extent) Pad(d float64) Extent {
	return Extent{
		MinLon: e.MinLon - d,
		MaxLon: e.MaxLon + d,
		MinLat: e.MinLat - d,
		MaxLat: e.MaxLat + d,
	}
}

// Valid reports whether the extent is non-degenerate.
func (e Extent) Valid() bool {
	return e.MinLon < e.MaxLon && e.MinLat < e.MaxLat
}

// WindField is a time stack of u/v wind component grids on the model's
// curvilinear lat/lon grid. U and V are indexed [time][y][x]; Lat and
// Lon are indexed [y][x].
type WindField struct {
	HeightMeters int
	Times        []time.Time
	Lat          [][]float64
	Lon          [][]float64
	U            [][][]float64
	V            [][][]float64
}

// ErrEmptySubset indicates an extent that selects no grid cells.
var ErrEmptySubset = errors.New("extent selects no grid cells")

// Validate checks that the lat/lon and component grids agree in shape.
func (f WindField) Validate() error {
	ny := len(f.Lat)
	if ny == 0 || len(f.Lat[0]) == 0 {
		return errors.New("wind field has empty lat/lon grid")
	}
	nx := len(f.Lat[0])

	if len(f.Lon) != ny || len(f.Lon[0]) != nx {
		return fmt.Errorf("lon grid %dx%d does not match lat grid %dx%d",
			len(f.Lon), len(f.Lon[0]), ny, nx)
	}
	if len(f.U) != len(f.Times) || len(f.V) != len(f.Times) {
		return fmt.Errorf("component stacks (%d u, %d v) do not match %d timesteps",
			len(f.U), len(f.V), len(f.Times))
	}
	for k := range f.U {
		if len(f.U[k]) != ny || len(f.V[k]) != ny {
			return fmt.Errorf("timestep %d grid rows do not match lat grid", k)
		}
		for j := range f.U[k] {
			if len(f.U[k][j]) != nx || len(f.V[k][j]) != nx {
				return fmt.Errorf("timestep %d row %d grid columns do not match lat grid", k, j)
			}
		}
	}
	return nil
}

func (f WindField) dims() (ny, nx int) {
	ny = len(f.Lat)
	if ny > 0 {
		nx = len(f.Lat[0])
	}
	return ny, nx
}

// Subset restricts the field to the bounding i/j box of all cells
// inside the extent. Because the grid is curvilinear the box may
// include some cells outside the extent; that matches the corner-to-
// corner slicing the plots expect.
func (f WindField) Subset(e Extent) (WindField, error) {
	box, err := boundingBox(f.Lat, f.Lon, e)
	if err != nil {
		return WindField{}, err
	}

	out := WindField{
		HeightMeters: f.HeightMeters,
		Times:        f.Times,
		Lat:          box.slice(f.Lat),
		Lon:          box.slice(f.Lon),
		U:            make([][][]float64, len(f.U)),
		V:            make([][][]float64, len(f.V)),
	}
	for k := range f.U {
		out.U[k] = box.slice(f.U[k])
		out.V[k] = box.slice(f.V[k])
	}
	return out, nil
}

// HourlyMeanUV averages the u and v grids over all timesteps whose UTC
// hour equals hour. Returns false if no timestep matches.
func (f WindField) HourlyMeanUV(hour int) (u, v [][]float64, ok bool) {
	ny, nx := f.dims()
	u = newGrid(ny, nx)
	v = newGrid(ny, nx)

	n := 0
	for k, ts := range f.Times {
		if ts.UTC().Hour() != hour {
			continue
		}
		n++
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				u[j][i] += f.U[k][j][i]
				v[j][i] += f.V[k][j][i]
			}
		}
	}
	if n == 0 {
		return nil, nil, false
	}

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			u[j][i] /= float64(n)
			v[j][i] /= float64(n)
		}
	}
	return u, v, true
}

// FilterDays restricts the field to timesteps whose UTC calendar day
// appears in days.
func (f WindField) FilterDays(days []time.Time) WindField {
	keep := make(map[string]bool, len(days))
	for _, d := range days {
		keep[d.UTC().Format("2006-01-02")] = true
	}

	out := WindField{
		HeightMeters: f.HeightMeters,
		Lat:          f.Lat,
		Lon:          f.Lon,
	}
	for k, ts := range f.Times {
		if !keep[ts.UTC().Format("2006-01-02")] {
			continue
		}
		out.Times = append(out.Times, ts)
		out.U = append(out.U, f.U[k])
		out.V = append(out.V, f.V[k])
	}
	return out
}

// GridPoint is one sampled cell of a cross-section line.
type GridPoint struct {
	J, I int
	Lat  float64
	Lon  float64
}

// SampleLine returns n points linearly spaced between two lat/lon
// endpoints, each mapped to the nearest grid cell. Used to pull a
// divergence cross-section for Hovmoller diagrams.
func (f WindField) SampleLine(startLat, startLon, endLat, endLon float64, n int) []GridPoint {
	if n < 2 {
		n = 2
	}
	ny, nx := f.dims()

	points := make([]GridPoint, 0, n)
	for s := 0; s < n; s++ {
		t := float64(s) / float64(n-1)
		lat := startLat + t*(endLat-startLat)
		lon := startLon + t*(endLon-startLon)

		best := GridPoint{}
		bestDist := -1.0
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				dLat := f.Lat[j][i] - lat
				dLon := f.Lon[j][i] - lon
				d := dLat*dLat + dLon*dLon
				if bestDist < 0 || d < bestDist {
					bestDist = d
					best = GridPoint{J: j, I: i, Lat: f.Lat[j][i], Lon: f.Lon[j][i]}
				}
			}
		}
		points = append(points, best)
	}
	return points
}

// box is an inclusive i/j index rectangle.
type box struct {
	jMin, jMax, iMin, iMax int
}

func (b box) slice(grid [][]float64) [][]float64 {
	out := make([][]float64, 0, b.jMax-b.jMin+1)
	for j := b.jMin; j <= b.jMax; j++ {
		row := make([]float64, b.iMax-b.iMin+1)
		copy(row, grid[j][b.iMin:b.iMax+1])
		out = append(out, row)
	}
	return out
}

// boundingBox finds the min/max i and j of all cells strictly inside
// the extent.
func boundingBox(lat, lon [][]float64, e Extent) (box, error) {
	b := box{jMin: -1}
	for j := range lat {
		for i := range lat[j] {
			if lon[j][i] <= e.MinLon || lon[j][i] >= e.MaxLon ||
				lat[j][i] <= e.MinLat || lat[j][i] >= e.MaxLat {
				continue
			}
			if b.jMin < 0 {
				b = box{jMin: j, jMax: j, iMin: i, iMax: i}
				continue
			}
			if j < b.jMin {
				b.jMin = j
			}
			if j > b.jMax {
				b.jMax = j
			}
			if i < b.iMin {
				b.iMin = i
			}
			if i > b.iMax {
				b.iMax = i
			}
		}
	}
	if b.jMin < 0 {
		return box{}, fmt.Errorf("%w: lon [%g, %g] lat [%g, %g]",
			ErrEmptySubset, e.MinLon, e.MaxLon, e.MinLat, e.MaxLat)
	}
	return b, nil
}
