// Package render draws wind report images with gonum/plot: mean wind
// speed and variance maps per region, and divergence Hovmoller
// diagrams along a cross-section.
package render

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/seabright/wrf-wind-maps/internal/daterange"
	"github.com/seabright/wrf-wind-maps/internal/domain"
	"github.com/seabright/wrf-wind-maps/internal/leasearea"
	"github.com/seabright/wrf-wind-maps/internal/region"
)

// Palette names per variable. Divergence diagrams always use the
// diverging palette centered on zero.
const (
	meanSpeedPalette  = "YlGnBu"
	variancePalette   = "BuPu"
	lowWindPalette    = "Greys"
	divergencePalette = "RdBu"
)

// lowWindThreshold is the region-mean wind speed in m/s below which a
// mean-speed map switches to the gray palette and light gray glyphs,
// keyed by height.
var lowWindThreshold = map[int]float64{
	10:  5,
	160: 7,
}

// Divergence values are displayed scaled by 1e4 with fixed symmetric
// color limits.
const (
	divergenceDisplayScale = 1e4
	divergenceLimit        = 2.5
)

// Style holds the drawing knobs shared by all images in a run.
type Style struct {
	Width  vg.Length
	Height vg.Length

	// LeaseColor outlines the lease-area polygons on maps.
	LeaseColor color.Color

	// GlyphColor draws the wind-direction segments on mean speed
	// maps; LowWindGlyphColor replaces it below the gray threshold.
	GlyphColor        color.Color
	LowWindGlyphColor color.Color

	// PaletteColors is the number of discrete colors per palette.
	PaletteColors int
}

// DefaultStyle matches the report layout the forecast team reviews.
func DefaultStyle() Style {
	return Style{
		Width:         8 * vg.Inch,
		Height:        6 * vg.Inch,
		LeaseColor:        color.RGBA{R: 0xff, B: 0xff, A: 0xff}, // magenta
		GlyphColor:        color.Black,
		LowWindGlyphColor: color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}, // light gray
		PaletteColors:     9,
	}
}

// Renderer writes report images under a root output directory, laid
// out as <root>/<interval>_<start>-<end>/<region>/<file>.png.
type Renderer struct {
	outDir string
	style  Style
	leases leasearea.PolygonSet
	logger *slog.Logger
}

// NewRenderer creates a renderer. leases may be empty when no region
// requests the lease-area overlay.
func NewRenderer(outDir string, style Style, leases leasearea.PolygonSet, logger *slog.Logger) *Renderer {
	return &Renderer{
		outDir: outDir,
		style:  style,
		leases: leases,
		logger: logger,
	}
}

// MapRequest describes one wind statistics map.
type MapRequest struct {
	Stats        domain.FieldStats
	Region       region.Region
	Variable     region.Variable
	HeightMeters int
	Interval     daterange.Interval
	Window       daterange.Range // full run window, names the top directory
	Bucket       daterange.Range
}

// WindMap draws a heatmap of the requested variable with direction
// glyphs and the optional lease-area overlay, and returns the path of
// the written PNG.
func (r *Renderer) WindMap(req MapRequest) (string, error) {
	z, err := r.mapGrid(req)
	if err != nil {
		return "", err
	}

	lowWind := req.Variable == region.MeanWindSpeed && r.lowWind(req)

	pal, err := r.mapPalette(req.Variable, lowWind)
	if err != nil {
		return "", fmt.Errorf("palette: %w", err)
	}

	heat := plotter.NewHeatMap(z, pal)
	lim := req.Region.Limits[req.Variable][req.HeightMeters]
	heat.Min = lim.Min
	heat.Max = lim.Max

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %dm %s", variableTitle(req.Variable), req.HeightMeters,
		req.Bucket.Start.UTC().Format("Jan 2006"))
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(heat)

	applyExtent(p, req.Region.Extent, req.Region.XTicks, req.Region.YTicks)

	// Direction glyphs belong to the mean speed maps only.
	if req.Variable == region.MeanWindSpeed {
		if err := r.addGlyphs(p, req, lowWind); err != nil {
			return "", err
		}
	}
	if req.Region.LeaseArea {
		if err := r.addLeaseAreas(p); err != nil {
			return "", err
		}
	}

	path := filepath.Join(r.bucketDir(req.Interval, req.Window), req.Region.Name,
		fmt.Sprintf("%s_%s_%dm_%s_%s.png",
			req.Region.Name, req.Variable, req.HeightMeters, req.Interval,
			req.Bucket.Start.UTC().Format("20060102")))

	if err := r.save(p, path); err != nil {
		return "", err
	}
	return path, nil
}

// HovmollerRequest describes one divergence time/longitude diagram.
type HovmollerRequest struct {
	// Lons is the longitude of each cross-section point, west to east.
	Lons []float64

	// Hours are the UTC hours of each row.
	Hours []int

	// Divergence is indexed [hour][point], in 1/s before display
	// scaling.
	Divergence [][]float64

	HeightMeters int
	Interval     daterange.Interval
	Window       daterange.Range
	Bucket       daterange.Range
}

// Hovmoller draws hour-of-day against cross-section longitude, colored
// by divergence, and returns the path of the written PNG.
func (r *Renderer) Hovmoller(req HovmollerRequest) (string, error) {
	if len(req.Divergence) != len(req.Hours) {
		return "", fmt.Errorf("divergence rows %d do not match %d hours", len(req.Divergence), len(req.Hours))
	}

	scaled := make([][]float64, len(req.Divergence))
	for h, row := range req.Divergence {
		if len(row) != len(req.Lons) {
			return "", fmt.Errorf("divergence row %d has %d points, want %d", h, len(row), len(req.Lons))
		}
		scaled[h] = make([]float64, len(row))
		for i, v := range row {
			scaled[h][i] = v * divergenceDisplayScale
		}
	}

	hours := make([]float64, len(req.Hours))
	for i, h := range req.Hours {
		hours[i] = float64(h)
	}

	pal, err := brewer.GetPalette(brewer.TypeDiverging, divergencePalette, 11)
	if err != nil {
		return "", fmt.Errorf("palette: %w", err)
	}

	heat := plotter.NewHeatMap(&fieldGrid{z: scaled, x: req.Lons, y: hours}, pal)
	heat.Min = -divergenceLimit
	heat.Max = divergenceLimit

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Divergence %dm %s", req.HeightMeters,
		req.Bucket.Start.UTC().Format("Jan 2006"))
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Hour (UTC)"
	p.Add(heat)

	path := filepath.Join(r.bucketDir(req.Interval, req.Window), "hovmoller",
		fmt.Sprintf("hovmoller_divergence_%dm_%s_%s.png",
			req.HeightMeters, req.Interval, req.Bucket.Start.UTC().Format("20060102")))

	if err := r.save(p, path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Renderer) mapGrid(req MapRequest) (*fieldGrid, error) {
	var z [][]float64
	switch req.Variable {
	case region.MeanWindSpeed:
		z = req.Stats.MeanSpeed
	case region.WindSpeedVariance:
		z = req.Stats.SpeedVariance
	default:
		return nil, fmt.Errorf("unknown map variable %q", req.Variable)
	}
	if len(z) == 0 || len(z[0]) == 0 {
		return nil, fmt.Errorf("empty %s grid", req.Variable)
	}

	// The grid is curvilinear; the first row and column carry the
	// representative axis coordinates.
	x := make([]float64, len(req.Stats.Lon[0]))
	copy(x, req.Stats.Lon[0])
	y := make([]float64, len(req.Stats.Lat))
	for j := range req.Stats.Lat {
		y[j] = req.Stats.Lat[j][0]
	}
	return &fieldGrid{z: z, x: x, y: y}, nil
}

// lowWind reports whether the region-mean speed falls below the gray
// threshold for the map's height.
func (r *Renderer) lowWind(req MapRequest) bool {
	mean := domain.MeanOf(req.Stats.MeanSpeed)
	if mean < lowWindThreshold[req.HeightMeters] {
		r.logger.Debug("low-wind gray styling",
			"region", req.Region.Name,
			"height_m", req.HeightMeters,
			"mean_speed", mean)
		return true
	}
	return false
}

func (r *Renderer) mapPalette(v region.Variable, lowWind bool) (palette.Palette, error) {
	name := variancePalette
	if v == region.MeanWindSpeed {
		name = meanSpeedPalette
		if lowWind {
			name = lowWindPalette
		}
	}
	return brewer.GetPalette(brewer.TypeSequential, name, r.style.PaletteColors)
}

// addGlyphs draws subsampled unit-vector direction segments for a mean
// speed map, in the low-wind color when the gray styling is active.
func (r *Renderer) addGlyphs(p *plot.Plot, req MapRequest, lowWind bool) error {
	glyphColor := r.style.GlyphColor
	if lowWind {
		glyphColor = r.style.LowWindGlyphColor
	}

	stride := req.Region.QuiverSubset[req.HeightMeters]
	if stride < 1 {
		stride = 1
	}
	scale := req.Region.QuiverScale
	if scale <= 0 {
		scale = 40
	}
	length := (req.Region.Extent.MaxLon - req.Region.Extent.MinLon) / scale

	for j := 0; j < len(req.Stats.Lat); j += stride {
		for i := 0; i < len(req.Stats.Lat[j]); i += stride {
			du := req.Stats.UnitU[j][i] * length
			dv := req.Stats.UnitV[j][i] * length
			if du == 0 && dv == 0 {
				continue
			}
			seg, err := plotter.NewLine(plotter.XYs{
				{X: req.Stats.Lon[j][i], Y: req.Stats.Lat[j][i]},
				{X: req.Stats.Lon[j][i] + du, Y: req.Stats.Lat[j][i] + dv},
			})
			if err != nil {
				return fmt.Errorf("direction glyph: %w", err)
			}
			seg.Color = glyphColor
			seg.Width = vg.Points(0.5)
			p.Add(seg)
		}
	}
	return nil
}

func (r *Renderer) addLeaseAreas(p *plot.Plot) error {
	for name, poly := range r.leases {
		xys := make(plotter.XYs, len(poly.Outer))
		for i, c := range poly.Outer {
			xys[i] = plotter.XY{X: c.Lon, Y: c.Lat}
		}
		outline, err := plotter.NewPolygon(xys)
		if err != nil {
			return fmt.Errorf("lease area %q: %w", name, err)
		}
		outline.Color = nil // outline only
		outline.LineStyle.Color = r.style.LeaseColor
		outline.LineStyle.Width = vg.Points(1)
		p.Add(outline)
	}
	return nil
}

func (r *Renderer) bucketDir(interval daterange.Interval, window daterange.Range) string {
	return filepath.Join(r.outDir, WindowLabel(interval, window.Start, window.End))
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := p.Save(r.style.Width, r.style.Height, path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	r.logger.Debug("image written", "path", path)
	return nil
}

func applyExtent(p *plot.Plot, e domain.Extent, xticks, yticks []float64) {
	p.X.Min, p.X.Max = e.MinLon, e.MaxLon
	p.Y.Min, p.Y.Max = e.MinLat, e.MaxLat
	if len(xticks) > 0 {
		p.X.Tick.Marker = plot.ConstantTicks(degreeTicks(xticks))
	}
	if len(yticks) > 0 {
		p.Y.Tick.Marker = plot.ConstantTicks(degreeTicks(yticks))
	}
}

func degreeTicks(values []float64) []plot.Tick {
	ticks := make([]plot.Tick, len(values))
	for i, v := range values {
		ticks[i] = plot.Tick{Value: v, Label: fmt.Sprintf("%g", v)}
	}
	return ticks
}

func variableTitle(v region.Variable) string {
	switch v {
	case region.MeanWindSpeed:
		return "Mean Wind Speed (m/s)"
	case region.WindSpeedVariance:
		return "Wind Speed Variance (m/s)"
	default:
		return string(v)
	}
}

// fieldGrid adapts row-major [y][x] data to plotter.GridXYZ.
type fieldGrid struct {
	z [][]float64
	x []float64
	y []float64
}

func (g *fieldGrid) Dims() (c, r int) { return len(g.x), len(g.y) }
func (g *fieldGrid) Z(c, r int) float64 {
	return g.z[r][c]
}
func (g *fieldGrid) X(c int) float64 { return g.x[c] }
func (g *fieldGrid) Y(r int) float64 { return g.y[r] }

// WindowLabel names the per-run output directory for a time window,
// e.g. "monthly_20200101-20200831".
func WindowLabel(interval daterange.Interval, start, end time.Time) string {
	return fmt.Sprintf("%s_%s-%s", interval, start.UTC().Format("20060102"), end.UTC().Format("20060102"))
}
