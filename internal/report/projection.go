// Package report renders the optional QC artifacts of a run: a
// max-intensity projection PNG per image and an HTML chart of the
// surviving object volumes.
package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/imcf-data/morphometry.report/internal/objects"
	"github.com/imcf-data/morphometry.report/internal/volume"
)

// projectionGrid adapts a max-intensity Z-projection to the heat map's
// grid interface. X and Y are in calibrated units.
type projectionGrid struct {
	nx, ny int
	sx, sy float64
	vals   []float64
}

func (g *projectionGrid) Dims() (c, r int)   { return g.nx, g.ny }
func (g *projectionGrid) Z(c, r int) float64 { return g.vals[r*g.nx+c] }
func (g *projectionGrid) X(c int) float64    { return float64(c) * g.sx }
func (g *projectionGrid) Y(r int) float64    { return float64(r) * g.sy }

// maxProject flattens the stack along z, keeping the brightest sample
// per (x, y) column.
func maxProject(vol *volume.CalibratedVolume) *projectionGrid {
	g := &projectionGrid{
		nx:   vol.NX,
		ny:   vol.NY,
		sx:   vol.Cal.SX,
		sy:   vol.Cal.SY,
		vals: make([]float64, vol.NX*vol.NY),
	}
	copy(g.vals, vol.Data[:vol.NX*vol.NY])
	for z := 1; z < vol.NZ; z++ {
		slice := vol.Data[z*vol.NX*vol.NY : (z+1)*vol.NX*vol.NY]
		for i, v := range slice {
			if v > g.vals[i] {
				g.vals[i] = v
			}
		}
	}
	return g
}

// WriteProjectionPNG renders the max-intensity Z-projection of the
// volume as a heat map with the surviving objects' centroids marked, a
// quick visual check that segmentation found what the eye sees.
func WriteProjectionPNG(path string, vol *volume.CalibratedVolume, survivors []*objects.Object3D) error {
	p := plot.New()
	p.Title.Text = "Max-intensity projection"
	p.X.Label.Text = fmt.Sprintf("x (%s)", vol.Cal.Unit)
	p.Y.Label.Text = fmt.Sprintf("y (%s)", vol.Cal.Unit)

	heat := plotter.NewHeatMap(maxProject(vol), palette.Heat(16, 1))
	p.Add(heat)

	if len(survivors) > 0 {
		pts := make(plotter.XYs, len(survivors))
		for i, o := range survivors {
			cx, cy, _ := o.Centroid(vol.Cal)
			pts[i] = plotter.XY{X: cx, Y: cy}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("report: centroid scatter: %w", err)
		}
		scatter.GlyphStyle.Color = color.RGBA{G: 255, A: 255}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save projection: %w", err)
	}
	return nil
}
