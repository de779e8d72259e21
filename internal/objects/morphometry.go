package objects

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/imcf-data/morphometry.report/internal/volume"
)

// Measurement is one output row for a surviving object. All geometric
// quantities are in the calibrated physical units of the source volume.
type Measurement struct {
	ObjectIndex   int
	Volume        float64
	Compactness   float64
	SurfaceArea   float64
	MeanIntensity float64
	Feret         float64
}

// faceOffsets are the 6 face-neighbour directions with the calibrated
// area of the shared face for each: crossing in x exposes a sy*sz face,
// and so on.
var faceOffsets = [6][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// SurfaceArea computes the calibrated area of the object boundary using
// the exposed voxel-face method: every face of an object voxel whose face
// neighbour carries a different label (or lies outside the grid)
// contributes its calibrated face area. The method is exact for the voxel
// geometry, deterministic, and held constant across a run so compactness
// values stay comparable between objects.
func SurfaceArea(o *Object3D, lv *volume.LabeledVolume, cal volume.Calibration) float64 {
	faceArea := [3]float64{
		cal.SY * cal.SZ, // x faces
		cal.SX * cal.SZ, // y faces
		cal.SX * cal.SY, // z faces
	}
	var area float64
	for _, v := range o.Voxels {
		for fi, off := range faceOffsets {
			nx, ny, nz := v.X+off[0], v.Y+off[1], v.Z+off[2]
			if !lv.InBounds(nx, ny, nz) || lv.At(nx, ny, nz) != o.Label {
				area += faceArea[fi/2]
			}
		}
	}
	return area
}

// BoundaryVoxels returns the voxels with at least one face neighbour
// outside the object, in the object's scan order.
func BoundaryVoxels(o *Object3D, lv *volume.LabeledVolume) []Voxel {
	var boundary []Voxel
	for _, v := range o.Voxels {
		for _, off := range faceOffsets {
			nx, ny, nz := v.X+off[0], v.Y+off[1], v.Z+off[2]
			if !lv.InBounds(nx, ny, nz) || lv.At(nx, ny, nz) != o.Label {
				boundary = append(boundary, v)
				break
			}
		}
	}
	return boundary
}

// Feret returns the maximum calibrated Euclidean distance between any two
// boundary voxel centres. A single-voxel object has no extent between
// boundary points and reports 0.
func Feret(boundary []Voxel, cal volume.Calibration) float64 {
	var max2 float64
	for i := 0; i < len(boundary); i++ {
		for j := i + 1; j < len(boundary); j++ {
			dx := float64(boundary[i].X-boundary[j].X) * cal.SX
			dy := float64(boundary[i].Y-boundary[j].Y) * cal.SY
			dz := float64(boundary[i].Z-boundary[j].Z) * cal.SZ
			d2 := dx*dx + dy*dy + dz*dz
			if d2 > max2 {
				max2 = d2
			}
		}
	}
	return math.Sqrt(max2)
}

// Compactness is the sphere-normalised ratio 36*pi*V^2 / S^3: exactly 1
// for a perfect sphere, below 1 for every digitised shape (the voxel-face
// surface overestimates smooth boundaries). Returns 0 for a zero surface.
func Compactness(vol, surface float64) float64 {
	if surface <= 0 {
		return 0
	}
	return 36 * math.Pi * vol * vol / (surface * surface * surface)
}

// MeanIntensity samples the original, pre-threshold channel at the
// object's voxel coordinates. The binarised mask plays no part here, so
// the figure reflects real signal.
func MeanIntensity(o *Object3D, src *volume.CalibratedVolume) float64 {
	samples := make([]float64, len(o.Voxels))
	for i, v := range o.Voxels {
		samples[i] = src.At(v.X, v.Y, v.Z)
	}
	return stat.Mean(samples, nil)
}

// Measure computes the full measurement record for one surviving object.
// Every figure depends only on the object's voxel set, the labeled
// volume, and the calibration, so objects can be measured independently
// and in any order.
func Measure(index int, o *Object3D, lv *volume.LabeledVolume, src *volume.CalibratedVolume) Measurement {
	cal := src.Cal
	vol := o.CalibratedVolume(cal)
	surf := SurfaceArea(o, lv, cal)
	return Measurement{
		ObjectIndex:   index,
		Volume:        vol,
		Compactness:   Compactness(vol, surf),
		SurfaceArea:   surf,
		MeanIntensity: MeanIntensity(o, src),
		Feret:         Feret(BoundaryVoxels(o, lv), cal),
	}
}
