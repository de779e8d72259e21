// Package objects builds the population of discrete 3D objects out of a
// labeled volume and computes the calibrated morphometric measurements
// reported for each one.
package objects

import (
	"github.com/imcf-data/morphometry.report/internal/volume"
)

// Voxel is one 3D grid coordinate belonging to an object.
type Voxel struct {
	X, Y, Z int
}

// Box is an inclusive axis-aligned bounding box in voxel coordinates.
type Box struct {
	MinX, MinY, MinZ int
	MaxX, MaxY, MaxZ int
}

// Object3D is a single connected component. Geometry is fixed at
// construction; filters exclude objects from the population but never
// mutate them.
type Object3D struct {
	Label  int32
	Voxels []Voxel // scan order (ascending z, y, x)
	BBox   Box

	// TouchesZBorder is set when any voxel lies on the first or last
	// z-slice, where the real extent of the structure is cut off by the
	// imaged volume.
	TouchesZBorder bool
}

// VoxelCount returns the number of voxels in the object.
func (o *Object3D) VoxelCount() int {
	return len(o.Voxels)
}

// CalibratedVolume returns voxel count times the calibrated voxel volume.
func (o *Object3D) CalibratedVolume(cal volume.Calibration) float64 {
	return float64(len(o.Voxels)) * cal.VoxelVolume()
}

// Centroid returns the calibrated centre of mass of the voxel centres.
func (o *Object3D) Centroid(cal volume.Calibration) (x, y, z float64) {
	if len(o.Voxels) == 0 {
		return 0, 0, 0
	}
	var sx, sy, sz float64
	for _, v := range o.Voxels {
		sx += float64(v.X)
		sy += float64(v.Y)
		sz += float64(v.Z)
	}
	n := float64(len(o.Voxels))
	return sx / n * cal.SX, sy / n * cal.SY, sz / n * cal.SZ
}
