// Package volume holds the calibrated 3D intensity grid and the two
// derived grids the segmentation stages produce from it: a binary
// foreground mask and a connected-component label field.
package volume

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateInput is returned when a channel carries a single constant
// intensity value, leaving the automatic threshold undefined.
var ErrDegenerateInput = errors.New("volume: constant channel, threshold undefined")

// ErrCalibrationMissing is returned when a volume has no usable physical
// voxel size. Defaulting silently to 1.0 per axis would corrupt every
// downstream physical-unit measurement, so the pipeline refuses instead.
var ErrCalibrationMissing = errors.New("volume: physical voxel calibration missing")

// Calibration is the physical size of one voxel along each axis plus the
// unit of measurement (e.g. "micron").
type Calibration struct {
	SX   float64 `json:"sx"`
	SY   float64 `json:"sy"`
	SZ   float64 `json:"sz"`
	Unit string  `json:"unit"`
}

// Validate reports ErrCalibrationMissing unless all three voxel extents
// are finite and strictly positive.
func (c Calibration) Validate() error {
	for _, s := range []float64{c.SX, c.SY, c.SZ} {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: voxel size (%g, %g, %g)", ErrCalibrationMissing, c.SX, c.SY, c.SZ)
		}
	}
	return nil
}

// VoxelVolume returns the calibrated volume of a single voxel.
func (c Calibration) VoxelVolume() float64 {
	return c.SX * c.SY * c.SZ
}

// CalibratedVolume is a single-channel 3D intensity grid with physical
// calibration. Data is stored flat in scan order: index (z*NY+y)*NX+x.
type CalibratedVolume struct {
	NX, NY, NZ int
	Data       []float64
	Cal        Calibration
}

// New allocates a zeroed volume. Dimensions must be at least 1 per axis.
func New(nx, ny, nz int, cal Calibration) (*CalibratedVolume, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("volume: invalid dimensions %dx%dx%d", nx, ny, nz)
	}
	return &CalibratedVolume{
		NX:   nx,
		NY:   ny,
		NZ:   nz,
		Data: make([]float64, nx*ny*nz),
		Cal:  cal,
	}, nil
}

// Index converts (x, y, z) coordinates to the flat Data index.
func (v *CalibratedVolume) Index(x, y, z int) int {
	return (z*v.NY+y)*v.NX + x
}

// At returns the intensity at (x, y, z).
func (v *CalibratedVolume) At(x, y, z int) float64 {
	return v.Data[(z*v.NY+y)*v.NX+x]
}

// Set stores an intensity at (x, y, z).
func (v *CalibratedVolume) Set(x, y, z int, val float64) {
	v.Data[(z*v.NY+y)*v.NX+x] = val
}

// Len returns the total voxel count.
func (v *CalibratedVolume) Len() int {
	return v.NX * v.NY * v.NZ
}

// Foreground is the marker value for mask voxels above threshold.
const Foreground uint8 = 255

// BinaryVolume is a same-extent foreground mask with values
// {0, Foreground}.
type BinaryVolume struct {
	NX, NY, NZ int
	Mask       []uint8
}

// LabeledVolume is a same-extent grid of connected-component labels.
// Label 0 is background and never represents a real object; foreground
// components are numbered 1..NumLabels in discovery order.
type LabeledVolume struct {
	NX, NY, NZ int
	Labels     []int32
	NumLabels  int
}

// At returns the label at (x, y, z).
func (lv *LabeledVolume) At(x, y, z int) int32 {
	return lv.Labels[(z*lv.NY+y)*lv.NX+x]
}

// InBounds reports whether (x, y, z) lies inside the grid.
func (lv *LabeledVolume) InBounds(x, y, z int) bool {
	return x >= 0 && x < lv.NX && y >= 0 && y < lv.NY && z >= 0 && z < lv.NZ
}
