package objects

import (
	"fmt"

	"github.com/imcf-data/morphometry.report/internal/volume"
)

// Population is the ordered set of objects derived from one labeled
// volume. Order is label discovery order. The population keeps the
// labeled volume it was built from; boundary and surface computations
// consult it for membership tests.
type Population struct {
	Labeled *volume.LabeledVolume
	Objects []*Object3D
}

// BuildPopulation enumerates every nonzero label into an Object3D. The
// volume is scanned once in label scan order, so each object's voxel list
// comes out in ascending (z, y, x) order and no two objects share a voxel.
func BuildPopulation(lv *volume.LabeledVolume) (*Population, error) {
	objs := make([]*Object3D, lv.NumLabels)

	for z := 0; z < lv.NZ; z++ {
		for y := 0; y < lv.NY; y++ {
			for x := 0; x < lv.NX; x++ {
				label := lv.Labels[(z*lv.NY+y)*lv.NX+x]
				if label == 0 {
					continue
				}
				if label < 0 || int(label) > lv.NumLabels {
					return nil, fmt.Errorf("objects: label %d outside 0..%d at (%d, %d, %d)", label, lv.NumLabels, x, y, z)
				}
				o := objs[label-1]
				if o == nil {
					o = &Object3D{
						Label: label,
						BBox:  Box{MinX: x, MinY: y, MinZ: z, MaxX: x, MaxY: y, MaxZ: z},
					}
					objs[label-1] = o
				}
				o.Voxels = append(o.Voxels, Voxel{X: x, Y: y, Z: z})
				if x < o.BBox.MinX {
					o.BBox.MinX = x
				}
				if x > o.BBox.MaxX {
					o.BBox.MaxX = x
				}
				if y < o.BBox.MinY {
					o.BBox.MinY = y
				}
				if y > o.BBox.MaxY {
					o.BBox.MaxY = y
				}
				if z > o.BBox.MaxZ {
					o.BBox.MaxZ = z
				}
				if z == 0 || z == lv.NZ-1 {
					o.TouchesZBorder = true
				}
			}
		}
	}

	pop := &Population{Labeled: lv}
	for i, o := range objs {
		if o == nil {
			return nil, fmt.Errorf("objects: label %d has no voxels", i+1)
		}
		pop.Objects = append(pop.Objects, o)
	}
	return pop, nil
}

// Len returns the number of objects in the population.
func (p *Population) Len() int {
	return len(p.Objects)
}

// FilterParams control which objects are removed before measurement.
type FilterParams struct {
	// MinVolume is a lower bound in calibrated physical units, not a
	// voxel count: acquisitions with different calibration must agree on
	// what "too small" means.
	MinVolume float64

	// FilterZBorder removes objects cut off by the top or bottom slice.
	// Disable when the imaged volume is known to capture whole
	// structures.
	FilterZBorder bool
}

// Keep applies the two removal predicates in their fixed order: z-border
// touch first, then minimum calibrated volume. An object failing either
// is excluded from measurement and from the exported geometry.
func (p FilterParams) Keep(o *Object3D, cal volume.Calibration) bool {
	if p.FilterZBorder && o.TouchesZBorder {
		return false
	}
	if o.CalibratedVolume(cal) < p.MinVolume {
		return false
	}
	return true
}
