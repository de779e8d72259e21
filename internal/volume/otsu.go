package volume

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DefaultHistogramBins is the histogram resolution for the automatic
// threshold. 256 matches the 8-bit histogram the acquisition software
// uses for the same method, so thresholds are comparable.
const DefaultHistogramBins = 256

// OtsuThreshold computes a single global intensity threshold over the full
// 3D stack using Otsu's method on an equal-width histogram spanning
// [min, max] of the data. The threshold is shared across all z-slices so
// the binarised stack stays consistent for 3D labeling; per-slice
// thresholds would split objects at slice boundaries.
//
// Voxels strictly greater than the returned threshold are foreground.
// A channel with a single constant value has no histogram to split and
// fails with ErrDegenerateInput.
func OtsuThreshold(v *CalibratedVolume, bins int) (float64, error) {
	if bins < 2 {
		bins = DefaultHistogramBins
	}
	lo := floats.Min(v.Data)
	hi := floats.Max(v.Data)
	if hi <= lo {
		return 0, fmt.Errorf("%w: all %d voxels have value %g", ErrDegenerateInput, v.Len(), lo)
	}

	width := (hi - lo) / float64(bins)
	counts := make([]int64, bins)
	for _, val := range v.Data {
		b := int((val - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}

	// Otsu: pick the split maximising between-class variance
	// wB*wF*(muB-muF)^2 over bin indices.
	total := int64(v.Len())
	var sumAll float64
	for i, c := range counts {
		sumAll += float64(i) * float64(c)
	}

	var wB, wF int64
	var sumB, bestVar float64
	bestBin := -1
	for i := 0; i < bins-1; i++ {
		wB += counts[i]
		if wB == 0 {
			continue
		}
		wF = total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(counts[i])
		muB := sumB / float64(wB)
		muF := (sumAll - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (muB - muF) * (muB - muF)
		if between > bestVar {
			bestVar = between
			bestBin = i
		}
	}
	if bestBin < 0 {
		return 0, fmt.Errorf("%w: histogram has a single occupied bin", ErrDegenerateInput)
	}

	// Threshold sits at the upper edge of the best background bin, so the
	// strictly-greater comparison puts that bin in the background class.
	return lo + float64(bestBin+1)*width, nil
}

// Binarize thresholds the volume with OtsuThreshold and returns the
// foreground mask together with the threshold that produced it.
func Binarize(v *CalibratedVolume, bins int) (*BinaryVolume, float64, error) {
	thr, err := OtsuThreshold(v, bins)
	if err != nil {
		return nil, 0, err
	}
	mask := make([]uint8, v.Len())
	for i, val := range v.Data {
		if val > thr {
			mask[i] = Foreground
		}
	}
	return &BinaryVolume{NX: v.NX, NY: v.NY, NZ: v.NZ, Mask: mask}, thr, nil
}
