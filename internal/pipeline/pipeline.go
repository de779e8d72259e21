// Package pipeline runs the per-image measurement chain
// (binarize → label → populate → filter → measure) and drives it over a
// batch of images with per-image failure isolation.
package pipeline

import (
	"fmt"

	"github.com/imcf-data/morphometry.report/internal/config"
	"github.com/imcf-data/morphometry.report/internal/objects"
	"github.com/imcf-data/morphometry.report/internal/volume"
)

// Params are the tuning knobs of a single pipeline invocation.
type Params struct {
	Channel       int
	MinVolume     float64
	FilterZBorder bool
	HistogramBins int
}

// DefaultParams returns the built-in defaults.
func DefaultParams() Params {
	return Params{
		Channel:       config.DefaultChannel,
		MinVolume:     config.DefaultMinVolume,
		FilterZBorder: config.DefaultFilterZBorder,
		HistogramBins: config.DefaultHistogramBins,
	}
}

// ParamsFromTuning builds Params from a loaded tuning config.
func ParamsFromTuning(c *config.TuningConfig) Params {
	return Params{
		Channel:       c.GetChannel(),
		MinVolume:     c.GetMinVolume(),
		FilterZBorder: c.GetFilterZBorder(),
		HistogramBins: c.GetHistogramBins(),
	}
}

// Result is the outcome of one image's pipeline run.
type Result struct {
	ImageID      string
	Threshold    float64
	TotalObjects int
	RemovedCount int
	Survivors    []*objects.Object3D
	Records      []objects.Measurement
	Labeled      *volume.LabeledVolume
	Calibration  volume.Calibration
}

// Run executes the full per-image chain on an in-memory calibrated
// volume. The stage order and semantics are fixed: one global Otsu
// threshold over the whole stack, 26-connected labeling, the two removal
// predicates in order (z-border, then minimum volume), and one
// measurement record per survivor.
//
// The population is walked exactly once: each object gets a keep/reject
// decision and, when kept, its measurement record with the next
// sequential 0-based object index.
func Run(vol *volume.CalibratedVolume, params Params) (*Result, error) {
	if err := vol.Cal.Validate(); err != nil {
		return nil, err
	}

	mask, thr, err := volume.Binarize(vol, params.HistogramBins)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}

	labeled := volume.Label(mask)
	pop, err := objects.BuildPopulation(labeled)
	if err != nil {
		return nil, fmt.Errorf("build population: %w", err)
	}

	filter := objects.FilterParams{
		MinVolume:     params.MinVolume,
		FilterZBorder: params.FilterZBorder,
	}

	res := &Result{
		Threshold:    thr,
		TotalObjects: pop.Len(),
		Labeled:      labeled,
		Calibration:  vol.Cal,
	}
	for _, obj := range pop.Objects {
		if !filter.Keep(obj, vol.Cal) {
			res.RemovedCount++
			continue
		}
		index := len(res.Survivors)
		res.Survivors = append(res.Survivors, obj)
		res.Records = append(res.Records, objects.Measure(index, obj, labeled, vol))
	}
	return res, nil
}
