package pipeline

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/imcf-data/morphometry.report/internal/db"
	"github.com/imcf-data/morphometry.report/internal/export"
	"github.com/imcf-data/morphometry.report/internal/report"
	"github.com/imcf-data/morphometry.report/internal/tiffstack"
)

// Runner drives the per-image pipeline over a batch. Images are
// independent: a failure on one is logged and recorded, and the batch
// moves on. The source session is owned by the caller, which guarantees
// release after the last image.
type Runner struct {
	Source  tiffstack.Source
	Params  Params
	DestDir string

	// Store is optional; when set, the run and every per-image outcome
	// and measurement row are persisted.
	Store *db.RunStore

	// WriteCharts and WriteProjections enable the per-image QC
	// artifacts (volume chart HTML, max-projection PNG).
	WriteCharts      bool
	WriteProjections bool
}

// BatchSummary is the outcome of one batch.
type BatchSummary struct {
	RunID     string
	Processed int
	Failed    int
	FailedIDs []string
}

// ProcessDataset runs the pipeline over every image the source lists,
// in sorted order for reproducibility.
func (r *Runner) ProcessDataset(dataset string) (*BatchSummary, error) {
	ids, err := r.Source.ImageIDs()
	if err != nil {
		return nil, fmt.Errorf("pipeline: list images: %w", err)
	}
	sort.Strings(ids)

	run := &db.AnalysisRun{Dataset: dataset}
	if params, err := json.Marshal(r.Params); err == nil {
		run.ParamsJSON = params
	}
	if r.Store != nil {
		if err := r.Store.InsertRun(run); err != nil {
			return nil, fmt.Errorf("pipeline: record run: %w", err)
		}
	}

	summary := &BatchSummary{RunID: run.RunID}
	for _, id := range ids {
		log.Printf("Now processing %s", id)
		res, err := r.processImage(id)
		if err != nil {
			log.Printf("image %s failed: %v", id, err)
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, id)
			r.recordFailure(run.RunID, id, err)
			continue
		}
		summary.Processed++
		r.recordResult(run.RunID, id, res)
		log.Printf("image %s: %d objects, %d kept", id, res.TotalObjects, len(res.Survivors))
	}

	if r.Store != nil {
		if err := r.Store.CompleteRun(run.RunID, summary.Processed, summary.Failed); err != nil {
			return nil, fmt.Errorf("pipeline: complete run: %w", err)
		}
	}
	return summary, nil
}

func (r *Runner) processImage(id string) (*Result, error) {
	vol, err := r.Source.Volume(id, r.Params.Channel)
	if err != nil {
		return nil, err
	}

	res, err := Run(vol, r.Params)
	if err != nil {
		return nil, err
	}
	res.ImageID = id

	base := filepath.Join(r.DestDir, export.SanitizeBase(id))
	arch := export.GeometryArchive{
		NX:          vol.NX,
		NY:          vol.NY,
		NZ:          vol.NZ,
		Calibration: vol.Cal,
	}
	if err := export.WriteResults(base, res.Records, res.Survivors, arch); err != nil {
		return nil, err
	}
	log.Printf("results for %s saved as %s", id, export.TablePath(base))

	// QC artifacts are best-effort: a chart failure is worth a log line,
	// not a failed image.
	if r.WriteProjections {
		if err := report.WriteProjectionPNG(base+"_projection.png", vol, res.Survivors); err != nil {
			log.Printf("projection for %s failed: %v", id, err)
		}
	}
	if r.WriteCharts {
		if err := report.WriteVolumeChart(base+"_volumes.html", id, vol.Cal.Unit, res.Records); err != nil {
			log.Printf("volume chart for %s failed: %v", id, err)
		}
	}
	return res, nil
}

func (r *Runner) recordResult(runID, id string, res *Result) {
	if r.Store == nil {
		return
	}
	err := r.Store.RecordImageResult(&db.ImageResult{
		RunID:         runID,
		ImageID:       id,
		Status:        "ok",
		Threshold:     res.Threshold,
		TotalObjects:  res.TotalObjects,
		SurvivorCount: len(res.Survivors),
		RemovedCount:  res.RemovedCount,
	})
	if err != nil {
		log.Printf("recording result for %s failed: %v", id, err)
		return
	}
	if err := r.Store.InsertMeasurements(runID, id, res.Calibration.Unit, res.Records); err != nil {
		log.Printf("recording measurements for %s failed: %v", id, err)
	}
}

func (r *Runner) recordFailure(runID, id string, cause error) {
	if r.Store == nil {
		return
	}
	err := r.Store.RecordImageResult(&db.ImageResult{
		RunID:   runID,
		ImageID: id,
		Status:  "failed",
		Error:   cause.Error(),
	})
	if err != nil {
		log.Printf("recording failure for %s failed: %v", id, err)
	}
}
