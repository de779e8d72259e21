package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/imcf-data/morphometry.report/internal/objects"
)

// AnalysisRun is one batch over a dataset, with the parameters it ran
// under captured as JSON for reproducibility.
type AnalysisRun struct {
	RunID              string          `json:"run_id"`
	Dataset            string          `json:"dataset"`
	ParamsJSON         json.RawMessage `json:"params_json,omitempty"`
	StartedUnixNanos   int64           `json:"started_unix_nanos"`
	CompletedUnixNanos int64           `json:"completed_unix_nanos,omitempty"`
	ImagesProcessed    int             `json:"images_processed"`
	ImagesFailed       int             `json:"images_failed"`
}

// ImageResult is the per-image outcome within a run. Status is "ok" or
// "failed"; failed images carry the error text and no measurements.
type ImageResult struct {
	RunID         string  `json:"run_id"`
	ImageID       string  `json:"image_id"`
	Status        string  `json:"status"`
	Error         string  `json:"error,omitempty"`
	Threshold     float64 `json:"threshold"`
	TotalObjects  int     `json:"total_objects"`
	SurvivorCount int     `json:"survivor_count"`
	RemovedCount  int     `json:"removed_count"`
	CreatedAt     int64   `json:"created_at"`
}

// RunStore provides persistence for analysis runs, image outcomes, and
// measurement rows.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// InsertRun persists a new run. If RunID is empty, a UUID is generated.
func (s *RunStore) InsertRun(run *AnalysisRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedUnixNanos == 0 {
		run.StartedUnixNanos = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO analysis_runs (run_id, dataset, params_json, started_unix_nanos)
			VALUES (?, ?, ?, ?)`,
			run.RunID, run.Dataset, paramsStr, run.StartedUnixNanos,
		)
		return err
	})
}

// CompleteRun records the final counters and completion time of a run.
func (s *RunStore) CompleteRun(runID string, processed, failed int) error {
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			UPDATE analysis_runs
			SET completed_unix_nanos = ?, images_processed = ?, images_failed = ?
			WHERE run_id = ?`,
			time.Now().UnixNano(), processed, failed, runID,
		)
		return err
	})
}

// RecordImageResult persists one image's outcome.
func (s *RunStore) RecordImageResult(res *ImageResult) error {
	if res.CreatedAt == 0 {
		res.CreatedAt = time.Now().UnixNano()
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO image_results (
				run_id, image_id, status, error, threshold,
				total_objects, survivor_count, removed_count, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, res.ImageID, res.Status, res.Error, res.Threshold,
			res.TotalObjects, res.SurvivorCount, res.RemovedCount, res.CreatedAt,
		)
		return err
	})
}

// InsertMeasurements persists the measurement rows of one image in a
// single transaction.
func (s *RunStore) InsertMeasurements(runID, imageID, unit string, records []objects.Measurement) error {
	if len(records) == 0 {
		return nil
	}
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO measurements (
				run_id, image_id, object_index,
				volume, compactness, surface_area, mean_intensity, feret, unit
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()
		for _, r := range records {
			if _, err := stmt.Exec(runID, imageID, r.ObjectIndex,
				r.Volume, r.Compactness, r.SurfaceArea, r.MeanIntensity, r.Feret, unit); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// GetRun returns a single run by ID.
func (s *RunStore) GetRun(runID string) (*AnalysisRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, dataset, params_json, started_unix_nanos,
		       completed_unix_nanos, images_processed, images_failed
		FROM analysis_runs WHERE run_id = ?`, runID)

	var run AnalysisRun
	var params sql.NullString
	var completed sql.NullInt64
	err := row.Scan(&run.RunID, &run.Dataset, &params, &run.StartedUnixNanos,
		&completed, &run.ImagesProcessed, &run.ImagesFailed)
	if err != nil {
		return nil, fmt.Errorf("db: get run %s: %w", runID, err)
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	if completed.Valid {
		run.CompletedUnixNanos = completed.Int64
	}
	return &run, nil
}

// ListImageResults returns the per-image outcomes of a run in image order.
func (s *RunStore) ListImageResults(runID string) ([]*ImageResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, image_id, status, error, threshold,
		       total_objects, survivor_count, removed_count, created_at
		FROM image_results WHERE run_id = ? ORDER BY image_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("db: list image results: %w", err)
	}
	defer rows.Close()

	var results []*ImageResult
	for rows.Next() {
		var r ImageResult
		var errText sql.NullString
		var threshold sql.NullFloat64
		if err := rows.Scan(&r.RunID, &r.ImageID, &r.Status, &errText, &threshold,
			&r.TotalObjects, &r.SurvivorCount, &r.RemovedCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan image result: %w", err)
		}
		if errText.Valid {
			r.Error = errText.String
		}
		if threshold.Valid {
			r.Threshold = threshold.Float64
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// ListMeasurements returns one image's measurement rows ordered by object
// index.
func (s *RunStore) ListMeasurements(runID, imageID string) ([]objects.Measurement, error) {
	rows, err := s.db.Query(`
		SELECT object_index, volume, compactness, surface_area, mean_intensity, feret
		FROM measurements
		WHERE run_id = ? AND image_id = ?
		ORDER BY object_index`, runID, imageID)
	if err != nil {
		return nil, fmt.Errorf("db: list measurements: %w", err)
	}
	defer rows.Close()

	var records []objects.Measurement
	for rows.Next() {
		var m objects.Measurement
		if err := rows.Scan(&m.ObjectIndex, &m.Volume, &m.Compactness,
			&m.SurfaceArea, &m.MeanIntensity, &m.Feret); err != nil {
			return nil, fmt.Errorf("db: scan measurement: %w", err)
		}
		records = append(records, m)
	}
	return records, rows.Err()
}
