package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/imcf-data/morphometry.report/internal/config"
	"github.com/imcf-data/morphometry.report/internal/db"
	"github.com/imcf-data/morphometry.report/internal/pipeline"
	"github.com/imcf-data/morphometry.report/internal/tiffstack"
)

// buildParams resolves the pipeline parameters: built-in defaults, then
// the tuning file, then any flags the caller set explicitly.
func buildParams() (pipeline.Params, error) {
	params := pipeline.DefaultParams()

	if *configPath != "" {
		cfg, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			return params, fmt.Errorf("load tuning config: %w", err)
		}
		params = pipeline.ParamsFromTuning(cfg)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "channel":
			params.Channel = *channel
		case "min-volume":
			params.MinVolume = *minVolume
		case "filter-z":
			params.FilterZBorder = *filterZ
		}
	})

	if params.Channel < 1 {
		return params, fmt.Errorf("channel must be >= 1, got %d", params.Channel)
	}
	if params.MinVolume < 0 {
		return params, fmt.Errorf("min-volume must be non-negative, got %g", params.MinVolume)
	}
	return params, nil
}

// runBatch wires the source, database and runner together and processes
// the dataset. The source session and database handle are released when
// the batch ends, whatever the per-image outcomes were.
func runBatch() (*pipeline.BatchSummary, error) {
	params, err := buildParams()
	if err != nil {
		return nil, err
	}

	source, err := tiffstack.Open(*sourceDir)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := os.MkdirAll(*destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	runner := &pipeline.Runner{
		Source:           source,
		Params:           params,
		DestDir:          *destDir,
		WriteCharts:      *charts,
		WriteProjections: *projections,
	}

	if *dbPath != "" {
		database, err := db.Open(*dbPath)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		runner.Store = db.NewRunStore(database)
	} else {
		log.Print("run database disabled, recording nothing")
	}

	name := *dataset
	if name == "" {
		name = filepath.Base(*sourceDir)
	}
	return runner.ProcessDataset(name)
}
