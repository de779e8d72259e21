// Command morphometry processes a dataset of 3D fluorescence stacks:
// each image is thresholded, segmented into 3D objects, filtered, and
// measured, with the measurement table and surviving geometry written per
// image and the whole batch recorded in a local sqlite database.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/imcf-data/morphometry.report/internal/version"
)

var (
	showVersion = flag.Bool("version", false, "Print version information and exit")
	sourceDir   = flag.String("source", "", "Dataset directory of image stacks (required)")
	destDir     = flag.String("dest", "", "Directory for per-image results (required)")
	dbPath      = flag.String("db", "morphometry.db", "Analysis run database path (empty to disable)")
	configPath  = flag.String("config", "", "JSON tuning file")
	dataset     = flag.String("dataset", "", "Dataset label recorded with the run (default: source dir)")
	channel     = flag.Int("channel", 0, "Channel of interest (overrides tuning file)")
	minVolume   = flag.Float64("min-volume", -1, "Minimum object volume in calibrated units^3 (overrides tuning file)")
	filterZ     = flag.Bool("filter-z", false, "Remove objects touching the z-boundary (overrides tuning file)")
	charts      = flag.Bool("charts", false, "Write per-image volume chart HTML")
	projections = flag.Bool("projections", false, "Write per-image max-projection PNG")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("morphometry %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *sourceDir == "" || *destDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	summary, err := runBatch()
	if err != nil {
		log.Fatalf("batch failed: %v", err)
	}

	log.Printf("batch %s finished: %d images processed, %d failed", summary.RunID, summary.Processed, summary.Failed)
	if summary.Processed == 0 && summary.Failed > 0 {
		os.Exit(1)
	}
}
