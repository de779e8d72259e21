package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/imcf-data/morphometry.report/internal/config"
	"github.com/imcf-data/morphometry.report/internal/testutil"
	"github.com/imcf-data/morphometry.report/internal/volume"
)

// stainedCube builds a 10x10x10 volume with background bg and a
// cube of edge length edge at origin (x0,y0,z0) set to fg.
func stainedCube(t *testing.T, bg, fg float64, x0, y0, z0, edge int) *volume.CalibratedVolume {
	t.Helper()
	v := testutil.NewUniformVolume(t, 10, 10, 10, testutil.UnitCalibration(), bg)
	testutil.FillCube(v, x0, y0, z0, edge, fg)
	return v
}

func TestRunSingleObject(t *testing.T) {
	v := stainedCube(t, 10, 200, 3, 3, 3, 3)
	res, err := Run(v, DefaultParams())
	testutil.AssertNoError(t, err)

	if res.TotalObjects != 1 {
		t.Fatalf("total objects = %d, want 1", res.TotalObjects)
	}
	if len(res.Survivors) != 1 || len(res.Records) != 1 {
		t.Fatalf("survivors = %d records = %d, want 1 each", len(res.Survivors), len(res.Records))
	}
	if res.RemovedCount != 0 {
		t.Fatalf("removed = %d, want 0", res.RemovedCount)
	}
	if res.Threshold <= 10 || res.Threshold >= 200 {
		t.Fatalf("threshold %g outside (10, 200)", res.Threshold)
	}

	m := res.Records[0]
	if m.ObjectIndex != 0 {
		t.Errorf("object index = %d, want 0", m.ObjectIndex)
	}
	testutil.AssertInDelta(t, m.Volume, 27, 1e-9)
	testutil.AssertInDelta(t, m.SurfaceArea, 54, 1e-9)
	testutil.AssertInDelta(t, m.MeanIntensity, 200, 1e-9)
	testutil.AssertInDelta(t, m.Feret, 2*math.Sqrt(3), 1e-9)
	testutil.AssertInDelta(t, m.Compactness, math.Pi/6, 1e-9)
}

func TestRunZBorderFilterToggle(t *testing.T) {
	params := DefaultParams()
	params.FilterZBorder = true

	v := stainedCube(t, 10, 200, 3, 3, 0, 3)
	res, err := Run(v, params)
	testutil.AssertNoError(t, err)
	if res.TotalObjects != 1 || len(res.Survivors) != 0 || res.RemovedCount != 1 {
		t.Fatalf("with z filter: total=%d survivors=%d removed=%d, want 1/0/1",
			res.TotalObjects, len(res.Survivors), res.RemovedCount)
	}

	params.FilterZBorder = false
	res, err = Run(v, params)
	testutil.AssertNoError(t, err)
	if len(res.Survivors) != 1 {
		t.Fatalf("without z filter: survivors = %d, want 1", len(res.Survivors))
	}
}

func TestRunMinVolumeFilter(t *testing.T) {
	v := stainedCube(t, 10, 200, 1, 1, 1, 3)
	// a second, 4-voxel object below the default minimum of 5
	v.Set(7, 7, 7, 200)
	v.Set(8, 7, 7, 200)
	v.Set(7, 8, 7, 200)
	v.Set(8, 8, 7, 200)

	res, err := Run(v, DefaultParams())
	testutil.AssertNoError(t, err)
	if res.TotalObjects != 2 {
		t.Fatalf("total objects = %d, want 2", res.TotalObjects)
	}
	if len(res.Survivors) != 1 || res.RemovedCount != 1 {
		t.Fatalf("survivors = %d removed = %d, want 1 and 1", len(res.Survivors), res.RemovedCount)
	}
	if res.Records[0].ObjectIndex != 0 {
		t.Fatalf("survivor index = %d, want sequential from 0", res.Records[0].ObjectIndex)
	}
	testutil.AssertInDelta(t, res.Records[0].Volume, 27, 1e-9)
}

func TestRunAllObjectsFiltered(t *testing.T) {
	params := DefaultParams()
	params.MinVolume = 1000

	v := stainedCube(t, 10, 200, 3, 3, 3, 3)
	res, err := Run(v, params)
	testutil.AssertNoError(t, err)
	if res.TotalObjects != 1 || len(res.Survivors) != 0 || len(res.Records) != 0 {
		t.Fatalf("total=%d survivors=%d records=%d, want 1/0/0",
			res.TotalObjects, len(res.Survivors), len(res.Records))
	}
	if res.RemovedCount != 1 {
		t.Fatalf("removed = %d, want 1", res.RemovedCount)
	}
}

func TestRunUniformVolume(t *testing.T) {
	v := testutil.NewUniformVolume(t, 8, 8, 8, testutil.UnitCalibration(), 99)
	_, err := Run(v, DefaultParams())
	if !errors.Is(err, volume.ErrDegenerateInput) {
		t.Fatalf("error = %v, want ErrDegenerateInput", err)
	}
}

func TestRunRejectsBadCalibration(t *testing.T) {
	v := stainedCube(t, 10, 200, 3, 3, 3, 3)
	v.Cal = volume.Calibration{}
	_, err := Run(v, DefaultParams())
	if !errors.Is(err, volume.ErrCalibrationMissing) {
		t.Fatalf("error = %v, want ErrCalibrationMissing", err)
	}
}

func TestRunDeterministic(t *testing.T) {
	v := stainedCube(t, 10, 200, 2, 2, 2, 4)
	testutil.FillCube(v, 7, 7, 7, 2, 180)

	first, err := Run(v, DefaultParams())
	testutil.AssertNoError(t, err)
	second, err := Run(v, DefaultParams())
	testutil.AssertNoError(t, err)

	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Fatalf("records differ between runs (-first +second):\n%s", diff)
	}
	if first.Threshold != second.Threshold {
		t.Fatalf("thresholds differ: %g vs %g", first.Threshold, second.Threshold)
	}
}

func TestRunAnisotropicVolumeIdentity(t *testing.T) {
	cal := volume.Calibration{SX: 0.5, SY: 0.5, SZ: 2, Unit: "micron"}
	v := testutil.NewUniformVolume(t, 10, 10, 10, cal, 10)
	testutil.FillCube(v, 3, 3, 3, 3, 200)

	params := DefaultParams()
	params.MinVolume = 0
	res, err := Run(v, params)
	testutil.AssertNoError(t, err)
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	// 27 voxels of 0.5*0.5*2 each
	testutil.AssertInDelta(t, res.Records[0].Volume, 13.5, 1e-9)
}

func TestParamsFromTuning(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	got := ParamsFromTuning(cfg)
	if got != DefaultParams() {
		t.Fatalf("empty tuning params = %+v, want defaults %+v", got, DefaultParams())
	}

	ch := 1
	mv := 2.5
	fz := true
	bins := 128
	cfg = &config.TuningConfig{Channel: &ch, MinVolume: &mv, FilterZBorder: &fz, HistogramBins: &bins}
	want := Params{Channel: 1, MinVolume: 2.5, FilterZBorder: true, HistogramBins: 128}
	if got := ParamsFromTuning(cfg); got != want {
		t.Fatalf("params = %+v, want %+v", got, want)
	}
}
