package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imcf-data/morphometry.report/internal/objects"
	"github.com/imcf-data/morphometry.report/internal/testutil"
	"github.com/imcf-data/morphometry.report/internal/volume"
)

func fixtureVolume(t *testing.T) *volume.CalibratedVolume {
	t.Helper()
	v := testutil.NewUniformVolume(t, 10, 10, 10, testutil.UnitCalibration(), 10)
	testutil.FillCube(v, 3, 3, 3, 3, 200)
	return v
}

func TestMaxProject(t *testing.T) {
	v := fixtureVolume(t)
	g := maxProject(v)

	c, r := g.Dims()
	if c != 10 || r != 10 {
		t.Fatalf("dims = %dx%d, want 10x10", c, r)
	}
	// columns through the cube carry its intensity, others the background
	if got := g.Z(4, 4); got != 200 {
		t.Fatalf("Z(4,4) = %g, want 200", got)
	}
	if got := g.Z(0, 0); got != 10 {
		t.Fatalf("Z(0,0) = %g, want 10", got)
	}
}

func TestWriteProjectionPNG(t *testing.T) {
	v := fixtureVolume(t)
	survivors := []*objects.Object3D{
		{Label: 1, Voxels: []objects.Voxel{{X: 4, Y: 4, Z: 4}}},
	}

	path := filepath.Join(t.TempDir(), "proj.png")
	if err := WriteProjectionPNG(path, v, survivors); err != nil {
		t.Fatalf("write projection: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("projection PNG is empty")
	}
}

func TestWriteProjectionPNGNoSurvivors(t *testing.T) {
	v := fixtureVolume(t)
	path := filepath.Join(t.TempDir(), "proj.png")
	if err := WriteProjectionPNG(path, v, nil); err != nil {
		t.Fatalf("write projection without survivors: %v", err)
	}
}

func TestWriteVolumeChart(t *testing.T) {
	records := []objects.Measurement{
		{ObjectIndex: 0, Volume: 27},
		{ObjectIndex: 1, Volume: 13.5},
	}

	path := filepath.Join(t.TempDir(), "volumes.html")
	if err := WriteVolumeChart(path, "well_B2", "micron", records); err != nil {
		t.Fatalf("write chart: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "well_B2") {
		t.Error("chart missing image id in subtitle")
	}
	if !strings.Contains(html, "µm^3") {
		t.Error("chart missing volume unit on y axis")
	}
}

func TestWriteVolumeChartEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	if err := WriteVolumeChart(path, "img", "micron", nil); err != nil {
		t.Fatalf("write empty chart: %v", err)
	}
}
