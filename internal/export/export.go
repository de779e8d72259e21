// Package export writes the two per-image outputs: the measurement table
// and the geometry archive of surviving objects. Both files are written
// to temporary names and renamed into place only when complete, so a
// failed image never leaves partial output on disk.
package export

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/imcf-data/morphometry.report/internal/objects"
	"github.com/imcf-data/morphometry.report/internal/units"
	"github.com/imcf-data/morphometry.report/internal/volume"
)

// ObjectGeometry is the persisted voxel membership of one surviving
// object.
type ObjectGeometry struct {
	Label       int32
	ObjectIndex int
	Voxels      []objects.Voxel
}

// GeometryArchive carries the surviving objects plus the grid extent and
// calibration they were measured under, which is enough to rebuild the
// object set without re-running segmentation.
type GeometryArchive struct {
	NX, NY, NZ  int
	Calibration volume.Calibration
	Objects     []ObjectGeometry
}

// TablePath returns the measurement table path for a base path.
func TablePath(base string) string {
	return base + ".csv"
}

// ArchivePath returns the geometry archive path for a base path.
func ArchivePath(base string) string {
	return base + "_objects.gob.gz"
}

// SanitizeBase maps an image title to a filesystem-safe base name the way
// the acquisition exports do: spaces become underscores and any extension
// is dropped.
func SanitizeBase(title string) string {
	name := strings.ReplaceAll(title, " ", "_")
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// Header returns the fixed measurement table columns with the calibration
// unit embedded in the physical-quantity columns.
func Header(unit string) []string {
	return []string{
		"object_index",
		fmt.Sprintf("volume (%s)", units.Powered(unit, 3)),
		"compactness",
		fmt.Sprintf("surface (%s)", units.Powered(unit, 2)),
		"mean_intensity",
		fmt.Sprintf("feret (%s)", units.Powered(unit, 1)),
	}
}

// WriteResults writes the measurement table and the geometry archive for
// one image under the caller-supplied base path. An existing file at
// either path is overwritten (last write wins). If anything fails, any
// output already renamed into place is removed again so the two files
// appear or disappear together.
func WriteResults(base string, records []objects.Measurement, survivors []*objects.Object3D, arch GeometryArchive) error {
	if len(records) != len(survivors) {
		return fmt.Errorf("export: %d records for %d surviving objects", len(records), len(survivors))
	}

	csvPath := TablePath(base)
	archivePath := ArchivePath(base)
	csvTmp := csvPath + ".tmp"
	archiveTmp := archivePath + ".tmp"

	if err := writeTable(csvTmp, arch.Calibration.Unit, records); err != nil {
		os.Remove(csvTmp)
		return err
	}
	arch.Objects = make([]ObjectGeometry, len(survivors))
	for i, o := range survivors {
		arch.Objects[i] = ObjectGeometry{
			Label:       o.Label,
			ObjectIndex: records[i].ObjectIndex,
			Voxels:      o.Voxels,
		}
	}
	if err := writeArchive(archiveTmp, &arch); err != nil {
		os.Remove(csvTmp)
		os.Remove(archiveTmp)
		return err
	}

	if err := os.Rename(csvTmp, csvPath); err != nil {
		os.Remove(csvTmp)
		os.Remove(archiveTmp)
		return fmt.Errorf("export: publish table: %w", err)
	}
	if err := os.Rename(archiveTmp, archivePath); err != nil {
		os.Remove(archiveTmp)
		os.Remove(csvPath)
		return fmt.Errorf("export: publish archive: %w", err)
	}
	return nil
}

func writeTable(path, unit string, records []objects.Measurement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create table: %w", err)
	}
	w := csv.NewWriter(f)

	if err := w.Write(Header(unit)); err != nil {
		f.Close()
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.ObjectIndex),
			formatFloat(r.Volume),
			formatFloat(r.Compactness),
			formatFloat(r.SurfaceArea),
			formatFloat(r.MeanIntensity),
			formatFloat(r.Feret),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("export: write row %d: %w", r.ObjectIndex, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("export: flush table: %w", err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeArchive(path string, arch *GeometryArchive) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create archive: %w", err)
	}
	gw := gzip.NewWriter(f)
	if err := gob.NewEncoder(gw).Encode(arch); err != nil {
		gw.Close()
		f.Close()
		return fmt.Errorf("export: gob encode: %w", err)
	}
	if err := gw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("export: gzip close: %w", err)
	}
	return f.Close()
}

// ReadGeometryArchive loads a geometry archive written by WriteResults.
func ReadGeometryArchive(path string) (*GeometryArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("export: gunzip: %w", err)
	}
	defer gz.Close()

	var arch GeometryArchive
	if err := gob.NewDecoder(gz).Decode(&arch); err != nil {
		return nil, fmt.Errorf("export: gob decode: %w", err)
	}
	return &arch, nil
}
