// Package tiffstack provides the calibrated-volume source consumed by
// the batch runner. The concrete implementation reads a directory of
// per-slice grayscale TIFF files plus a calibration sidecar; anything
// else (a remote image repository, a test fixture) plugs in behind the
// same Source interface.
package tiffstack

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/image/tiff"

	"github.com/imcf-data/morphometry.report/internal/volume"
)

// Source hands out calibrated volumes by image identifier. Close releases
// whatever session or handle backs the source and is called once after
// the last image of a batch, regardless of per-image outcomes.
type Source interface {
	ImageIDs() ([]string, error)
	Volume(id string, channel int) (*volume.CalibratedVolume, error)
	Close() error
}

// CalibrationFile is the sidecar each image directory must carry.
const CalibrationFile = "calibration.json"

// DirSource reads image stacks from a directory tree:
//
//	<root>/<imageID>/calibration.json
//	<root>/<imageID>/ch<N>/*.tif        one grayscale TIFF per z-slice
//
// Slice files are ordered by name, so zero-padded z indices in filenames
// give the correct stacking.
type DirSource struct {
	root string
}

type sidecar struct {
	VoxelSize struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"voxel_size"`
	Unit string `json:"unit"`
}

// Open validates the root directory and returns a DirSource over it.
func Open(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("tiffstack: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tiffstack: %s is not a directory", root)
	}
	return &DirSource{root: root}, nil
}

// ImageIDs lists every subdirectory carrying a calibration sidecar,
// sorted for a reproducible batch order.
func (s *DirSource) ImageIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("tiffstack: list %s: %w", s.root, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, e.Name(), CalibrationFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Volume assembles the calibrated volume for one image's channel.
// A sidecar without a positive voxel size fails with
// volume.ErrCalibrationMissing rather than silently assuming 1.0.
func (s *DirSource) Volume(id string, channel int) (*volume.CalibratedVolume, error) {
	dir := filepath.Join(s.root, id)

	data, err := os.ReadFile(filepath.Join(dir, CalibrationFile))
	if err != nil {
		return nil, fmt.Errorf("tiffstack: read calibration for %s: %w", id, err)
	}
	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("tiffstack: parse calibration for %s: %w", id, err)
	}
	cal := volume.Calibration{SX: sc.VoxelSize.X, SY: sc.VoxelSize.Y, SZ: sc.VoxelSize.Z, Unit: sc.Unit}
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("tiffstack: image %s: %w", id, err)
	}

	chDir := filepath.Join(dir, fmt.Sprintf("ch%d", channel))
	slices, err := sliceFiles(chDir)
	if err != nil {
		return nil, fmt.Errorf("tiffstack: image %s: %w", id, err)
	}
	if len(slices) == 0 {
		return nil, fmt.Errorf("tiffstack: image %s channel %d has no slices", id, channel)
	}

	var vol *volume.CalibratedVolume
	for z, path := range slices {
		img, err := decodeSlice(path)
		if err != nil {
			return nil, fmt.Errorf("tiffstack: image %s: %w", id, err)
		}
		b := img.Bounds()
		if vol == nil {
			vol, err = volume.New(b.Dx(), b.Dy(), len(slices), cal)
			if err != nil {
				return nil, fmt.Errorf("tiffstack: image %s: %w", id, err)
			}
		} else if b.Dx() != vol.NX || b.Dy() != vol.NY {
			return nil, fmt.Errorf("tiffstack: image %s slice %d is %dx%d, want %dx%d",
				id, z, b.Dx(), b.Dy(), vol.NX, vol.NY)
		}
		fillSlice(vol, z, img)
	}
	return vol, nil
}

// Close releases nothing for a directory source; it exists so remote
// sources with real sessions satisfy the same interface.
func (s *DirSource) Close() error {
	return nil
}

func sliceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".tif", ".tiff":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func decodeSlice(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func fillSlice(vol *volume.CalibratedVolume, z int, img image.Image) {
	b := img.Bounds()
	switch g := img.(type) {
	case *image.Gray:
		for y := 0; y < vol.NY; y++ {
			for x := 0; x < vol.NX; x++ {
				vol.Set(x, y, z, float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	case *image.Gray16:
		for y := 0; y < vol.NY; y++ {
			for x := 0; x < vol.NX; x++ {
				vol.Set(x, y, z, float64(g.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	default:
		for y := 0; y < vol.NY; y++ {
			for x := 0; x < vol.NX; x++ {
				c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				vol.Set(x, y, z, float64(c.Y))
			}
		}
	}
}
