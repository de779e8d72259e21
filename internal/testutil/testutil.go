// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"errors"
	"math"
	"testing"

	"github.com/imcf-data/morphometry.report/internal/volume"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorIs fails the test unless errors.Is(err, target).
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// AssertInDelta fails the test if got differs from want by more than
// delta.
func AssertInDelta(t *testing.T, got, want, delta float64) {
	t.Helper()
	if math.Abs(got-want) > delta {
		t.Fatalf("got %g, want %g (±%g)", got, want, delta)
	}
}

// UnitCalibration is the (1, 1, 1) micron calibration used by most
// synthetic fixtures.
func UnitCalibration() volume.Calibration {
	return volume.Calibration{SX: 1, SY: 1, SZ: 1, Unit: "micron"}
}

// NewUniformVolume builds a volume filled with a single background
// intensity.
func NewUniformVolume(t *testing.T, nx, ny, nz int, cal volume.Calibration, background float64) *volume.CalibratedVolume {
	t.Helper()
	v, err := volume.New(nx, ny, nz, cal)
	if err != nil {
		t.Fatalf("new volume: %v", err)
	}
	for i := range v.Data {
		v.Data[i] = background
	}
	return v
}

// FillCube sets a solid axis-aligned cube of the given edge length to an
// intensity, with its minimum corner at (x0, y0, z0).
func FillCube(v *volume.CalibratedVolume, x0, y0, z0, edge int, val float64) {
	for z := z0; z < z0+edge; z++ {
		for y := y0; y < y0+edge; y++ {
			for x := x0; x < x0+edge; x++ {
				v.Set(x, y, z, val)
			}
		}
	}
}
