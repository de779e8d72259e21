package tiffstack

import (
	"fmt"
	"sort"

	"github.com/imcf-data/morphometry.report/internal/volume"
)

// MemSource is an in-memory Source for tests and dry runs: image IDs map
// straight to prebuilt volumes, and Close records that it ran so batch
// teardown can be asserted.
type MemSource struct {
	Volumes map[string]*volume.CalibratedVolume
	Closed  bool

	// FailIDs simulates per-image retrieval failures.
	FailIDs map[string]bool
}

// NewMemSource wraps a set of prebuilt volumes.
func NewMemSource(volumes map[string]*volume.CalibratedVolume) *MemSource {
	return &MemSource{Volumes: volumes}
}

// ImageIDs returns the volume keys in sorted order.
func (s *MemSource) ImageIDs() ([]string, error) {
	ids := make([]string, 0, len(s.Volumes))
	for id := range s.Volumes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Volume returns the prebuilt volume for id. The channel argument is
// accepted for interface parity; MemSource volumes are single-channel.
func (s *MemSource) Volume(id string, channel int) (*volume.CalibratedVolume, error) {
	if s.FailIDs[id] {
		return nil, fmt.Errorf("tiffstack: simulated failure for %s", id)
	}
	v, ok := s.Volumes[id]
	if !ok {
		return nil, fmt.Errorf("tiffstack: no volume for %s", id)
	}
	return v, nil
}

// Close marks the source as released.
func (s *MemSource) Close() error {
	s.Closed = true
	return nil
}
