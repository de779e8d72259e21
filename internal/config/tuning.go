// Package config loads the JSON tuning file for the measurement
// pipeline. Fields are pointers so a partial file overrides only what it
// names; the Get* methods supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults for fields omitted from the tuning file. MinVolume and Channel
// follow the acquisition protocol this tool was written for: channel 2 is
// the stained channel and anything below 5 calibrated units^3 is debris.
const (
	DefaultChannel       = 2
	DefaultMinVolume     = 5.0
	DefaultFilterZBorder = false
	DefaultHistogramBins = 256
)

// TuningConfig is the root configuration for the measurement pipeline.
type TuningConfig struct {
	// Channel is the 1-based channel of interest in the source image.
	Channel *int `json:"channel,omitempty"`

	// MinVolume is the minimum calibrated object volume kept, in the
	// cube of the image's calibration unit.
	MinVolume *float64 `json:"min_volume,omitempty"`

	// FilterZBorder removes objects touching the first or last z-slice.
	FilterZBorder *bool `json:"filter_z_border,omitempty"`

	// HistogramBins is the resolution of the Otsu threshold histogram.
	HistogramBins *int `json:"histogram_bins,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.Channel != nil && *c.Channel < 1 {
		return fmt.Errorf("channel must be >= 1, got %d", *c.Channel)
	}
	if c.MinVolume != nil && *c.MinVolume < 0 {
		return fmt.Errorf("min_volume must be non-negative, got %f", *c.MinVolume)
	}
	if c.HistogramBins != nil && *c.HistogramBins < 2 {
		return fmt.Errorf("histogram_bins must be >= 2, got %d", *c.HistogramBins)
	}
	return nil
}

// GetChannel returns the channel of interest or the default.
func (c *TuningConfig) GetChannel() int {
	if c.Channel == nil {
		return DefaultChannel
	}
	return *c.Channel
}

// GetMinVolume returns the minimum object volume or the default.
func (c *TuningConfig) GetMinVolume() float64 {
	if c.MinVolume == nil {
		return DefaultMinVolume
	}
	return *c.MinVolume
}

// GetFilterZBorder returns the z-border filter toggle or the default.
func (c *TuningConfig) GetFilterZBorder() bool {
	if c.FilterZBorder == nil {
		return DefaultFilterZBorder
	}
	return *c.FilterZBorder
}

// GetHistogramBins returns the histogram resolution or the default.
func (c *TuningConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return DefaultHistogramBins
	}
	return *c.HistogramBins
}
