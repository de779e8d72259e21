package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()
	assert.Equal(t, DefaultChannel, cfg.GetChannel())
	assert.Equal(t, DefaultMinVolume, cfg.GetMinVolume())
	assert.Equal(t, DefaultFilterZBorder, cfg.GetFilterZBorder())
	assert.Equal(t, DefaultHistogramBins, cfg.GetHistogramBins())
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"min_volume": 12.5, "filter_z_border": true}`)
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 12.5, cfg.GetMinVolume())
	assert.True(t, cfg.GetFilterZBorder())
	// fields the file omits keep their defaults
	assert.Equal(t, DefaultChannel, cfg.GetChannel())
	assert.Equal(t, DefaultHistogramBins, cfg.GetHistogramBins())
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, "tuning.json",
		`{"channel": 1, "min_volume": 0, "filter_z_border": false, "histogram_bins": 64}`)
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.GetChannel())
	assert.Equal(t, 0.0, cfg.GetMinVolume())
	assert.False(t, cfg.GetFilterZBorder())
	assert.Equal(t, 64, cfg.GetHistogramBins())
}

func TestLoadRejectsWrongExtension(t *testing.T) {
	path := writeConfig(t, "tuning.yaml", `{}`)
	_, err := LoadTuningConfig(path)
	assert.ErrorContains(t, err, ".json")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"channel": `)
	_, err := LoadTuningConfig(path)
	assert.ErrorContains(t, err, "parse")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero channel", `{"channel": 0}`},
		{"negative min volume", `{"min_volume": -1}`},
		{"one histogram bin", `{"histogram_bins": 1}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, "tuning.json", c.body)
			_, err := LoadTuningConfig(path)
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}
