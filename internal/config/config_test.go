package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camv-core/spectrum"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.ScreeningCap)
	assert.Equal(t, 1.0, cfg.WindowSize)
	assert.Equal(t, spectrum.CIDTol, cfg.Tolerances.CID)
	assert.Equal(t, spectrum.HCDTol, cfg.Tolerances.HCD)
	assert.Equal(t, 0.10, cfg.Retention.Strong)
	assert.Equal(t, 0.025, cfg.Retention.Weak)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeYAML(t, `
workers: 4
tolerances:
  hcd: 20
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 20.0, cfg.Tolerances.HCD)
	// Untouched keys keep their defaults.
	assert.Equal(t, spectrum.CIDTol, cfg.Tolerances.CID)
	assert.Equal(t, 10, cfg.ScreeningCap)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeYAML(t, "worker_count: 4\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMatchConfig(t *testing.T) {
	cfg := Default()
	cfg.Retention.Strong = 0.2

	hcd := cfg.MatchConfig("HCD")
	assert.Equal(t, spectrum.HCDTol, hcd.TolPPM)
	assert.Equal(t, 0.2, hcd.RetainFrac)

	cid := cfg.MatchConfig("CID")
	assert.Equal(t, spectrum.CIDTol, cid.TolPPM)

	assert.Equal(t, spectrum.CIDTol, cfg.MatchConfig("ETD").TolPPM,
		"unknown methods use the wide tolerance")
}
