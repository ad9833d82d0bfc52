// internal/config/config.go
// Package config loads run configuration from YAML. CLI flags override any
// value set here.
package config

import (
	"bytes"
	"fmt"
	"os"

	"camv-core/peptide"
	"camv-core/spectrum"

	"gopkg.in/yaml.v3"
)

// Tolerances are fragment-matching tolerances in ppm, per collision method.
type Tolerances struct {
	CID float64 `yaml:"cid"`
	HCD float64 `yaml:"hcd"`
}

// Retention are the assignment-display thresholds as fractions of the base
// peak intensity.
type Retention struct {
	Strong float64 `yaml:"strong"`
	Weak   float64 `yaml:"weak"`
}

type Config struct {
	Workers      int     `yaml:"workers"`       // 0 = all CPUs
	ScreeningCap int     `yaml:"screening_cap"` // max placements per peptide in a first pass
	WindowSize   float64 `yaml:"window_size"`   // m/z padding around precursor/label windows
	MSConvert    string  `yaml:"msconvert"`     // msconvert binary
	TmpDir       string  `yaml:"tmp_dir"`       // conversion scratch directory

	Tolerances Tolerances `yaml:"tolerances"`
	Retention  Retention  `yaml:"retention"`
}

// Default returns the stock configuration.
func Default() Config {
	def := spectrum.DefaultConfig(0)
	return Config{
		ScreeningCap: peptide.ScreeningCap,
		WindowSize:   1.0,
		MSConvert:    "msconvert",
		Tolerances:   Tolerances{CID: spectrum.CIDTol, HCD: spectrum.HCDTol},
		Retention:    Retention{Strong: def.RetainFrac, Weak: def.RetainWeakFrac},
	}
}

// Load overlays the YAML file at path onto the defaults. Unknown keys are an
// error so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// MatchConfig builds the matcher settings for a collision method.
func (c Config) MatchConfig(collision string) spectrum.Config {
	tol := c.Tolerances.CID
	if collision == "HCD" {
		tol = c.Tolerances.HCD
	}
	return spectrum.Config{
		TolPPM:         tol,
		RetainFrac:     c.Retention.Strong,
		RetainWeakFrac: c.Retention.Weak,
	}
}
