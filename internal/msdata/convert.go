// internal/msdata/convert.go
// Package msdata converts raw instrument files to mzML and serves indexed
// scan data to the validation pipeline.
package msdata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Converter shells out to ProteoWizard's msconvert for raw formats. Files
// already in mzML format are passed through untouched.
type Converter struct {
	MSConvert string // msconvert binary, "msconvert" when empty
	OutDir    string // conversion output directory
	Parallel  int    // concurrent conversions, min 1
	Log       *slog.Logger
}

// Convert converts every raw path and returns raw basename -> mzML path.
func (c *Converter) Convert(ctx context.Context, rawPaths []string) (map[string]string, error) {
	bin := c.MSConvert
	if bin == "" {
		bin = "msconvert"
	}
	par := c.Parallel
	if par < 1 {
		par = 1
	}
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	out := make(map[string]string, len(rawPaths))
	type conv struct{ raw, dst string }
	var pending []conv

	for _, raw := range rawPaths {
		base := filepath.Base(raw)
		if strings.EqualFold(filepath.Ext(raw), ".mzml") {
			out[base] = raw
			continue
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		dst := filepath.Join(c.OutDir, stem+".mzML")
		out[base] = dst
		pending = append(pending, conv{raw: raw, dst: dst})
	}

	if len(pending) > 0 {
		if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
			return nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(par)
	for _, cv := range pending {
		cv := cv
		g.Go(func() error {
			log.Info("converting raw file", "path", cv.raw)
			cmd := exec.CommandContext(gctx, bin, cv.raw, "-o", c.OutDir, "--mzML")
			if outBytes, err := cmd.CombinedOutput(); err != nil {
				return fmt.Errorf("msconvert %s: %w: %s", cv.raw, err, strings.TrimSpace(string(outBytes)))
			}
			if _, err := os.Stat(cv.dst); err != nil {
				return fmt.Errorf("msconvert %s: expected output missing: %w", cv.raw, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
