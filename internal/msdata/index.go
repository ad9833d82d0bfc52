// internal/msdata/index.go
package msdata

import (
	"fmt"
	"sort"

	"camv-core/peptide"
	"camv-core/scan"
	"camv-core/spectrum"

	"camv/internal/mzml"
)

// Index holds parsed mzML data keyed by raw-file basename.
type Index struct {
	files map[string]*mzml.File
}

// Load parses every converted mzML file. paths maps raw basename -> mzML
// path, as returned by Converter.Convert.
func Load(paths map[string]string) (*Index, error) {
	ix := &Index{files: make(map[string]*mzml.File, len(paths))}
	for base, path := range paths {
		f, err := mzml.Open(path)
		if err != nil {
			return nil, err
		}
		ix.files[base] = f
	}
	return ix, nil
}

// Spectrum returns the raw spectrum for a scan of the named source file.
func (ix *Index) Spectrum(basename string, scanNum int) (*mzml.Spectrum, error) {
	f, ok := ix.files[basename]
	if !ok {
		return nil, fmt.Errorf("%s: %w", basename, mzml.ErrScanNotFound)
	}
	return f.Scan(scanNum)
}

// Peaks returns the centroided peaks of a scan, sorted ascending by m/z.
func (ix *Index) Peaks(basename string, scanNum int) ([]spectrum.Peak, error) {
	sp, err := ix.Spectrum(basename, scanNum)
	if err != nil {
		return nil, err
	}
	peaks := make([]spectrum.Peak, len(sp.Peaks))
	for i, p := range sp.Peaks {
		peaks[i] = spectrum.Peak{MZ: p.MZ, Intensity: p.Intensity}
	}
	sort.Slice(peaks, func(a, b int) bool { return peaks[a].MZ < peaks[b].MZ })
	return peaks, nil
}

// ScanQuery reads the acquisition metadata of the query's MS2 scan.
func (ix *Index) ScanQuery(q *peptide.Query) (scan.Query, error) {
	sp, err := ix.Spectrum(q.Basename(), q.Scan)
	if err != nil {
		return scan.Query{}, err
	}
	return scan.Query{
		Scan:          sp.ScanNumber,
		PrecursorScan: sp.PrecursorScan,
		IsolationMZ:   sp.IsolationMZ,
		WindowOffset:  sp.WindowOffset,
		Collision:     sp.Collision,
		C13Num:        scan.C13Count(q.PrecursorMZ, q.Charge, sp.IsolationMZ),
		Basename:      q.Basename(),
	}, nil
}
