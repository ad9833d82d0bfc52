// core/scan/scan.go
// Package scan models the acquisition metadata attached to an MS2 scan and
// the peak-window extraction used for precursor and quantification views.
package scan

import (
	"math"

	"camv-core/masses"
	"camv-core/spectrum"
)

// Query holds the isolation and activation metadata for one MS2 scan.
type Query struct {
	Scan          int
	PrecursorScan int

	IsolationMZ float64
	// WindowOffset is the (lower, upper) isolation offset around
	// IsolationMZ; zero offsets mean the window is unknown.
	WindowOffset [2]float64

	Collision string
	C13Num    int
	Basename  string
}

// C13Count estimates how many heavy isotopes the instrument isolated, from
// the error between the search-reported precursor m/z and the isolation
// target.
func C13Count(expMZ float64, charge int, isolationMZ float64) int {
	return int(math.Round(float64(charge) * math.Abs(expMZ-isolationMZ)))
}

// WindowCoverage finds the largest extra isotope shift whose predicted m/z
// lands on a precursor-window peak within the MS-level tolerance. The
// isolation window bounds how many shifts can have been co-isolated.
func WindowCoverage(expCharge int, sq Query, precursorWin []spectrum.Peak) int {
	if sq.WindowOffset == [2]float64{} {
		return 0
	}
	var mzs []float64
	for _, p := range precursorWin {
		if p.MZ >= sq.IsolationMZ-sq.WindowOffset[0] && p.MZ <= sq.IsolationMZ+sq.WindowOffset[1] {
			mzs = append(mzs, p.MZ)
		}
	}
	maxC13 := int(1 + math.Round(sq.WindowOffset[1]*float64(expCharge)))

	best := 0
	for c13 := 1; c13 < maxC13; c13++ {
		predicted := sq.IsolationMZ + masses.DeltaC13*float64(c13)/float64(expCharge)
		for _, mz := range mzs {
			if 1e6*math.Abs(predicted-mz)/mz < spectrum.MSTol {
				if c13 > best {
					best = c13
				}
				break
			}
		}
	}
	return best
}

// PrecursorWindow slices the MS1 peaks covering the isolation window,
// padded by size m/z on both ends.
func PrecursorWindow(peaks []spectrum.Peak, sq Query, size float64) []spectrum.Peak {
	lo := sq.IsolationMZ - sq.WindowOffset[0] - size
	hi := sq.IsolationMZ + sq.WindowOffset[1] + size
	return window(peaks, lo, hi)
}

// LabelWindow slices the quantification-scan peaks covering the reporter
// channels of the given label, padded by size m/z on both ends. Returns nil
// for unlabeled peptides.
func LabelWindow(peaks []spectrum.Peak, label string, size float64) []spectrum.Peak {
	w, ok := masses.LabelMZWindow[label]
	if !ok {
		return nil
	}
	return window(peaks, w[0]-size, w[1]+size)
}

func window(peaks []spectrum.Peak, lo, hi float64) []spectrum.Peak {
	var out []spectrum.Peak
	for _, p := range peaks {
		if p.MZ > lo && p.MZ < hi {
			out = append(out, p)
		}
	}
	return out
}
