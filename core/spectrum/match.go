// core/spectrum/match.go
// Package spectrum assigns theoretical fragment ions to observed peaks with
// a ppm tolerance sweep and heuristic scoring.
package spectrum

import (
	"sort"

	"camv-core/fragment"
)

// Fragment-ion ppm tolerances by collision method.
const (
	CIDTol = 1000.0
	HCDTol = 10.0

	// MSTol is the precursor-level tolerance used for isolation-window
	// isotope checks.
	MSTol = 10.0
)

// ToleranceFor returns the fragment tolerance for a collision method tag,
// falling back to the CID tolerance for unknown methods.
func ToleranceFor(method string) float64 {
	switch method {
	case "HCD":
		return HCDTol
	case "CID":
		return CIDTol
	}
	return CIDTol
}

// Config tunes matching. The retention fractions decide whether a best-ion
// assignment is displayed or cleared (the candidate list survives either
// way).
type Config struct {
	TolPPM float64
	// RetainFrac keeps any assignment on peaks above this fraction of the
	// base peak intensity.
	RetainFrac float64
	// RetainWeakFrac keeps loss-free assignments on peaks above this
	// fraction.
	RetainWeakFrac float64
}

// DefaultConfig returns the stock thresholds with the given tolerance.
func DefaultConfig(tolPPM float64) Config {
	return Config{TolPPM: tolPPM, RetainFrac: 0.10, RetainWeakFrac: 0.025}
}

// Scoring: parent beats backbone beats everything else; each neutral loss
// costs a point and the closest candidate earns one.
const (
	parentScore   = 12
	backboneScore = 10
)

func ionScore(ion fragment.Ion) int {
	score := 0
	switch ion.Family {
	case fragment.FamilyParent:
		score = parentScore
	case fragment.FamilyB, fragment.FamilyY:
		score = backboneScore
	}
	return score - ion.NumLosses()
}

// Match assigns ions to peaks. peaks must be sorted ascending by m/z; ions
// as produced by fragment.SortByMZ. Every peak yields a PeakHit, assigned
// or not. The sweep advances a lower-bound cursor over the ion list so each
// peak only examines its local candidates.
func Match(peaks []Peak, ions []fragment.Ion, cfg Config) []PeakHit {
	if len(peaks) == 0 {
		return nil
	}

	maxIntensity := 0.0
	for _, p := range peaks {
		if p.Intensity > maxIntensity {
			maxIntensity = p.Intensity
		}
	}

	window := 1.5 * cfg.TolPPM
	out := make([]PeakHit, 0, len(peaks))
	lo := 0

	for _, p := range peaks {
		// Skip ions too far below this (and every later) peak.
		for lo < len(ions) && 1e6*(p.MZ-ions[lo].MZ)/ions[lo].MZ > window {
			lo++
		}

		var cands []fragment.Ion
		for i := lo; i < len(ions); i++ {
			ppm := 1e6 * (ions[i].MZ - p.MZ) / ions[i].MZ
			if ppm > window {
				break
			}
			if abs(ppm) < window {
				cands = append(cands, ions[i])
			}
		}

		if len(cands) == 0 {
			out = append(out, PeakHit{MZ: p.MZ, Intensity: p.Intensity})
			continue
		}

		best, bestScore := pickBest(cands, p.MZ)

		hit := PeakHit{
			MZ:         p.MZ,
			Intensity:  p.Intensity,
			Candidates: candidates(cands, p.MZ),
		}

		if retain(best, p.Intensity, maxIntensity, cfg) {
			hit.Name = best.Name()
			hit.Score = bestScore
			hit.PredictedMZ = best.MZ
			hit.NumLosses = best.NumLosses()
		}
		out = append(out, hit)
	}
	return out
}

// pickBest scores candidates, grants the closest one a bonus point, and
// returns the max scorer. Name order breaks score ties deterministically.
func pickBest(cands []fragment.Ion, mz float64) (fragment.Ion, int) {
	closest := 0
	for i := 1; i < len(cands); i++ {
		if abs(cands[i].MZ-mz) < abs(cands[closest].MZ-mz) {
			closest = i
		}
	}

	bestIdx, bestScore, bestName := -1, 0, ""
	for i, ion := range cands {
		score := ionScore(ion)
		if i == closest {
			score++
		}
		name := ion.Name()
		if bestIdx < 0 || score > bestScore || (score == bestScore && name < bestName) {
			bestIdx, bestScore, bestName = i, score, name
		}
	}
	return cands[bestIdx], bestScore
}

// retain implements the display rule: strong peaks keep any assignment,
// parent/backbone ions always keep theirs, and loss-free assignments
// survive on moderately weak peaks.
func retain(best fragment.Ion, intensity, maxIntensity float64, cfg Config) bool {
	if intensity > cfg.RetainFrac*maxIntensity {
		return true
	}
	switch best.Family {
	case fragment.FamilyParent, fragment.FamilyB, fragment.FamilyY:
		return true
	}
	return best.NumLosses() == 0 && intensity > cfg.RetainWeakFrac*maxIntensity
}

func candidates(cands []fragment.Ion, mz float64) []Candidate {
	out := make([]Candidate, len(cands))
	for i, ion := range cands {
		out[i] = Candidate{Name: ion.Name(), MZ: ion.MZ, AbsErr: abs(ion.MZ - mz)}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
