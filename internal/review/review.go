// internal/review/review.go
// Package review assigns provisional validation choices to placements before
// a human sees them.
package review

import (
	"camv-core/peptide"
)

// Maybe is the provisional acceptance state recorded for placements that
// match the search engine's own rank-1 site assignment.
const Maybe = "maybe"

// Choice returns the provisional choice for a placement, or "" when the
// reviewer should start from a blank state. autoMaybe gates the heuristic.
func Choice(q *peptide.Query, seq peptide.Sequence, autoMaybe bool) string {
	if !autoMaybe || q.FirstRankSites == nil {
		return ""
	}
	if sameSites(q.FirstRankSites, seq.SiteMods()) {
		return Maybe
	}
	return ""
}

// sameSites compares positioned modifications as sets.
func sameSites(a, b []peptide.SiteMod) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[peptide.SiteMod]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
