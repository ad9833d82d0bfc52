// core/peptide/query.go
package peptide

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ModSpec declares one modification a search assigned to a peptide: how many
// sites carry it, its name, and which residue letters (or terminal
// sentinels) are eligible.
type ModSpec struct {
	Count   int
	Name    string
	Letters []string
}

func (m ModSpec) String() string {
	return fmt.Sprintf("%d x %s (%s)", m.Count, m.Name, strings.Join(m.Letters, ""))
}

// Query is one peptide identification from a search engine. It is created by
// the search-result reader and read-only afterwards.
type Query struct {
	Accessions   []string
	Descriptions []string
	QueryID      int
	Filename     string

	Score       float64
	PrecursorMZ float64
	Charge      int

	Sequence  string
	VarMods   []ModSpec
	FixedMods []ModSpec

	Scan      int
	QuantScan int

	// FirstRankSites is the search engine's rank-1 positioned assignment,
	// used by the provisional-choice heuristic. Nil when unavailable.
	FirstRankSites []SiteMod
}

// Key identifies a query; two queries with equal keys are the same
// identification.
type Key struct {
	Accessions string
	QueryID    int
	Sequence   string
	Scan       int
}

// Key returns the identity tuple of the query.
func (q *Query) Key() Key {
	acc := append([]string(nil), q.Accessions...)
	sort.Strings(acc)
	return Key{
		Accessions: strings.Join(acc, "/"),
		QueryID:    q.QueryID,
		Sequence:   q.Sequence,
		Scan:       q.Scan,
	}
}

// Basename returns the source file name without its directory.
func (q *Query) Basename() string { return filepath.Base(q.Filename) }

// ProteinName joins the sorted protein descriptions for display.
func (q *Query) ProteinName() string {
	descs := append([]string(nil), q.Descriptions...)
	sort.Strings(descs)
	return strings.Join(descs, " / ")
}

// Mods returns variable then fixed modification specs, the order the
// enumerator consumes them in.
func (q *Query) Mods() []ModSpec {
	out := make([]ModSpec, 0, len(q.VarMods)+len(q.FixedMods))
	out = append(out, q.VarMods...)
	return append(out, q.FixedMods...)
}

// LabelMods lists N-terminal quantification labels among the query's mods.
// isLabel reports reporter-label names.
func (q *Query) LabelMods(isLabel func(string) bool) []string {
	var out []string
	for _, m := range q.Mods() {
		if !isLabel(m.Name) {
			continue
		}
		for _, l := range m.Letters {
			if l == NTerm {
				out = append(out, m.Name)
				break
			}
		}
	}
	return out
}

// NumCombinations estimates how many placements the variable mods admit,
// used to report search complexity before enumeration.
func (q *Query) NumCombinations() int {
	n := 1
	for _, spec := range q.VarMods {
		letters := spec.Letters
		if spec.Name == "Phospho" && sameLetters(letters, []string{"S", "T"}) {
			letters = []string{"S", "T", "Y"}
		}
		sites := 0
		for _, l := range letters {
			sites += strings.Count(q.Sequence, l)
		}
		// Sites consumed by a different modification over the same letters.
		for _, other := range q.VarMods {
			if other.Name != spec.Name && sameLetters(other.Letters, letters) {
				sites -= other.Count
			}
		}
		n *= nCr(sites, spec.Count)
	}
	return n
}

// RemapSTY widens Phospho (S,T) specs to (S,T,Y); searches routinely declare
// pST while the matching spectra contain pY placements.
func RemapSTY(specs []ModSpec) []ModSpec {
	out := make([]ModSpec, len(specs))
	for i, s := range specs {
		out[i] = s
		if s.Name == "Phospho" && sameLetters(s.Letters, []string{"S", "T"}) {
			out[i].Letters = append(append([]string(nil), s.Letters...), "Y")
		}
	}
	return out
}

func sameLetters(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			return false
		}
	}
	return true
}

func nCr(n, r int) int {
	if r < 0 || n < r {
		return 0
	}
	if r > n-r {
		r = n - r
	}
	out := 1
	for i := 0; i < r; i++ {
		out = out * (n - i) / (i + 1)
	}
	return out
}
