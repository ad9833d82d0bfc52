// core/peptide/sequence.go
package peptide

import "strings"

// Sentinel residue letters that bracket a peptide backbone.
const (
	NTerm = "N-term"
	CTerm = "C-term"
	// Carbonyl is the synthetic C-terminal cap of an internal fragment.
	Carbonyl = "C=O"
)

// Residue is one position of a (possibly modified) sequence: an amino acid
// letter or a terminal sentinel, plus the modification names applied to it.
type Residue struct {
	Letter string
	Mods   []string
}

// Modified reports whether the residue carries any modification.
func (r Residue) Modified() bool { return len(r.Mods) > 0 }

// HasMod reports whether the residue carries the named modification.
func (r Residue) HasMod(name string) bool {
	for _, m := range r.Mods {
		if m == name {
			return true
		}
	}
	return false
}

// Sequence is an ordered residue list bracketed by N-term and C-term
// sentinels, so len(Sequence) == peptide length + 2.
type Sequence []Residue

// NewSequence builds an unmodified Sequence from peptide letters.
func NewSequence(letters string) Sequence {
	seq := make(Sequence, 0, len(letters)+2)
	seq = append(seq, Residue{Letter: NTerm})
	for _, c := range strings.ToUpper(letters) {
		seq = append(seq, Residue{Letter: string(c)})
	}
	seq = append(seq, Residue{Letter: CTerm})
	return seq
}

// Letters returns the bare peptide letters without terminal sentinels.
func (s Sequence) Letters() string {
	var b strings.Builder
	for _, r := range s {
		if r.Letter == NTerm || r.Letter == CTerm || r.Letter == Carbonyl {
			continue
		}
		b.WriteString(r.Letter)
	}
	return b.String()
}

// Display renders the interior letters, lower-casing residues that carry a
// positional (non-label) modification. isLabel reports reporter-label names.
func (s Sequence) Display(isLabel func(string) bool) string {
	var b strings.Builder
	for _, r := range s[1 : len(s)-1] {
		positional := false
		for _, m := range r.Mods {
			if isLabel == nil || !isLabel(m) {
				positional = true
				break
			}
		}
		if positional {
			b.WriteString(strings.ToLower(r.Letter))
		} else {
			b.WriteString(strings.ToUpper(r.Letter))
		}
	}
	return b.String()
}

// SiteMod is a positioned modification on the interior of a sequence.
type SiteMod struct {
	Pos int // 0-based over the peptide letters
	Mod string
}

// SiteMods lists every modification placed on interior residues.
func (s Sequence) SiteMods() []SiteMod {
	var out []SiteMod
	for pos, r := range s[1 : len(s)-1] {
		for _, m := range r.Mods {
			out = append(out, SiteMod{Pos: pos, Mod: m})
		}
	}
	return out
}

// Clone returns a deep copy; residue mod slices are not shared.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	for i, r := range s {
		out[i] = Residue{Letter: r.Letter}
		if len(r.Mods) > 0 {
			out[i].Mods = append([]string(nil), r.Mods...)
		}
	}
	return out
}
