// core/masses/masses.go
// Package masses holds the static monoisotopic mass and neutral-loss tables
// used by the fragment calculator. Tables are package-level and read-only.
package masses

import "fmt"

// Monoisotopic atomic masses.
const (
	MassH = 1.0078250319
	MassC = 12.0000000000
	MassN = 14.0030740052
	MassO = 15.9949146221
	MassS = 31.9720706900
	MassP = 30.9737615100

	// Proton is the mass added per charge.
	Proton = 1.00727646688

	// DeltaC13 is the mass shift of one 13C-for-12C substitution.
	DeltaC13 = 1.00335483507
)

// AminoAcids maps residue letters (and terminal sentinels) to monoisotopic
// residue masses. The N-terminal sentinel carries no mass of its own: the
// ionizing proton is added during charge laddering, so a charge-1 b ion
// comes out at sum(residues) + proton. The C-terminal sentinel carries the
// hydroxyl, and the internal-fragment carbonyl cap is massless for the same
// reason as the N-terminus.
var AminoAcids = map[string]float64{
	"G": 57.02146372,
	"A": 71.03711379,
	"S": 87.03202841,
	"P": 97.05276385,
	"V": 99.06841391,
	"T": 101.04767847,
	"C": 103.00918448,
	"L": 113.08406398,
	"I": 113.08406398,
	"N": 114.04292744,
	"D": 115.02694302,
	"Q": 128.05857751,
	"K": 128.09496302,
	"E": 129.04259309,
	"M": 131.04048491,
	"H": 137.05891186,
	"F": 147.06841391,
	"R": 156.10111102,
	"Y": 163.06332853,
	"W": 186.07931295,

	"N-term": 0.0,
	"C-term": MassO + MassH,
	"C=O":    0.0,
}

// ModKey addresses a per-residue modification (or, with an empty Mod, the
// unmodified residue itself in the loss tables).
type ModKey struct {
	Letter string
	Mod    string
}

// Modifications maps (residue letter, modification name) to mass deltas.
var Modifications = map[ModKey]float64{
	{"S", "Phospho"}: 79.96633089,
	{"T", "Phospho"}: 79.96633089,
	{"Y", "Phospho"}: 79.96633089,

	{"M", "Oxidation"}:   15.9949146221,
	{"M", "Dioxidation"}: 31.9898292442,

	{"C", "Carbamidomethyl"}: 57.02146372,

	{"K", "Acetyl"}:      42.0105646863,
	{"N-term", "Acetyl"}: 42.0105646863,

	{"K", "TMT6plex"}:      229.162932,
	{"N-term", "TMT6plex"}: 229.162932,

	{"K", "TMT10plex"}:      229.162932,
	{"N-term", "TMT10plex"}: 229.162932,

	{"K", "iTRAQ4plex"}:      144.102063,
	{"N-term", "iTRAQ4plex"}: 144.102063,

	{"K", "iTRAQ8plex"}:      304.205360,
	{"N-term", "iTRAQ8plex"}: 304.205360,
}

// Losses maps neutral-loss component names to their masses. Compound losses
// ("HPO_3-H_2O") are split on "-" into these components.
var Losses = map[string]float64{
	"H_2O":     2*MassH + MassO,
	"NH_3":     3*MassH + MassN,
	"CO":       MassC + MassO,
	"SOCH_4":   MassS + MassO + MassC + 4*MassH,
	"SO_2CH_4": MassS + 2*MassO + MassC + 4*MassH,
	"H_3PO_4":  3*MassH + MassP + 4*MassO,
	"HPO_3":    MassH + MassP + 3*MassO,
}

// MassCO is the a/b ion offset.
var MassCO = Losses["CO"]

// Neutral-loss tables. PeptideLosses apply to any backbone or parent
// context, InternalLosses to internal fragments, AALosses per residue
// letter, and ModLosses per (letter, modification) pair; an empty Mod means
// the loss is available from the unmodified residue.
var (
	PeptideLosses  []string
	InternalLosses []string

	AALosses = map[string][]string{}

	ModLosses = map[ModKey][]string{
		// Losses from modified amino acids.
		{"M", "Oxidation"}:   {"SOCH_4"},
		{"M", "Dioxidation"}: {"SO_2CH_4"},
		{"S", "Phospho"}:     {"H_3PO_4"},
		{"T", "Phospho"}:     {"H_3PO_4"},
		{"Y", "Phospho"}:     {"HPO_3", "HPO_3-H_2O"},

		// Losses from unprotected fragment termini.
		{"N-term", ""}: {"NH_3"},
		{"C-term", ""}: {"H_2O"},
		{"C=O", ""}:    {"CO"},

		// Water losses from hydroxyl / carboxyl groups.
		{"S", ""}: {"H_2O"},
		{"T", ""}: {"H_2O"},
		{"E", ""}: {"H_2O"},
		{"D", ""}: {"H_2O"},

		// Amine losses from amine groups.
		{"R", ""}: {"NH_3"},
		{"K", ""}: {"NH_3"},
		{"Q", ""}: {"NH_3"},
		{"N", ""}: {"NH_3"},
	}
)

// ImmoniumIons maps residue letters to immonium ion m/z values.
var ImmoniumIons = map[string]float64{
	"H": 110.0713,
	"F": 120.0808,
	"R": 129.1135,
	"Y": 136.0762,
	"W": 159.0917,
	"P": 70.0651,
	"V": 72.0808,
	"L": 86.0964,
	"I": 86.0964,
	"K": 101.1073,
	"M": 104.0528,
}

// UnknownModificationError is a fatal configuration error: a search result
// referenced a modification missing from the mass tables.
type UnknownModificationError struct {
	Letter string
	Mod    string
}

func (e *UnknownModificationError) Error() string {
	return fmt.Sprintf("no mass table entry for modification %q on %q", e.Mod, e.Letter)
}

// Residue returns the monoisotopic mass of one residue including its
// modifications.
func Residue(letter string, mods []string) (float64, error) {
	m, ok := AminoAcids[letter]
	if !ok {
		return 0, fmt.Errorf("no mass table entry for residue %q", letter)
	}
	for _, mod := range mods {
		dm, ok := Modifications[ModKey{Letter: letter, Mod: mod}]
		if !ok {
			return 0, &UnknownModificationError{Letter: letter, Mod: mod}
		}
		m += dm
	}
	return m, nil
}
