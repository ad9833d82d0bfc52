// core/fragment/fragment.go
// Package fragment computes the theoretical fragment ions of a fully
// modified peptide sequence: backbone a/b/y ions, the laddered parent ion,
// internal double-cleavage fragments, diagnostic immonium ions, and
// reporter-label ions, each crossed with neutral-loss combinations and
// heavy-isotope shifts.
package fragment

import (
	"fmt"

	"camv-core/masses"
	"camv-core/peptide"
)

// Depth bounds for neutral-loss recursion.
const (
	peptideLossDepth  = 2
	internalLossDepth = 1
)

// DiagnosticMod/DiagnosticLetter select the residue modification that emits
// the fixed immonium-family diagnostic ion ("pY").
const (
	DiagnosticMod    = "Phospho"
	DiagnosticLetter = "Y"
	DiagnosticName   = "pY"
)

// Calculator computes ion maps from modified sequences. It is stateless
// apart from the immutable loss tables it was configured with, so one
// instance is safe to share across workers.
type Calculator struct {
	PeptideLosses  []string
	InternalLosses []string
	AALosses       map[string][]string
	ModLosses      map[masses.ModKey][]string
}

// NewCalculator returns a Calculator wired to the package mass tables.
func NewCalculator() *Calculator {
	return &Calculator{
		PeptideLosses:  masses.PeptideLosses,
		InternalLosses: masses.InternalLosses,
		AALosses:       masses.AALosses,
		ModLosses:      masses.ModLosses,
	}
}

// Options tune one Ions call. Zero values select the defaults: parent
// ladder up to the precursor charge, fragment ladder one below the parent
// ladder (at least 1), no isotope shifts.
type Options struct {
	ParentMaxCharge   int
	FragmentMaxCharge int
	C13Num            int
}

// Ions returns every theoretical ion for the sequence keyed by canonical
// name. Identical inputs always produce an identical map.
func (c *Calculator) Ions(seq peptide.Sequence, charge int, opt Options) (map[string]Ion, error) {
	if len(seq) < 2 || seq[0].Letter != peptide.NTerm || seq[len(seq)-1].Letter != peptide.CTerm {
		return nil, fmt.Errorf("sequence must be bracketed by %s and %s", peptide.NTerm, peptide.CTerm)
	}

	parentMax := opt.ParentMaxCharge
	if parentMax <= 0 {
		parentMax = charge
	}
	fragMax := opt.FragmentMaxCharge
	if fragMax <= 0 {
		fragMax = parentMax - 1
	}
	if fragMax < 1 {
		fragMax = 1
	}

	residueMasses := make([]float64, len(seq))
	for i, r := range seq {
		m, err := masses.Residue(r.Letter, r.Mods)
		if err != nil {
			return nil, err
		}
		residueMasses[i] = m
	}

	out := make(map[string]Ion)
	add := func(ion Ion) { out[ion.Name()] = ion }

	if err := c.backboneIons(seq, residueMasses, fragMax, opt.C13Num, add); err != nil {
		return nil, err
	}
	if err := c.parentIons(seq, residueMasses, parentMax, opt.C13Num, add); err != nil {
		return nil, err
	}
	labelIons(seq, add)
	if err := c.diagnosticIons(seq, opt.C13Num, add); err != nil {
		return nil, err
	}
	if err := c.internalIons(seq, opt.C13Num, add); err != nil {
		return nil, err
	}
	return out, nil
}

// backboneIons emits a/b prefix ions and y suffix ions with losses,
// isotope shifts, and the fragment charge ladder.
func (c *Calculator) backboneIons(seq peptide.Sequence, residueMasses []float64, maxCharge, c13Num int, add func(Ion)) error {
	type base struct {
		ion  Ion
		mass float64
		frag peptide.Sequence
	}
	var bases []base

	// Prefix cut sites: b_n sums residues through n, a_n trails by one CO.
	for index := 2; index <= len(seq)-2; index++ {
		var sum float64
		for _, m := range residueMasses[:index] {
			sum += m
		}
		pos := index - 1
		bases = append(bases,
			base{ion: Ion{Family: FamilyB, Pos: pos}, mass: sum, frag: seq[:index]},
			base{ion: Ion{Family: FamilyA, Pos: pos}, mass: sum - masses.MassCO, frag: seq[:index]},
		)
	}

	// Suffix cut sites: y ions gain the extra backbone hydrogen.
	for index := 1; index <= len(seq)-2; index++ {
		var sum float64
		for _, m := range residueMasses[index:] {
			sum += m
		}
		bases = append(bases, base{
			ion:  Ion{Family: FamilyY, Pos: len(seq) - index - 1},
			mass: sum + masses.Proton,
			frag: seq[index:],
		})
	}

	for _, b := range bases {
		combos, err := c.lossCombos(b.frag, c.PeptideLosses, peptideLossDepth)
		if err != nil {
			return err
		}
		emitCharged(b.ion, b.mass, combos, c13Num, maxCharge, add)
	}
	return nil
}

// parentIons emits MH laddered to the parent max charge.
func (c *Calculator) parentIons(seq peptide.Sequence, residueMasses []float64, maxCharge, c13Num int, add func(Ion)) error {
	var total float64
	for _, m := range residueMasses {
		total += m
	}
	combos, err := c.lossCombos(seq, c.PeptideLosses, peptideLossDepth)
	if err != nil {
		return err
	}
	emitCharged(Ion{Family: FamilyParent}, total+masses.Proton, combos, c13Num, maxCharge, add)
	return nil
}

// labelIons emits reporter channels when the N-terminal residue carries a
// quantification label.
func labelIons(seq peptide.Sequence, add func(Ion)) {
	for _, mod := range seq[0].Mods {
		names, ok := masses.LabelNames[mod]
		if !ok {
			continue
		}
		mzs := masses.LabelMasses[mod]
		for i, name := range names {
			add(Ion{Family: FamilyLabel, Fragment: name, MZ: mzs[i]})
		}
	}
}

// diagnosticIons emits the phosphotyrosine immonium ion when any residue
// carries it. Only isotope shifts apply; the ion takes no losses or ladder.
func (c *Calculator) diagnosticIons(seq peptide.Sequence, c13Num int, add func(Ion)) error {
	found := false
	for _, r := range seq {
		if r.Letter == DiagnosticLetter && r.HasMod(DiagnosticMod) {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	mz := masses.ImmoniumIons[DiagnosticLetter] +
		masses.Modifications[masses.ModKey{Letter: DiagnosticLetter, Mod: DiagnosticMod}]
	for c13 := 0; c13 <= c13Num; c13++ {
		add(Ion{
			Family:   FamilyDiagnostic,
			Fragment: DiagnosticName,
			C13:      c13,
			MZ:       mz + float64(c13)*masses.DeltaC13,
		})
	}
	return nil
}

// internalIons emits double-cleavage fragments between interior cut sites,
// excluding the residues nearest each terminus, capped with a synthetic
// N-terminus and a C=O pseudo-terminus.
func (c *Calculator) internalIons(seq peptide.Sequence, c13Num int, add func(Ion)) error {
	for start := 2; start <= len(seq)-3; start++ {
		for end := start + 1; end <= len(seq)-2; end++ {
			frag := make(peptide.Sequence, 0, end-start+2)
			frag = append(frag, peptide.Residue{Letter: peptide.NTerm})
			frag = append(frag, seq[start:end]...)
			frag = append(frag, peptide.Residue{Letter: peptide.Carbonyl})

			var mass float64
			for _, r := range frag {
				m, err := masses.Residue(r.Letter, r.Mods)
				if err != nil {
					return err
				}
				mass += m
			}
			name := internalName(frag)

			combos, err := c.lossCombos(frag, c.InternalLosses, internalLossDepth)
			if err != nil {
				return err
			}
			for _, combo := range combos {
				for c13 := 0; c13 <= c13Num; c13++ {
					add(Ion{
						Family:   FamilyInternal,
						Fragment: name,
						Losses:   combo.Losses,
						C13:      c13,
						MZ:       mass + combo.Mass + float64(c13)*masses.DeltaC13,
					})
				}
			}
		}
	}
	return nil
}

// internalName renders the fragment letters, lower-cased when modified.
func internalName(frag peptide.Sequence) string {
	return frag.Display(nil)
}

// emitCharged crosses a base ion with loss combos, isotope shifts, and the
// charge ladder: m/z = (M + c*proton) / c.
func emitCharged(proto Ion, baseMass float64, combos []lossCombo, c13Num, maxCharge int, add func(Ion)) {
	for _, combo := range combos {
		for c13 := 0; c13 <= c13Num; c13++ {
			mass := baseMass + combo.Mass + float64(c13)*masses.DeltaC13
			for charge := 1; charge <= maxCharge; charge++ {
				ion := proto
				ion.Losses = combo.Losses
				ion.C13 = c13
				ion.Charge = charge
				ion.MZ = (mass + float64(charge)*masses.Proton) / float64(charge)
				add(ion)
			}
		}
	}
}
