package fragment

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"camv-core/masses"
	"camv-core/peptide"
)

const massTol = 0.01

func ionsFor(t *testing.T, seq peptide.Sequence, charge int, opt Options) map[string]Ion {
	t.Helper()
	ions, err := NewCalculator().Ions(seq, charge, opt)
	if err != nil {
		t.Fatalf("Ions: %v", err)
	}
	return ions
}

func mustIon(t *testing.T, ions map[string]Ion, name string) Ion {
	t.Helper()
	ion, ok := ions[name]
	if !ok {
		t.Fatalf("ion %q missing", name)
	}
	return ion
}

func TestIons_UnmodifiedScenario(t *testing.T) {
	ions := ionsFor(t, peptide.NewSequence("RVDENNPEY"), 2, Options{})

	for name, want := range map[string]float64{
		"b_{1}^{+}": 157.108,
		"y_{1}^{+}": 182.081,
		"a_{1}^{+}": 129.113,
	} {
		if got := mustIon(t, ions, name).MZ; math.Abs(got-want) > massTol {
			t.Errorf("%s = %.4f, want %.3f", name, got, want)
		}
	}
}

func TestIons_BYComplementarity(t *testing.T) {
	letters := "RVDENNPEY"
	ions := ionsFor(t, peptide.NewSequence(letters), 2, Options{})
	parent := mustIon(t, ions, "MH^{+}").MZ

	for n := 1; n < len(letters); n++ {
		b := mustIon(t, ions, ionName("b", n, 1)).MZ
		y := mustIon(t, ions, ionName("y", len(letters)-n, 1)).MZ
		// b_n and y_(L-n) jointly carry the parent plus one extra proton.
		if got := b + y; math.Abs(got-(parent+masses.Proton)) > massTol {
			t.Errorf("b_%d + y_%d = %.4f, want %.4f", n, len(letters)-n, got, parent+masses.Proton)
		}
	}
}

func ionName(family string, pos, charge int) string {
	ion := Ion{Pos: pos, Charge: charge}
	switch family {
	case "b":
		ion.Family = FamilyB
	case "y":
		ion.Family = FamilyY
	case "a":
		ion.Family = FamilyA
	}
	return ion.Name()
}

func TestIons_ParentLadder(t *testing.T) {
	ions := ionsFor(t, peptide.NewSequence("RVDENNPEY"), 3, Options{})
	mh1 := mustIon(t, ions, "MH^{+}").MZ
	mh2 := mustIon(t, ions, "MH^{+2}").MZ
	mh3 := mustIon(t, ions, "MH^{+3}").MZ

	base := mh1 - masses.Proton
	if got := (base + 2*masses.Proton) / 2; math.Abs(got-mh2) > 1e-9 {
		t.Errorf("MH^{+2} = %.6f, want %.6f", mh2, got)
	}
	if got := (base + 3*masses.Proton) / 3; math.Abs(got-mh3) > 1e-9 {
		t.Errorf("MH^{+3} = %.6f, want %.6f", mh3, got)
	}
}

func TestIons_LabeledPhosphoScenario(t *testing.T) {
	seq := peptide.NewSequence("AYSK")
	seq[0].Mods = []string{"TMT6plex"}
	seq[2].Mods = []string{"Phospho"} // the Y

	ions := ionsFor(t, seq, 2, Options{})

	if got := mustIon(t, ions, "pY").MZ; math.Abs(got-216.04) > massTol {
		t.Errorf("pY = %.4f, want 216.04", got)
	}

	b3 := mustIon(t, ions, "b_{3}^{+}").MZ
	b3loss := mustIon(t, ions, "b_{3}-HPO_3^{+}").MZ
	if got := b3 - b3loss; math.Abs(got-79.97) > massTol {
		t.Errorf("b_{3} - (b_{3}-HPO_3) = %.4f, want 79.97", got)
	}

	// Reporter channels come straight from the label table.
	if got := mustIon(t, ions, "TMT^{126}").MZ; math.Abs(got-126.1277) > massTol {
		t.Errorf("TMT^{126} = %.4f", got)
	}

	// The labeled N-terminus shifts every b ion by the tag mass.
	plain := ionsFor(t, peptide.NewSequence("AYSK"), 2, Options{})
	shift := b3 - mustIon(t, plain, "b_{3}^{+}").MZ - masses.Modifications[masses.ModKey{Letter: "N-term", Mod: "TMT6plex"}] - masses.Modifications[masses.ModKey{Letter: "Y", Mod: "Phospho"}]
	if math.Abs(shift) > massTol {
		t.Errorf("b_{3} shift off by %.4f", shift)
	}
}

func TestIons_IsotopeShiftsOnlyAdd(t *testing.T) {
	seq := peptide.NewSequence("IEFTTER")
	base := ionsFor(t, seq, 2, Options{})
	shifted := ionsFor(t, seq, 2, Options{C13Num: 1})

	for name, ion := range base {
		other, ok := shifted[name]
		if !ok {
			t.Fatalf("isotope expansion dropped %q", name)
		}
		if other.MZ != ion.MZ {
			t.Fatalf("isotope expansion moved %q", name)
		}
	}
	added := 0
	for name := range shifted {
		if _, ok := base[name]; !ok {
			if !strings.Contains(name, "^{13}C") {
				t.Fatalf("new key %q lacks isotope tag", name)
			}
			added++
		}
	}
	if added == 0 {
		t.Fatal("no isotope-tagged keys added")
	}
}

func TestIons_InternalFragments(t *testing.T) {
	ions := ionsFor(t, peptide.NewSequence("RVDENNPEY"), 2, Options{})

	// Interior cut between the residues nearest each terminus.
	got := mustIon(t, ions, "VDENNPE")
	want := 0.0
	for _, l := range "VDENNPE" {
		want += masses.AminoAcids[string(l)]
	}
	if math.Abs(got.MZ-want) > 1e-9 {
		t.Errorf("internal VDENNPE = %.4f, want %.4f", got.MZ, want)
	}

	// Full-length and terminal-adjacent fragments must not appear.
	for _, name := range []string{"RVDENNPEY", "RVDENNPE", "VDENNPEY"} {
		if _, ok := ions[name]; ok {
			t.Errorf("unexpected internal fragment %q", name)
		}
	}

	// Internal fragments may shed CO via the carbonyl cap.
	if _, ok := ions["VDENNPE-CO"]; !ok {
		t.Error("internal fragment missing CO loss")
	}
}

func TestIons_Deterministic(t *testing.T) {
	seq := peptide.NewSequence("AYSK")
	seq[2].Mods = []string{"Phospho"}
	a := ionsFor(t, seq, 2, Options{C13Num: 1})
	b := ionsFor(t, seq, 2, Options{C13Num: 1})
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different maps")
	}
}

func TestIons_UnknownModification(t *testing.T) {
	seq := peptide.NewSequence("AK")
	seq[1].Mods = []string{"Bogus"}
	_, err := NewCalculator().Ions(seq, 2, Options{})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	var ume *masses.UnknownModificationError
	if !errors.As(err, &ume) {
		t.Fatalf("expected UnknownModificationError, got %v", err)
	}
	if ume.Mod != "Bogus" {
		t.Errorf("error names %q", ume.Mod)
	}
}
