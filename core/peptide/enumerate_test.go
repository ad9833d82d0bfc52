package peptide

import (
	"errors"
	"testing"
)

func countMods(s Sequence, name string) int {
	n := 0
	for _, r := range s {
		for _, m := range r.Mods {
			if m == name {
				n++
			}
		}
	}
	return n
}

func TestEnumerate_PhosphoTwoSites(t *testing.T) {
	seqs, err := Collect("IEFTTER", []ModSpec{{Count: 1, Name: "Phospho", Letters: []string{"T"}}}, 0)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(seqs) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(seqs))
	}
	// T occurs at letters 3 and 4; each placement phosphorylates one.
	for _, s := range seqs {
		if got := countMods(s, "Phospho"); got != 1 {
			t.Errorf("placement carries %d Phospho tags, want 1", got)
		}
	}
	if seqs[0][4].HasMod("Phospho") == seqs[1][4].HasMod("Phospho") {
		t.Error("both placements put Phospho on the same residue")
	}
}

func TestEnumerate_PreservesDeclaredCounts(t *testing.T) {
	specs := []ModSpec{
		{Count: 2, Name: "Phospho", Letters: []string{"S", "T", "Y"}},
		{Count: 1, Name: "Oxidation", Letters: []string{"M"}},
	}
	seqs, err := Collect("MSTSYK", specs, 0)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(seqs) == 0 {
		t.Fatal("expected placements")
	}
	for _, s := range seqs {
		if got := countMods(s, "Phospho"); got != 2 {
			t.Errorf("Phospho count = %d, want 2", got)
		}
		if got := countMods(s, "Oxidation"); got != 1 {
			t.Errorf("Oxidation count = %d, want 1", got)
		}
	}
}

func TestEnumerate_InsufficientSites(t *testing.T) {
	_, err := Collect("IEFTTER", []ModSpec{{Count: 3, Name: "Phospho", Letters: []string{"T"}}}, 0)
	var ise *InsufficientSitesError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientSitesError, got %v", err)
	}
	if ise.Peptide != "IEFTTER" {
		t.Errorf("error names peptide %q", ise.Peptide)
	}
}

func TestEnumerate_ConstrainedSpecPlacedFirst(t *testing.T) {
	// The pY-only spec must claim the single Y before the broad pSTY spec
	// can occupy it.
	specs := []ModSpec{
		{Count: 1, Name: "Phospho", Letters: []string{"S", "T", "Y"}},
		{Count: 1, Name: "Nitration", Letters: []string{"Y"}},
	}
	seqs, err := Collect("SYK", specs, 0)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	for _, s := range seqs {
		if countMods(s, "Nitration") != 1 {
			t.Fatal("narrow spec was starved of its only site")
		}
	}
}

func TestEnumerate_TerminalSites(t *testing.T) {
	seqs, err := Collect("AK", []ModSpec{{Count: 1, Name: "TMT6plex", Letters: []string{NTerm}}}, 0)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(seqs) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(seqs))
	}
	if !seqs[0][0].HasMod("TMT6plex") {
		t.Error("label not placed on the N-terminal sentinel")
	}
}

func TestCollect_Cap(t *testing.T) {
	// 3 eligible serines taken 1 at a time gives 3 placements; the cap
	// truncates to 2.
	seqs, err := Collect("SSS", []ModSpec{{Count: 1, Name: "Phospho", Letters: []string{"S"}}}, 2)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(seqs) != 2 {
		t.Fatalf("cap ignored: got %d placements", len(seqs))
	}
}

func TestEnumerate_AtMostOneModPerResidue(t *testing.T) {
	specs := []ModSpec{
		{Count: 1, Name: "Oxidation", Letters: []string{"M"}},
		{Count: 1, Name: "Dioxidation", Letters: []string{"M"}},
	}
	if _, err := Collect("AMK", specs, 0); err == nil {
		t.Fatal("single M cannot carry both oxidation states")
	}
	seqs, err := Collect("AMMK", specs, 0)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	for _, s := range seqs {
		for _, r := range s {
			if len(r.Mods) > 1 {
				t.Fatalf("residue %s carries %v", r.Letter, r.Mods)
			}
		}
	}
}
