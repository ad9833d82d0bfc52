package spectrum

import (
	"math"
	"testing"

	"camv-core/fragment"
	"camv-core/peptide"
)

func ionsOf(t *testing.T, letters string, charge int) []fragment.Ion {
	t.Helper()
	m, err := fragment.NewCalculator().Ions(peptide.NewSequence(letters), charge, fragment.Options{})
	if err != nil {
		t.Fatalf("Ions: %v", err)
	}
	return fragment.SortByMZ(m)
}

func TestMatch_EmptyPeakList(t *testing.T) {
	hits := Match(nil, ionsOf(t, "RVDENNPEY", 2), DefaultConfig(HCDTol))
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestMatch_NoCandidatesYieldsUnassignedHit(t *testing.T) {
	peaks := []Peak{{MZ: 5000.0, Intensity: 100}}
	hits := Match(peaks, ionsOf(t, "RVDENNPEY", 2), DefaultConfig(HCDTol))
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	h := hits[0]
	if h.Assigned() || len(h.Candidates) != 0 {
		t.Errorf("expected unassigned hit, got %+v", h)
	}
	if h.MZ != 5000.0 || h.Intensity != 100 {
		t.Error("peak fields not carried through")
	}
}

func TestMatch_AssignsBackboneIon(t *testing.T) {
	ions := ionsOf(t, "RVDENNPEY", 2)
	var b1 fragment.Ion
	for _, ion := range ions {
		if ion.Name() == "b_{1}^{+}" {
			b1 = ion
		}
	}
	if b1.MZ == 0 {
		t.Fatal("b_{1}^{+} not generated")
	}

	peaks := []Peak{
		{MZ: 100.0, Intensity: 1000},  // base peak, no candidates
		{MZ: b1.MZ, Intensity: 0.001}, // faint but a backbone ion
	}
	hits := Match(peaks, ions, DefaultConfig(HCDTol))
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	h := hits[1]
	if h.Name != "b_{1}^{+}" {
		t.Fatalf("assigned %q, want b_{1}^{+}", h.Name)
	}
	if h.Score != backboneScore+1 {
		t.Errorf("score = %d, want %d", h.Score, backboneScore+1)
	}
	if math.Abs(h.PredictedMZ-b1.MZ) > 1e-9 {
		t.Errorf("predicted m/z = %f", h.PredictedMZ)
	}
}

func TestMatch_RetentionClearsWeakLossyAssignments(t *testing.T) {
	ion := fragment.Ion{
		Family:   fragment.FamilyInternal,
		Fragment: "VDE",
		Losses:   []fragment.Loss{{Name: "H_2O", Count: -1}},
		MZ:       300.0,
	}
	peaks := []Peak{
		{MZ: 200.0, Intensity: 1000}, // base peak
		{MZ: 300.0, Intensity: 5},    // 0.5% of base: below both thresholds
	}
	hits := Match(peaks, []fragment.Ion{ion}, DefaultConfig(HCDTol))
	h := hits[1]
	if h.Assigned() {
		t.Errorf("weak lossy assignment should be cleared, kept %q", h.Name)
	}
	if len(h.Candidates) != 1 || h.Candidates[0].Name != "VDE-H_2O" {
		t.Errorf("candidate list not retained: %+v", h.Candidates)
	}
}

func TestMatch_RetentionKeepsLossFreeModerateLowPeaks(t *testing.T) {
	ion := fragment.Ion{Family: fragment.FamilyInternal, Fragment: "VDE", MZ: 300.0}
	peaks := []Peak{
		{MZ: 200.0, Intensity: 1000},
		{MZ: 300.0, Intensity: 50}, // 5%: above the loss-free floor
	}
	hits := Match(peaks, []fragment.Ion{ion}, DefaultConfig(HCDTol))
	if !hits[1].Assigned() {
		t.Error("loss-free assignment above the weak floor should be kept")
	}
}

func TestMatch_ClosestCandidateWinsTie(t *testing.T) {
	near := fragment.Ion{Family: fragment.FamilyInternal, Fragment: "AB", MZ: 300.0001}
	far := fragment.Ion{Family: fragment.FamilyInternal, Fragment: "CD", MZ: 300.002}
	peaks := []Peak{{MZ: 300.0, Intensity: 1000}}

	hits := Match(peaks, []fragment.Ion{near, far}, DefaultConfig(CIDTol))
	h := hits[0]
	if len(h.Candidates) != 2 {
		t.Fatalf("expected both candidates, got %d", len(h.Candidates))
	}
	if h.Name != "AB" {
		t.Errorf("closest candidate lost: %q", h.Name)
	}
}

func TestMatch_ParentBeatsBackbone(t *testing.T) {
	parent := fragment.Ion{Family: fragment.FamilyParent, Charge: 1, MZ: 500.0}
	b := fragment.Ion{Family: fragment.FamilyB, Pos: 4, Charge: 1, MZ: 500.00001}
	peaks := []Peak{{MZ: 500.0, Intensity: 10}}

	hits := Match(peaks, []fragment.Ion{parent, b}, DefaultConfig(CIDTol))
	if hits[0].Name != "MH^{+}" {
		t.Errorf("parent should outrank backbone, got %q", hits[0].Name)
	}
}

func TestToleranceFor(t *testing.T) {
	if ToleranceFor("HCD") != HCDTol {
		t.Error("HCD tolerance")
	}
	if ToleranceFor("CID") != CIDTol {
		t.Error("CID tolerance")
	}
	if ToleranceFor("ETD") != CIDTol {
		t.Error("unknown methods fall back to CID")
	}
}
