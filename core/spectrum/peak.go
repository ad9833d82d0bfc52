// core/spectrum/peak.go
package spectrum

// Peak is one observed (m/z, intensity) pair from a centroided scan.
type Peak struct {
	MZ        float64
	Intensity float64
}

// Candidate is one theoretical ion found within tolerance of a peak.
type Candidate struct {
	Name   string
	MZ     float64
	AbsErr float64
}

// PeakHit is a peak annotated with its assignment. Name is empty for
// unassigned peaks and for assignments cleared by the retention rule; the
// candidate list is always kept for audit.
type PeakHit struct {
	MZ        float64
	Intensity float64

	Name        string
	Score       int
	PredictedMZ float64
	NumLosses   int

	Candidates []Candidate
}

// Assigned reports whether the hit kept a displayed ion name.
func (h PeakHit) Assigned() bool { return h.Name != "" }

// FracError is the relative mass error of the assignment, 0 when
// unassigned.
func (h PeakHit) FracError() float64 {
	if h.PredictedMZ == 0 {
		return 0
	}
	d := h.PredictedMZ - h.MZ
	if d < 0 {
		d = -d
	}
	return d / h.PredictedMZ
}
