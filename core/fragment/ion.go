// core/fragment/ion.go
package fragment

import (
	"fmt"
	"sort"
	"strings"
)

// Family tags the origin of a theoretical ion.
type Family int

const (
	FamilyB Family = iota
	FamilyA
	FamilyY
	FamilyParent
	FamilyInternal
	FamilyDiagnostic
	FamilyLabel
)

func (f Family) String() string {
	switch f {
	case FamilyB:
		return "b"
	case FamilyA:
		return "a"
	case FamilyY:
		return "y"
	case FamilyParent:
		return "parent"
	case FamilyInternal:
		return "internal"
	case FamilyDiagnostic:
		return "diagnostic"
	case FamilyLabel:
		return "label"
	}
	return "unknown"
}

// Loss is one neutral-loss component applied to an ion. Count is signed:
// losses are negative, adducts positive.
type Loss struct {
	Name  string
	Count int
}

// Ion is a theoretical fragment ion: a structured identity plus its m/z.
// The canonical display string doubles as the persisted key, so its format
// must stay stable.
type Ion struct {
	Family Family
	// Pos is the cleavage index for a/b/y ions.
	Pos int
	// Fragment is the interior sequence for internal ions, the reporter
	// channel name for label ions, and the diagnostic tag for diagnostic
	// ions.
	Fragment string
	Losses   []Loss
	C13      int
	// Charge is 0 for ions emitted without a charge ladder (internal,
	// label, diagnostic).
	Charge int
	MZ     float64
}

// NumLosses counts the ion's negative neutral-loss components; the matcher
// penalizes each one.
func (i Ion) NumLosses() int {
	n := 0
	for _, l := range i.Losses {
		if l.Count < 0 {
			n++
		}
	}
	return n
}

// Name renders the canonical display string, e.g. "b_{3}-H_2O^{+2}" or
// "MH-2 H_2O+^{13}C^{+}".
func (i Ion) Name() string {
	var b strings.Builder
	switch i.Family {
	case FamilyB:
		fmt.Fprintf(&b, "b_{%d}", i.Pos)
	case FamilyA:
		fmt.Fprintf(&b, "a_{%d}", i.Pos)
	case FamilyY:
		fmt.Fprintf(&b, "y_{%d}", i.Pos)
	case FamilyParent:
		b.WriteString("MH")
	default:
		b.WriteString(i.Fragment)
	}
	for _, l := range i.Losses {
		b.WriteString(formatLoss(l.Name, l.Count))
	}
	if i.C13 != 0 {
		b.WriteString(formatLoss("^{13}C", i.C13))
	}
	if i.Charge > 0 {
		if i.Charge == 1 {
			b.WriteString("^{+}")
		} else {
			fmt.Fprintf(&b, "^{+%d}", i.Charge)
		}
	}
	return b.String()
}

// formatLoss renders one signed loss component ("-H_2O", "+2 NH_3").
func formatLoss(name string, count int) string {
	if name == "" || count == 0 {
		return ""
	}
	sign := "+"
	if count < 0 {
		sign = "-"
		count = -count
	}
	if count > 1 {
		return fmt.Sprintf("%s%d %s", sign, count, name)
	}
	return sign + name
}

// sortLosses orders components lexicographically so equal combinations
// always render the same suffix.
func sortLosses(ls []Loss) {
	sort.Slice(ls, func(a, b int) bool { return ls[a].Name < ls[b].Name })
}

// SortByMZ returns the ions of m as a slice in ascending m/z order, the
// layout the spectrum matcher sweeps over.
func SortByMZ(m map[string]Ion) []Ion {
	out := make([]Ion, 0, len(m))
	for _, ion := range m {
		out = append(out, ion)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].MZ != out[b].MZ {
			return out[a].MZ < out[b].MZ
		}
		return out[a].Name() < out[b].Name()
	})
	return out
}
