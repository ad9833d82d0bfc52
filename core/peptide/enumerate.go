// core/peptide/enumerate.go
package peptide

import (
	"errors"
	"fmt"
	"sort"
)

// ErrStop makes Enumerate return early without error; consumers use it to
// take a bounded prefix of the placements.
var ErrStop = errors.New("stop enumeration")

// ScreeningCap bounds how many placements the fast screening mode examines
// per peptide; a reprocess run drains the enumeration instead.
const ScreeningCap = 10

// InsufficientSitesError reports a modification with fewer eligible
// unoccupied sites than its declared count.
type InsufficientSitesError struct {
	Spec    ModSpec
	Peptide string
}

func (e *InsufficientSitesError) Error() string {
	return fmt.Sprintf("too few sites for modification %q in peptide %q", e.Spec, e.Peptide)
}

// Enumerate generates every placement of the given modification specs on the
// peptide and passes each fully placed Sequence to visit. Specs with fewer
// eligible letters are placed first so broad specs cannot starve them of
// sites; a residue accepts at most one modification per placement. The
// Sequence handed to visit is owned by the callee.
func Enumerate(letters string, specs []ModSpec, visit func(Sequence) error) error {
	ordered := append([]ModSpec(nil), specs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Letters) < len(ordered[j].Letters)
	})

	seq := NewSequence(letters)
	err := place(seq, letters, ordered, visit)
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func place(seq Sequence, letters string, specs []ModSpec, visit func(Sequence) error) error {
	if len(specs) == 0 {
		return visit(seq.Clone())
	}

	spec := specs[0]
	eligible := make(map[string]bool, len(spec.Letters))
	for _, l := range spec.Letters {
		eligible[l] = true
	}

	var indices []int
	for i, r := range seq {
		if eligible[r.Letter] && !r.Modified() {
			indices = append(indices, i)
		}
	}
	if len(indices) < spec.Count {
		return &InsufficientSitesError{Spec: spec, Peptide: letters}
	}

	return combinations(indices, spec.Count, func(chosen []int) error {
		for _, i := range chosen {
			seq[i].Mods = append(seq[i].Mods, spec.Name)
		}
		err := place(seq, letters, specs[1:], visit)
		for _, i := range chosen {
			seq[i].Mods = seq[i].Mods[:len(seq[i].Mods)-1]
		}
		return err
	})
}

// combinations calls fn with each size-k combination of idx, reusing one
// scratch slice.
func combinations(idx []int, k int, fn func([]int) error) error {
	chosen := make([]int, 0, k)
	var rec func(start int) error
	rec = func(start int) error {
		if len(chosen) == k {
			return fn(chosen)
		}
		// Not enough remaining indices to fill the combination.
		for i := start; i <= len(idx)-(k-len(chosen)); i++ {
			chosen = append(chosen, idx[i])
			if err := rec(i + 1); err != nil {
				return err
			}
			chosen = chosen[:len(chosen)-1]
		}
		return nil
	}
	return rec(0)
}

// Collect drains Enumerate into a slice, stopping after limit placements
// when limit > 0.
func Collect(letters string, specs []ModSpec, limit int) ([]Sequence, error) {
	var out []Sequence
	err := Enumerate(letters, specs, func(s Sequence) error {
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
