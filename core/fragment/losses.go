// core/fragment/losses.go
package fragment

import (
	"fmt"
	"strings"

	"camv-core/masses"
	"camv-core/peptide"
)

// lossCombo is one deduplicated combination of neutral-loss components,
// with the rendered suffix and summed (signed) mass shift.
type lossCombo struct {
	Losses []Loss
	Suffix string
	Mass   float64
}

// lossCombos enumerates every combination of neutral losses available to a
// fragment, up to maxDepth loss events. Each event is one tabulated loss
// (possibly compound, "HPO_3-H_2O"); a residue contributes at most one
// event. The empty combination is always included. Results are deduplicated
// by suffix.
func (c *Calculator) lossCombos(seq peptide.Sequence, anyLosses []string, maxDepth int) ([]lossCombo, error) {
	seen := map[string]map[string]int{}

	var record func(counts map[string]int)
	record = func(counts map[string]int) {
		suffix := lossSuffix(counts)
		if _, ok := seen[suffix]; ok {
			return
		}
		cp := make(map[string]int, len(counts))
		for k, v := range counts {
			cp[k] = v
		}
		seen[suffix] = cp
	}

	var walk func(seq peptide.Sequence, counts map[string]int, depth int)
	walk = func(seq peptide.Sequence, counts map[string]int, depth int) {
		record(counts)
		if len(seq) == 0 || depth < 1 {
			return
		}

		apply := func(rest peptide.Sequence, loss string) {
			next := make(map[string]int, len(counts)+2)
			for k, v := range counts {
				next[k] = v
			}
			for _, part := range strings.Split(loss, "-") {
				next[part]--
			}
			walk(rest, next, depth-1)
		}

		for _, loss := range anyLosses {
			apply(seq, loss)
		}
		for i, r := range seq {
			for _, loss := range c.AALosses[r.Letter] {
				apply(without(seq, i), loss)
			}
		}
		for i, r := range seq {
			for key, lossList := range c.ModLosses {
				if key.Letter != r.Letter {
					continue
				}
				if key.Mod != "" && !r.HasMod(key.Mod) {
					continue
				}
				for _, loss := range lossList {
					apply(without(seq, i), loss)
				}
			}
		}
	}

	walk(seq, map[string]int{}, maxDepth)

	out := make([]lossCombo, 0, len(seen))
	for suffix, counts := range seen {
		var mass float64
		var ls []Loss
		for name, count := range counts {
			if name == "" || count == 0 {
				continue
			}
			m, ok := masses.Losses[name]
			if !ok {
				return nil, fmt.Errorf("no mass table entry for neutral loss %q", name)
			}
			mass += m * float64(count)
			ls = append(ls, Loss{Name: name, Count: count})
		}
		sortLosses(ls)
		out = append(out, lossCombo{Losses: ls, Suffix: suffix, Mass: mass})
	}
	return out, nil
}

// lossSuffix renders a counts map the way Ion.Name does, for deduplication.
func lossSuffix(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name, count := range counts {
		if name != "" && count != 0 {
			names = append(names, name)
		}
	}
	// Lexicographic order keeps the suffix canonical.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	var b strings.Builder
	for _, name := range names {
		b.WriteString(formatLoss(name, counts[name]))
	}
	return b.String()
}

func without(seq peptide.Sequence, i int) peptide.Sequence {
	rest := make(peptide.Sequence, 0, len(seq)-1)
	rest = append(rest, seq[:i]...)
	return append(rest, seq[i+1:]...)
}
