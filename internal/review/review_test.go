package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camv-core/peptide"
)

func placed(t *testing.T, letters string, specs []peptide.ModSpec) []peptide.Sequence {
	t.Helper()
	seqs, err := peptide.Collect(letters, specs, 0)
	require.NoError(t, err)
	return seqs
}

func TestChoice_MatchesRankOne(t *testing.T) {
	specs := []peptide.ModSpec{{Count: 1, Name: "Phospho", Letters: []string{"T"}}}
	seqs := placed(t, "IEFTTER", specs)
	require.Len(t, seqs, 2)

	q := &peptide.Query{Sequence: "IEFTTER"}
	for _, seq := range seqs {
		q.FirstRankSites = seq.SiteMods()
		assert.Equal(t, Maybe, Choice(q, seq, true))
	}
}

func TestChoice_DifferentPlacement(t *testing.T) {
	specs := []peptide.ModSpec{{Count: 1, Name: "Phospho", Letters: []string{"T"}}}
	seqs := placed(t, "IEFTTER", specs)
	require.Len(t, seqs, 2)

	q := &peptide.Query{
		Sequence:       "IEFTTER",
		FirstRankSites: seqs[0].SiteMods(),
	}
	assert.Equal(t, "", Choice(q, seqs[1], true))
}

func TestChoice_Disabled(t *testing.T) {
	specs := []peptide.ModSpec{{Count: 1, Name: "Phospho", Letters: []string{"T"}}}
	seqs := placed(t, "IEFTTER", specs)

	q := &peptide.Query{Sequence: "IEFTTER", FirstRankSites: seqs[0].SiteMods()}
	assert.Equal(t, "", Choice(q, seqs[0], false))
}

func TestChoice_NoRankData(t *testing.T) {
	specs := []peptide.ModSpec{{Count: 1, Name: "Phospho", Letters: []string{"T"}}}
	seqs := placed(t, "IEFTTER", specs)

	q := &peptide.Query{Sequence: "IEFTTER"}
	assert.Equal(t, "", Choice(q, seqs[0], true))
}
