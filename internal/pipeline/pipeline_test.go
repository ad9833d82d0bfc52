package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camv-core/peptide"
	"camv-core/scan"
	"camv-core/spectrum"

	"camv/internal/review"
)

// fakeSource serves canned scan metadata and peak lists, keyed by
// "basename:scan".
type fakeSource struct {
	meta  map[int]scan.Query
	peaks map[string][]spectrum.Peak
}

func (f *fakeSource) ScanQuery(q *peptide.Query) (scan.Query, error) {
	sq, ok := f.meta[q.Scan]
	if !ok {
		return scan.Query{}, errors.New("no metadata")
	}
	return sq, nil
}

func (f *fakeSource) Peaks(basename string, num int) ([]spectrum.Peak, error) {
	p, ok := f.peaks[fmt.Sprintf("%s:%d", basename, num)]
	if !ok {
		return nil, fmt.Errorf("%s: scan %d missing", basename, num)
	}
	return p, nil
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func phosphoQuery() *peptide.Query {
	return &peptide.Query{
		QueryID:     1,
		Filename:    "run1.raw",
		Accessions:  []string{"P12931"},
		Sequence:    "IEFTTER",
		Charge:      2,
		PrecursorMZ: 450.2,
		Scan:        42,
		QuantScan:   42,
		VarMods: []peptide.ModSpec{
			{Count: 1, Name: "Phospho", Letters: []string{"T"}},
		},
	}
}

func goodSource() *fakeSource {
	return &fakeSource{
		meta: map[int]scan.Query{
			42: {
				Scan:          42,
				PrecursorScan: 10,
				IsolationMZ:   450.2,
				Collision:     "CID",
				Basename:      "run1.raw",
			},
		},
		peaks: map[string][]spectrum.Peak{
			"run1.raw:10": {{MZ: 450.2, Intensity: 1e5}},
			"run1.raw:42": {{MZ: 175.119, Intensity: 2000}, {MZ: 900.0, Intensity: 50}},
		},
	}
}

func TestRun_PersistsEveryPlacement(t *testing.T) {
	q := phosphoQuery()
	b := NewBatch(Config{Workers: 2, WindowSize: 1, AutoMaybe: true, Log: quietLog()})

	var got []*Result
	err := b.Run(context.Background(), []*peptide.Query{q}, goodSource(), func(r *Result) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)

	// One Phospho over two threonines gives two placements.
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Same(t, q, r.Query)
		assert.NotEmpty(t, r.Peaks)
		assert.Len(t, r.PrecursorWindow, 1)
		assert.Empty(t, r.LabelWindow, "unlabeled peptide has no reporter window")
	}

	st := b.Status()
	assert.Equal(t, PhaseDone, st.Phase())
	assert.EqualValues(t, 2, st.Computed.Load())
	assert.EqualValues(t, 2, st.Persisted.Load())
	assert.EqualValues(t, 0, st.Skipped.Load())
}

func TestRun_AutoMaybeMarksRankOnePlacement(t *testing.T) {
	q := phosphoQuery()
	q.FirstRankSites = []peptide.SiteMod{{Pos: 4, Mod: "Phospho"}}
	b := NewBatch(Config{Workers: 2, WindowSize: 1, AutoMaybe: true, Log: quietLog()})

	var got []*Result
	err := b.Run(context.Background(), []*peptide.Query{q}, goodSource(), func(r *Result) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	maybes := 0
	for _, r := range got {
		if r.Choice == review.Maybe {
			maybes++
		}
	}
	assert.Equal(t, 1, maybes)
}

func TestRun_SkipsMissingScans(t *testing.T) {
	noMeta := phosphoQuery()
	noMeta.Scan = 99

	noMS1 := phosphoQuery()
	src := goodSource()
	delete(src.peaks, "run1.raw:10")

	b := NewBatch(Config{Workers: 2, WindowSize: 1, Log: quietLog()})
	err := b.Run(context.Background(), []*peptide.Query{noMeta, noMS1}, src, func(*Result) error {
		t.Fatal("nothing should persist")
		return nil
	})
	require.NoError(t, err)

	st := b.Status()
	assert.Equal(t, PhaseDone, st.Phase())
	// One query skipped at enumeration, two placements skipped at compute.
	assert.EqualValues(t, 3, st.Skipped.Load())
	assert.EqualValues(t, 0, st.Persisted.Load())
}

func TestRun_UnknownModificationFails(t *testing.T) {
	q := phosphoQuery()
	q.VarMods = []peptide.ModSpec{{Count: 1, Name: "Bogus", Letters: []string{"T"}}}

	b := NewBatch(Config{Workers: 2, WindowSize: 1, Log: quietLog()})
	err := b.Run(context.Background(), []*peptide.Query{q}, goodSource(), func(*Result) error {
		return nil
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "fragment ions")
	assert.Equal(t, PhaseFailed, b.Status().Phase())
}

func TestRun_PersistErrorAborts(t *testing.T) {
	b := NewBatch(Config{Workers: 2, WindowSize: 1, Log: quietLog()})
	err := b.Run(context.Background(), []*peptide.Query{phosphoQuery()}, goodSource(), func(*Result) error {
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "persist scan 42")
	assert.Equal(t, PhaseFailed, b.Status().Phase())
}

func TestRun_SequenceLimitCapsPlacements(t *testing.T) {
	q := phosphoQuery()
	b := NewBatch(Config{Workers: 2, SequenceLimit: 1, WindowSize: 1, Log: quietLog()})

	var got []*Result
	err := b.Run(context.Background(), []*peptide.Query{q}, goodSource(), func(r *Result) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatch(Config{Workers: 2, WindowSize: 1, Log: quietLog()})
	err := b.Run(ctx, []*peptide.Query{phosphoQuery()}, goodSource(), func(*Result) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, PhaseFailed, b.Status().Phase())
}
