// internal/pipeline/pipeline.go
// Package pipeline runs the validation batch: enumerate modification
// placements, fan out fragment prediction and peak matching across workers,
// and persist results through a single consumer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"camv-core/fragment"
	"camv-core/masses"
	"camv-core/peptide"
	"camv-core/scan"
	"camv-core/spectrum"

	"camv/internal/review"
)

// ScanSource serves acquisition metadata and centroided peaks for the raw
// files backing a batch.
type ScanSource interface {
	ScanQuery(q *peptide.Query) (scan.Query, error)
	// Peaks returns a scan's peaks sorted ascending by m/z.
	Peaks(basename string, scanNum int) ([]spectrum.Peak, error)
}

// Config controls a batch run.
type Config struct {
	Workers       int     // compute goroutines + 1 consumer; 0 = all CPUs
	SequenceLimit int     // max placements per peptide; 0 = unlimited
	WindowSize    float64 // m/z padding around precursor/label windows
	AutoMaybe     bool    // provisional "maybe" on rank-1 matches

	// Match returns matcher settings for a collision method.
	Match func(collision string) spectrum.Config

	Log *slog.Logger
}

// Job is one placement awaiting fragment prediction and matching.
type Job struct {
	Query     *peptide.Query
	ScanQuery scan.Query
	Sequence  peptide.Sequence
}

// Result is the persistence contract for one validated placement.
type Result struct {
	Query     *peptide.Query
	ScanQuery scan.Query
	Sequence  peptide.Sequence
	Choice    string

	Peaks           []spectrum.PeakHit
	PrecursorWindow []spectrum.Peak
	LabelWindow     []spectrum.Peak
}

// Batch owns one run of the pipeline and exposes its progress.
type Batch struct {
	cfg    Config
	calc   *fragment.Calculator
	status Status
}

// NewBatch prepares a batch with the given configuration.
func NewBatch(cfg Config) *Batch {
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Match == nil {
		cfg.Match = func(collision string) spectrum.Config {
			return spectrum.DefaultConfig(spectrum.ToleranceFor(collision))
		}
	}
	return &Batch{cfg: cfg, calc: fragment.NewCalculator()}
}

// Status returns the batch's live progress counters.
func (b *Batch) Status() *Status { return &b.status }

// Run validates every query and hands each Result to persist. persist is
// only ever invoked from one goroutine. Queries whose scans are missing or
// whose modifications cannot be placed are skipped with a warning; unknown
// modifications and persistence failures abort the batch.
func (b *Batch) Run(ctx context.Context, queries []*peptide.Query, src ScanSource, persist func(*Result) error) error {
	log := b.cfg.Log

	b.status.setPhase(PhaseEnumerate)
	jobs, err := b.enumerate(ctx, queries, src)
	if err != nil {
		b.status.setPhase(PhaseFailed)
		return err
	}
	log.Info("enumerated placements",
		"queries", len(queries),
		"placements", len(jobs),
		"skipped", b.status.Skipped.Load())

	workers := b.cfg.Workers - 1
	if workers < 1 {
		workers = 1
	}

	// A fatal compute error cancels the feed so remaining workers drain out.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.status.setPhase(PhaseDistribute)
	jobCh := make(chan Job, workers*2)
	results := make(chan *Result, workers*2)

	// Niceness is process-wide; goroutine workers cannot be individually
	// reniced, so drop the priority once before the pool starts.
	lowerPriority()

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobCh:
					if !ok {
						return
					}
					res, err := b.compute(job, src)
					if err != nil {
						b.status.fail(err)
						cancel()
						return
					}
					if res == nil {
						continue
					}
					b.status.Computed.Add(1)
					select {
					case results <- res:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	// Single consumer; persist errors stop further writes but let workers
	// drain.
	var cwg sync.WaitGroup
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for res := range results {
			if b.status.err() != nil {
				continue
			}
			if err := persist(res); err != nil {
				b.status.fail(fmt.Errorf("persist scan %d: %w", res.Query.Scan, err))
				continue
			}
			b.status.Persisted.Add(1)
		}
	}()

	b.status.setPhase(PhaseCompute)
feed:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- job:
		}
	}
	close(jobCh)
	wg.Wait()
	b.status.setPhase(PhaseCollect)
	close(results)
	b.status.setPhase(PhasePersist)
	cwg.Wait()

	if err := b.status.err(); err != nil {
		b.status.setPhase(PhaseFailed)
		return err
	}
	if err := ctx.Err(); err != nil {
		b.status.setPhase(PhaseFailed)
		return err
	}
	b.status.setPhase(PhaseDone)
	return nil
}

// enumerate expands every query into its placement jobs, resolving scan
// metadata once per query.
func (b *Batch) enumerate(ctx context.Context, queries []*peptide.Query, src ScanSource) ([]Job, error) {
	var jobs []Job
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sq, err := src.ScanQuery(q)
		if err != nil {
			b.skip(q, "no scan metadata", err)
			continue
		}

		seqs, err := peptide.Collect(q.Sequence, q.Mods(), b.cfg.SequenceLimit)
		if err != nil {
			var ise *peptide.InsufficientSitesError
			if errors.As(err, &ise) {
				b.skip(q, "not enough modification sites", err)
				continue
			}
			return nil, fmt.Errorf("enumerate %s: %w", q.Sequence, err)
		}
		for _, seq := range seqs {
			jobs = append(jobs, Job{Query: q, ScanQuery: sq, Sequence: seq})
		}
	}
	return jobs, nil
}

// compute predicts fragment ions for one placement and matches them against
// the observed spectra. A nil, nil return means the job was skipped.
func (b *Batch) compute(job Job, src ScanSource) (*Result, error) {
	q, sq := job.Query, job.ScanQuery

	ms1, err := src.Peaks(sq.Basename, sq.PrecursorScan)
	if err != nil {
		b.skip(q, "no precursor scan", err)
		return nil, nil
	}
	precursorWin := scan.PrecursorWindow(ms1, sq, b.cfg.WindowSize)
	coverage := scan.WindowCoverage(q.Charge, sq, precursorWin)

	ions, err := b.calc.Ions(job.Sequence, q.Charge, fragment.Options{
		C13Num: sq.C13Num + coverage,
	})
	if err != nil {
		return nil, fmt.Errorf("fragment ions for %s: %w", q.Sequence, err)
	}

	ms2, err := src.Peaks(sq.Basename, q.Scan)
	if err != nil {
		b.skip(q, "no MS2 scan", err)
		return nil, nil
	}
	hits := spectrum.Match(ms2, fragment.SortByMZ(ions), b.cfg.Match(sq.Collision))

	var labelWin []spectrum.Peak
	if labels := q.LabelMods(masses.IsLabel); len(labels) > 0 {
		quantPeaks := ms2
		if q.QuantScan != q.Scan {
			quantPeaks, err = src.Peaks(sq.Basename, q.QuantScan)
			if err != nil {
				b.skip(q, "no quantification scan", err)
				return nil, nil
			}
		}
		labelWin = scan.LabelWindow(quantPeaks, labels[0], b.cfg.WindowSize)
	}

	return &Result{
		Query:           q,
		ScanQuery:       sq,
		Sequence:        job.Sequence,
		Choice:          review.Choice(q, job.Sequence, b.cfg.AutoMaybe),
		Peaks:           hits,
		PrecursorWindow: precursorWin,
		LabelWindow:     labelWin,
	}, nil
}

func (b *Batch) skip(q *peptide.Query, reason string, err error) {
	b.status.Skipped.Add(1)
	b.cfg.Log.Warn("skipping query",
		"reason", reason,
		"file", q.Basename(),
		"scan", q.Scan,
		"peptide", q.Sequence,
		"err", err)
}
