// internal/app/app.go
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"camv-core/peptide"

	"camv/internal/cli"
	"camv/internal/config"
	"camv/internal/msdata"
	"camv/internal/pipeline"
	"camv/internal/search"
	"camv/internal/storage"
	"camv/internal/version"
)

// Exit codes.
const (
	exitOK       = 0
	exitUsage    = 2
	exitRuntime  = 3
	exitCanceled = 130
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("camv")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		fs.SetOutput(stdout)
		_, _ = cli.ParseArgs(fs, []string{"-h"})
		return exitOK
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(stdout)
			fs.Usage()
			return exitOK
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(stdout)
		fs.Usage()
		return exitUsage
	}

	if opts.Version {
		_, _ = fmt.Fprintf(stdout, "camv version %s\n", version.Version)
		return exitOK
	}

	log := newLogger(stderr, opts.Verbosity)

	cfg := config.Default()
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}
	if opts.Threads > 0 {
		cfg.Workers = opts.Threads
	}
	if opts.TmpDir != "" {
		cfg.TmpDir = opts.TmpDir
	}

	if err := run(parent, opts, cfg, log); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("canceled")
			return exitCanceled
		}
		log.Error("batch failed", "err", err)
		return exitRuntime
	}
	return exitOK
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func run(ctx context.Context, opts cli.Options, cfg config.Config, log *slog.Logger) error {
	results, err := search.ReadTSV(opts.SearchPath)
	if err != nil {
		return fmt.Errorf("read search results: %w", err)
	}
	log.Info("read search results",
		"path", opts.SearchPath,
		"queries", len(results.Queries))

	filter := search.Filter{MinScore: opts.MinScore}
	if len(opts.Scans) > 0 {
		filter.Scans = make(map[int]bool, len(opts.Scans))
		for _, s := range opts.Scans {
			filter.Scans[s] = true
		}
	}
	queries := results.Apply(filter)
	if len(queries) == 0 {
		return errors.New("no queries left after filtering")
	}

	// Searches declare pST while spectra routinely carry pY placements.
	for _, q := range queries {
		q.VarMods = peptide.RemapSTY(q.VarMods)
		q.FixedMods = peptide.RemapSTY(q.FixedMods)
	}

	if err := checkRawCoverage(queries, opts.RawPaths); err != nil {
		return err
	}

	tmpDir := cfg.TmpDir
	if tmpDir == "" {
		tmpDir, err = os.MkdirTemp("", "camv-")
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()
	}

	workers := resolveWorkers(cfg.Workers)

	conv := msdata.Converter{
		MSConvert: cfg.MSConvert,
		OutDir:    tmpDir,
		Parallel:  workers,
		Log:       log,
	}
	converted, err := conv.Convert(ctx, opts.RawPaths)
	if err != nil {
		return err
	}
	index, err := msdata.Load(converted)
	if err != nil {
		return err
	}

	screeningCap := cfg.ScreeningCap
	if opts.Reprocess {
		screeningCap = 0
	}

	store, err := storage.Open(opts.DBPath, storage.Options{
		Reprocess:    opts.Reprocess,
		ScreeningCap: screeningCap,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.RecordRun(opts.SearchPath, opts.RawPaths); err != nil {
		return err
	}

	batch := pipeline.NewBatch(pipeline.Config{
		Workers:       workers,
		SequenceLimit: screeningCap,
		WindowSize:    cfg.WindowSize,
		AutoMaybe:     opts.AutoMaybe,
		Match:         cfg.MatchConfig,
		Log:           log,
	})
	if err := batch.Run(ctx, queries, index, store.Persist); err != nil {
		return err
	}

	st := batch.Status()
	log.Info("batch complete",
		"db", opts.DBPath,
		"persisted", st.Persisted.Load(),
		"skipped", st.Skipped.Load())
	return nil
}

// resolveWorkers maps the "all CPUs" zero value to a concrete count so every
// consumer of the budget sees the same number.
func resolveWorkers(n int) int {
	if n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// checkRawCoverage verifies every query's source file was supplied.
func checkRawCoverage(queries []*peptide.Query, rawPaths []string) error {
	have := make(map[string]bool, len(rawPaths))
	for _, p := range rawPaths {
		have[filepath.Base(p)] = true
	}
	missing := make(map[string]bool)
	for _, q := range queries {
		if !have[q.Basename()] {
			missing[q.Basename()] = true
		}
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		return fmt.Errorf("raw files not supplied: %v", names)
	}
	return nil
}

func newLogger(w io.Writer, verbosity int) *slog.Logger {
	var level slog.Level
	switch {
	case verbosity > 0:
		level = slog.LevelDebug
	case verbosity == 0:
		level = slog.LevelInfo
	case verbosity == -1:
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
