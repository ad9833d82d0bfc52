// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"camv/internal/version"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Inputs
	SearchPath string
	RawPaths   []string
	Scans      []int
	MinScore   float64

	// Outputs
	DBPath string

	// Run control
	ConfigPath string
	Threads    int
	TmpDir     string
	Reprocess  bool
	AutoMaybe  bool // true unless --no-auto-maybe

	Verbosity int // -v raises, -q lowers
	Version   bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: peptide identification validation

Converts search-engine identifications plus raw spectra into a reviewable
database of candidate modification placements.

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	// Inputs
	fs.StringVar(&opt.SearchPath, "search", "", "search result TSV file [*]")
	var raws stringSlice
	fs.Var(&raws, "raw", "raw or mzML spectrum file (repeatable) [*]")
	var scans intSlice
	fs.Var(&scans, "scans", "scan numbers to validate, comma separated (repeatable)")
	fs.Float64Var(&opt.MinScore, "score", 0, "minimum search score to validate [0]")

	// Outputs
	fs.StringVar(&opt.DBPath, "db", "", "output database path [<search>.camv.db]")

	// Run control
	fs.StringVar(&opt.ConfigPath, "config", "", "YAML configuration file")
	fs.IntVar(&opt.Threads, "threads", 0, "number of worker threads (0 = all CPUs) [0]")
	fs.StringVar(&opt.TmpDir, "tmp-dir", "", "scratch directory for converted spectra [system temp]")
	fs.BoolVar(&opt.Reprocess, "reprocess", false, "revalidate without capping placement combinations [false]")
	noAutoMaybe := false
	fs.BoolVar(&noAutoMaybe, "no-auto-maybe", false, "don't pre-assign rank-1 placements as 'maybe' [false]")

	verbose := countFlag(0)
	quiet := countFlag(0)
	fs.Var(&verbose, "v", "increase log verbosity (repeatable)")
	fs.Var(&quiet, "q", "decrease log verbosity (repeatable)")

	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	opt.RawPaths = raws
	opt.Scans = scans
	opt.AutoMaybe = !noAutoMaybe
	opt.Verbosity = int(verbose) - int(quiet)

	// Validation
	if opt.SearchPath == "" {
		return opt, errors.New("--search is required")
	}
	if len(opt.RawPaths) == 0 {
		return opt, errors.New("at least one --raw file is required")
	}
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be >= 0")
	}
	if opt.MinScore < 0 {
		return opt, errors.New("--score must be >= 0")
	}
	if opt.DBPath == "" {
		stem := strings.TrimSuffix(opt.SearchPath, filepath.Ext(opt.SearchPath))
		opt.DBPath = stem + ".camv.db"
	}
	return opt, nil
}

// stringSlice allows repeatable string flags.
type stringSlice []string

func (s *stringSlice) String() string     { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error { *s = append(*s, v); return nil }

// intSlice allows repeatable, comma-separated integer flags.
type intSlice []int

func (s *intSlice) String() string {
	parts := make([]string, len(*s))
	for i, v := range *s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (s *intSlice) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("bad scan number %q", part)
		}
		*s = append(*s, n)
	}
	return nil
}

// countFlag counts flag repetitions (-v -v).
type countFlag int

func (c *countFlag) String() string { return strconv.Itoa(int(*c)) }
func (c *countFlag) IsBoolFlag() bool { return true }
func (c *countFlag) Set(v string) error {
	if v == "true" || v == "" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*c = countFlag(n)
	return nil
}
