// internal/search/reader.go
// Package search reads peptide identifications exported from a search engine
// as tab-separated text.
package search

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"camv-core/peptide"
)

// Columns of the search export, in order.
var columns = []string{
	"query_id", "file", "scan", "quant_scan", "charge", "exp_mz", "score",
	"accessions", "descriptions", "sequence", "var_mods", "fixed_mods",
	"rank1_sites",
}

// Results holds the parsed identifications plus the modification specs
// declared across the whole search.
type Results struct {
	FixedMods []peptide.ModSpec
	VarMods   []peptide.ModSpec
	Queries   []*peptide.Query
}

// Filter restricts which queries are kept for validation.
type Filter struct {
	MinScore float64     // 0 keeps everything
	Scans    map[int]bool // nil keeps every scan
}

// Apply returns the queries passing the filter.
func (r *Results) Apply(f Filter) []*peptide.Query {
	var out []*peptide.Query
	for _, q := range r.Queries {
		if f.MinScore > 0 && q.Score < f.MinScore {
			continue
		}
		if f.Scans != nil && !f.Scans[q.Scan] {
			continue
		}
		out = append(out, q)
	}
	return out
}

// ReadTSV parses a search export file.
func ReadTSV(path string) (*Results, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	res := &Results{}
	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	ln := 0
	sawHeader := false
	for sc.Scan() {
		ln++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Split(line, "\t")
		if !sawHeader {
			if err := checkHeader(f); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, ln, err)
			}
			sawHeader = true
			continue
		}
		q, err := parseRow(f)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, ln, err)
		}
		res.Queries = append(res.Queries, q)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawHeader {
		return nil, fmt.Errorf("%s: missing header line", path)
	}

	res.VarMods = unionSpecs(res.Queries, func(q *peptide.Query) []peptide.ModSpec { return q.VarMods })
	res.FixedMods = unionSpecs(res.Queries, func(q *peptide.Query) []peptide.ModSpec { return q.FixedMods })
	return res, nil
}

func checkHeader(f []string) error {
	if len(f) != len(columns) {
		return fmt.Errorf("expected %d columns, got %d", len(columns), len(f))
	}
	for i, want := range columns {
		if strings.TrimSpace(f[i]) != want {
			return fmt.Errorf("column %d is %q, want %q", i+1, f[i], want)
		}
	}
	return nil
}

func parseRow(f []string) (*peptide.Query, error) {
	if len(f) != len(columns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(columns), len(f))
	}
	var (
		q   peptide.Query
		err error
	)
	if q.QueryID, err = strconv.Atoi(f[0]); err != nil {
		return nil, fmt.Errorf("query_id: %w", err)
	}
	q.Filename = f[1]
	if q.Scan, err = strconv.Atoi(f[2]); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if f[3] == "" || f[3] == "-" {
		q.QuantScan = q.Scan
	} else if q.QuantScan, err = strconv.Atoi(f[3]); err != nil {
		return nil, fmt.Errorf("quant_scan: %w", err)
	}
	if q.Charge, err = strconv.Atoi(f[4]); err != nil {
		return nil, fmt.Errorf("charge: %w", err)
	}
	if q.PrecursorMZ, err = strconv.ParseFloat(f[5], 64); err != nil {
		return nil, fmt.Errorf("exp_mz: %w", err)
	}
	if q.Score, err = strconv.ParseFloat(f[6], 64); err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	q.Accessions = splitList(f[7])
	q.Descriptions = splitList(f[8])
	q.Sequence = strings.ToUpper(strings.TrimSpace(f[9]))
	if q.Sequence == "" {
		return nil, fmt.Errorf("empty sequence")
	}
	if q.VarMods, err = ParseModSpecs(f[10]); err != nil {
		return nil, fmt.Errorf("var_mods: %w", err)
	}
	if q.FixedMods, err = ParseModSpecs(f[11]); err != nil {
		return nil, fmt.Errorf("fixed_mods: %w", err)
	}
	if q.FirstRankSites, err = parseSites(f[12]); err != nil {
		return nil, fmt.Errorf("rank1_sites: %w", err)
	}
	return &q, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var reModSpec = regexp.MustCompile(`^(\d+)\s*x\s*(\S+)\s*\(([^)]+)\)$`)

// ParseModSpecs parses "2 x Phospho (STY); 1 x TMT6plex (N-term,K)".
// "-" or an empty field means no modifications.
func ParseModSpecs(s string) ([]peptide.ModSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil, nil
	}
	var out []peptide.ModSpec
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := reModSpec.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("bad modification spec %q", part)
		}
		count, _ := strconv.Atoi(m[1])
		spec := peptide.ModSpec{Count: count, Name: m[2], Letters: parseLetters(m[3])}
		out = append(out, spec)
	}
	return out, nil
}

func parseLetters(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		switch tok {
		case "":
		case peptide.NTerm, peptide.CTerm:
			out = append(out, tok)
		default:
			for _, c := range tok {
				out = append(out, string(c))
			}
		}
	}
	return out
}

// parseSites parses "4:Phospho;0:TMT6plex"; "-" means no rank-1 assignment.
func parseSites(s string) ([]peptide.SiteMod, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil, nil
	}
	var out []peptide.SiteMod
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pos, mod, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("bad site %q", part)
		}
		p, err := strconv.Atoi(pos)
		if err != nil {
			return nil, fmt.Errorf("bad site %q: %w", part, err)
		}
		out = append(out, peptide.SiteMod{Pos: p, Mod: mod})
	}
	return out, nil
}

// unionSpecs collects the distinct mod specs over all queries, sorted for
// stable reporting.
func unionSpecs(queries []*peptide.Query, pick func(*peptide.Query) []peptide.ModSpec) []peptide.ModSpec {
	seen := make(map[string]peptide.ModSpec)
	for _, q := range queries {
		for _, spec := range pick(q) {
			seen[spec.String()] = spec
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]peptide.ModSpec, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}
