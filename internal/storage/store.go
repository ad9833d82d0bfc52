// internal/storage/store.go
package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"camv-core/masses"
	"camv-core/peptide"
	"camv-core/spectrum"

	"camv/internal/pipeline"
)

// Persist writes one validated placement and commits it, so a failed batch
// keeps everything written before the failure.
func (s *Store) Persist(res *pipeline.Result) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	q := res.Query

	protIDs, err := s.insertProteins(tx, q)
	if err != nil {
		return err
	}
	protSetID, err := s.insertProteinSet(tx, q)
	if err != nil {
		return err
	}
	pepID, err := s.insertPeptide(tx, q, protSetID)
	if err != nil {
		return err
	}
	for _, protID := range protIDs {
		if _, err := upsertRow(tx, "protein_peptide", "prot_pep_id", []kv{
			{"peptide_id", pepID},
			{"protein_id", protID},
		}, nil, false); err != nil {
			return err
		}
	}

	quantMZID, err := s.insertQuantMZ(tx, q)
	if err != nil {
		return err
	}
	fileID, err := upsertRow(tx, "files", "file_id", []kv{
		{"filename", q.Basename()},
	}, nil, false)
	if err != nil {
		return err
	}
	scanID, err := s.insertScan(tx, res, quantMZID, fileID)
	if err != nil {
		return err
	}

	modStateID, err := s.insertModState(tx, q, pepID)
	if err != nil {
		return err
	}
	ptmID, err := s.insertPTM(tx, res, modStateID)
	if err != nil {
		return err
	}
	scanPTMID, err := upsertRow(tx, "scan_ptms", "scan_ptm_id", []kv{
		{"scan_id", scanID},
		{"ptm_id", ptmID},
		{"choice", nullable(res.Choice)},
		{"search_score", q.Score},
	}, []string{"scan_id", "ptm_id"}, false)
	if err != nil {
		return err
	}

	if err := s.insertScanData(tx, scanID, res); err != nil {
		return err
	}
	if err := s.insertFragments(tx, scanPTMID, res.Peaks); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) insertProteins(tx *sqlx.Tx, q *peptide.Query) ([]int64, error) {
	ids := make([]int64, 0, len(q.Accessions))
	for i, acc := range q.Accessions {
		desc := ""
		if i < len(q.Descriptions) {
			desc = q.Descriptions[i]
		}
		id, err := upsertRow(tx, "proteins", "protein_id", []kv{
			{"protein_name", desc},
			{"protein_accession", acc},
		}, []string{"protein_accession"}, true)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) insertProteinSet(tx *sqlx.Tx, q *peptide.Query) (int64, error) {
	type pair struct{ acc, desc string }
	pairs := make([]pair, len(q.Accessions))
	for i, acc := range q.Accessions {
		pairs[i].acc = acc
		if i < len(q.Descriptions) {
			pairs[i].desc = q.Descriptions[i]
		}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].acc < pairs[b].acc })

	accs := make([]string, len(pairs))
	descs := make([]string, len(pairs))
	for i, p := range pairs {
		accs[i] = p.acc
		descs[i] = p.desc
	}
	return upsertRow(tx, "protein_sets", "protein_set_id", []kv{
		{"protein_set_name", strings.Join(descs, " / ")},
		{"protein_set_accession", strings.Join(accs, " / ")},
	}, []string{"protein_set_accession"}, true)
}

func (s *Store) insertPeptide(tx *sqlx.Tx, q *peptide.Query, protSetID int64) (int64, error) {
	return upsertRow(tx, "peptides", "peptide_id", []kv{
		{"peptide_seq", q.Sequence},
		{"protein_set_id", protSetID},
	}, nil, false)
}

// insertQuantMZ records the reporter channels covering the query's labels.
// Returns nil when the peptide is unlabeled.
func (s *Store) insertQuantMZ(tx *sqlx.Tx, q *peptide.Query) (any, error) {
	labels := q.LabelMods(masses.IsLabel)
	if len(labels) == 0 {
		return nil, nil
	}
	set := make(map[string]bool, len(labels))
	var uniq []string
	for _, l := range labels {
		if !set[l] {
			set[l] = true
			uniq = append(uniq, l)
		}
	}
	sort.Strings(uniq)

	id, err := upsertRow(tx, "quant_mz", "quant_mz_id", []kv{
		{"label_name", strings.Join(uniq, ";")},
	}, nil, false)
	if err != nil {
		return nil, err
	}
	for _, label := range uniq {
		window := masses.LabelMZWindow[label]
		for i, mz := range masses.LabelMasses[label] {
			if mz < window[0] || mz > window[1] {
				continue
			}
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO quant_mz_peaks (quant_mz_id, mz, peak_name)
				VALUES (?, ?, ?)`,
				id, mz, masses.LabelNames[label][i],
			); err != nil {
				return nil, err
			}
		}
	}
	return id, nil
}

func (s *Store) insertScan(tx *sqlx.Tx, res *pipeline.Result, quantMZID any, fileID int64) (int64, error) {
	q, sq := res.Query, res.ScanQuery
	truncated := 0
	if !s.opt.Reprocess && s.opt.ScreeningCap > 0 && q.NumCombinations() > s.opt.ScreeningCap {
		truncated = 1
	}
	return upsertRow(tx, "scans", "scan_id", []kv{
		{"scan_num", q.Scan},
		{"charge", q.Charge},
		{"pep_exp_mz", q.PrecursorMZ},
		{"collision_type", sq.Collision},
		{"precursor_mz", sq.IsolationMZ},
		{"isolation_window_lower", sq.WindowOffset[0]},
		{"isolation_window_upper", sq.WindowOffset[1]},
		{"c13_num", sq.C13Num},
		{"quant_mz_id", quantMZID},
		{"file_id", fileID},
		{"truncated", truncated},
	}, []string{"scan_num", "file_id"}, s.opt.Reprocess)
}

func (s *Store) insertModState(tx *sqlx.Tx, q *peptide.Query, pepID int64) (int64, error) {
	return upsertRow(tx, "mod_states", "mod_state_id", []kv{
		{"peptide_id", pepID},
		{"mod_desc", modDescription(q.VarMods)},
		{"num_comb", q.NumCombinations()},
	}, []string{"peptide_id", "mod_desc"}, false)
}

func (s *Store) insertPTM(tx *sqlx.Tx, res *pipeline.Result, modStateID int64) (int64, error) {
	return upsertRow(tx, "ptms", "ptm_id", []kv{
		{"mod_state_id", modStateID},
		{"name", res.Sequence.Display(nil)},
		{"full_name", ptmFullName(res.Sequence)},
	}, []string{"mod_state_id", "full_name"}, false)
}

func (s *Store) insertScanData(tx *sqlx.Tx, scanID int64, res *pipeline.Result) error {
	ms2 := make([]spectrum.Peak, len(res.Peaks))
	for i, h := range res.Peaks {
		ms2[i] = spectrum.Peak{MZ: h.MZ, Intensity: h.Intensity}
	}
	for _, blob := range []struct {
		kind  string
		peaks []spectrum.Peak
	}{
		{"ms2", ms2},
		{"precursor", res.PrecursorWindow},
		{"quant", res.LabelWindow},
	} {
		if _, err := upsertRow(tx, "scan_data", "data_id", []kv{
			{"scan_id", scanID},
			{"data_type", blob.kind},
			{"data_blob", peaksToBlob(blob.peaks)},
		}, []string{"scan_id", "data_type"}, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertFragments(tx *sqlx.Tx, scanPTMID int64, peaks []spectrum.PeakHit) error {
	stmt, err := tx.Preparex(`
		INSERT OR IGNORE INTO fragments
		(scan_ptm_id, peak_id, name, display_name, mz, intensity, best, ion_type, ion_pos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for peakIdx, hit := range peaks {
		for _, cand := range hit.Candidates {
			ionType, ionPos := ionTypePos(cand.Name)
			if _, err := stmt.Exec(
				scanPTMID, peakIdx,
				cand.Name, displayName(cand.Name),
				cand.MZ, hit.Intensity,
				boolInt(cand.Name == hit.Name),
				nullable(ionType), ionPos,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// peaksToBlob serializes peaks as "mz,intensity;..." text, the format the
// review frontend reads.
func peaksToBlob(peaks []spectrum.Peak) []byte {
	var b strings.Builder
	for i, p := range peaks {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%g,%g", p.MZ, p.Intensity)
	}
	return []byte(b.String())
}

// modDescription renders variable mods like "+ 1 pSTY - 1 oM".
func modDescription(specs []peptide.ModSpec) string {
	if len(specs) == 0 {
		return ""
	}
	parts := make([]string, len(specs))
	for i, spec := range specs {
		initial := strings.ToLower(spec.Name[:1])
		parts[i] = fmt.Sprintf("%d %s%s", spec.Count, initial, strings.Join(spec.Letters, ""))
	}
	return "+ " + strings.Join(parts, " - ")
}

// ptmFullName renders a placement like "N-term-I-E-F-T (Phospho)-T-E-R-C-term".
func ptmFullName(seq peptide.Sequence) string {
	parts := make([]string, len(seq))
	for i, r := range seq {
		parts[i] = r.Letter
		if len(r.Mods) > 0 {
			parts[i] += fmt.Sprintf(" (%s)", strings.Join(r.Mods, ","))
		}
	}
	return strings.Join(parts, "-")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullable maps "" to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
