// internal/storage/schema.go
// Package storage persists validation results to a SQLite database shaped
// for the CAMV review frontend. Persist is only ever called from the
// pipeline's single consumer goroutine.
package storage

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"camv/internal/version"
)

const schema = `
PRAGMA foreign_keys = ON;
PRAGMA journal_mode = OFF;
PRAGMA synchronous = OFF;
PRAGMA temp_store = MEMORY;

-- Individual protein names (i.e. Src)
CREATE TABLE IF NOT EXISTS proteins
(
    protein_id              integer primary key autoincrement not null,
    protein_name            text,
    protein_accession       text,
    UNIQUE(protein_accession)
);

-- Pre-processed set of protein names (i.e. Cdk1 / Cdk2 / Cdk3)
CREATE TABLE IF NOT EXISTS protein_sets
(
    protein_set_id          integer primary key autoincrement not null,
    protein_set_name        text,
    protein_set_accession   text,
    UNIQUE(protein_set_accession)
);

-- Individual peptide sequences (i.e. IVLEYK)
CREATE TABLE IF NOT EXISTS peptides
(
    peptide_id              integer primary key autoincrement not null,
    protein_set_id          integer not null,
    peptide_seq             text,
    FOREIGN KEY(protein_set_id) REFERENCES protein_sets(protein_set_id),
    UNIQUE(peptide_seq, protein_set_id)
);

-- Mapping between proteins and peptides
CREATE TABLE IF NOT EXISTS protein_peptide
(
    prot_pep_id             integer primary key autoincrement not null,
    peptide_id              integer not null,
    protein_id              integer not null,
    FOREIGN KEY(peptide_id) REFERENCES peptides(peptide_id),
    FOREIGN KEY(protein_id) REFERENCES proteins(protein_id),
    UNIQUE(peptide_id, protein_id)
);

-- Peptides with unmapped modifications (i.e. +1 pY)
CREATE TABLE IF NOT EXISTS mod_states
(
    mod_state_id            integer primary key autoincrement not null,
    peptide_id              integer not null,
    mod_desc                text,
    num_comb                integer,
    FOREIGN KEY(peptide_id) REFERENCES peptides(peptide_id),
    UNIQUE(peptide_id, mod_desc)
);

-- Peptides with modifications exactly positioned (i.e. pY114)
CREATE TABLE IF NOT EXISTS ptms
(
    ptm_id                  integer primary key autoincrement not null,
    mod_state_id            integer not null,
    name                    text,
    full_name               text,
    FOREIGN KEY(mod_state_id) REFERENCES mod_states(mod_state_id),
    UNIQUE(mod_state_id, full_name)
);

-- Raw files sourced for each scan
CREATE TABLE IF NOT EXISTS files
(
    file_id                 integer primary key autoincrement not null,
    filename                text,
    UNIQUE(filename)
);

-- Set of peaks that are used for quantification
CREATE TABLE IF NOT EXISTS quant_mz
(
    quant_mz_id             integer primary key autoincrement not null,
    label_name              text,
    UNIQUE(label_name)
);

-- Individual peak / m/z names used for quantification
CREATE TABLE IF NOT EXISTS quant_mz_peaks
(
    quant_mz_peak_id        integer primary key autoincrement not null,
    quant_mz_id             integer not null,
    mz                      real not null,
    peak_name               text not null,
    FOREIGN KEY(quant_mz_id) REFERENCES quant_mz(quant_mz_id),
    UNIQUE(quant_mz_id, mz, peak_name)
);

CREATE TABLE IF NOT EXISTS scans
(
    scan_id                 integer primary key autoincrement not null,
    scan_num                integer not null,
    charge                  integer not null,
    pep_exp_mz              real not null,
    collision_type          text not null,
    precursor_mz            real not null,
    isolation_window_lower  real,
    isolation_window_upper  real,
    quant_mz_id             integer,
    c13_num                 integer,
    file_id                 integer,
    truncated               integer,
    FOREIGN KEY(quant_mz_id) REFERENCES quant_mz(quant_mz_id),
    FOREIGN KEY(file_id) REFERENCES files(file_id),
    UNIQUE(scan_num, file_id)
);

CREATE TABLE IF NOT EXISTS scan_ptms
(
    scan_ptm_id             integer primary key autoincrement not null,
    scan_id                 integer not null,
    ptm_id                  integer not null,
    choice                  text,
    search_score            real,
    FOREIGN KEY(scan_id) REFERENCES scans(scan_id),
    FOREIGN KEY(ptm_id) REFERENCES ptms(ptm_id),
    UNIQUE(scan_id, ptm_id)
);

-- Blobs of scan data, for full ms2, quantification window, and precursor data
CREATE TABLE IF NOT EXISTS scan_data
(
    data_id                 integer primary key autoincrement not null,
    scan_id                 integer not null,
    data_type               text,
    data_blob               blob,
    FOREIGN KEY(scan_id) REFERENCES scans(scan_id),
    UNIQUE(scan_id, data_type)
);

CREATE TABLE IF NOT EXISTS fragments
(
    fragment_id             integer primary key autoincrement not null,
    peak_id                 integer not null,
    scan_ptm_id             integer not null,
    name                    text not null,
    display_name            text not null,
    mz                      real not null,
    intensity               real not null,
    best                    integer,
    ion_type                text,
    ion_pos                 integer,
    FOREIGN KEY(scan_ptm_id) REFERENCES scan_ptms(scan_ptm_id),
    UNIQUE(peak_id, scan_ptm_id, name)
);
CREATE INDEX IF NOT EXISTS fragments_scan_ptm_idx ON fragments(scan_ptm_id);
CREATE INDEX IF NOT EXISTS fragments_peak_idx ON fragments(peak_id, scan_ptm_id);

CREATE TABLE IF NOT EXISTS camv_meta
(
    key                     text not null,
    val                     text,
    UNIQUE(key, val)
);
`

// Options tune how a batch is written.
type Options struct {
	// Reprocess updates existing scan rows instead of preserving them and
	// marks the batch as exhaustive (no placement cap applied).
	Reprocess bool
	// ScreeningCap is the placement cap used by the run; scans whose
	// peptides exceed it are flagged truncated.
	ScreeningCap int
}

// Store is a single-writer handle on the output database.
type Store struct {
	db  *sqlx.DB
	opt Options
}

// Open creates or opens the database at path and installs the schema.
func Open(path string, opt Options) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &Store{db: db, opt: opt}
	if err := s.writeVersions(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// writeVersions records the tool and data versions, once per database.
func (s *Store) writeVersions() error {
	for key, val := range map[string]string{
		"camvVersion":     version.Version,
		"camvDataVersion": version.DataVersion,
	} {
		_, err := s.db.Exec(`
			INSERT INTO camv_meta (key, val)
			SELECT ?, ?
			WHERE NOT EXISTS (SELECT 1 FROM camv_meta WHERE key = ?)`,
			key, val, key)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores per-batch provenance: a fresh batch id plus the input
// paths the batch was built from.
func (s *Store) RecordRun(searchPath string, rawPaths []string) error {
	rows := [][2]string{
		{"batch_id", uuid.NewString()},
		{"search_path", searchPath},
		{"reprocess", strconv.FormatBool(s.opt.Reprocess)},
	}
	for _, raw := range rawPaths {
		rows = append(rows, [2]string{"raw_path", raw})
	}
	for _, kv := range rows {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO camv_meta (key, val) VALUES (?, ?)`,
			kv[0], kv[1],
		); err != nil {
			return err
		}
	}
	return nil
}
