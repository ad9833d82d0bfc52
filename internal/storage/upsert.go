// internal/storage/upsert.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// kv is one column/value pair, ordered so generated SQL is deterministic.
type kv struct {
	col string
	val any
}

// upsertRow returns the id of the row matching the unique columns, inserting
// it first if absent. With update set, non-unique columns of an existing row
// are refreshed. uniqueOn nil means every column participates in the lookup.
func upsertRow(tx *sqlx.Tx, table, idCol string, data []kv, uniqueOn []string, update bool) (int64, error) {
	if uniqueOn == nil {
		uniqueOn = make([]string, len(data))
		for i, d := range data {
			uniqueOn[i] = d.col
		}
	}
	byCol := make(map[string]any, len(data))
	for _, d := range data {
		byCol[d.col] = d.val
	}

	var (
		where []string
		args  []any
	)
	for _, col := range uniqueOn {
		if byCol[col] == nil {
			where = append(where, col+" IS NULL")
			continue
		}
		where = append(where, col+" = ?")
		args = append(args, byCol[col])
	}
	selectSQL := fmt.Sprintf("SELECT %s FROM %s WHERE %s", idCol, table, strings.Join(where, " AND "))

	var id int64
	err := tx.Get(&id, selectSQL, args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cols := make([]string, len(data))
		marks := make([]string, len(data))
		vals := make([]any, len(data))
		for i, d := range data {
			cols[i] = d.col
			marks[i] = "?"
			vals[i] = d.val
		}
		res, err := tx.Exec(fmt.Sprintf(
			"INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.Join(marks, ", "),
		), vals...)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", table, err)
		}
		return res.LastInsertId()
	case err != nil:
		return 0, fmt.Errorf("select %s: %w", table, err)
	}

	if update {
		var (
			sets    []string
			setVals []any
		)
		unique := make(map[string]bool, len(uniqueOn))
		for _, col := range uniqueOn {
			unique[col] = true
		}
		for _, d := range data {
			if unique[d.col] {
				continue
			}
			sets = append(sets, d.col+" = ?")
			setVals = append(setVals, d.val)
		}
		if len(sets) > 0 {
			updateSQL := fmt.Sprintf(
				"UPDATE %s SET %s WHERE %s",
				table, strings.Join(sets, ", "), strings.Join(where, " AND "),
			)
			if _, err := tx.Exec(updateSQL, append(setVals, args...)...); err != nil {
				return 0, fmt.Errorf("update %s: %w", table, err)
			}
		}
	}
	return id, nil
}
