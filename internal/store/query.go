package store

import (
	"database/sql"
	"strings"
)

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// contains adds a case-insensitive substring match on col. An empty needle
// matches everything.
func (w *where) contains(col, needle string) {
	if needle == "" {
		return
	}
	w.add("instr(lower("+col+"), lower(?)) > 0", needle)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// queryColumn runs a single-column query and scans every row with scan.
func queryColumn[T any](db *sql.DB, op, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return out, nil
}

func scanString[T ~string](rows *sql.Rows) (T, error) {
	var s string
	err := rows.Scan(&s)
	return T(s), err
}

func scanInt[T ~int32 | ~int64](rows *sql.Rows) (T, error) {
	var n int64
	err := rows.Scan(&n)
	return T(n), err
}
