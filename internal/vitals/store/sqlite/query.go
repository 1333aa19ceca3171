package sqlite

import (
	"strings"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
)

const selectColumns = `id, patient_id, patient_name, bp, pulse, spo2, temperature, glucose, recorded_at`

// query is a SQL statement plus the values bound to its placeholders.
type query struct {
	sql  string
	args []any
}

// where renders f as a WHERE clause.  Filter values only ever appear in
// args; the SQL text depends solely on which fields are set.
func where(f store.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Month != nil {
		conds = append(conds, "CAST(strftime('%m', recorded_at) AS INTEGER) = ?")
		args = append(args, *f.Month)
	}
	if f.Year != nil {
		conds = append(conds, "CAST(strftime('%Y', recorded_at) AS INTEGER) = ?")
		args = append(args, *f.Year)
	}
	if f.PatientID != nil {
		conds = append(conds, "patient_id = ?")
		args = append(args, *f.PatientID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildSelect(f store.Filter) query {
	clause, args := where(f)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectColumns)
	b.WriteString(" FROM vitals")
	b.WriteString(clause)
	b.WriteString(" ORDER BY recorded_at DESC, id DESC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	b.WriteString(";")

	return query{sql: b.String(), args: args}
}

func buildCount(f store.Filter) query {
	clause, args := where(f)
	return query{sql: "SELECT COUNT(*) FROM vitals" + clause + ";", args: args}
}
