package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

type SeedDevOptions struct {
	// Patients whose demo readings are generated, id -> name.
	Patients map[int]string
	// Days of history per patient, one reading a day.  Defaults to 30.
	Days int
	// Now anchors the newest reading.  Defaults to the current time.
	Now time.Time
}

// SeedDev fills an empty vitals table with deterministic demo readings and
// returns how many rows it wrote.  A table that already holds data is left
// alone.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) (int, error) {
	if opt.Days <= 0 {
		opt.Days = 30
	}
	if opt.Now.IsZero() {
		opt.Now = time.Now()
	}
	now := opt.Now.UTC().Truncate(time.Minute)

	var existing int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vitals;").Scan(&existing); err != nil {
		return 0, fmt.Errorf("count vitals: %w", err)
	}
	if existing > 0 || len(opt.Patients) == 0 {
		return 0, nil
	}

	ids := make([]int, 0, len(opt.Patients))
	for id := range opt.Patients {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO vitals(
  patient_id, patient_name, bp, pulse, spo2,
  temperature, glucose, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return 0, fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for i, id := range ids {
		for d := 0; d < opt.Days; d++ {
			k := i*7 + d*3
			at := now.AddDate(0, 0, -d).Add(-time.Duration(i) * time.Minute)
			if _, err := stmt.ExecContext(ctx,
				id,
				opt.Patients[id],
				fmt.Sprintf("%d/%d", 110+k%30, 70+k%15),
				60+k%40,
				94+k%6,
				36.1+float64(k%12)/10,
				4.5+float64(k%30)/10,
				at.Format("2006-01-02 15:04:05.000"),
			); err != nil {
				return 0, fmt.Errorf("seed patient %d: %w", id, err)
			}
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return n, nil
}
