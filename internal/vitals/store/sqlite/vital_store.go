package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/vitals/server/internal/db"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
)

// timeLayout is how recorded_at is stored: UTC text that SQLite's date
// functions understand and that sorts lexicographically.  It matches the
// column default strftime('%Y-%m-%d %H:%M:%f', 'now').
const timeLayout = "2006-01-02 15:04:05.000"

const insertSQL = `
INSERT INTO vitals(
  patient_id, patient_name, bp, pulse, spo2, temperature, glucose, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`

type VitalStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewVitalStore(db *sql.DB, writer *dbpkg.Worker) *VitalStore {
	return &VitalStore{db: db, writer: writer}
}

func (s *VitalStore) Insert(ctx context.Context, rec store.VitalRecord) (int64, error) {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	recordedAt := rec.RecordedAt.UTC().Format(timeLayout)

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertSQL,
			rec.PatientID, rec.PatientName, strings.TrimSpace(rec.BloodPressure),
			rec.Pulse, rec.SpO2, rec.Temperature, rec.Glucose, recordedAt,
		)
		if err != nil {
			return fmt.Errorf("Insert vital: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("Insert vital last id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Query reads on its own pooled connection, released on every return path.
func (s *VitalStore) Query(ctx context.Context, f store.Filter) ([]store.VitalRecord, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("Query acquire conn: %w", err)
	}
	defer conn.Close()

	q := buildSelect(f)
	rows, err := conn.QueryContext(ctx, q.sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("Query vitals: %w", err)
	}
	defer rows.Close()

	out := []store.VitalRecord{}
	for rows.Next() {
		rec, err := scanVital(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Query vitals rows: %w", err)
	}
	return out, nil
}

func (s *VitalStore) Count(ctx context.Context, f store.Filter) (int, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("Count acquire conn: %w", err)
	}
	defer conn.Close()

	q := buildCount(f)
	var n int
	if err := conn.QueryRowContext(ctx, q.sql, q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count vitals: %w", err)
	}
	return n, nil
}

func scanVital(rows *sql.Rows) (store.VitalRecord, error) {
	var (
		rec        store.VitalRecord
		recordedAt any
	)
	if err := rows.Scan(
		&rec.ID, &rec.PatientID, &rec.PatientName, &rec.BloodPressure,
		&rec.Pulse, &rec.SpO2, &rec.Temperature, &rec.Glucose, &recordedAt,
	); err != nil {
		return store.VitalRecord{}, fmt.Errorf("scan vital: %w", err)
	}

	t, err := parseRecordedAt(recordedAt)
	if err != nil {
		return store.VitalRecord{}, fmt.Errorf("scan vital %d: %w", rec.ID, err)
	}
	rec.RecordedAt = t
	return rec, nil
}

// parseRecordedAt accepts what the driver hands back for a TIMESTAMP column:
// a time.Time when it could parse the text itself, the raw text otherwise.
func parseRecordedAt(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseTimeText(x)
	case []byte:
		return parseTimeText(string(x))
	default:
		return time.Time{}, fmt.Errorf("unexpected recorded_at type %T", v)
	}
}

var textLayouts = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
}

func parseTimeText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable recorded_at %q", s)
}
