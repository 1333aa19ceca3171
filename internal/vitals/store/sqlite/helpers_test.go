package sqlite_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/vitals/server/internal/db"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
	sqlitestore "github.com/BrandonDHaskell/vitals/server/internal/vitals/store/sqlite"
)

// openTestDB returns a migrated in-memory database unique to the test.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := "test_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.OpenDSN(context.Background(), db.MemoryDSN(name))
	require.NoError(t, err, "openTestDB")

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestStore wires a VitalStore over a fresh database and write worker.
func newTestStore(t *testing.T) (*sqlitestore.VitalStore, *sql.DB) {
	t.Helper()

	conn := openTestDB(t)
	w := db.NewWorker(conn)
	t.Cleanup(w.Close)
	return sqlitestore.NewVitalStore(conn, w), conn
}

func intp(v int) *int { return &v }

func vital(patientID int, name string, at time.Time) store.VitalRecord {
	return store.VitalRecord{
		PatientID:     patientID,
		PatientName:   name,
		BloodPressure: "120/80",
		Pulse:         72,
		SpO2:          98,
		Temperature:   36.6,
		Glucose:       5.2,
		RecordedAt:    at,
	}
}

func mustInsert(t *testing.T, s *sqlitestore.VitalStore, rec store.VitalRecord) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), rec)
	require.NoError(t, err)
	return id
}

func newStoreWith(conn *sql.DB, w *db.Worker) *sqlitestore.VitalStore {
	return sqlitestore.NewVitalStore(conn, w)
}
