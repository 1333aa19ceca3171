package db_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/vitals/server/internal/db"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	name := "db_" + strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := db.OpenDSN(context.Background(), db.MemoryDSN(name))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func countVitals(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM vitals;").Scan(&n))
	return n
}

func TestOpen_CreatesFileAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vitals.db")

	conn, err := db.Open(context.Background(), db.Config{Path: path})
	require.NoError(t, err)
	defer conn.Close()

	assert.FileExists(t, path)
	assert.Equal(t, 0, countVitals(t, conn))

	versions, err := db.Applied(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitals.db")
	ctx := context.Background()

	conn, err := db.Open(ctx, db.Config{Path: path})
	require.NoError(t, err)
	_, err = db.SeedDev(ctx, conn, db.SeedDevOptions{Patients: map[int]string{101: "A"}, Days: 2})
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	conn, err = db.Open(ctx, db.Config{Path: path})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 2, countVitals(t, conn))
}

func TestWorker_CommitsAndRollsBack(t *testing.T) {
	conn := openMemory(t)
	w := db.NewWorker(conn)
	defer w.Close()
	ctx := context.Background()

	insert := func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO vitals(patient_id, patient_name, bp, pulse, spo2, temperature, glucose)
VALUES (101, 'A', '120/80', 70, 98, 36.6, 5.0);`)
		return err
	}

	require.NoError(t, w.Do(ctx, insert))
	assert.Equal(t, 1, countVitals(t, conn))

	boom := errors.New("boom")
	err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := insert(ctx, tx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, countVitals(t, conn))
}

func TestWorker_ClosedRejects(t *testing.T) {
	conn := openMemory(t)
	w := db.NewWorker(conn)
	w.Close()
	w.Close()

	err := w.Do(context.Background(), func(context.Context, *sql.Tx) error { return nil })
	assert.ErrorIs(t, err, db.ErrWorkerClosed)
}

func TestSeedDev_FillsEmptyTableOnce(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()
	opts := db.SeedDevOptions{
		Patients: map[int]string{101: "A", 102: "B"},
		Days:     5,
		Now:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	n, err := db.SeedDev(ctx, conn, opts)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 10, countVitals(t, conn))

	n, err = db.SeedDev(ctx, conn, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 10, countVitals(t, conn))

	var name string
	var pulse int
	require.NoError(t, conn.QueryRow(
		"SELECT patient_name, pulse FROM vitals WHERE patient_id = 102 ORDER BY recorded_at DESC LIMIT 1;",
	).Scan(&name, &pulse))
	assert.Equal(t, "B", name)
	assert.GreaterOrEqual(t, pulse, 30)
	assert.LessOrEqual(t, pulse, 200)
}

func TestSeedDev_NoPatientsIsNoop(t *testing.T) {
	conn := openMemory(t)

	n, err := db.SeedDev(context.Background(), conn, db.SeedDevOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
