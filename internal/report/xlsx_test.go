package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/BrandonDHaskell/vitals/server/internal/report"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
)

func TestWriteXLSX_HeaderAndRows(t *testing.T) {
	recs := []store.VitalRecord{
		{ID: 2, PatientID: 102, PatientName: "Jane Smith", BloodPressure: "110/70", Pulse: 66, SpO2: 99,
			Temperature: 36.5, Glucose: 4.8, RecordedAt: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)},
		{ID: 1, PatientID: 101, PatientName: "John Doe", BloodPressure: "120/80", Pulse: 72, SpO2: 98,
			Temperature: 36.6, Glucose: 5.2, RecordedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
	}

	data, err := report.WriteXLSX(recs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SheetName}, f.GetSheetList())

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, report.Headers, rows[0])
	assert.Equal(t, []string{"2", "102", "Jane Smith", "110/70", "66", "99", "36.5", "4.8", "2025-03-02 10:00:00"}, rows[1])
	assert.Equal(t, "John Doe", rows[2][2])
}

func TestWriteXLSX_EmptyHasHeaderOnly(t *testing.T) {
	data, err := report.WriteXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
