package store

import (
	"context"
	"time"
)

// VitalRecord is one measurement event as persisted in the vitals table.
// Records are append-only: nothing in this package updates or deletes them.
type VitalRecord struct {
	ID            int64
	PatientID     int
	PatientName   string // copied from the directory at write time
	BloodPressure string
	Pulse         int
	SpO2          int
	Temperature   float64
	Glucose       float64
	RecordedAt    time.Time // UTC
}

// Filter selects records for the reader.  Nil fields do not constrain.
//
// Month matches month-of-year regardless of year unless Year is also set.
type Filter struct {
	Month     *int
	Year      *int
	PatientID *int
	Limit     int // 0 = no limit
}

// Matches reports whether rec satisfies f (ignoring Limit).  Used by the
// memory store and by tests as the reference predicate.
func (f Filter) Matches(rec VitalRecord) bool {
	if f.Month != nil && int(rec.RecordedAt.UTC().Month()) != *f.Month {
		return false
	}
	if f.Year != nil && rec.RecordedAt.UTC().Year() != *f.Year {
		return false
	}
	if f.PatientID != nil && rec.PatientID != *f.PatientID {
		return false
	}
	return true
}

// VitalStore persists vital records.
type VitalStore interface {
	// Insert appends rec and returns the assigned id.  A zero RecordedAt is
	// replaced with the current time.
	Insert(ctx context.Context, rec VitalRecord) (int64, error)

	// Query returns matching records ordered by RecordedAt descending, id
	// descending on ties.
	Query(ctx context.Context, f Filter) ([]VitalRecord, error)

	// Count returns the number of matching records (Limit ignored).
	Count(ctx context.Context, f Filter) (int, error)
}
