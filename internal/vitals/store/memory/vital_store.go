package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
)

// VitalStore is an in-memory append-only vitals table.  It is intended for
// use in tests and dev environments.
type VitalStore struct {
	mu      sync.Mutex
	nextID  int64
	records []store.VitalRecord
	queries int
	err     error
}

func NewVitalStore() *VitalStore {
	return &VitalStore{nextID: 1}
}

func (s *VitalStore) Insert(_ context.Context, rec store.VitalRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return 0, s.err
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	rec.RecordedAt = rec.RecordedAt.UTC().Truncate(time.Millisecond)
	rec.BloodPressure = strings.TrimSpace(rec.BloodPressure)
	rec.ID = s.nextID
	s.nextID++
	s.records = append(s.records, rec)
	return rec.ID, nil
}

func (s *VitalStore) Query(_ context.Context, f store.Filter) ([]store.VitalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++
	if s.err != nil {
		return nil, s.err
	}

	out := []store.VitalRecord{}
	for _, rec := range s.records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *VitalStore) Count(ctx context.Context, f store.Filter) (int, error) {
	f.Limit = 0
	recs, err := s.Query(ctx, f)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Queries returns how many Query/Count calls reached the store.  Test-only
// helper.
func (s *VitalStore) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

// FailWith makes every later call return err (nil clears it).  Test-only
// helper.
func (s *VitalStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
