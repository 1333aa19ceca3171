package service

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/vitals/server/internal/report"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/auth"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/types"
)

// Accepted measurement ranges, inclusive.
const (
	MinPulse       = 30
	MaxPulse       = 200
	MinSpO2        = 50
	MaxSpO2        = 100
	MinTemperature = 30.0
	MaxTemperature = 45.0
	MinGlucose     = 2.0
	MaxGlucose     = 20.0

	MinYear = 1900
	MaxYear = 9999
)

// Options are the optional collaborators of a VitalService.
type Options struct {
	Now    func() time.Time
	Logger *zap.Logger
}

// VitalService is the writer and reader of vital records.  Every call takes
// the caller's Session and is checked by the Gate before touching the store.
type VitalService struct {
	store     store.VitalStore
	directory *PatientDirectory
	gate      *auth.Gate
	now       func() time.Time
	logger    *zap.Logger
}

func NewVitalService(st store.VitalStore, dir *PatientDirectory, gate *auth.Gate, opts Options) *VitalService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &VitalService{
		store:     st,
		directory: dir,
		gate:      gate,
		now:       opts.Now,
		logger:    opts.Logger,
	}
}

// Record validates req and appends one row.  The stored record, including
// its assigned id and timestamp, is returned.
func (s *VitalService) Record(ctx context.Context, sess auth.Session, req types.RecordVitalRequest) (store.VitalRecord, error) {
	if err := s.gate.Authorize(sess, auth.OpWriteVitals); err != nil {
		return store.VitalRecord{}, err
	}

	name, err := s.validateRecord(req)
	if err != nil {
		return store.VitalRecord{}, err
	}

	rec := store.VitalRecord{
		PatientID:     req.PatientID,
		PatientName:   name,
		BloodPressure: strings.TrimSpace(req.BloodPressure),
		Pulse:         req.Pulse,
		SpO2:          req.SpO2,
		Temperature:   req.Temperature,
		Glucose:       req.Glucose,
		RecordedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		s.logger.Error("insert vital failed", zap.Int("patient_id", rec.PatientID), zap.Error(err))
		return store.VitalRecord{}, vitals.Storage("insert vital", err)
	}
	rec.ID = id

	s.logger.Info("vital recorded",
		zap.Int64("id", id),
		zap.Int("patient_id", rec.PatientID),
		zap.String("by", sess.Username),
	)
	return rec, nil
}

// Fetch returns matching records, newest first.  An invalid filter is
// rejected before any query runs.
func (s *VitalService) Fetch(ctx context.Context, sess auth.Session, f store.Filter) ([]store.VitalRecord, error) {
	if err := s.gate.Authorize(sess, auth.OpReadVitals); err != nil {
		return nil, err
	}
	return s.query(ctx, f)
}

// Summarize computes per-measurement statistics over the Fetch result for f.
func (s *VitalService) Summarize(ctx context.Context, sess auth.Session, f store.Filter) (types.SummaryResponse, error) {
	if err := s.gate.Authorize(sess, auth.OpReadVitals); err != nil {
		return types.SummaryResponse{}, err
	}
	recs, err := s.query(ctx, f)
	if err != nil {
		return types.SummaryResponse{}, err
	}
	return Summarize(recs), nil
}

// Export renders the Fetch result for f as an XLSX workbook.
func (s *VitalService) Export(ctx context.Context, sess auth.Session, f store.Filter) ([]byte, error) {
	if err := s.gate.Authorize(sess, auth.OpExportVitals); err != nil {
		return nil, err
	}
	recs, err := s.query(ctx, f)
	if err != nil {
		return nil, err
	}
	return report.WriteXLSX(recs)
}

// Patients lists the directory for any logged-in role.
func (s *VitalService) Patients(_ context.Context, sess auth.Session) ([]types.Patient, error) {
	if err := s.gate.Authorize(sess, auth.OpListPatients); err != nil {
		return nil, err
	}
	return s.directory.List(), nil
}

func (s *VitalService) query(ctx context.Context, f store.Filter) ([]store.VitalRecord, error) {
	if err := s.validateFilter(f); err != nil {
		return nil, err
	}
	recs, err := s.store.Query(ctx, f)
	if err != nil {
		s.logger.Error("query vitals failed", zap.Error(err))
		return nil, vitals.Storage("query vitals", err)
	}
	return recs, nil
}

func (s *VitalService) validateRecord(req types.RecordVitalRequest) (string, error) {
	name, ok := s.directory.Name(req.PatientID)
	if !ok {
		return "", vitals.Invalid("patient_id", "unknown patient %d", req.PatientID)
	}
	if req.Pulse < MinPulse || req.Pulse > MaxPulse {
		return "", vitals.Invalid("pulse", "must be between %d and %d, got %d", MinPulse, MaxPulse, req.Pulse)
	}
	if req.SpO2 < MinSpO2 || req.SpO2 > MaxSpO2 {
		return "", vitals.Invalid("spo2", "must be between %d and %d, got %d", MinSpO2, MaxSpO2, req.SpO2)
	}
	if !inRange(req.Temperature, MinTemperature, MaxTemperature) {
		return "", vitals.Invalid("temperature", "must be between %.1f and %.1f, got %v", MinTemperature, MaxTemperature, req.Temperature)
	}
	if !inRange(req.Glucose, MinGlucose, MaxGlucose) {
		return "", vitals.Invalid("glucose", "must be between %.1f and %.1f, got %v", MinGlucose, MaxGlucose, req.Glucose)
	}
	return name, nil
}

func (s *VitalService) validateFilter(f store.Filter) error {
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		return vitals.Invalid("month", "must be between 1 and 12, got %d", *f.Month)
	}
	if f.Year != nil && (*f.Year < MinYear || *f.Year > MaxYear) {
		return vitals.Invalid("year", "must be between %d and %d, got %d", MinYear, MaxYear, *f.Year)
	}
	if f.PatientID != nil && !s.directory.Contains(*f.PatientID) {
		return vitals.Invalid("patient_id", "unknown patient %d", *f.PatientID)
	}
	if f.Limit < 0 {
		return vitals.Invalid("limit", "must not be negative, got %d", f.Limit)
	}
	return nil
}

// inRange also rejects NaN, which fails every comparison.
func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
