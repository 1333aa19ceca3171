package httpapi

import (
	"time"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/types"
)

func vitalToResponse(r store.VitalRecord) types.Vital {
	return types.Vital{
		ID:            r.ID,
		PatientID:     r.PatientID,
		PatientName:   r.PatientName,
		BloodPressure: r.BloodPressure,
		Pulse:         r.Pulse,
		SpO2:          r.SpO2,
		Temperature:   r.Temperature,
		Glucose:       r.Glucose,
		RecordedAt:    r.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}

func vitalsToResponse(recs []store.VitalRecord) types.VitalsResponse {
	out := types.VitalsResponse{Count: len(recs), Vitals: make([]types.Vital, 0, len(recs))}
	for _, r := range recs {
		out.Vitals = append(out.Vitals, vitalToResponse(r))
	}
	return out
}
