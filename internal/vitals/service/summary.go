package service

import (
	"time"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/types"
)

type accumulator struct {
	n             int
	min, max, sum float64
}

func (a *accumulator) add(v float64) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.n++
}

func (a *accumulator) stat() types.Stat {
	if a.n == 0 {
		return types.Stat{}
	}
	return types.Stat{Min: a.min, Max: a.max, Mean: a.sum / float64(a.n)}
}

// Summarize reduces recs to per-measurement min/max/mean and the covered
// time span.
func Summarize(recs []store.VitalRecord) types.SummaryResponse {
	var pulse, spo2, temp, glucose accumulator
	var from, to time.Time

	for _, r := range recs {
		pulse.add(float64(r.Pulse))
		spo2.add(float64(r.SpO2))
		temp.add(r.Temperature)
		glucose.add(r.Glucose)

		if from.IsZero() || r.RecordedAt.Before(from) {
			from = r.RecordedAt
		}
		if to.IsZero() || r.RecordedAt.After(to) {
			to = r.RecordedAt
		}
	}

	out := types.SummaryResponse{
		Count:       len(recs),
		Pulse:       pulse.stat(),
		SpO2:        spo2.stat(),
		Temperature: temp.stat(),
		Glucose:     glucose.stat(),
	}
	if len(recs) > 0 {
		out.From = from.UTC().Format(time.RFC3339Nano)
		out.To = to.UTC().Format(time.RFC3339Nano)
	}
	return out
}
