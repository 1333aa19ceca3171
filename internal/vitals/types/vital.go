package types

type RecordVitalRequest struct {
	PatientID     int     `json:"patient_id"`
	BloodPressure string  `json:"bp"`
	Pulse         int     `json:"pulse"`
	SpO2          int     `json:"spo2"`
	Temperature   float64 `json:"temperature"`
	Glucose       float64 `json:"glucose"`
}

type Vital struct {
	ID            int64   `json:"id"`
	PatientID     int     `json:"patient_id"`
	PatientName   string  `json:"patient_name"`
	BloodPressure string  `json:"bp"`
	Pulse         int     `json:"pulse"`
	SpO2          int     `json:"spo2"`
	Temperature   float64 `json:"temperature"`
	Glucose       float64 `json:"glucose"`
	RecordedAt    string  `json:"recorded_at"` // RFC3339Nano, UTC
}

type VitalsResponse struct {
	Count  int     `json:"count"`
	Vitals []Vital `json:"vitals"`
}

// Stat is min/max/mean of one measurement over a record set.  All zero when
// the set is empty.
type Stat struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

type SummaryResponse struct {
	Count       int    `json:"count"`
	Pulse       Stat   `json:"pulse"`
	SpO2        Stat   `json:"spo2"`
	Temperature Stat   `json:"temperature"`
	Glucose     Stat   `json:"glucose"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
}

type Patient struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
