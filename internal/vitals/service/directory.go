package service

import (
	"sort"
	"strings"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals/types"
)

// PatientDirectory is the fixed id -> name mapping loaded at start.  It is
// read-only afterwards, so it needs no locking.
type PatientDirectory struct {
	names map[int]string
}

// NewPatientDirectory copies m; entries with a non-positive id or blank
// name are skipped.
func NewPatientDirectory(m map[int]string) *PatientDirectory {
	names := make(map[int]string, len(m))
	for id, name := range m {
		name = strings.TrimSpace(name)
		if id <= 0 || name == "" {
			continue
		}
		names[id] = name
	}
	return &PatientDirectory{names: names}
}

func (d *PatientDirectory) Name(id int) (string, bool) {
	n, ok := d.names[id]
	return n, ok
}

func (d *PatientDirectory) Contains(id int) bool {
	_, ok := d.names[id]
	return ok
}

func (d *PatientDirectory) Len() int { return len(d.names) }

// List returns the directory sorted by id.
func (d *PatientDirectory) List() []types.Patient {
	out := make([]types.Patient, 0, len(d.names))
	for id, name := range d.names {
		out = append(out, types.Patient{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultPatients is the ward list used when configuration names none.
func DefaultPatients() map[int]string {
	return map[int]string{
		101: "John Doe",
		102: "Jane Smith",
		103: "Alice Johnson",
		104: "Robert Brown",
		105: "Emily Davis",
		106: "Michael Wilson",
		107: "Sarah Miller",
		108: "David Lee",
		109: "Sophia Anderson",
		110: "James Taylor",
		111: "Olivia Martinez",
		112: "William Harris",
		113: "Isabella Clark",
		114: "Benjamin Lewis",
		115: "Charlotte Walker",
		116: "Lucas Hall",
		117: "Amelia Allen",
		118: "Mason Young",
		119: "Harper King",
		120: "Ethan Wright",
		121: "Evelyn Scott",
		122: "Alexander Green",
		123: "Abigail Adams",
		124: "Henry Baker",
		125: "Ella Carter",
	}
}
