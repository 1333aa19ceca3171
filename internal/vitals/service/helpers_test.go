package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrandonDHaskell/vitals/server/internal/db"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/auth"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/service"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store/memory"
	sqlitestore "github.com/BrandonDHaskell/vitals/server/internal/vitals/store/sqlite"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/types"
)

// harness bundles a service with its sessions, one per role.
type harness struct {
	svc     *service.VitalService
	manager *auth.Manager
	admin   auth.Session
	doctor  auth.Session
	staff   auth.Session
}

func newHarness(t *testing.T, st store.VitalStore, now func() time.Time) *harness {
	t.Helper()

	var creds []auth.Credential
	for user, role := range map[string]auth.Role{"admin": auth.RoleAdmin, "doctor": auth.RoleDoctor, "staff": auth.RoleStaff} {
		h, err := auth.HashPassword(user+"-pw", bcrypt.MinCost)
		require.NoError(t, err)
		creds = append(creds, auth.Credential{Username: user, PasswordHash: h, Role: role})
	}
	a, err := auth.NewAuthenticator(creds)
	require.NoError(t, err)
	m, err := auth.NewManager(a, auth.ManagerConfig{Secret: []byte("secret")}, nil)
	require.NoError(t, err)

	h := &harness{manager: m}
	h.svc = service.NewVitalService(
		st,
		service.NewPatientDirectory(service.DefaultPatients()),
		auth.NewGate(m, nil),
		service.Options{Now: now},
	)
	h.admin = h.login(t, "admin")
	h.doctor = h.login(t, "doctor")
	h.staff = h.login(t, "staff")
	return h
}

func (h *harness) login(t *testing.T, user string) auth.Session {
	t.Helper()
	s, _, err := h.manager.Login(user, user+"-pw")
	require.NoError(t, err)
	return s
}

func newMemoryHarness(t *testing.T) (*harness, *memory.VitalStore) {
	t.Helper()
	st := memory.NewVitalStore()
	return newHarness(t, st, nil), st
}

func newSQLiteStore(t *testing.T) *sqlitestore.VitalStore {
	t.Helper()
	name := "svc_" + strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := db.OpenDSN(context.Background(), db.MemoryDSN(name))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	w := db.NewWorker(conn)
	t.Cleanup(w.Close)
	return sqlitestore.NewVitalStore(conn, w)
}

// steppingClock returns start, start+step, start+2*step, ...
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(step)
		return t
	}
}

func validRequest(patientID int) types.RecordVitalRequest {
	return types.RecordVitalRequest{
		PatientID:     patientID,
		BloodPressure: "120/80",
		Pulse:         72,
		SpO2:          98,
		Temperature:   36.6,
		Glucose:       5.2,
	}
}

func intp(v int) *int { return &v }
