// Package auth authenticates staff against configured bcrypt credentials,
// tracks live sessions and decides which operations each role may run.
package auth

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleDoctor Role = "Doctor"
	RoleStaff  Role = "Staff"
)

// ParseRole accepts any casing of the three role names.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "doctor":
		return RoleDoctor, nil
	case "staff":
		return RoleStaff, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Operation is something a session may ask the service to do.
type Operation string

const (
	OpWriteVitals  Operation = "vitals.write"
	OpReadVitals   Operation = "vitals.read"
	OpExportVitals Operation = "vitals.export"
	OpListPatients Operation = "patients.list"
)

// permissions is the authorization matrix.  Anything absent is denied.
var permissions = map[Role]map[Operation]bool{
	RoleAdmin: {
		OpReadVitals:   true,
		OpExportVitals: true,
		OpListPatients: true,
	},
	RoleDoctor: {
		OpReadVitals:   true,
		OpExportVitals: true,
		OpListPatients: true,
	},
	RoleStaff: {
		OpWriteVitals:  true,
		OpListPatients: true,
	},
}

// Allowed reports whether role may perform op.
func Allowed(role Role, op Operation) bool {
	return permissions[role][op]
}

// Session is the authenticated identity passed explicitly into every
// service call.  The zero value is a logged-out caller.
type Session struct {
	ID       string
	Username string
	Role     Role
	IssuedAt time.Time
}

func (s Session) LoggedIn() bool {
	return s.ID != "" && s.Username != "" && s.Role != ""
}
