package auth

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals"
)

// SessionChecker reports whether a session is still live.
type SessionChecker interface {
	Active(sessionID string) bool
}

// Gate decides whether a session may run an operation.
type Gate struct {
	sessions SessionChecker
	logger   *zap.Logger
}

func NewGate(sessions SessionChecker, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{sessions: sessions, logger: logger}
}

// Authorize returns nil or a *vitals.AuthError.
func (g *Gate) Authorize(s Session, op Operation) error {
	if !s.LoggedIn() {
		return &vitals.AuthError{Reason: "not logged in"}
	}
	if g.sessions != nil && !g.sessions.Active(s.ID) {
		return &vitals.AuthError{Reason: "session is no longer active"}
	}
	if !Allowed(s.Role, op) {
		g.logger.Warn("operation denied",
			zap.String("username", s.Username),
			zap.String("role", string(s.Role)),
			zap.String("operation", string(op)),
		)
		return &vitals.AuthError{
			Reason:    fmt.Sprintf("role %s may not perform %s", s.Role, op),
			Forbidden: true,
		}
	}
	return nil
}
