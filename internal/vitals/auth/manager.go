package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals"
)

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type liveSession struct {
	session  Session
	lastSeen time.Time
}

// ManagerConfig holds the parameters for NewManager.
type ManagerConfig struct {
	// Secret signs session tokens (HS256).  Required.
	Secret []byte

	// IdleTTL drops sessions unused for longer than this.  0 keeps them
	// until logout or process exit.
	IdleTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager issues session tokens and holds the set of live sessions.  A
// token is only honoured while its session id is in that set, so Logout
// takes effect immediately.
type Manager struct {
	auth   *Authenticator
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

func NewManager(a *Authenticator, cfg ManagerConfig, logger *zap.Logger) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		auth:     a,
		secret:   cfg.Secret,
		ttl:      cfg.IdleTTL,
		now:      cfg.Now,
		logger:   logger,
		sessions: make(map[string]*liveSession),
	}, nil
}

// Login checks the credentials and opens a session.
func (m *Manager) Login(username, password string) (Session, string, error) {
	cred, err := m.auth.Authenticate(username, password)
	if err != nil {
		m.logger.Info("login failed", zap.String("username", username))
		return Session{}, "", err
	}

	now := m.now().UTC()
	s := Session{
		ID:       uuid.NewString(),
		Username: cred.Username,
		Role:     cred.Role,
		IssuedAt: now,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       s.ID,
			Subject:  s.Username,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}).SignedString(m.secret)
	if err != nil {
		return Session{}, "", fmt.Errorf("sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = &liveSession{session: s, lastSeen: now}
	m.mu.Unlock()

	m.logger.Info("login",
		zap.String("username", s.Username),
		zap.String("role", string(s.Role)),
		zap.String("session_id", s.ID),
	)
	return s, token, nil
}

// Resolve maps a token back to its live session and marks it used.
func (m *Manager) Resolve(token string) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, &vitals.AuthError{Reason: "invalid session token"}
	}

	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	ls, ok := m.sessions[claims.ID]
	if !ok || ls.session.Username != claims.Subject {
		return Session{}, &vitals.AuthError{Reason: "session is no longer active"}
	}
	if m.expired(ls, now) {
		delete(m.sessions, claims.ID)
		return Session{}, &vitals.AuthError{Reason: "session expired"}
	}
	ls.lastSeen = now
	return ls.session, nil
}

// Logout ends the session.  Unknown ids are ignored.
func (m *Manager) Logout(sessionID string) {
	m.mu.Lock()
	ls, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		m.logger.Info("logout",
			zap.String("username", ls.session.Username),
			zap.String("session_id", sessionID),
		)
	}
}

// Active implements SessionChecker.
func (m *Manager) Active(sessionID string) bool {
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	ls, ok := m.sessions[sessionID]
	return ok && !m.expired(ls, now)
}

// Sweep drops idle sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, ls := range m.sessions {
		if m.expired(ls, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) IdleTTL() time.Duration { return m.ttl }

func (m *Manager) expired(ls *liveSession, now time.Time) bool {
	return m.ttl > 0 && now.Sub(ls.lastSeen) > m.ttl
}
