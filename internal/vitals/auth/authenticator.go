package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals"
)

// Credential is one configured login.  PasswordHash is a bcrypt hash; plain
// passwords never appear in configuration.
type Credential struct {
	Username     string
	PasswordHash string
	Role         Role
}

// errBadCredentials is deliberately the same for unknown users and wrong
// passwords.
var errBadCredentials = &vitals.AuthError{Reason: "invalid username or password"}

type Authenticator struct {
	users map[string]Credential
	dummy []byte
}

// NewAuthenticator validates creds and indexes them by username.
func NewAuthenticator(creds []Credential) (*Authenticator, error) {
	users := make(map[string]Credential, len(creds))
	cost := bcrypt.MinCost

	for _, c := range creds {
		name := strings.TrimSpace(c.Username)
		if name == "" {
			return nil, errors.New("credential with empty username")
		}
		if _, dup := users[name]; dup {
			return nil, fmt.Errorf("duplicate credential for %q", name)
		}
		role, err := ParseRole(string(c.Role))
		if err != nil {
			return nil, fmt.Errorf("credential %q: %w", name, err)
		}
		hc, err := bcrypt.Cost([]byte(c.PasswordHash))
		if err != nil {
			return nil, fmt.Errorf("credential %q: password_hash is not a bcrypt hash: %w", name, err)
		}
		if hc > cost {
			cost = hc
		}
		users[name] = Credential{Username: name, PasswordHash: c.PasswordHash, Role: role}
	}

	// Compared against for unknown users so both failure paths cost the same.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &Authenticator{users: users, dummy: dummy}, nil
}

// Authenticate returns the matching credential or a *vitals.AuthError.
func (a *Authenticator) Authenticate(username, password string) (Credential, error) {
	c, ok := a.users[strings.TrimSpace(username)]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(a.dummy, []byte(password))
		return Credential{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return Credential{}, errBadCredentials
	}
	return c, nil
}

// Len is the number of configured users.
func (a *Authenticator) Len() int { return len(a.users) }

// HashPassword produces a bcrypt hash suitable for the credentials file.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
