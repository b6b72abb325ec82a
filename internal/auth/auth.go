// Package auth authenticates users and manages their session tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"property-maintenance-backend/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Credentials carries whatever the active authenticator needs: a PIN, or an
// email and password.
type Credentials struct {
	PIN      string `json:"pin"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticator verifies credentials and tracks the sessions it issued.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*Session, error)
	CurrentSession(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, token string) error
}

// New builds the authenticator selected by cfg.Mode.
func New(cfg config.AuthConfig, log *zap.Logger) (Authenticator, error) {
	sessions, err := NewSessions(cfg.SigningKey, cfg.SessionTTL, log)
	if err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case "pin":
		if len(cfg.PINs) == 0 {
			return nil, fmt.Errorf("auth mode pin requires at least one pin")
		}
		return NewPINAuthenticator(cfg.PINs, sessions), nil
	case "users":
		if len(cfg.Users) == 0 {
			log.Warn("auth mode users has no configured users; nobody can log in")
		}
		return NewUserAuthenticator(cfg.Users, sessions), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

// PINAuthenticator accepts any PIN from a fixed list.
type PINAuthenticator struct {
	*Sessions
	pins []config.PINEntry
}

func NewPINAuthenticator(pins []config.PINEntry, sessions *Sessions) *PINAuthenticator {
	return &PINAuthenticator{Sessions: sessions, pins: pins}
}

func (a *PINAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.PIN == "" {
		return nil, ErrInvalidCredentials
	}
	for _, p := range a.pins {
		if subtle.ConstantTimeCompare([]byte(p.PIN), []byte(creds.PIN)) == 1 {
			userID := p.UserID
			if userID == "" {
				userID = "pin:" + p.DisplayName
			}
			return a.Issue(Identity{UserID: userID, DisplayName: p.DisplayName})
		}
	}
	a.log.Info("pin login rejected")
	return nil, ErrInvalidCredentials
}

// UserAuthenticator checks an email and password against bcrypt hashes.
type UserAuthenticator struct {
	*Sessions
	users map[string]config.UserEntry
}

func NewUserAuthenticator(users []config.UserEntry, sessions *Sessions) *UserAuthenticator {
	byEmail := make(map[string]config.UserEntry, len(users))
	for _, u := range users {
		byEmail[strings.ToLower(strings.TrimSpace(u.Email))] = u
	}
	return &UserAuthenticator{Sessions: sessions, users: byEmail}
}

func (a *UserAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	u, ok := a.users[email]
	if !ok || creds.Password == "" {
		a.log.Info("login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		a.log.Info("login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	userID := u.UserID
	if userID == "" {
		userID = email
	}
	return a.Issue(Identity{UserID: userID, DisplayName: u.DisplayName, Email: u.Email})
}
