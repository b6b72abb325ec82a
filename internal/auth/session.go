package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const issuer = "property-maintenance"

// Identity is an authenticated user.
type Identity struct {
	UserID      string
	DisplayName string
	Email       string
}

// Session is a signed-in user and the token that proves it.
type Session struct {
	ID          string    `json:"-"`
	Token       string    `json:"token,omitempty"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type sessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Sessions issues HS256 session tokens and remembers revoked ones until they expire.
type Sessions struct {
	key     []byte
	ttl     time.Duration
	revoked *cache.Cache
	now     func() time.Time
	log     *zap.Logger
}

func NewSessions(signingKey string, ttl time.Duration, log *zap.Logger) (*Sessions, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("session signing key cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{
		key:     []byte(signingKey),
		ttl:     ttl,
		revoked: cache.New(ttl, 10*time.Minute),
		now:     time.Now,
		log:     log,
	}, nil
}

// Issue signs a new session token for id.
func (s *Sessions) Issue(id Identity) (*Session, error) {
	now := s.now()
	claims := &sessionClaims{
		Name:  id.DisplayName,
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.log.Info("session issued", zap.String("user_id", id.UserID))
	return sessionFromClaims(claims, token), nil
}

// CurrentSession validates token and returns its session.
func (s *Sessions) CurrentSession(ctx context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, ErrInvalidSession
	}
	return sessionFromClaims(claims, ""), nil
}

// Logout revokes token for the rest of its lifetime.
func (s *Sessions) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	remaining := claims.ExpiresAt.Time.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	s.revoked.Set(claims.ID, struct{}{}, remaining)
	s.log.Info("session revoked", zap.String("user_id", claims.Subject))
	return nil
}

func (s *Sessions) parse(token string) (*sessionClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.log.Debug("session token expired")
		} else {
			s.log.Warn("invalid session token", zap.Error(err))
		}
		return nil, ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func sessionFromClaims(c *sessionClaims, token string) *Session {
	return &Session{
		ID:          c.ID,
		Token:       token,
		UserID:      c.Subject,
		DisplayName: c.Name,
		Email:       c.Email,
		ExpiresAt:   c.ExpiresAt.Time,
	}
}
