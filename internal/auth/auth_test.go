package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"property-maintenance-backend/config"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestNew_SelectsAuthenticator(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       config.AuthConfig
		expected  any
		expectErr bool
	}{
		{
			name:     "pin mode",
			cfg:      config.AuthConfig{Mode: "pin", SigningKey: "k", PINs: []config.PINEntry{{PIN: "1234"}}},
			expected: &PINAuthenticator{},
		},
		{
			name:     "users mode",
			cfg:      config.AuthConfig{Mode: "users", SigningKey: "k"},
			expected: &UserAuthenticator{},
		},
		{
			name:      "pin mode without pins",
			cfg:       config.AuthConfig{Mode: "pin", SigningKey: "k"},
			expectErr: true,
		},
		{
			name:      "unknown mode",
			cfg:       config.AuthConfig{Mode: "oauth", SigningKey: "k"},
			expectErr: true,
		},
		{
			name:      "missing signing key",
			cfg:       config.AuthConfig{Mode: "users"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := New(tc.cfg, zap.NewNop())
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.expected, a)
		})
	}
}

func TestPINAuthenticator(t *testing.T) {
	ctx := context.Background()
	sessions, err := NewSessions("signing-key", time.Hour, zap.NewNop())
	require.NoError(t, err)
	a := NewPINAuthenticator([]config.PINEntry{
		{PIN: "1111", UserID: "owner", DisplayName: "Owner"},
		{PIN: "2222", DisplayName: "Cleaner"},
	}, sessions)

	s, err := a.Authenticate(ctx, Credentials{PIN: "2222"})
	require.NoError(t, err)
	assert.Equal(t, "pin:Cleaner", s.UserID)
	assert.Equal(t, "Cleaner", s.DisplayName)
	assert.NotEmpty(t, s.Token)

	_, err = a.Authenticate(ctx, Credentials{PIN: "9999"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Authenticate(ctx, Credentials{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserAuthenticator(t *testing.T) {
	ctx := context.Background()
	sessions, err := NewSessions("signing-key", time.Hour, zap.NewNop())
	require.NoError(t, err)
	a := NewUserAuthenticator([]config.UserEntry{
		{UserID: "u-1", Email: "Aino@Example.com", DisplayName: "Aino", PasswordHash: hash(t, "correct horse")},
	}, sessions)

	s, err := a.Authenticate(ctx, Credentials{Email: " aino@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, "Aino@Example.com", s.Email)

	current, err := a.CurrentSession(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", current.UserID)
	assert.Equal(t, "Aino", current.DisplayName)
	assert.Empty(t, current.Token)

	for _, creds := range []Credentials{
		{Email: "aino@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "correct horse"},
		{Email: "aino@example.com"},
	} {
		_, err := a.Authenticate(ctx, creds)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%+v", creds)
	}
}

func TestSessions_LogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	sessions, err := NewSessions("signing-key", time.Hour, zap.NewNop())
	require.NoError(t, err)

	a, err := sessions.Issue(Identity{UserID: "u-1"})
	require.NoError(t, err)
	b, err := sessions.Issue(Identity{UserID: "u-1"})
	require.NoError(t, err)

	require.NoError(t, sessions.Logout(ctx, a.Token))

	_, err = sessions.CurrentSession(ctx, a.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = sessions.CurrentSession(ctx, b.Token)
	assert.NoError(t, err, "other sessions of the same user stay valid")
}

func TestSessions_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	sessions, err := NewSessions("signing-key", time.Hour, zap.NewNop())
	require.NoError(t, err)
	issuedAt := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return issuedAt }

	s, err := sessions.Issue(Identity{UserID: "u-1"})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		sessions.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
		defer func() { sessions.now = func() time.Time { return issuedAt } }()
		_, err := sessions.CurrentSession(ctx, s.Token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("signed with another key", func(t *testing.T) {
		other, err := NewSessions("other-key", time.Hour, zap.NewNop())
		require.NoError(t, err)
		other.now = sessions.now
		forged, err := other.Issue(Identity{UserID: "admin"})
		require.NoError(t, err)
		_, err = sessions.CurrentSession(ctx, forged.Token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			ID:        "x",
			Subject:   "admin",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = sessions.CurrentSession(ctx, signed)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := sessions.CurrentSession(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("valid", func(t *testing.T) {
		got, err := sessions.CurrentSession(ctx, s.Token)
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.UserID)
		assert.True(t, got.ExpiresAt.Equal(issuedAt.Add(time.Hour)))
	})
}
