package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkweave/inkweave-backend/internal/config"
	"github.com/inkweave/inkweave-backend/internal/dto"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
	}
	return NewAuthService(newTestDB(t), cfg)
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "ink", Email: "ink@example.com", Password: "short"})
	assert.Error(t, err, "passwords under 8 characters are rejected")

	resp, err := svc.Register(&dto.RegisterRequest{Username: "ink", Email: "ink@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "ink", resp.User.Username)

	_, err = svc.Register(&dto.RegisterRequest{Username: "other", Email: "ink@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = svc.Register(&dto.RegisterRequest{Username: "ink", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "ink", Email: "ink@example.com", Password: "password123"})
	require.NoError(t, err)

	resp, err := svc.Login(&dto.LoginRequest{Username: "ink", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Login(&dto.LoginRequest{Username: "ink", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(&dto.LoginRequest{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// Refresh rotates: the old token is revoked the moment it is redeemed.
func TestRefresh_Rotation(t *testing.T) {
	svc := newAuthService(t)

	registered, err := svc.Register(&dto.RegisterRequest{Username: "ink", Email: "ink@example.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken, "a redeemed refresh token must not work twice")
}

func TestLogout_RevokesToken(t *testing.T) {
	svc := newAuthService(t)

	registered, err := svc.Register(&dto.RegisterRequest{Username: "ink", Email: "ink@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(&dto.LogoutRequest{RefreshToken: registered.RefreshToken}))

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
