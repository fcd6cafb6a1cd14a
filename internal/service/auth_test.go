package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/takurot/baseball-speedgun/internal/errors"
)

func TestRegister(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:       "alice@example.com",
		Password:    "correct-horse",
		DisplayName: "Alice",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Positive(t, resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "Alice", resp.User.DisplayName)
	// The stored hash is not the raw password.
	assert.NotEqual(t, "correct-horse", resp.User.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "correct-horse"}},
		{"short password", RegisterRequest{Email: "alice@example.com", Password: "short"}},
		{"missing password", RegisterRequest{Email: "alice@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	// Case differences collapse on the lowercased email.
	_, err = env.auth.Register(ctx, RegisterRequest{Email: "ALICE@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "Alice@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	// Each login gets its own session.
	assert.NotEqual(t, reg.SessionID, resp.SessionID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	// Wrong password and unknown email fail the same way.
	_, err = env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestRefreshTokens_Rotation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	resp, err := env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, reg.SessionID, resp.SessionID)
	assert.NotEqual(t, reg.RefreshToken, resp.RefreshToken)

	// The rotated-out token is dead.
	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// The fresh one still works.
	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
}

func TestLogout(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, reg.SessionID))

	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestVerifyAccessToken(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	user, claims, err := env.auth.VerifyAccessToken(ctx, reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)
	assert.Equal(t, reg.User.ID, claims.UserID)

	_, _, err = env.auth.VerifyAccessToken(ctx, "v4.local.garbage")
	assert.Error(t, err)
}

func TestCleanupExpired(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	// Nothing has expired; the live session survives the sweep.
	require.NoError(t, env.session.CleanupExpired(ctx))
}
