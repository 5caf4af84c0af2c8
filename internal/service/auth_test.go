package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/triketime/internal/events"
	"github.com/Skotchmaster/triketime/internal/models"
)

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, "alice", "pw1", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDriver, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "pw1", u.PasswordHash)

	_, err = f.auth.Register(ctx, "alice", "other", "")
	assert.ErrorIs(t, err, ErrUserExists)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.auth.Register(ctx, "Alice", "pw1", "")
	require.NoError(t, err, "usernames are case-sensitive")

	assert.Equal(t, []string{events.UserRegistered, events.UserRegistered}, f.events.types())
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		role     string
	}{
		{name: "empty username", username: "", password: "secret"},
		{name: "blank username", username: "   ", password: "secret"},
		{name: "empty password", username: "user", password: ""},
		{name: "long password", username: "user", password: strings.Repeat("x", 73)},
		{name: "long username", username: strings.Repeat("u", 65), password: "secret"},
		{name: "unknown role", username: "user", password: "secret", role: "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tt.username, tt.password, tt.role)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "bob", "secret", "")
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, "sleepy", "secret", "")
	require.NoError(t, err)
	require.NoError(t, f.repo.SetUserActive(ctx, "sleepy", false))

	u, err := f.auth.Authenticate(ctx, "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	for _, tc := range []struct{ user, pass string }{
		{"bob", "wrong"},
		{"nobody", "secret"},
		{"sleepy", "secret"},
		{"", ""},
	} {
		_, err := f.auth.Authenticate(ctx, tc.user, tc.pass)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%s/%s", tc.user, tc.pass)
	}
}

func TestAuthService_LoginRefreshLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "alice", "pw1", "")
	require.NoError(t, err)

	first, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDriver, first.Role)
	assert.NotEmpty(t, first.AccessToken)
	assert.NotEmpty(t, first.RefreshToken)

	second, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, f.auth.LogOut(ctx, second.RefreshToken))
	_, err = f.auth.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, f.auth.LogOut(ctx, second.RefreshToken))
	require.NoError(t, f.auth.LogOut(ctx, "garbage"))
	require.NoError(t, f.auth.LogOut(ctx, ""))
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Login(context.Background(), "ghost", "pw")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh_InactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "carol", "pw", "")
	require.NoError(t, err)
	pair, err := f.auth.Login(ctx, "carol", "pw")
	require.NoError(t, err)

	require.NoError(t, f.repo.SetUserActive(ctx, "carol", false))

	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuthService_Deactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "dan", "pw", "")
	require.NoError(t, err)
	pair, err := f.auth.Login(ctx, "dan", "pw")
	require.NoError(t, err)

	require.NoError(t, f.auth.Deactivate(ctx, "dan"))

	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = f.auth.Login(ctx, "dan", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, f.auth.Deactivate(ctx, "nobody"), ErrNotFound)
}

func TestAuthService_RevokeAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "eve", "pw", "")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.auth.Login(ctx, "eve", "pw")
		require.NoError(t, err)
	}

	n, err := f.auth.RevokeAll(ctx, "eve")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, err = f.auth.RevokeAll(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
