package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/peer-rental/internal/model"
	"github.com/iliyamo/peer-rental/internal/service"
	"github.com/iliyamo/peer-rental/internal/utils"
)

const testSecret = "test-secret"

func newAccounts(t *testing.T) (*fixture, *service.AccountService) {
	f := newFixture(t)
	return f, service.NewAccountService(f.store, service.AuthSettings{
		Secret:         testSecret,
		AccessTTL:      15 * time.Minute,
		RefreshTTLDays: 30,
		BcryptCost:     4,
	})
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	f, svc := newAccounts(t)

	sess, err := svc.Register(f.ctx, service.Registration{Email: " Jane@Example.com ", Password: "hunter22!", FullName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", sess.User.Email)
	assert.Equal(t, model.RoleUser, sess.User.Role)

	claims, err := utils.ParseAccessToken(testSecret, sess.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)

	_, err = svc.Login(f.ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	login, err := svc.Login(f.ctx, "jane@example.com", "hunter22!")
	require.NoError(t, err)

	rotated, err := svc.Refresh(f.ctx, login.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, login.Refresh.Raw, rotated.Refresh.Raw)

	_, err = svc.Refresh(f.ctx, login.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	require.NoError(t, svc.Logout(f.ctx, sess.User.ID, rotated.Refresh.Raw))
	_, err = svc.Refresh(f.ctx, rotated.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	require.NoError(t, svc.Logout(f.ctx, sess.User.ID, ""))
	_, err = svc.Refresh(f.ctx, sess.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestRegister_Rejections(t *testing.T) {
	f, svc := newAccounts(t)

	_, err := svc.Register(f.ctx, service.Registration{Email: "a@x.io", Password: "long-enough", FullName: "A"})
	require.NoError(t, err)
	_, err = svc.Register(f.ctx, service.Registration{Email: "A@x.io", Password: "long-enough", FullName: "B"})
	assert.ErrorIs(t, err, service.ErrConflict)

	for _, in := range []service.Registration{
		{Email: "b@x.io", Password: "short", FullName: "B"},
		{Email: "not-an-email", Password: "long-enough", FullName: "B"},
		{Email: "c@x.io", Password: "long-enough", FullName: " "},
	} {
		_, err = svc.Register(f.ctx, in)
		assert.ErrorIs(t, err, service.ErrValidation, in.Email)
	}
}

func TestGetUser(t *testing.T) {
	f, svc := newAccounts(t)
	u := f.user(t, "someone@x.io")

	got, err := svc.GetUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = svc.GetUser(f.ctx, 4242)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRefresh_BlockedUserKeepsToken(t *testing.T) {
	f, svc := newAccounts(t)
	u := &model.User{Email: "blocked@x.io", FullName: "B", Role: model.RoleUser, IsBlocked: true}
	require.NoError(t, f.store.Users.Create(f.ctx, nil, u))
	raw := "raw-refresh-token"
	require.NoError(t, f.store.Tokens.Create(f.ctx, nil, &model.RefreshToken{
		UserID: u.ID, TokenHash: utils.HashRefreshRaw(raw), ExpiresAt: time.Now().Add(time.Hour),
	}))

	_, err := svc.Refresh(f.ctx, raw)
	assert.ErrorIs(t, err, service.ErrForbidden)

	// The failed rotation rolled back, so the token is still active.
	_, err = f.store.Tokens.GetActive(f.ctx, nil, utils.HashRefreshRaw(raw))
	assert.NoError(t, err)
}

func TestRefresh_RejectsExpiredAndUnknown(t *testing.T) {
	f, svc := newAccounts(t)
	u := f.user(t, "late@x.io")
	require.NoError(t, f.store.Tokens.Create(f.ctx, nil, &model.RefreshToken{
		UserID: u.ID, TokenHash: utils.HashRefreshRaw("expired"), ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := svc.Refresh(f.ctx, "expired")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	_, err = svc.Refresh(f.ctx, "never-issued")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	assert.ErrorIs(t, svc.Logout(f.ctx, u.ID, "never-issued"), service.ErrUnauthenticated)
}
