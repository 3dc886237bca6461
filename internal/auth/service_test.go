package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgkirov/member-content-system/internal/model"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/token"
)

// fakeUserStore keeps users in memory and mimics the transactional
// semantics of repository.AuthStore: RecordLogin/RecordLogout bump the
// counter atomically and report the new value.
type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]*model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) UserByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) UserByID(_ context.Context, id string) (model.User, error) {
	if u, ok := s.users[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) RecordLogin(_ context.Context, id, deviceID, _, _ string) (int, error) {
	u, ok := s.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.TokenVersion++
	u.ForceLogout = false
	u.LastDeviceID = &deviceID
	now := time.Now().UTC()
	u.LastLoginAt = &now
	return u.TokenVersion, nil
}

func (s *fakeUserStore) RecordLogout(_ context.Context, id, _ string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.TokenVersion++
	u.ForceLogout = false
	return nil
}

func testUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := HashPassword(password, 4) // minimal cost to keep tests fast
	require.NoError(t, err)
	return &model.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		TokenVersion: 1,
	}
}

func newTestService(t *testing.T, users ...*model.User) (*Service, *fakeUserStore) {
	t.Helper()
	store := newFakeUserStore(users...)
	return NewService(store, token.New("test-secret", time.Hour)), store
}

func TestAuthenticateSuccess(t *testing.T) {
	u := testUser(t, "correct horse")
	svc, store := newTestService(t, u)

	cred, got, err := svc.Authenticate(context.Background(), u.Email, "correct horse", "d1", "test device", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TokenVersion, "login bumps token_version")
	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, "d1", *store.users[u.ID].LastDeviceID)

	// The minted credential authorizes against the new version.
	authed, err := svc.Authorize(context.Background(), cred.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, authed.ID)
}

func TestAuthenticateUniformFailure(t *testing.T) {
	u := testUser(t, "correct horse")
	inactive := testUser(t, "pw")
	inactive.ID = "22222222-2222-2222-2222-222222222222"
	inactive.Email = "bob@example.com"
	inactive.IsActive = false
	svc, _ := newTestService(t, u, inactive)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "whatever"},
		{"wrong password", u.Email, "wrong"},
		{"inactive account", inactive.Email, "pw"},
		{"case mismatch is unknown email", "Alice@example.com", "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Authenticate(context.Background(), tt.email, tt.password, "d1", "", "")
			assert.ErrorIs(t, err, ErrAuthFailed)
		})
	}
}

func TestNewLoginInvalidatesPriorCredential(t *testing.T) {
	u := testUser(t, "pw")
	svc, _ := newTestService(t, u)
	ctx := context.Background()

	first, _, err := svc.Authenticate(ctx, u.Email, "pw", "d1", "", "")
	require.NoError(t, err)
	_, err = svc.Authorize(ctx, first.Token)
	require.NoError(t, err)

	// Second login from another device bumps the counter to 3.
	second, got, err := svc.Authenticate(ctx, u.Email, "pw", "d2", "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TokenVersion)

	_, err = svc.Authorize(ctx, first.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "version-2 credential is superseded")

	_, err = svc.Authorize(ctx, second.Token)
	assert.NoError(t, err)
}

func TestLogoutInvalidatesCredential(t *testing.T) {
	u := testUser(t, "pw")
	svc, _ := newTestService(t, u)
	ctx := context.Background()

	cred, got, err := svc.Authenticate(ctx, u.Email, "pw", "d1", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, got, "127.0.0.1"))
	_, err = svc.Authorize(ctx, cred.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// A fresh login mints a working credential again.
	cred2, _, err := svc.Authenticate(ctx, u.Email, "pw", "d1", "", "")
	require.NoError(t, err)
	_, err = svc.Authorize(ctx, cred2.Token)
	assert.NoError(t, err)
}

func TestForceLogoutFlagInvalidatesRegardlessOfVersion(t *testing.T) {
	u := testUser(t, "pw")
	svc, store := newTestService(t, u)
	ctx := context.Background()

	cred, _, err := svc.Authenticate(ctx, u.Email, "pw", "d1", "", "")
	require.NoError(t, err)

	// Admin action: flag set without touching the version.
	store.users[u.ID].ForceLogout = true
	_, err = svc.Authorize(ctx, cred.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Only a fresh login clears the flag.
	cred2, _, err := svc.Authenticate(ctx, u.Email, "pw", "d1", "", "")
	require.NoError(t, err)
	assert.False(t, store.users[u.ID].ForceLogout)
	_, err = svc.Authorize(ctx, cred2.Token)
	assert.NoError(t, err)
}

func TestAuthorizeDeactivatedUser(t *testing.T) {
	u := testUser(t, "pw")
	svc, store := newTestService(t, u)
	ctx := context.Background()

	cred, _, err := svc.Authenticate(ctx, u.Email, "pw", "d1", "", "")
	require.NoError(t, err)

	store.users[u.ID].IsActive = false
	_, err = svc.Authorize(ctx, cred.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizeGarbage(t *testing.T) {
	svc, _ := newTestService(t, testUser(t, "pw"))

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Authorize(context.Background(), raw)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}
}

func TestRequireRole(t *testing.T) {
	svc, _ := newTestService(t)
	admin := model.User{Role: model.RoleAdmin}
	member := model.User{Role: model.RoleMember}

	assert.NoError(t, svc.RequireRole(admin, model.RoleAdmin))
	assert.ErrorIs(t, svc.RequireRole(member, model.RoleAdmin), ErrForbidden)
}
