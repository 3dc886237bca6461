package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgkirov/member-content-system/internal/auth"
	"github.com/evgkirov/member-content-system/internal/model"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/token"
)

type staticUserStore struct {
	user model.User
}

func (s *staticUserStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	if email != s.user.Email {
		return model.User{}, repository.ErrNotFound
	}
	return s.user, nil
}

func (s *staticUserStore) UserByID(ctx context.Context, id string) (model.User, error) {
	if id != s.user.ID {
		return model.User{}, repository.ErrNotFound
	}
	return s.user, nil
}

func (s *staticUserStore) RecordLogin(ctx context.Context, id, deviceID, deviceInfo, ip string) (int, error) {
	return s.user.TokenVersion, nil
}

func (s *staticUserStore) RecordLogout(ctx context.Context, id, ip string) error {
	return nil
}

func TestAuthenticateMiddleware(t *testing.T) {
	codec := token.New("test-secret", time.Hour)
	store := &staticUserStore{user: model.User{
		ID:           "u-1",
		Email:        "a@b.c",
		Role:         model.RoleMember,
		IsActive:     true,
		TokenVersion: 3,
	}}
	sessions := auth.NewService(store, codec)
	mw := Authenticate(sessions)

	run := func(authHeader string) (*httptest.ResponseRecorder, echo.Context) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		require.NoError(t, h(c))
		return rec, c
	}

	t.Run("valid credential passes and stores the user", func(t *testing.T) {
		raw, _, err := codec.Mint("u-1", 3, time.Now().UTC())
		require.NoError(t, err)
		rec, c := run("Bearer " + raw)
		assert.Equal(t, http.StatusOK, rec.Code)
		u, ok := c.Get(CurrentUserKey).(model.User)
		require.True(t, ok)
		assert.Equal(t, "u-1", u.ID)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec, _ := run("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme rejected", func(t *testing.T) {
		rec, _ := run("Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("superseded version rejected", func(t *testing.T) {
		raw, _, err := codec.Mint("u-1", 2, time.Now().UTC())
		require.NoError(t, err)
		rec, _ := run("Bearer " + raw)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		rec, _ := run("Bearer not.a.token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
