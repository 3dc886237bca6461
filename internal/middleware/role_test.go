package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgkirov/member-content-system/internal/model"
)

func invoke(t *testing.T, mw echo.MiddlewareFunc, user any) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(CurrentUserKey, user)
	}
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequireAdmin(t *testing.T) {
	t.Run("admin passes", func(t *testing.T) {
		rec := invoke(t, RequireAdmin(), model.User{Role: model.RoleAdmin})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member rejected", func(t *testing.T) {
		rec := invoke(t, RequireAdmin(), model.User{Role: model.RoleMember})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing user rejected", func(t *testing.T) {
		rec := invoke(t, RequireAdmin(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong context type rejected", func(t *testing.T) {
		rec := invoke(t, RequireAdmin(), "admin")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequireRoleMultiple(t *testing.T) {
	mw := RequireRole(model.RoleAdmin, model.RoleMember)
	for _, role := range []string{model.RoleAdmin, model.RoleMember} {
		rec := invoke(t, mw, model.User{Role: role})
		assert.Equal(t, http.StatusOK, rec.Code, role)
	}
	rec := invoke(t, mw, model.User{Role: "guest"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
