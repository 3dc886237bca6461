package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/auth"
	"github.com/evgkirov/member-content-system/internal/queue"
	"github.com/evgkirov/member-content-system/internal/service"
)

// AuthHandler serves login, logout and the identity probe.
type AuthHandler struct {
	Sessions *auth.Service
	Events   *service.AuditPublisher
}

func NewAuthHandler(sessions *auth.Service, events *service.AuditPublisher) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Events: events}
}

// Login handles POST /api/auth/login. A successful login supersedes every
// prior credential for the account: the token_version bump and the audit
// entry commit before the new credential is minted.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		DeviceID   string `json:"device_id"`
		DeviceInfo string `json:"device_info"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		return badRequest(c, "email and password are required")
	}
	if body.DeviceID == "" {
		body.DeviceID = "unknown"
	}

	cred, u, err := h.Sessions.Authenticate(c.Request().Context(),
		body.Email, body.Password, body.DeviceID, body.DeviceInfo, c.RealIP())
	if errors.Is(err, auth.ErrAuthFailed) {
		// Unknown email, wrong password and deactivated account all look
		// the same from outside.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return respondError(c, err)
	}

	h.Events.Publish(c.Request().Context(), queue.AuditEvent{
		Action:     "login",
		UserID:     u.ID,
		IPAddress:  c.RealIP(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": cred.Token,
		"expires_at":   cred.ExpiresAt,
		"user":         u,
	})
}

// Logout handles POST /api/auth/logout. The version bump invalidates the
// presented credential and every other outstanding one for the account.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	if err := h.Sessions.Logout(c.Request().Context(), u, c.RealIP()); err != nil {
		return respondError(c, err)
	}

	h.Events.Publish(c.Request().Context(), queue.AuditEvent{
		Action:     "logout",
		UserID:     u.ID,
		IPAddress:  c.RealIP(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me handles GET /api/auth/me and returns the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	return c.JSON(http.StatusOK, u)
}
