// Package handler contains the HTTP layer: request binding, validation,
// transaction boundaries around mutations and the mapping from domain
// errors to status codes.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/auth"
	"github.com/evgkirov/member-content-system/internal/middleware"
	"github.com/evgkirov/member-content-system/internal/model"
	"github.com/evgkirov/member-content-system/internal/repository"
)

// CurrentUser returns the user stored by the Authenticate middleware.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(middleware.CurrentUserKey).(model.User)
	return u, ok
}

// respondError maps domain errors to HTTP responses. Anything unmapped is
// a 500 with the detail kept in the server log only.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrAuthFailed):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	case errors.Is(err, auth.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// pageParams reads offset/limit query parameters with sane bounds.
func pageParams(c echo.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return offset, limit
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// strPtr returns nil for the empty string so optional fields persist as
// NULL rather than "".
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// inTx runs fn inside a transaction, rolling back on error.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// appendAudit writes an audit entry on the handler's transaction so it
// commits together with the mutation it describes.
func appendAudit(c echo.Context, tx *sql.Tx, actorID, action, targetID string, meta *string) error {
	return repository.NewAuditRepo(tx).Append(c.Request().Context(), model.AuditLog{
		UserID:     strPtr(actorID),
		Action:     action,
		TargetID:   strPtr(targetID),
		DeviceInfo: strPtr(c.Request().UserAgent()),
		IPAddress:  strPtr(c.RealIP()),
		Meta:       meta,
	})
}
