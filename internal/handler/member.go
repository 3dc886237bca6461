package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/auth"
	"github.com/evgkirov/member-content-system/internal/model"
	"github.com/evgkirov/member-content-system/internal/queue"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/service"
)

const minPasswordLen = 8

// MemberHandler serves the admin-only member management routes. Mutations
// run in a transaction so the row change and its audit entry commit
// together.
type MemberHandler struct {
	DB         *sql.DB
	BcryptCost int
	Events     *service.AuditPublisher
}

func NewMemberHandler(db *sql.DB, bcryptCost int, events *service.AuditPublisher) *MemberHandler {
	return &MemberHandler{DB: db, BcryptCost: bcryptCost, Events: events}
}

// List handles GET /api/members with optional search over name and email.
func (h *MemberHandler) List(c echo.Context) error {
	offset, limit := pageParams(c)
	users := repository.NewUserRepo(h.DB)

	items, err := users.List(c.Request().Context(), c.QueryParam("search"), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := users.Count(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// Get handles GET /api/members/:id.
func (h *MemberHandler) Get(c echo.Context) error {
	u, err := repository.NewUserRepo(h.DB).ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Create handles POST /api/members.
func (h *MemberHandler) Create(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.Email = strings.TrimSpace(body.Email)
	body.Name = strings.TrimSpace(body.Name)
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		return badRequest(c, "a valid email is required")
	}
	if body.Name == "" {
		return badRequest(c, "name is required")
	}
	if len(body.Password) < minPasswordLen {
		return badRequest(c, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if body.Role == "" {
		body.Role = model.RoleMember
	}
	if body.Role != model.RoleAdmin && body.Role != model.RoleMember {
		return badRequest(c, "invalid role")
	}

	hash, err := auth.HashPassword(body.Password, h.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}
	u := model.User{
		ID:           uuid.NewString(),
		Email:        body.Email,
		Name:         body.Name,
		PasswordHash: hash,
		Role:         body.Role,
		IsActive:     true,
		TokenVersion: 1,
	}

	actor, _ := CurrentUser(c)
	err = h.inTx(c.Request().Context(), func(tx *sql.Tx) error {
		if err := repository.NewUserRepo(tx).Create(c.Request().Context(), u); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "create_member", u.ID, nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "create_member", actor.ID, u.ID)
	created, err := repository.NewUserRepo(h.DB).ByID(c.Request().Context(), u.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/members/:id for name, role and active flag.
// Flipping is_active to false goes through Deactivate so every live
// session is invalidated in the same statement.
func (h *MemberHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var body struct {
		Name     string `json:"name"`
		Role     string `json:"role"`
		IsActive *bool  `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx := c.Request().Context()
	existing, err := repository.NewUserRepo(h.DB).ByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = existing.Name
	}
	role := body.Role
	if role == "" {
		role = existing.Role
	}
	if role != model.RoleAdmin && role != model.RoleMember {
		return badRequest(c, "invalid role")
	}
	active := existing.IsActive
	if body.IsActive != nil {
		active = *body.IsActive
	}

	actor, _ := CurrentUser(c)
	if !active && actor.ID == id {
		return badRequest(c, "cannot deactivate your own account")
	}

	err = h.inTx(ctx, func(tx *sql.Tx) error {
		users := repository.NewUserRepo(tx)
		if existing.IsActive && !active {
			if err := users.Deactivate(ctx, id); err != nil {
				return err
			}
		}
		if err := users.UpdateProfile(ctx, id, name, role, active); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "update_member", id, nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "update_member", actor.ID, id)
	updated, err := repository.NewUserRepo(h.DB).ByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ChangePassword handles PUT /api/members/:id/password. The hash swap,
// the token_version bump and the force-logout flag land in one statement,
// so no credential minted against the old password survives the commit.
func (h *MemberHandler) ChangePassword(c echo.Context) error {
	id := c.Param("id")
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(body.Password) < minPasswordLen {
		return badRequest(c, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := auth.HashPassword(body.Password, h.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}

	actor, _ := CurrentUser(c)
	ctx := c.Request().Context()
	err = h.inTx(ctx, func(tx *sql.Tx) error {
		if err := repository.NewUserRepo(tx).UpdatePassword(ctx, id, hash); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "change_password", id, nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "change_password", actor.ID, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// ForceLogout handles POST /api/members/:id/force-logout. The flag fails
// the target's next request immediately; their next successful login
// clears it.
func (h *MemberHandler) ForceLogout(c echo.Context) error {
	id := c.Param("id")
	actor, _ := CurrentUser(c)

	ctx := c.Request().Context()
	err := h.inTx(ctx, func(tx *sql.Tx) error {
		if err := repository.NewUserRepo(tx).ForceLogout(ctx, id); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "force_logout", id, nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "force_logout", actor.ID, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "sessions revoked"})
}

// Delete handles DELETE /api/members/:id. Accounts are deactivated, never
// removed; audit history keeps pointing at a real row.
func (h *MemberHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	actor, _ := CurrentUser(c)
	if actor.ID == id {
		return badRequest(c, "cannot deactivate your own account")
	}

	ctx := c.Request().Context()
	err := h.inTx(ctx, func(tx *sql.Tx) error {
		if err := repository.NewUserRepo(tx).Deactivate(ctx, id); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "deactivate_member", id, nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "deactivate_member", actor.ID, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "member deactivated"})
}

func (h *MemberHandler) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return inTx(ctx, h.DB, fn)
}

func (h *MemberHandler) publish(c echo.Context, action, actorID, targetID string) {
	h.Events.Publish(c.Request().Context(), queue.AuditEvent{
		Action:     action,
		UserID:     actorID,
		TargetID:   targetID,
		IPAddress:  c.RealIP(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
