package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/queue"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/service"
)

// AuditHandler serves the audit log reads and the client-side tracking
// endpoint.
type AuditHandler struct {
	DB     *sql.DB
	Events *service.AuditPublisher
}

func NewAuditHandler(db *sql.DB, events *service.AuditPublisher) *AuditHandler {
	return &AuditHandler{DB: db, Events: events}
}

// trackableActions limits what clients may record through Track. Server
// events (login, mutations) are appended server-side and never through
// this endpoint.
var trackableActions = map[string]bool{
	"read_content": true,
	"view_page":    true,
}

// Track handles POST /api/audit/track: clients report member activity
// like content reads, which the dashboard aggregates later.
func (h *AuditHandler) Track(c echo.Context) error {
	var body struct {
		Action   string `json:"action"`
		TargetID string `json:"target_id"`
		Meta     string `json:"meta"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.Action = strings.TrimSpace(body.Action)
	if !trackableActions[body.Action] {
		return badRequest(c, "unknown action")
	}

	u, _ := CurrentUser(c)
	ctx := c.Request().Context()
	err := inTx(ctx, h.DB, func(tx *sql.Tx) error {
		return appendAudit(c, tx, u.ID, body.Action, body.TargetID, strPtr(body.Meta))
	})
	if err != nil {
		return respondError(c, err)
	}

	h.Events.Publish(ctx, queue.AuditEvent{
		Action:     body.Action,
		UserID:     u.ID,
		TargetID:   body.TargetID,
		IPAddress:  c.RealIP(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, echo.Map{"message": "recorded"})
}

// Logs handles GET /api/audit/logs for admins, newest first.
func (h *AuditHandler) Logs(c echo.Context) error {
	offset, limit := pageParams(c)
	logs, err := repository.NewAuditRepo(h.DB).List(c.Request().Context(), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": logs})
}
