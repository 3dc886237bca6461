package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/repository"
)

// DashboardHandler serves the admin overview numbers.
type DashboardHandler struct {
	DB *sql.DB
}

func NewDashboardHandler(db *sql.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// Overview handles GET /api/dashboard: member and content totals plus the
// last week of logins and content reads.
func (h *DashboardHandler) Overview(c echo.Context) error {
	ctx := c.Request().Context()

	members, err := repository.NewUserRepo(h.DB).Count(ctx)
	if err != nil {
		return respondError(c, err)
	}
	contents, err := repository.NewContentRepo(h.DB).CountActive(ctx)
	if err != nil {
		return respondError(c, err)
	}

	audits := repository.NewAuditRepo(h.DB)
	since := time.Now().UTC().AddDate(0, 0, -7)
	logins, err := audits.RecentByAction(ctx, "login", since, 20)
	if err != nil {
		return respondError(c, err)
	}
	reads, err := audits.RecentByAction(ctx, "read_content", since, 20)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_members":   members,
		"active_contents": contents,
		"recent_logins":   logins,
		"recent_reads":    reads,
	})
}
