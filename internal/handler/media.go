package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/queue"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/service"
	"github.com/evgkirov/member-content-system/internal/storage"
)

// MediaHandler serves the media library routes.
type MediaHandler struct {
	DB     *sql.DB
	Blobs  *storage.BlobStore
	Events *service.AuditPublisher
}

func NewMediaHandler(db *sql.DB, blobs *storage.BlobStore, events *service.AuditPublisher) *MediaHandler {
	return &MediaHandler{DB: db, Blobs: blobs, Events: events}
}

// List handles GET /api/media. Each row carries its current usage count
// from the link table.
func (h *MediaHandler) List(c echo.Context) error {
	offset, limit := pageParams(c)
	files, err := repository.NewMediaRepo(h.DB).List(c.Request().Context(),
		c.QueryParam("search"), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": files})
}

// Delete handles DELETE /api/media/:id. A file still referenced by any
// content is refused; the caller has to edit those bodies first. The blob
// removal is best effort — the database row is the source of truth and a
// leftover file on disk is only wasted space.
func (h *MediaHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	media := repository.NewMediaRepo(h.DB)
	m, err := media.ByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	usage, err := media.UsageCount(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if usage > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "media file is in use",
			"usage": usage,
		})
	}

	actor, _ := CurrentUser(c)
	err = inTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := repository.NewMediaRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "delete_media", id, nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.Blobs.Delete(m.Filename)

	h.Events.Publish(ctx, queue.AuditEvent{
		Action:     "delete_media",
		UserID:     actor.ID,
		TargetID:   id,
		IPAddress:  c.RealIP(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "media deleted"})
}
