package handler

import (
	"database/sql"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/model"
	"github.com/evgkirov/member-content-system/internal/queue"
	"github.com/evgkirov/member-content-system/internal/repository"
)

// maxUploadSize caps uploads at 500 KiB.
const maxUploadSize = 500 * 1024

// allowedUploadTypes maps the accepted image content types to the file
// extension the stored blob gets.
var allowedUploadTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload handles POST /api/media/upload. The blob is written to disk
// first; the bookkeeping row and its audit entry then commit together,
// and the blob is removed again when that commit fails.
func (h *MediaHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	if fh.Size > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file exceeds 500KB"})
	}

	contentType := fh.Header.Get("Content-Type")
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		return badRequest(c, "unsupported file type")
	}

	src, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer src.Close()

	// LimitReader guards against a lying Content-Length.
	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return respondError(c, err)
	}
	if len(data) > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file exceeds 500KB"})
	}

	id := uuid.NewString()
	filename := strings.ReplaceAll(id, "-", "") + ext
	if err := h.Blobs.Save(filename, data); err != nil {
		return respondError(c, err)
	}

	actor, _ := CurrentUser(c)
	m := model.MediaFile{
		ID:               id,
		Filename:         filename,
		OriginalFilename: strPtr(fh.Filename),
		URL:              "/uploads/" + filename,
		ContentType:      contentType,
		Size:             int64(len(data)),
		UploadedBy:       strPtr(actor.ID),
	}

	ctx := c.Request().Context()
	err = inTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := repository.NewMediaRepo(tx).Create(ctx, m); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "upload_media", id, nil)
	})
	if err != nil {
		h.Blobs.Delete(filename)
		return respondError(c, err)
	}

	h.Events.Publish(ctx, queue.AuditEvent{
		Action:     "upload_media",
		UserID:     actor.ID,
		TargetID:   id,
		IPAddress:  c.RealIP(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, m)
}
