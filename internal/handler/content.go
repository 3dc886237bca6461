package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/model"
	"github.com/evgkirov/member-content-system/internal/queue"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/service"
)

// ContentHandler serves content browsing for members and the full CRUD
// surface for admins. Every mutation re-derives the content's media links
// from its body inside the same transaction.
type ContentHandler struct {
	DB     *sql.DB
	Events *service.AuditPublisher
}

func NewContentHandler(db *sql.DB, events *service.AuditPublisher) *ContentHandler {
	return &ContentHandler{DB: db, Events: events}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a URL slug from a title: lowercase, non-alphanumerics
// collapsed to single hyphens.
func slugify(title string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// List handles GET /api/contents. Members only see published, non-deleted
// rows; admins can widen the view with status and include_deleted.
func (h *ContentHandler) List(c echo.Context) error {
	u, _ := CurrentUser(c)
	offset, limit := pageParams(c)

	f := repository.ContentFilter{
		Search: c.QueryParam("search"),
		Offset: offset,
		Limit:  limit,
	}
	if id, err := strconv.ParseInt(c.QueryParam("category_id"), 10, 64); err == nil {
		f.CategoryID = id
	}

	if u.Role == model.RoleAdmin {
		if s := c.QueryParam("status"); s != "" {
			if !model.ValidStatus(s) {
				return badRequest(c, "invalid status")
			}
			f.Status = s
		}
		f.IncludeDeleted = c.QueryParam("include_deleted") == "true"
	} else {
		f.Status = model.StatusPublished
	}

	items, err := repository.NewContentRepo(h.DB).List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /api/contents/:id. For members, drafts, archived and
// soft-deleted rows are indistinguishable from missing ones.
func (h *ContentHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	content, err := repository.NewContentRepo(h.DB).ByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	u, _ := CurrentUser(c)
	if u.Role != model.RoleAdmin {
		if content.IsDeleted || content.Status != model.StatusPublished {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
	}
	return c.JSON(http.StatusOK, content)
}

type contentBody struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	CategoryID      *int64 `json:"category_id"`
	Body            string `json:"body"`
	Status          string `json:"status"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	CoverImageURL   string `json:"cover_image_url"`
	Tags            string `json:"tags"`
}

func (b *contentBody) toModel() (model.Content, string) {
	title := strings.TrimSpace(b.Title)
	if title == "" {
		return model.Content{}, "title is required"
	}
	slug := strings.TrimSpace(b.Slug)
	if slug == "" {
		slug = slugify(title)
	}
	if slug == "" {
		return model.Content{}, "slug is required"
	}
	status := b.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !model.ValidStatus(status) {
		return model.Content{}, "invalid status"
	}
	return model.Content{
		Title:           title,
		Slug:            slug,
		CategoryID:      b.CategoryID,
		Body:            b.Body,
		Status:          status,
		MetaTitle:       strPtr(strings.TrimSpace(b.MetaTitle)),
		MetaDescription: strPtr(strings.TrimSpace(b.MetaDescription)),
		CoverImageURL:   strPtr(strings.TrimSpace(b.CoverImageURL)),
		Tags:            strPtr(strings.TrimSpace(b.Tags)),
	}, ""
}

// checkCategory rejects references to categories that do not exist.
func (h *ContentHandler) checkCategory(c echo.Context, categoryID *int64) (string, error) {
	if categoryID == nil {
		return "", nil
	}
	_, err := repository.NewCategoryRepo(h.DB).ByID(c.Request().Context(), *categoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return "category does not exist", nil
	}
	return "", err
}

// Create handles POST /api/contents. The row insert, the media link
// derivation and the audit entry commit atomically; a slug collision
// (soft-deleted rows included) rolls the whole thing back as a 409.
func (h *ContentHandler) Create(c echo.Context) error {
	var body contentBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	content, msg := body.toModel()
	if msg != "" {
		return badRequest(c, msg)
	}
	if msg, err := h.checkCategory(c, content.CategoryID); err != nil {
		return respondError(c, err)
	} else if msg != "" {
		return badRequest(c, msg)
	}

	actor, _ := CurrentUser(c)
	content.AuthorID = strPtr(actor.ID)

	ctx := c.Request().Context()
	var id int64
	err := inTx(ctx, h.DB, func(tx *sql.Tx) error {
		var err error
		id, err = repository.NewContentRepo(tx).Create(ctx, content)
		if err != nil {
			return err
		}
		if err := service.ReconcileContentMedia(ctx, repository.NewMediaRepo(tx), id, content.Body); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "create_content", strconv.FormatInt(id, 10), nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "create_content", actor.ID, strconv.FormatInt(id, 10))
	created, err := repository.NewContentRepo(h.DB).ByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/contents/:id. The media links are re-derived
// from the new body alone; references that stopped appearing drop out.
func (h *ContentHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var body contentBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	content, msg := body.toModel()
	if msg != "" {
		return badRequest(c, msg)
	}
	if msg, err := h.checkCategory(c, content.CategoryID); err != nil {
		return respondError(c, err)
	} else if msg != "" {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	existing, err := repository.NewContentRepo(h.DB).ByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	content.ID = id
	content.IsDeleted = existing.IsDeleted

	actor, _ := CurrentUser(c)
	err = inTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := repository.NewContentRepo(tx).Update(ctx, content); err != nil {
			return err
		}
		if err := service.ReconcileContentMedia(ctx, repository.NewMediaRepo(tx), id, content.Body); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "update_content", strconv.FormatInt(id, 10), nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "update_content", actor.ID, strconv.FormatInt(id, 10))
	updated, err := repository.NewContentRepo(h.DB).ByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/contents/:id. Soft delete: the row and its
// slug stay reserved, the media links are cleared so usage counts reflect
// live contents only.
func (h *ContentHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	actor, _ := CurrentUser(c)
	ctx := c.Request().Context()
	err = inTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := repository.NewContentRepo(tx).SoftDelete(ctx, id); err != nil {
			return err
		}
		if err := service.ReconcileContentMedia(ctx, repository.NewMediaRepo(tx), id, ""); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "delete_content", strconv.FormatInt(id, 10), nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "delete_content", actor.ID, strconv.FormatInt(id, 10))
	return c.JSON(http.StatusOK, echo.Map{"message": "content deleted"})
}

func (h *ContentHandler) publish(c echo.Context, action, actorID, targetID string) {
	h.Events.Publish(c.Request().Context(), queue.AuditEvent{
		Action:     action,
		UserID:     actorID,
		TargetID:   targetID,
		IPAddress:  c.RealIP(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
