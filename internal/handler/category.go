package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evgkirov/member-content-system/internal/model"
	"github.com/evgkirov/member-content-system/internal/queue"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/service"
)

// CategoryHandler serves category listing for every authenticated user and
// category mutations for admins.
type CategoryHandler struct {
	DB     *sql.DB
	Events *service.AuditPublisher
}

func NewCategoryHandler(db *sql.DB, events *service.AuditPublisher) *CategoryHandler {
	return &CategoryHandler{DB: db, Events: events}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(c echo.Context) error {
	cats, err := repository.NewCategoryRepo(h.DB).List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": cats})
}

type categoryBody struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"order_index"`
}

func (b *categoryBody) validate() (model.Category, string) {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return model.Category{}, "name is required"
	}
	return model.Category{Name: name, Description: b.Description, OrderIndex: b.OrderIndex}, ""
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(c echo.Context) error {
	var body categoryBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	cat, msg := body.validate()
	if msg != "" {
		return badRequest(c, msg)
	}

	actor, _ := CurrentUser(c)
	ctx := c.Request().Context()
	var id int64
	err := inTx(ctx, h.DB, func(tx *sql.Tx) error {
		var err error
		id, err = repository.NewCategoryRepo(tx).Create(ctx, cat)
		if err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "create_category", strconv.FormatInt(id, 10), nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "create_category", actor.ID, strconv.FormatInt(id, 10))
	created, err := repository.NewCategoryRepo(h.DB).ByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/categories/:id.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var body categoryBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	cat, msg := body.validate()
	if msg != "" {
		return badRequest(c, msg)
	}
	cat.ID = id

	actor, _ := CurrentUser(c)
	ctx := c.Request().Context()
	err = inTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := repository.NewCategoryRepo(tx).Update(ctx, cat); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "update_category", strconv.FormatInt(id, 10), nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "update_category", actor.ID, strconv.FormatInt(id, 10))
	updated, err := repository.NewCategoryRepo(h.DB).ByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/categories/:id. A category still referenced
// by any non-deleted content comes back as a 409.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	actor, _ := CurrentUser(c)
	ctx := c.Request().Context()
	err = inTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := repository.NewCategoryRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		return appendAudit(c, tx, actor.ID, "delete_category", strconv.FormatInt(id, 10), nil)
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, "delete_category", actor.ID, strconv.FormatInt(id, 10))
	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted"})
}

func (h *CategoryHandler) publish(c echo.Context, action, actorID, targetID string) {
	h.Events.Publish(c.Request().Context(), queue.AuditEvent{
		Action:     action,
		UserID:     actorID,
		TargetID:   targetID,
		IPAddress:  c.RealIP(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
