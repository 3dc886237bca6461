package model

import "time"

// Content status values stored in contents.status.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatus reports whether s is one of the known content statuses.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Content mirrors the `contents` table. Slug uniqueness is global: soft
// deleted rows keep their slug reserved forever. Soft delete sets IsDeleted
// and severs media links but never removes the row.
type Content struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	CategoryID      *int64    `json:"category_id,omitempty"`
	Body            string    `json:"body"`
	Status          string    `json:"status"`
	AuthorID        *string   `json:"author_id,omitempty"`
	MetaTitle       *string   `json:"meta_title,omitempty"`
	MetaDescription *string   `json:"meta_description,omitempty"`
	CoverImageURL   *string   `json:"cover_image_url,omitempty"`
	Tags            *string   `json:"tags,omitempty"`
	IsDeleted       bool      `json:"is_deleted"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
