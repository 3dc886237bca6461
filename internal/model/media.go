package model

import "time"

// MediaFile mirrors the `media_files` table. A media file is owned
// independently of any content; contents reference it through the derived
// content_media link table.
type MediaFile struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename *string   `json:"original_filename,omitempty"`
	URL              string    `json:"url"`
	ContentType      string    `json:"content_type"`
	Size             int64     `json:"size"`
	UploadedBy       *string   `json:"uploaded_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	// UsageCount is filled by list queries that join content_media; it is
	// not a column of media_files itself.
	UsageCount int64 `json:"usage_count"`
}

// ContentMedia mirrors the `content_media` link table. The set of links for
// a content id always equals the set of upload URLs present in that
// content's current body; the relation is fully recomputable.
type ContentMedia struct {
	ID        int64  `json:"id"`
	ContentID int64  `json:"content_id"`
	MediaID   string `json:"media_id"`
}
