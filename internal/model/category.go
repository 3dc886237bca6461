package model

import "time"

// Category mirrors the `categories` table.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OrderIndex  *int      `json:"order_index,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
