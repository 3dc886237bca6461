package model

import "time"

// AuditLog mirrors the `audit_logs` table. Rows are append-only; UserID is
// nullable so system-initiated events can be recorded without an actor.
type AuditLog struct {
	ID         int64     `json:"id"`
	UserID     *string   `json:"user_id,omitempty"`
	Action     string    `json:"action"`
	TargetID   *string   `json:"target_id,omitempty"`
	DeviceInfo *string   `json:"device_info,omitempty"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	Meta       *string   `json:"meta,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
