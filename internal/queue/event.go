// Package queue defines message payloads exchanged over the message broker
// and the background consumer for them.
package queue

// AuditEventQueue is the durable queue audit events are published to.
const AuditEventQueue = "audit.recorded"

// AuditEvent is published after a mutating request commits. It duplicates
// the committed audit row so downstream consumers can log or alert without
// querying the primary database; the database row remains the source of
// truth.
type AuditEvent struct {
	Action     string `json:"action"`
	UserID     string `json:"user_id,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	RecordedAt string `json:"recorded_at"`
}
