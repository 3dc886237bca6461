package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/evgkirov/member-content-system/internal/queue"
)

// AuditPublisher fans audit events out to RabbitMQ after the owning
// transaction commits. Publishing is strictly best-effort: every error is
// logged and swallowed so a broker outage never fails a request. A nil
// publisher is valid and publishes nothing.
type AuditPublisher struct {
	URL string
}

// NewAuditPublisher returns a publisher for the given broker URL, or nil
// when url is empty (fan-out disabled).
func NewAuditPublisher(url string) *AuditPublisher {
	if url == "" {
		return nil
	}
	return &AuditPublisher{URL: url}
}

// Publish sends one event to the audit.recorded queue. Messages are
// persistent; the queue declare is idempotent.
func (p *AuditPublisher) Publish(ctx context.Context, ev queue.AuditEvent) {
	if p == nil {
		return
	}
	if ev.RecordedAt == "" {
		ev.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("audit-events: dial failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("audit-events: channel open failed: %v", err)
		return
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.AuditEventQueue, true, false, false, false, nil); err != nil {
		log.Printf("audit-events: queue declare failed: %v", err)
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("audit-events: marshal failed: %v", err)
		return
	}

	err = ch.PublishWithContext(ctx, "", queue.AuditEventQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		log.Printf("audit-events: publish failed: %v", err)
	}
}
