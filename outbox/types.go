// Package outbox implements the transactional outbox subsystem shared by
// every service: the write-side guarantee that domain state and outbound
// message enqueue commit atomically (spec.md §4.3), a publish sweeper that
// drains pending rows onto the log, a cleanup sweeper that retires
// completed ones, and the dedupe-insert primitive that makes inbound event
// handling idempotent.
//
// One Store is opened per outbox table (PaymentOutbox, ApprovalOutbox,
// PaymentResponseOutbox, ApprovalResponseOutbox, CustomerOutbox); the SQL
// shape is identical across all of them, generalizing the CreateOutbox /
// GetPendingOutbox / MarkDoneOutboxes trio the teacher repeated verbatim
// in service/order, service/payment and service/inventory's repo.go files.
package outbox

import "time"

// Status is the outbound-delivery status column (§3 outboxStatus).
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// SagaStatus is the saga-lifecycle snapshot stored on each outbox row (§3).
type SagaStatus string

const (
	SagaStarted      SagaStatus = "STARTED"
	SagaProcessing   SagaStatus = "PROCESSING"
	SagaSucceeded    SagaStatus = "SUCCEEDED"
	SagaCompensating SagaStatus = "COMPENSATING"
	SagaCompensated  SagaStatus = "COMPENSATED"
	SagaFailed       SagaStatus = "FAILED"
)

// Message is one row of an outbox table (§3 OutboxMessage).
type Message struct {
	ID           int64      `db:"id"`
	SagaID       string     `db:"saga_id"`
	CreatedAt    time.Time  `db:"created_at"`
	ProcessedAt  *time.Time `db:"processed_at"`
	Type         string     `db:"type"`
	Payload      []byte     `db:"payload"`
	OrderStatus  string     `db:"order_status"`
	SagaStatus   SagaStatus `db:"saga_status"`
	OutboxStatus Status     `db:"outbox_status"`
	Version      int        `db:"version"`
}
