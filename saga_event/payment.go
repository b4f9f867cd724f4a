// Package saga_event defines the wire payload structs exchanged on the
// topics in spec.md §6. Generated wire-format classes must not leak into
// domain code (§9) — these are plain JSON-tagged structs mapped to/from
// aggregates at the adapter boundary (service/*/mapper.go), standing in for
// the schema-registered binary format spec.md §1 puts out of core scope.
package saga_event

import (
	"time"

	"github.com/sergen116/food-ordering-system/pkg/money"
)

// PaymentOrderStatus is the order-status snapshot carried on a PaymentRequest.
type PaymentOrderStatus string

const (
	PaymentOrderStatusPending   PaymentOrderStatus = "PENDING"
	PaymentOrderStatusCancelled PaymentOrderStatus = "CANCELLED"
)

// PaymentRequestType distinguishes a forward debit from a compensating
// credit, both carried on the same topic (spec.md §4.2 PAY vs CANCEL).
type PaymentRequestType string

const (
	PaymentRequestPay    PaymentRequestType = "PAY"
	PaymentRequestCancel PaymentRequestType = "CANCEL"
)

// PaymentRequest is published by Order, consumed by Payment (payment-request).
type PaymentRequest struct {
	SagaID             string             `json:"saga_id"`
	CustomerID         string             `json:"customer_id"`
	OrderID            string             `json:"order_id"`
	Price              money.Money        `json:"price"`
	CreatedAt          time.Time          `json:"created_at"`
	PaymentOrderStatus PaymentOrderStatus `json:"payment_order_status"`
	Type               PaymentRequestType `json:"type"`
}

// PaymentStatus is the outcome reported on a PaymentResponse.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PaymentResponse is published by Payment, consumed by Order (payment-response).
type PaymentResponse struct {
	SagaID           string        `json:"saga_id"`
	CustomerID       string        `json:"customer_id"`
	OrderID          string        `json:"order_id"`
	Price            money.Money   `json:"price"`
	CreatedAt        time.Time     `json:"created_at"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	FailureMessages  []string      `json:"failure_messages,omitempty"`
}
