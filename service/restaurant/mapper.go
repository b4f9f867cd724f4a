package restaurant

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/saga_event"
)

func parseApprovalRequest(payload []byte) (saga_event.ApprovalRequest, error) {
	var req saga_event.ApprovalRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return saga_event.ApprovalRequest{}, apperr.Schema("restaurant: unmarshal approval request", err)
	}
	return req, nil
}

func toRequestedProducts(products []saga_event.ApprovalProduct) []RequestedProduct {
	out := make([]RequestedProduct, len(products))
	for i, p := range products {
		out[i] = RequestedProduct{ID: p.ID, Quantity: p.Quantity}
	}
	return out
}

func buildApprovalResponse(req saga_event.ApprovalRequest, status saga_event.OrderApprovalStatus, failureMessages []string) saga_event.ApprovalResponse {
	return saga_event.ApprovalResponse{
		SagaID:              req.SagaID,
		OrderID:             req.OrderID,
		CreatedAt:           time.Now().UTC(),
		OrderApprovalStatus: status,
		FailureMessages:     failureMessages,
	}
}

// newResponseOutboxMessage fills the bookkeeping columns for a row in
// ApprovalResponseOutbox, keyed for dedupe by (sagaId) alone per spec.md
// §4.5 — Restaurant only ever produces one response per saga, so every row
// is written with the same sagaStatus (STARTED), making sagaId the
// effective unique key within this table even though the schema's unique
// index is the general (saga_id, saga_status) pair.
func newResponseOutboxMessage(req saga_event.ApprovalRequest, resp saga_event.ApprovalResponse) (outbox.Message, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return outbox.Message{}, fmt.Errorf("restaurant: marshal approval response: %w", err)
	}
	return outbox.Message{
		SagaID:       req.SagaID,
		CreatedAt:    time.Now().UTC(),
		Type:         "APPROVAL_RESPONSE",
		Payload:      b,
		OrderStatus:  string(req.RestaurantOrderStatus),
		SagaStatus:   outbox.SagaStarted,
		OutboxStatus: outbox.StatusStarted,
	}, nil
}
