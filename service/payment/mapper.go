package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/pkg/money"
	"github.com/sergen116/food-ordering-system/saga_event"
)

func parsePaymentRequest(payload []byte) (saga_event.PaymentRequest, error) {
	var req saga_event.PaymentRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return saga_event.PaymentRequest{}, apperr.Schema("payment: unmarshal payment request", err)
	}
	return req, nil
}

func buildPaymentResponse(req saga_event.PaymentRequest, status saga_event.PaymentStatus, price money.Money, failureMessages []string) saga_event.PaymentResponse {
	return saga_event.PaymentResponse{
		SagaID:          req.SagaID,
		CustomerID:      req.CustomerID,
		OrderID:         req.OrderID,
		Price:           price,
		CreatedAt:       time.Now().UTC(),
		PaymentStatus:   status,
		FailureMessages: failureMessages,
	}
}

// sagaStatusForRequest maps a request Type onto the shared outbox schema's
// sagaStatus column so the generic (saga_id, saga_status) unique
// constraint realizes spec.md §4.4's (sagaId, type) dedupe key: a forward
// PAY is the first attempt for this saga on this service (STARTED), a
// compensating CANCEL is the rollback attempt (COMPENSATING) — the same
// two values Order's own PaymentOutbox already uses for PAY vs CANCEL.
func sagaStatusForRequest(reqType saga_event.PaymentRequestType) outbox.SagaStatus {
	if reqType == saga_event.PaymentRequestCancel {
		return outbox.SagaCompensating
	}
	return outbox.SagaStarted
}

// newResponseOutboxMessage fills the bookkeeping columns for a row in
// PaymentResponseOutbox.
func newResponseOutboxMessage(req saga_event.PaymentRequest, resp saga_event.PaymentResponse, sagaStatus outbox.SagaStatus) (outbox.Message, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return outbox.Message{}, fmt.Errorf("payment: marshal payment response: %w", err)
	}
	return outbox.Message{
		SagaID:       req.SagaID,
		CreatedAt:    time.Now().UTC(),
		Type:         string(req.Type),
		Payload:      b,
		OrderStatus:  string(req.PaymentOrderStatus),
		SagaStatus:   sagaStatus,
		OutboxStatus: outbox.StatusStarted,
	}, nil
}
