package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/saga_event"
)

// buildPaymentRequest renders the wire PaymentRequest for either a forward
// debit (PAY, on order creation) or a compensating credit (CANCEL, on a
// restaurant rejection) — spec.md §4.2 steps 1 and 2, §9 "generated
// wire-format classes must not leak into domain code" kept by confining the
// mapping to this file.
func buildPaymentRequest(o *Order, reqType saga_event.PaymentRequestType, now time.Time) saga_event.PaymentRequest {
	status := saga_event.PaymentOrderStatusPending
	if reqType == saga_event.PaymentRequestCancel {
		status = saga_event.PaymentOrderStatusCancelled
	}
	return saga_event.PaymentRequest{
		SagaID:             o.ID,
		CustomerID:         o.CustomerID,
		OrderID:            o.ID,
		Price:              o.Price,
		CreatedAt:          now,
		PaymentOrderStatus: status,
		Type:               reqType,
	}
}

// buildApprovalRequest renders the wire ApprovalRequest once an order has
// been paid (spec.md §4.2 step 2 / §4.5).
func buildApprovalRequest(o *Order, now time.Time) saga_event.ApprovalRequest {
	products := make([]saga_event.ApprovalProduct, len(o.Items))
	for i, it := range o.Items {
		products[i] = saga_event.ApprovalProduct{ID: it.ProductID, Quantity: it.Quantity}
	}
	return saga_event.ApprovalRequest{
		SagaID:                o.ID,
		OrderID:               o.ID,
		RestaurantID:          o.RestaurantID,
		CreatedAt:             now,
		RestaurantOrderStatus: saga_event.RestaurantOrderStatusPaid,
		Products:              products,
	}
}

// newOutboxMessage marshals payload and fills in the bookkeeping columns
// every outbox row shares (spec.md §3 OutboxMessage).
func newOutboxMessage(sagaID, msgType string, payload any, orderStatus Status, sagaStatus outbox.SagaStatus) (outbox.Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return outbox.Message{}, fmt.Errorf("order: marshal %s payload: %w", msgType, err)
	}
	return outbox.Message{
		SagaID:       sagaID,
		CreatedAt:    time.Now().UTC(),
		Type:         msgType,
		Payload:      b,
		OrderStatus:  string(orderStatus),
		SagaStatus:   sagaStatus,
		OutboxStatus: outbox.StatusStarted,
	}, nil
}

func parsePaymentResponse(payload []byte) (saga_event.PaymentResponse, error) {
	var resp saga_event.PaymentResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return saga_event.PaymentResponse{}, apperr.Schema("order: unmarshal payment response", err)
	}
	return resp, nil
}

func parseApprovalResponse(payload []byte) (saga_event.ApprovalResponse, error) {
	var resp saga_event.ApprovalResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return saga_event.ApprovalResponse{}, apperr.Schema("order: unmarshal approval response", err)
	}
	return resp, nil
}

func parseCustomerModel(payload []byte) (saga_event.CustomerModel, error) {
	var m saga_event.CustomerModel
	if err := json.Unmarshal(payload, &m); err != nil {
		return saga_event.CustomerModel{}, apperr.Schema("order: unmarshal customer model", err)
	}
	return m, nil
}

func parseRestaurantModel(payload []byte) (saga_event.RestaurantModel, error) {
	var m saga_event.RestaurantModel
	if err := json.Unmarshal(payload, &m); err != nil {
		return saga_event.RestaurantModel{}, apperr.Schema("order: unmarshal restaurant model", err)
	}
	return m, nil
}
