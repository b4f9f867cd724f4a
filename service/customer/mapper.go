package customer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/saga_event"
)

func buildCustomerModel(c *Customer) saga_event.CustomerModel {
	return saga_event.CustomerModel{
		ID:        c.ID,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

// newOutboxMessage fills the bookkeeping columns for the single
// CustomerCreated row this aggregate ever writes. There is no compensation
// and no second status to reach, so sagaStatus stays STARTED for the row's
// entire lifetime on the outbound side — it only ever moves COMPLETED on
// the outbox_status column once the sweeper publishes it.
func newOutboxMessage(c *Customer) (outbox.Message, error) {
	payload, err := json.Marshal(buildCustomerModel(c))
	if err != nil {
		return outbox.Message{}, fmt.Errorf("customer: marshal customer model: %w", err)
	}
	return outbox.Message{
		SagaID:       c.ID,
		CreatedAt:    time.Now().UTC(),
		Type:         "CUSTOMER_CREATED",
		Payload:      payload,
		OrderStatus:  "",
		SagaStatus:   outbox.SagaStarted,
		OutboxStatus: outbox.StatusStarted,
	}, nil
}
