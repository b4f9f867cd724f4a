package order

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"

	"github.com/sergen116/food-ordering-system/pkg/apperr"
)

// ConsumePaymentResponses drains the payment-response topic in a single
// loop over the stream kafka.Consumer merges from all partitions. Schema
// errors are logged and the message is skipped, never retried (spec.md §7
// "fatal for the message").
func (s *Service) ConsumePaymentResponses(ctx context.Context, messages <-chan *sarama.ConsumerMessage, errs <-chan *sarama.ConsumerError) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.WithError(err.Err).Warn("payment-response consumer error")
		case m, ok := <-messages:
			if !ok {
				return
			}
			var resp struct {
				SagaID string `json:"saga_id"`
			}
			if err := json.Unmarshal(m.Value, &resp); err != nil {
				s.log.WithError(err).Error("malformed payment-response message, skipping")
				continue
			}
			if err := s.handlePaymentResponseBytes(ctx, m.Value); err != nil && !apperr.Is(err, apperr.KindOptimisticLock) {
				s.log.WithField("saga_id", resp.SagaID).WithError(err).Error("failed to handle payment response")
			}
		}
	}
}

func (s *Service) handlePaymentResponseBytes(ctx context.Context, payload []byte) error {
	resp, err := parsePaymentResponse(payload)
	if err != nil {
		s.log.WithError(err).Error("schema error decoding payment response, skipping")
		return nil
	}
	return s.HandlePaymentResponse(ctx, resp)
}

// ConsumeApprovalResponses drains the restaurant-approval-response topic.
func (s *Service) ConsumeApprovalResponses(ctx context.Context, messages <-chan *sarama.ConsumerMessage, errs <-chan *sarama.ConsumerError) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.WithError(err.Err).Warn("approval-response consumer error")
		case m, ok := <-messages:
			if !ok {
				return
			}
			if err := s.handleApprovalResponseBytes(ctx, m.Value); err != nil && !apperr.Is(err, apperr.KindOptimisticLock) {
				s.log.WithError(err).Error("failed to handle approval response")
			}
		}
	}
}

func (s *Service) handleApprovalResponseBytes(ctx context.Context, payload []byte) error {
	resp, err := parseApprovalResponse(payload)
	if err != nil {
		s.log.WithError(err).Error("schema error decoding approval response, skipping")
		return nil
	}
	return s.HandleApprovalResponse(ctx, resp)
}

// ConsumeCustomerReplica drains the `customer` topic into the local replica
// (spec.md §4.6).
func (s *Service) ConsumeCustomerReplica(ctx context.Context, messages <-chan *sarama.ConsumerMessage, errs <-chan *sarama.ConsumerError) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.WithError(err.Err).Warn("customer consumer error")
		case m, ok := <-messages:
			if !ok {
				return
			}
			model, err := parseCustomerModel(m.Value)
			if err != nil {
				s.log.WithError(err).Error("schema error decoding customer model, skipping")
				continue
			}
			if err := s.customers.Upsert(ctx, model); err != nil {
				s.log.WithError(err).WithField("customer_id", model.ID).Error("failed to upsert customer replica")
			}
		}
	}
}

// ConsumeRestaurantReplica drains the `restaurant` topic into the local
// replica (SPEC_FULL.md §12).
func (s *Service) ConsumeRestaurantReplica(ctx context.Context, messages <-chan *sarama.ConsumerMessage, errs <-chan *sarama.ConsumerError) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.WithError(err.Err).Warn("restaurant consumer error")
		case m, ok := <-messages:
			if !ok {
				return
			}
			model, err := parseRestaurantModel(m.Value)
			if err != nil {
				s.log.WithError(err).Error("schema error decoding restaurant model, skipping")
				continue
			}
			if err := s.restaurants.Upsert(ctx, model); err != nil {
				s.log.WithError(err).WithField("restaurant_id", model.ID).Error("failed to upsert restaurant replica")
			}
		}
	}
}
