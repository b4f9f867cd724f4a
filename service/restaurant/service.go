package restaurant

import (
	"context"

	"github.com/Shopify/sarama"
	"github.com/sirupsen/logrus"

	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/saga_event"
)

// Service consumes restaurant-approval-request and produces Approved or
// Rejected on restaurant-approval-response (spec.md §4.5).
type Service struct {
	repo IRepo
	log  *logrus.Entry
}

func NewService(repo IRepo, log *logrus.Entry) *Service {
	return &Service{repo: repo, log: log.WithField("component", "restaurant_service")}
}

// Consume drains restaurant-approval-request in a single loop over the
// stream that kafka.Consumer merges from all partitions.
func (s *Service) Consume(ctx context.Context, messages <-chan *sarama.ConsumerMessage, errs <-chan *sarama.ConsumerError) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.WithError(err.Err).Warn("restaurant-approval-request consumer error")
		case m, ok := <-messages:
			if !ok {
				return
			}
			if err := s.handle(ctx, m.Value); err != nil {
				s.log.WithError(err).Error("failed to handle approval request")
			}
		}
	}
}

func (s *Service) handle(ctx context.Context, payload []byte) error {
	req, err := parseApprovalRequest(payload)
	if err != nil {
		s.log.WithError(err).Error("schema error decoding approval request, skipping")
		return nil
	}
	return s.Approve(ctx, req)
}

// Approve is spec.md §4.5's per-message pipeline: dedupe insert, catalog
// check, reserve-or-reject, persist — all in one local transaction.
func (s *Service) Approve(ctx context.Context, req saga_event.ApprovalRequest) error {
	log := s.log.WithField("saga_id", req.SagaID)

	return s.repo.Transact(ctx, func(ctx context.Context, ex outbox.Execer) error {
		rest, err := s.repo.GetForUpdate(ctx, ex, req.RestaurantID)
		if err != nil {
			return err
		}

		requested := toRequestedProducts(req.Products)
		failures := rest.Validate(requested)

		var resp saga_event.ApprovalResponse
		if len(failures) > 0 {
			resp = buildApprovalResponse(req, saga_event.OrderApprovalStatusRejected, failures)
		} else if err := rest.Reserve(requested); err != nil {
			resp = buildApprovalResponse(req, saga_event.OrderApprovalStatusRejected, []string{err.Error()})
		} else {
			resp = buildApprovalResponse(req, saga_event.OrderApprovalStatusApproved, nil)
		}

		msg, err := newResponseOutboxMessage(req, resp)
		if err != nil {
			return err
		}

		if err := s.repo.ResponseOutbox().Insert(ctx, ex, &msg); err != nil {
			if apperr.Is(err, apperr.KindOptimisticLock) {
				log.Debug("duplicate approval request delivery, dropping")
				return nil
			}
			return err
		}

		if resp.OrderApprovalStatus == saga_event.OrderApprovalStatusApproved {
			if _, err := s.repo.UpdateCAS(ctx, ex, &rest); err != nil {
				return err
			}
		}

		log.WithField("status", resp.OrderApprovalStatus).Info("approval request processed")
		return nil
	})
}
