package payment

import (
	"context"

	"github.com/Shopify/sarama"
	"github.com/sirupsen/logrus"

	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/saga_event"
)

// Service consumes payment-request and produces PaymentCompleted,
// PaymentCancelled, or PaymentFailed on payment-response (spec.md §4.4).
// Passive by construction — it never initiates a saga, only reacts.
type Service struct {
	repo IRepo
	log  *logrus.Entry
}

func NewService(repo IRepo, log *logrus.Entry) *Service {
	return &Service{repo: repo, log: log.WithField("component", "payment_service")}
}

// Consume drains payment-request in a single loop over the stream that
// kafka.Consumer merges from all partitions.
func (s *Service) Consume(ctx context.Context, messages <-chan *sarama.ConsumerMessage, errs <-chan *sarama.ConsumerError) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.WithError(err.Err).Warn("payment-request consumer error")
		case m, ok := <-messages:
			if !ok {
				return
			}
			if err := s.handle(ctx, m.Value); err != nil {
				s.log.WithError(err).Error("failed to handle payment request")
			}
		}
	}
}

func (s *Service) handle(ctx context.Context, payload []byte) error {
	req, err := parsePaymentRequest(payload)
	if err != nil {
		s.log.WithError(err).Error("schema error decoding payment request, skipping")
		return nil
	}
	return s.Pay(ctx, req)
}

// Pay is spec.md §4.4's per-message pipeline: dedupe insert, load-or-create
// the credit history, apply debit or credit, emit the outcome — all in one
// local transaction.
func (s *Service) Pay(ctx context.Context, req saga_event.PaymentRequest) error {
	log := s.log.WithFields(logrus.Fields{"saga_id": req.SagaID, "type": req.Type})

	return s.repo.Transact(ctx, func(ctx context.Context, ex outbox.Execer) error {
		history, err := s.repo.LockCreditHistoryForUpdate(ctx, ex, req.CustomerID)
		if err != nil {
			return err
		}

		var resp saga_event.PaymentResponse
		switch req.Type {
		case saga_event.PaymentRequestCancel:
			history.Credit(req.Price)
			resp = buildPaymentResponse(req, saga_event.PaymentStatusCancelled, req.Price, nil)
		default:
			if err := history.Debit(req.Price); err != nil {
				resp = buildPaymentResponse(req, saga_event.PaymentStatusFailed, req.Price, []string{err.Error()})
				break
			}
			resp = buildPaymentResponse(req, saga_event.PaymentStatusCompleted, req.Price, nil)
		}

		msg, err := newResponseOutboxMessage(req, resp, sagaStatusForRequest(req.Type))
		if err != nil {
			return err
		}

		// The dedupe insert runs before the credit-history write lands
		// (spec.md §4.4 step 1) so a duplicate delivery's unique-violation
		// returns before the credit_histories UPDATE is issued, discarding
		// the debit/credit computed above — the history mutation never
		// takes effect twice.
		if err := s.repo.ResponseOutbox().Insert(ctx, ex, &msg); err != nil {
			if apperr.Is(err, apperr.KindOptimisticLock) {
				log.Debug("duplicate payment request delivery, dropping")
				return nil
			}
			return err
		}

		if resp.PaymentStatus != saga_event.PaymentStatusFailed {
			if _, err := s.repo.UpdateCreditHistoryCAS(ctx, ex, &history); err != nil {
				return err
			}
		}

		log.WithField("status", resp.PaymentStatus).Info("payment request processed")
		return nil
	})
}
