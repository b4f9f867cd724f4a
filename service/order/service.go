package order

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/sergen116/food-ordering-system/model"
	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/pkg/money"
	"github.com/sergen116/food-ordering-system/saga_event"
)

// validate runs the struct-tag checks in SPEC_FULL.md §10 before a command
// ever reaches the domain layer. A single *validator.Validate is safe for
// concurrent use across every CreateOrder call, so it is built once here
// rather than per request.
var validate = validator.New()

// CreateOrderCommand is the input to CreateOrder (spec.md §1 puts the HTTP
// edge that accepts it out of scope; this is the boundary the edge would
// call into). The validate tags cover the structural checks (non-empty
// ids, at least one item, delivery address present); the cross-field
// invariants I1/I2 stay in the aggregate's own validateInvariants.
type CreateOrderCommand struct {
	OrderID         string        `validate:"required"`
	CustomerID      string        `validate:"required"`
	RestaurantID    string        `validate:"required"`
	DeliveryAddress model.Address `validate:"required"`
	Items           []Item        `validate:"required,min=1,dive"`
	Price           money.Money
}

// Service is the Order service's command surface and the choreographed
// SAGA engine (spec.md §4.2): it advances by reacting to PaymentResponse
// and ApprovalResponse events rather than centrally orchestrating them. Log
// consumption lives in consume.go, which dispatches into the handlers
// below.
type Service struct {
	repo        IRepo
	restaurants *RestaurantReplica
	customers   *CustomerReplica

	log *logrus.Entry
}

func NewService(repo IRepo, restaurants *RestaurantReplica, customers *CustomerReplica, log *logrus.Entry) *Service {
	return &Service{
		repo:        repo,
		restaurants: restaurants,
		customers:   customers,
		log:         log.WithField("component", "order_service"),
	}
}

// CreateOrder validates a new order against the replicas, constructs the
// aggregate, and atomically persists it alongside the PAY payment-request
// outbox row (spec.md §4.2 step 1).
func (s *Service) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*Order, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, apperr.Domainf("order: invalid create order command: %v", err)
	}

	hasCustomer, err := s.customers.Exists(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	if !hasCustomer {
		return nil, apperr.NotFoundf("order: unknown customer %s", cmd.CustomerID)
	}

	snapshot, err := s.restaurants.Snapshot(ctx, cmd.RestaurantID)
	if err != nil {
		return nil, err
	}

	o, err := New(cmd.OrderID, cmd.CustomerID, cmd.RestaurantID, cmd.DeliveryAddress, cmd.Items, cmd.Price, snapshot)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := buildPaymentRequest(o, saga_event.PaymentRequestPay, now)
	msg, err := newOutboxMessage(o.ID, "PAY", req, o.Status, outbox.SagaStarted)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transact(ctx, func(ctx context.Context, ex outbox.Execer) error {
		if err := s.repo.CreateOrder(ctx, ex, o); err != nil {
			return err
		}
		return s.repo.PaymentOutbox().Insert(ctx, ex, &msg)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "customer_id": o.CustomerID}).Info("order created")
	return o, nil
}

// HandlePaymentResponse advances or compensates the saga on a payment-step
// response (spec.md §4.2 step 1). The existing PaymentOutbox row is the
// dedupe mechanism for this event: a response the engine already applied
// cannot find a row still sitting in the status it expects, so a second
// delivery is a silent no-op (spec.md §4.2 "Tie-breaks and edge cases").
func (s *Service) HandlePaymentResponse(ctx context.Context, resp saga_event.PaymentResponse) error {
	log := s.log.WithFields(logrus.Fields{"saga_id": resp.SagaID, "event": "payment_response", "status": resp.PaymentStatus})

	return s.repo.Transact(ctx, func(ctx context.Context, ex outbox.Execer) error {
		switch resp.PaymentStatus {
		case saga_event.PaymentStatusCompleted:
			return s.onPaymentCompleted(ctx, ex, resp, log)
		case saga_event.PaymentStatusFailed:
			return s.onPaymentFailed(ctx, ex, resp, log)
		case saga_event.PaymentStatusCancelled:
			return s.onPaymentCancelled(ctx, ex, resp, log)
		default:
			log.Warn("unknown payment status, dropping")
			return nil
		}
	})
}

func (s *Service) onPaymentCompleted(ctx context.Context, ex outbox.Execer, resp saga_event.PaymentResponse, log *logrus.Entry) error {
	row, err := s.repo.PaymentOutbox().FindBySagaAndStatus(ctx, ex, resp.SagaID, outbox.SagaStarted)
	if apperr.Is(err, apperr.KindNotFound) {
		log.Debug("no STARTED payment outbox row, treating as duplicate or stale delivery")
		return nil
	}
	if err != nil {
		return err
	}

	o, err := s.repo.GetOrderForUpdate(ctx, ex, resp.OrderID)
	if err != nil {
		return err
	}
	if err := o.Pay(); err != nil {
		log.WithError(err).Warn("payment completed response is stale, dropping")
		return nil
	}
	if err := s.requireOrderUpdated(ctx, ex, &o); err != nil {
		return err
	}

	if _, err := s.repo.PaymentOutbox().UpdateStatuses(ctx, ex, row, outbox.SagaProcessing, outbox.StatusCompleted, nowPtr()); err != nil {
		return err
	}

	approvalReq := buildApprovalRequest(&o, time.Now().UTC())
	approvalMsg, err := newOutboxMessage(o.ID, "APPROVE", approvalReq, o.Status, outbox.SagaProcessing)
	if err != nil {
		return err
	}
	if err := s.repo.ApprovalOutbox().Insert(ctx, ex, &approvalMsg); err != nil {
		return err
	}

	log.Info("order paid, approval requested")
	return nil
}

func (s *Service) onPaymentFailed(ctx context.Context, ex outbox.Execer, resp saga_event.PaymentResponse, log *logrus.Entry) error {
	row, err := s.repo.PaymentOutbox().FindBySagaAndStatus(ctx, ex, resp.SagaID, outbox.SagaStarted)
	if apperr.Is(err, apperr.KindNotFound) {
		log.Debug("no STARTED payment outbox row, treating as duplicate or stale delivery")
		return nil
	}
	if err != nil {
		return err
	}

	o, err := s.repo.GetOrderForUpdate(ctx, ex, resp.OrderID)
	if err != nil {
		return err
	}
	if err := o.InitCancel(resp.FailureMessages); err != nil {
		log.WithError(err).Warn("payment failed response is stale, dropping")
		return nil
	}
	if err := s.requireOrderUpdated(ctx, ex, &o); err != nil {
		return err
	}

	_, err = s.repo.PaymentOutbox().UpdateStatuses(ctx, ex, row, outbox.SagaFailed, outbox.StatusCompleted, nowPtr())
	if err != nil {
		return err
	}

	log.Info("order cancelled after payment failure")
	return nil
}

func (s *Service) onPaymentCancelled(ctx context.Context, ex outbox.Execer, resp saga_event.PaymentResponse, log *logrus.Entry) error {
	row, err := s.repo.PaymentOutbox().FindBySagaAndStatus(ctx, ex, resp.SagaID, outbox.SagaCompensating)
	if apperr.Is(err, apperr.KindNotFound) {
		log.Debug("no COMPENSATING payment outbox row, treating as duplicate or stale delivery")
		return nil
	}
	if err != nil {
		return err
	}

	o, err := s.repo.GetOrderForUpdate(ctx, ex, resp.OrderID)
	if err != nil {
		return err
	}
	if err := o.Cancel(resp.FailureMessages); err != nil {
		log.WithError(err).Warn("payment cancelled response is stale, dropping")
		return nil
	}
	if err := s.requireOrderUpdated(ctx, ex, &o); err != nil {
		return err
	}

	_, err = s.repo.PaymentOutbox().UpdateStatuses(ctx, ex, row, outbox.SagaCompensated, outbox.StatusCompleted, nowPtr())
	if err != nil {
		return err
	}

	log.Info("compensating payment credit acknowledged, order cancelled")
	return nil
}

// HandleApprovalResponse advances or compensates the saga on a
// restaurant-approval response (spec.md §4.2 step 2).
func (s *Service) HandleApprovalResponse(ctx context.Context, resp saga_event.ApprovalResponse) error {
	log := s.log.WithFields(logrus.Fields{"saga_id": resp.SagaID, "event": "approval_response", "status": resp.OrderApprovalStatus})

	return s.repo.Transact(ctx, func(ctx context.Context, ex outbox.Execer) error {
		switch resp.OrderApprovalStatus {
		case saga_event.OrderApprovalStatusApproved:
			return s.onApproved(ctx, ex, resp, log)
		case saga_event.OrderApprovalStatusRejected:
			return s.onRejected(ctx, ex, resp, log)
		default:
			log.Warn("unknown approval status, dropping")
			return nil
		}
	})
}

func (s *Service) onApproved(ctx context.Context, ex outbox.Execer, resp saga_event.ApprovalResponse, log *logrus.Entry) error {
	row, err := s.repo.ApprovalOutbox().FindBySagaAndStatus(ctx, ex, resp.SagaID, outbox.SagaProcessing)
	if apperr.Is(err, apperr.KindNotFound) {
		log.Debug("no PROCESSING approval outbox row, treating as duplicate or stale delivery")
		return nil
	}
	if err != nil {
		return err
	}

	o, err := s.repo.GetOrderForUpdate(ctx, ex, resp.OrderID)
	if err != nil {
		return err
	}
	if err := o.Approve(); err != nil {
		log.WithError(err).Warn("approved response is stale, dropping")
		return nil
	}
	if err := s.requireOrderUpdated(ctx, ex, &o); err != nil {
		return err
	}

	_, err = s.repo.ApprovalOutbox().UpdateStatuses(ctx, ex, row, outbox.SagaSucceeded, outbox.StatusCompleted, nowPtr())
	if err != nil {
		return err
	}

	log.Info("order approved, saga complete")
	return nil
}

func (s *Service) onRejected(ctx context.Context, ex outbox.Execer, resp saga_event.ApprovalResponse, log *logrus.Entry) error {
	row, err := s.repo.ApprovalOutbox().FindBySagaAndStatus(ctx, ex, resp.SagaID, outbox.SagaProcessing)
	if apperr.Is(err, apperr.KindNotFound) {
		log.Debug("no PROCESSING approval outbox row, treating as duplicate or stale delivery")
		return nil
	}
	if err != nil {
		return err
	}

	o, err := s.repo.GetOrderForUpdate(ctx, ex, resp.OrderID)
	if err != nil {
		return err
	}
	if err := o.InitCancel(resp.FailureMessages); err != nil {
		log.WithError(err).Warn("rejected response is stale, dropping")
		return nil
	}
	if err := s.requireOrderUpdated(ctx, ex, &o); err != nil {
		return err
	}

	_, err = s.repo.ApprovalOutbox().UpdateStatuses(ctx, ex, row, outbox.SagaCompensating, outbox.StatusCompleted, nowPtr())
	if err != nil {
		return err
	}

	cancelReq := buildPaymentRequest(&o, saga_event.PaymentRequestCancel, time.Now().UTC())
	cancelMsg, err := newOutboxMessage(o.ID, "CANCEL", cancelReq, o.Status, outbox.SagaCompensating)
	if err != nil {
		return err
	}
	if err := s.repo.PaymentOutbox().Insert(ctx, ex, &cancelMsg); err != nil {
		return err
	}

	log.Info("order rejected by restaurant, compensating payment requested")
	return nil
}

// requireOrderUpdated persists o and fails loudly if the CAS lost — it
// should never happen here since the row was locked with FOR UPDATE inside
// the same transaction (repo.GetOrderForUpdate), so a lost race means the
// version the caller read is already gone and needs investigating rather
// than being swallowed as an idempotency no-op (spec.md §5 "a failed CAS
// elsewhere surfaces as an error").
func (s *Service) requireOrderUpdated(ctx context.Context, ex outbox.Execer, o *Order) error {
	updated, err := s.repo.UpdateOrderCAS(ctx, ex, o)
	if err != nil {
		return err
	}
	if !updated {
		return apperr.Domainf("order: lost optimistic-lock race updating order %s", o.ID)
	}
	return nil
}

func nowPtr() *time.Time {
	t := time.Now().UTC()
	return &t
}
