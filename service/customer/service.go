package customer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sergen116/food-ordering-system/outbox"
)

// CreateCustomerCommand is the inbound request to register a new customer.
type CreateCustomerCommand struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

// Service is the Customer service's only entrypoint — it has no saga role
// and consumes nothing (spec.md §1, §4.6).
type Service struct {
	repo IRepo
	log  *logrus.Entry
}

func NewService(repo IRepo, log *logrus.Entry) *Service {
	return &Service{repo: repo, log: log.WithField("component", "customer_service")}
}

// CreateCustomer persists the customer row and enqueues a CustomerCreated
// outbox row in the same local transaction (the same
// "aggregate persisted iff outbox row persisted" invariant spec.md §4.2
// states for Order's PaymentOutbox write, generalized to this service's
// one-outbox case).
func (s *Service) CreateCustomer(ctx context.Context, cmd CreateCustomerCommand) (*Customer, error) {
	c := New(cmd.ID, cmd.Username, cmd.FirstName, cmd.LastName)

	err := s.repo.Transact(ctx, func(ctx context.Context, ex outbox.Execer) error {
		if err := s.repo.CreateCustomer(ctx, ex, c); err != nil {
			return err
		}
		msg, err := newOutboxMessage(c)
		if err != nil {
			return err
		}
		return s.repo.Outbox().Insert(ctx, ex, &msg)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("customer_id", c.ID).Info("customer created")
	return c, nil
}
