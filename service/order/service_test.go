package order_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sergen116/food-ordering-system/model"
	"github.com/sergen116/food-ordering-system/saga_event"
	"github.com/sergen116/food-ordering-system/service/order"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l.WithField("test", true)
}

func validAddress() model.Address {
	return model.Address{Street: "1 Main St", PostalCode: "00000", City: "Springfield"}
}

// CreateOrder must write the order row and the PAY payment-outbox row in
// one transaction (spec.md §4.2 step 1's "aggregate persisted iff outbox
// row persisted" invariant) only after both replicas confirm the
// referenced customer and restaurant.
func TestCreateOrder_InsertsOrderAndPaymentOutboxAtomically(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectQuery("SELECT id, username, first_name, last_name FROM customer_replicas WHERE id = \\?").
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "last_name"}).
			AddRow("cust-1", "jdoe", "Jane", "Doe"))

	mock.ExpectQuery("SELECT id, active, products FROM restaurant_replicas WHERE id = \\?").
		WithArgs("rest-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "active", "products"}).
			AddRow("rest-1", true, []byte(`[{"id":"product-1","name":"Burger","price":"50.00"}]`)))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_outbox_messages").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := order.NewRepo(sqlxDB)
	svc := order.NewService(repo, order.NewRestaurantReplica(sqlxDB), order.NewCustomerReplica(sqlxDB), testLogger())

	cmd := order.CreateOrderCommand{
		OrderID:         "order-1",
		CustomerID:      "cust-1",
		RestaurantID:    "rest-1",
		DeliveryAddress: validAddress(),
		Items:           validItems(t),
		Price:           mustMoney(t, "200.00"),
	}

	o, err := svc.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, o.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

// An unknown customer must fail before any transaction is opened — no
// order row and no outbox row is ever written for a command that can't
// pass the replica check.
func TestCreateOrder_UnknownCustomerNeverOpensTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectQuery("SELECT id, username, first_name, last_name FROM customer_replicas WHERE id = \\?").
		WithArgs("cust-ghost").
		WillReturnError(sql.ErrNoRows)

	repo := order.NewRepo(sqlxDB)
	svc := order.NewService(repo, order.NewRestaurantReplica(sqlxDB), order.NewCustomerReplica(sqlxDB), testLogger())

	cmd := order.CreateOrderCommand{
		OrderID:         "order-1",
		CustomerID:      "cust-ghost",
		RestaurantID:    "rest-1",
		DeliveryAddress: validAddress(),
		Items:           validItems(t),
		Price:           mustMoney(t, "200.00"),
	}

	_, err = svc.CreateOrder(context.Background(), cmd)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A structurally invalid command (no items) must fail validation before
// ever touching the replicas or the database.
func TestCreateOrder_RejectsInvalidCommandBeforeAnyQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	repo := order.NewRepo(sqlxDB)
	svc := order.NewService(repo, order.NewRestaurantReplica(sqlxDB), order.NewCustomerReplica(sqlxDB), testLogger())

	cmd := order.CreateOrderCommand{
		OrderID:         "order-1",
		CustomerID:      "cust-1",
		RestaurantID:    "rest-1",
		DeliveryAddress: validAddress(),
		Items:           nil,
		Price:           mustMoney(t, "200.00"),
	}

	_, err = svc.CreateOrder(context.Background(), cmd)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func orderRows(id, status string, price string, version int) *sqlmock.Rows {
	items := `[{"product_id":"product-1","quantity":1,"unit_price":"50.00","sub_total":"50.00"},` +
		`{"product_id":"product-1","quantity":3,"unit_price":"50.00","sub_total":"150.00"}]`
	return sqlmock.NewRows([]string{
		"id", "customer_id", "restaurant_id", "delivery_address", "items",
		"price", "status", "failure_messages", "tracking_id", "version",
	}).AddRow(id, "cust-1", "rest-1", []byte(`{"street":"1 Main St","postal_code":"00000","city":"Springfield"}`),
		[]byte(items), price, status, nil, id, version)
}

func paymentOutboxRows(sagaID, sagaStatus, outboxStatus string, version int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "saga_id", "created_at", "processed_at", "type", "payload",
		"order_status", "saga_status", "outbox_status", "version",
	}).AddRow(1, sagaID, time.Now().UTC(), nil, "PAY", []byte(`{}`), "PENDING", sagaStatus, outboxStatus, version)
}

// A PaymentCompleted response with no matching STARTED row (already
// applied, or never requested) is a silent no-op: the transaction commits
// having touched nothing else (spec.md §4.2 "Tie-breaks and edge cases").
func TestHandlePaymentResponse_DuplicateCompletedIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM payment_outbox_messages WHERE saga_id = \\? AND saga_status = \\?").
		WithArgs("order-1", "STARTED").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	repo := order.NewRepo(sqlxDB)
	svc := order.NewService(repo, order.NewRestaurantReplica(sqlxDB), order.NewCustomerReplica(sqlxDB), testLogger())

	resp := saga_event.PaymentResponse{
		SagaID:        "order-1",
		OrderID:       "order-1",
		PaymentStatus: saga_event.PaymentStatusCompleted,
	}
	require.NoError(t, svc.HandlePaymentResponse(context.Background(), resp))
	require.NoError(t, mock.ExpectationsWereMet())
}

// The happy-path PaymentCompleted response: find the STARTED row, lock and
// pay the order, mark the payment outbox PROCESSING/COMPLETED, and enqueue
// the APPROVE request — all inside one transaction (spec.md §4.2 step 1).
func TestHandlePaymentResponse_CompletedAdvancesOrderAndRequestsApproval(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM payment_outbox_messages WHERE saga_id = \\? AND saga_status = \\?").
		WithArgs("order-1", "STARTED").
		WillReturnRows(paymentOutboxRows("order-1", "STARTED", "STARTED", 0))
	mock.ExpectQuery("SELECT \\* FROM orders WHERE id = \\? FOR UPDATE").
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "PENDING", "200.00", 0))
	mock.ExpectExec("UPDATE orders").
		WithArgs("PAID", "[]", "order-1", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE payment_outbox_messages").
		WithArgs("PROCESSING", "COMPLETED", sqlmock.AnyArg(), int64(1), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO approval_outbox_messages").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := order.NewRepo(sqlxDB)
	svc := order.NewService(repo, order.NewRestaurantReplica(sqlxDB), order.NewCustomerReplica(sqlxDB), testLogger())

	resp := saga_event.PaymentResponse{
		SagaID:        "order-1",
		OrderID:       "order-1",
		PaymentStatus: saga_event.PaymentStatusCompleted,
	}
	require.NoError(t, svc.HandlePaymentResponse(context.Background(), resp))
	require.NoError(t, mock.ExpectationsWereMet())
}

// A Rejected approval response must move the order PAID -> CANCELLING and
// enqueue a compensating CANCEL payment-request in the same transaction
// (spec.md §4.2 step 2's rollback path).
func TestHandleApprovalResponse_RejectedRequestsCompensatingPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM approval_outbox_messages WHERE saga_id = \\? AND saga_status = \\?").
		WithArgs("order-1", "PROCESSING").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "saga_id", "created_at", "processed_at", "type", "payload",
			"order_status", "saga_status", "outbox_status", "version",
		}).AddRow(2, "order-1", time.Now().UTC(), nil, "APPROVE", []byte(`{}`), "PAID", "PROCESSING", "STARTED", 0))
	mock.ExpectQuery("SELECT \\* FROM orders WHERE id = \\? FOR UPDATE").
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "PAID", "200.00", 1))
	mock.ExpectExec("UPDATE orders").
		WithArgs("CANCELLING", sqlmock.AnyArg(), "order-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE approval_outbox_messages").
		WithArgs("COMPENSATING", "COMPLETED", sqlmock.AnyArg(), int64(2), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_outbox_messages").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	repo := order.NewRepo(sqlxDB)
	svc := order.NewService(repo, order.NewRestaurantReplica(sqlxDB), order.NewCustomerReplica(sqlxDB), testLogger())

	resp := saga_event.ApprovalResponse{
		SagaID:              "order-1",
		OrderID:             "order-1",
		OrderApprovalStatus: saga_event.OrderApprovalStatusRejected,
		FailureMessages:     []string{"Product X not available"},
	}
	require.NoError(t, svc.HandleApprovalResponse(context.Background(), resp))
	require.NoError(t, mock.ExpectationsWereMet())
}
