package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sergen116/food-ordering-system/saga_event"
	"github.com/sergen116/food-ordering-system/service/payment"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l.WithField("test", true)
}

func creditHistoryRows(customerID string, credit, debit string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"customer_id", "total_credit_amount", "total_debit_amount", "version"}).
		AddRow(customerID, credit, debit, 0)
}

// A duplicate payment-request delivery must never double-apply a debit: the
// dedupe insert into the response outbox is expected to run, and fail with a
// duplicate-key error, before any UPDATE against credit_histories is issued;
// the delivery is then dropped without an error.
func TestPay_DuplicateDeliveryNeverTouchesCreditHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM credit_histories WHERE customer_id = \\? FOR UPDATE").
		WithArgs("cust-1").
		WillReturnRows(creditHistoryRows("cust-1", "100.00", "0.00"))
	mock.ExpectExec("INSERT INTO payment_response_outbox_messages").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'saga-1-STARTED' for key 'uq_payment_response_outbox_saga_status'"})
	mock.ExpectCommit()

	repo := payment.NewRepo(sqlxDB)
	svc := payment.NewService(repo, testLogger())

	req := saga_event.PaymentRequest{
		SagaID:             "saga-1",
		CustomerID:         "cust-1",
		OrderID:            "order-1",
		Price:              mustMoney(t, "20.00"),
		CreatedAt:          time.Now().UTC(),
		PaymentOrderStatus: saga_event.PaymentOrderStatusPending,
		Type:               saga_event.PaymentRequestPay,
	}
	err = svc.Pay(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPay_SuccessfulDebitUpdatesCreditHistoryAfterOutboxInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM credit_histories WHERE customer_id = \\? FOR UPDATE").
		WithArgs("cust-1").
		WillReturnRows(creditHistoryRows("cust-1", "100.00", "0.00"))
	mock.ExpectExec("INSERT INTO payment_response_outbox_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE credit_histories").
		WithArgs(mustMoney(t, "100.00").String(), mustMoney(t, "20.00").String(), "cust-1", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := payment.NewRepo(sqlxDB)
	svc := payment.NewService(repo, testLogger())

	req := saga_event.PaymentRequest{
		SagaID:             "saga-1",
		CustomerID:         "cust-1",
		OrderID:            "order-1",
		Price:              mustMoney(t, "20.00"),
		CreatedAt:          time.Now().UTC(),
		PaymentOrderStatus: saga_event.PaymentOrderStatusPending,
		Type:               saga_event.PaymentRequestPay,
	}
	require.NoError(t, svc.Pay(context.Background(), req))
	require.NoError(t, mock.ExpectationsWereMet())
}
