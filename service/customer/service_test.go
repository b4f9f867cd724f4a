package customer_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sergen116/food-ordering-system/service/customer"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l.WithField("test", true)
}

func TestCreateCustomer_InsertsRowAndOutboxMessageInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO customers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO customer_outbox_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	svc := customer.NewService(customer.NewRepo(sqlxDB), testLogger())
	c, err := svc.CreateCustomer(context.Background(), customer.CreateCustomerCommand{
		ID:        "cust-1",
		Username:  "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.Equal(t, "cust-1", c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCustomer_RollsBackOnOutboxFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO customers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO customer_outbox_messages").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	svc := customer.NewService(customer.NewRepo(sqlxDB), testLogger())
	_, err = svc.CreateCustomer(context.Background(), customer.CreateCustomerCommand{
		ID:        "cust-1",
		Username:  "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
