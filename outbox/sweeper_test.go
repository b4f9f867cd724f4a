package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sergen116/food-ordering-system/outbox"
)

type fakePublisher struct {
	calls []string
	fail  bool
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, value []byte) error {
	f.calls = append(f.calls, topic+":"+key+":"+string(value))
	if f.fail {
		return context.DeadlineExceeded
	}
	return nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l.WithField("test", true)
}

func TestPublishSweeperTick_PublishesAndMarksCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "saga_id", "created_at", "processed_at", "type", "payload",
		"order_status", "saga_status", "outbox_status", "version",
	}).AddRow(1, "saga-1", now, nil, "PAY", []byte(`{"x":1}`), "PENDING", "STARTED", "STARTED", 0)

	mock.ExpectQuery("SELECT \\* FROM payment_outbox_messages WHERE outbox_status IN \\(\\?, \\?\\) ORDER BY created_at ASC LIMIT \\?").
		WithArgs(outbox.StatusStarted, outbox.StatusFailed, 10).
		WillReturnRows(rows)

	mock.ExpectExec("UPDATE payment_outbox_messages").
		WithArgs("STARTED", outbox.StatusCompleted, sqlmock.AnyArg(), int64(1), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := outbox.NewStore("payment_outbox_messages")
	pub := &fakePublisher{}
	sweeper := outbox.NewPublishSweeper(store, sqlxDB, pub, "payment-request", time.Millisecond, 10, testLogger())

	sweeper.Tick(context.Background())

	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, []string{`payment-request:saga-1:{"x":1}`}, pub.calls)
}

func TestPublishSweeperTick_LostCASRaceIsSilentNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "saga_id", "created_at", "processed_at", "type", "payload",
		"order_status", "saga_status", "outbox_status", "version",
	}).AddRow(1, "saga-1", now, nil, "PAY", []byte(`{}`), "PENDING", "STARTED", "STARTED", 0)

	mock.ExpectQuery("SELECT \\* FROM payment_outbox_messages").
		WillReturnRows(rows)

	// Another sweeper instance already bumped the version — 0 rows affected.
	mock.ExpectExec("UPDATE payment_outbox_messages").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := outbox.NewStore("payment_outbox_messages")
	pub := &fakePublisher{}
	sweeper := outbox.NewPublishSweeper(store, sqlxDB, pub, "payment-request", time.Millisecond, 10, testLogger())

	require.NotPanics(t, func() { sweeper.Tick(context.Background()) })
	require.NoError(t, mock.ExpectationsWereMet())
}

// A publish failure marks the row FAILED, and the very next tick must pick
// that same FAILED row back up and retry it — this is the "retried
// indefinitely" guarantee the whole outbox exists to provide. Driving a
// second tick (rather than asserting only the FAILED transition) is what
// actually proves PendingForPublish selects FAILED rows, not just STARTED.
func TestPublishSweeperTick_PublishFailureIsRetriedOnNextTick(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	now := time.Now().UTC()
	startedRow := sqlmock.NewRows([]string{
		"id", "saga_id", "created_at", "processed_at", "type", "payload",
		"order_status", "saga_status", "outbox_status", "version",
	}).AddRow(2, "saga-2", now, nil, "PAY", []byte(`{}`), "PENDING", "STARTED", "STARTED", 3)

	mock.ExpectQuery("SELECT \\* FROM payment_outbox_messages WHERE outbox_status IN \\(\\?, \\?\\) ORDER BY created_at ASC LIMIT \\?").
		WithArgs(outbox.StatusStarted, outbox.StatusFailed, 10).
		WillReturnRows(startedRow)

	mock.ExpectExec("UPDATE payment_outbox_messages").
		WithArgs("STARTED", outbox.StatusFailed, nil, int64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := outbox.NewStore("payment_outbox_messages")
	pub := &fakePublisher{fail: true}
	sweeper := outbox.NewPublishSweeper(store, sqlxDB, pub, "payment-request", time.Millisecond, 10, testLogger())

	sweeper.Tick(context.Background())
	require.NoError(t, mock.ExpectationsWereMet())

	// Second tick: the same row, now FAILED with version bumped to 4, is
	// selected again. This time the publish succeeds and it is marked
	// COMPLETED.
	failedRow := sqlmock.NewRows([]string{
		"id", "saga_id", "created_at", "processed_at", "type", "payload",
		"order_status", "saga_status", "outbox_status", "version",
	}).AddRow(2, "saga-2", now, nil, "PAY", []byte(`{}`), "PENDING", "STARTED", "FAILED", 4)

	mock.ExpectQuery("SELECT \\* FROM payment_outbox_messages WHERE outbox_status IN \\(\\?, \\?\\) ORDER BY created_at ASC LIMIT \\?").
		WithArgs(outbox.StatusStarted, outbox.StatusFailed, 10).
		WillReturnRows(failedRow)

	mock.ExpectExec("UPDATE payment_outbox_messages").
		WithArgs("STARTED", outbox.StatusCompleted, sqlmock.AnyArg(), int64(2), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pub.fail = false
	sweeper.Tick(context.Background())

	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, []string{`payment-request:saga-2:{}`}, pub.calls)
}

func TestCleanupSweeperTick_DeletesOldCompletedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "mysql")

	mock.ExpectExec("DELETE FROM payment_outbox_messages WHERE outbox_status = \\? AND processed_at < \\?").
		WithArgs(outbox.StatusCompleted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	store := outbox.NewStore("payment_outbox_messages")
	sweeper := outbox.NewCleanupSweeper(store, sqlxDB, 24*time.Hour, time.Millisecond, testLogger())

	sweeper.Tick(context.Background())

	require.NoError(t, mock.ExpectationsWereMet())
}
