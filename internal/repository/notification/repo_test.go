package notification

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/dbpg"

	"notification-service/internal/backoff"
	"notification-service/internal/model"
)

func setupMockDB(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock db: %v", err)
	}

	wrappedDB := &dbpg.DB{Master: db}
	repo := NewRepository(wrappedDB)

	return repo, mock
}

func TestCreate(t *testing.T) {
	repo, mock := setupMockDB(t)

	notificationID := uuid.New()
	n := model.Notification{
		UserID:      "user-1",
		Channel:     model.ChannelEmail,
		Message:     "This is a test notification",
		Destination: "user@example.com",
	}

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO notifications (
		    user_id, channel, message, destination, status
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
    `)).
		WithArgs(n.UserID, n.Channel, n.Message, n.Destination, model.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(notificationID))

	id, err := repo.Create(context.Background(), n)
	assert.NoError(t, err)
	assert.Equal(t, notificationID, id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	now := time.Now()
	nextRetry := now.Add(30 * time.Second)

	cols := []string{
		"id", "user_id", "channel", "message", "destination", "status",
		"retry_count", "next_retry_at", "last_error", "created_at", "updated_at",
	}

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, user_id, channel, message, destination, status, retry_count,
		       next_retry_at, last_error, created_at, updated_at
		FROM notifications
		WHERE id = $1;
    `)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			id, "user-1", model.ChannelSMS, "hi", "+15551234567", model.StatusRetryScheduled,
			2, nextRetry, "connection refused", now, now,
		))

	n, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, id, n.ID)
	assert.Equal(t, model.StatusRetryScheduled, n.Status)
	assert.Equal(t, 2, n.RetryCount)
	assert.NotNil(t, n.NextRetryAt)
	assert.Equal(t, "connection refused", n.LastError)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, user_id, channel, message, destination, status, retry_count,
		       next_retry_at, last_error, created_at, updated_at
		FROM notifications
		WHERE id = $1;
    `)).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	query := regexp.QuoteMeta(`
		UPDATE notifications
		SET status = $2, last_error = NULL, next_retry_at = NULL, updated_at = now()
		WHERE id = $1 AND status NOT IN ($3, $4);
    `)

	mock.ExpectExec(query).
		WithArgs(id, model.StatusSent, model.StatusSent, model.StatusFailedPermanently).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.MarkSent(context.Background(), id)
	assert.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Redelivered duplicate of an already terminal record changes nothing.
	mock.ExpectExec(query).
		WithArgs(id, model.StatusSent, model.StatusSent, model.StatusFailedPermanently).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err = repo.MarkSent(context.Background(), id)
	assert.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRetry(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	nextRetry := time.Now().Add(2 * time.Minute)
	query := regexp.QuoteMeta(`
		UPDATE notifications
		SET status = $2, retry_count = $3, next_retry_at = $4, last_error = $5, updated_at = now()
		WHERE id = $1 AND status = $6 AND retry_count = $7;
    `)

	mock.ExpectExec(query).
		WithArgs(id, model.StatusRetryScheduled, 2, nextRetry, "smtp timeout", model.StatusPending, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scheduled, err := repo.ScheduleRetry(context.Background(), id, 2, nextRetry, "smtp timeout")
	assert.NoError(t, err)
	assert.True(t, scheduled)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Lost the compare-and-set race: no rows updated.
	mock.ExpectExec(query).
		WithArgs(id, model.StatusRetryScheduled, 2, nextRetry, "smtp timeout", model.StatusPending, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	scheduled, err = repo.ScheduleRetry(context.Background(), id, 2, nextRetry, "smtp timeout")
	assert.NoError(t, err)
	assert.False(t, scheduled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedPermanently(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	query := regexp.QuoteMeta(`
		UPDATE notifications
		SET status = $2, retry_count = $3, next_retry_at = NULL, last_error = $4, updated_at = now()
		WHERE id = $1 AND status = $5 AND retry_count = $6;
    `)

	mock.ExpectExec(query).
		WithArgs(id, model.StatusFailedPermanently, backoff.MaxRetries, "invalid recipient", model.StatusPending, backoff.MaxRetries-1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.MarkFailedPermanently(context.Background(), id, "invalid recipient")
	assert.NoError(t, err)
	assert.True(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec(query).
		WithArgs(id, model.StatusFailedPermanently, backoff.MaxRetries, "invalid recipient", model.StatusPending, backoff.MaxRetries-1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err = repo.MarkFailedPermanently(context.Background(), id, "invalid recipient")
	assert.NoError(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimDueRetries(t *testing.T) {
	repo, mock := setupMockDB(t)

	now := time.Now()
	id1 := uuid.New()
	id2 := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "user_id", "channel", "message", "destination", "retry_count"}).
		AddRow(id1, "user-1", model.ChannelEmail, "msg1", "a@example.com", 1).
		AddRow(id2, "user-2", model.ChannelSMS, "msg2", "+15551234567", 3)

	mock.ExpectQuery(regexp.QuoteMeta(`
		UPDATE notifications
		SET status = $3, next_retry_at = NULL, updated_at = now()
		WHERE id IN (
		    SELECT id FROM notifications
		    WHERE status = $1 AND next_retry_at <= $2
		    ORDER BY next_retry_at
		    LIMIT $4
		    FOR UPDATE SKIP LOCKED
		)
		RETURNING id, user_id, channel, message, destination, retry_count;
    `)).
		WithArgs(model.StatusRetryScheduled, now, model.StatusPending, 50).
		WillReturnRows(rows)

	claimed, err := repo.ClaimDueRetries(context.Background(), now, 50)
	assert.NoError(t, err)
	assert.Len(t, claimed, 2)
	assert.Equal(t, id1, claimed[0].ID)
	assert.Equal(t, model.StatusPending, claimed[0].Status)
	assert.Equal(t, 3, claimed[1].RetryCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetForManualRetry(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	query := regexp.QuoteMeta(`
		UPDATE notifications
		SET status = $2, retry_count = 0, next_retry_at = NULL, last_error = NULL, updated_at = now()
		WHERE id = $1 AND (status = $3 OR ($4 AND status = $5));
    `)

	mock.ExpectExec(query).
		WithArgs(id, model.StatusPending, model.StatusFailedPermanently, false, model.StatusRetryScheduled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	reset, err := repo.ResetForManualRetry(context.Background(), id, false)
	assert.NoError(t, err)
	assert.True(t, reset)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Not in a retryable status.
	mock.ExpectExec(query).
		WithArgs(id, model.StatusPending, model.StatusFailedPermanently, false, model.StatusRetryScheduled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	reset, err = repo.ResetForManualRetry(context.Background(), id, false)
	assert.NoError(t, err)
	assert.False(t, reset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUser(t *testing.T) {
	repo, mock := setupMockDB(t)

	now := time.Now()
	cols := []string{
		"id", "user_id", "channel", "message", "destination", "status",
		"retry_count", "next_retry_at", "last_error", "created_at", "updated_at",
	}

	rows := sqlmock.NewRows(cols).
		AddRow(uuid.New(), "user-1", model.ChannelEmail, "msg1", "a@example.com", model.StatusSent, 0, nil, nil, now, now).
		AddRow(uuid.New(), "user-1", model.ChannelInApp, "msg2", "", model.StatusPending, 0, nil, nil, now, now)

	query := regexp.QuoteMeta(`
		SELECT id, user_id, channel, message, destination, status, retry_count,
		       next_retry_at, last_error, created_at, updated_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = '' OR channel = $2)
		ORDER BY created_at DESC;
    `)

	mock.ExpectQuery(query).WithArgs("user-1", "").WillReturnRows(rows)

	list, err := repo.GetByUser(context.Background(), "user-1", "")
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(query).WithArgs("user-1", model.ChannelSMS).WillReturnRows(sqlmock.NewRows(cols))

	_, err = repo.GetByUser(context.Background(), "user-1", model.ChannelSMS)
	assert.ErrorIs(t, err, model.ErrNoNotificationsFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	repo, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow(model.StatusPending, 3).
		AddRow(model.StatusSent, 10).
		AddRow(model.StatusFailedPermanently, 1)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT status, COUNT(*)
		FROM notifications
		GROUP BY status;
    `)).WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{
		model.StatusPending:           3,
		model.StatusSent:              10,
		model.StatusFailedPermanently: 1,
	}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
