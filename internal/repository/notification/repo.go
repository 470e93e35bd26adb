package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"notification-service/internal/backoff"
	"notification-service/internal/model"
)

// Repository provides methods to interact with the notifications table.
//
// All state transitions are conditional updates keyed on the current status
// (and, where relevant, retry_count), so a delivery worker and the retry
// scheduler can never both win the same transition.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new notification in the pending status and returns its ID.
func (r *Repository) Create(ctx context.Context, n model.Notification) (uuid.UUID, error) {
	query := `
		INSERT INTO notifications (
		    user_id, channel, message, destination, status
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
    `

	err := r.db.Master.QueryRowContext(
		ctx, query, n.UserID, n.Channel, n.Message, n.Destination, model.StatusPending,
	).Scan(&n.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n.ID, nil
}

// GetByID retrieves a notification by its ID. The stored record is the
// authoritative state for the delivery engine; queue messages are hints.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	query := `
		SELECT id, user_id, channel, message, destination, status, retry_count,
		       next_retry_at, last_error, created_at, updated_at
		FROM notifications
		WHERE id = $1;
    `

	var (
		n         model.Notification
		nextRetry sql.NullTime
		lastErr   sql.NullString
	)

	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.UserID, &n.Channel, &n.Message, &n.Destination, &n.Status,
		&n.RetryCount, &nextRetry, &lastErr, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Notification{}, model.ErrNotificationNotFound
		}

		return model.Notification{}, fmt.Errorf("failed to get notification: %w", err)
	}

	if nextRetry.Valid {
		t := nextRetry.Time
		n.NextRetryAt = &t
	}
	if lastErr.Valid {
		n.LastError = lastErr.String
	}

	return n, nil
}

// MarkSent transitions a notification to the sent status, clearing last_error
// and next_retry_at. It only fires from non-terminal states; redelivered
// duplicates of an already sent notification report updated=false.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE notifications
		SET status = $2, last_error = NULL, next_retry_at = NULL, updated_at = now()
		WHERE id = $1 AND status NOT IN ($3, $4);
    `

	res, err := r.db.ExecContext(ctx, query, id, model.StatusSent, model.StatusSent, model.StatusFailedPermanently)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification sent: %w", err)
	}

	rows, _ := res.RowsAffected()

	return rows > 0, nil
}

// ScheduleRetry records a failed attempt and hands the notification to the
// retry scheduler. The update is guarded by the previous retry_count so a
// racing worker processing a duplicate message cannot double-increment.
func (r *Repository) ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextRetryAt time.Time, lastError string) (bool, error) {
	query := `
		UPDATE notifications
		SET status = $2, retry_count = $3, next_retry_at = $4, last_error = $5, updated_at = now()
		WHERE id = $1 AND status = $6 AND retry_count = $7;
    `

	res, err := r.db.ExecContext(
		ctx, query, id, model.StatusRetryScheduled, retryCount, nextRetryAt, lastError,
		model.StatusPending, retryCount-1,
	)
	if err != nil {
		return false, fmt.Errorf("failed to schedule retry: %w", err)
	}

	rows, _ := res.RowsAffected()

	return rows > 0, nil
}

// MarkFailedPermanently transitions a notification to the terminal
// failed_permanently status after the retry budget is exhausted. The returned
// flag reports whether this call won the transition; only the winner may
// publish the record to the dead-letter queue.
func (r *Repository) MarkFailedPermanently(ctx context.Context, id uuid.UUID, lastError string) (bool, error) {
	query := `
		UPDATE notifications
		SET status = $2, retry_count = $3, next_retry_at = NULL, last_error = $4, updated_at = now()
		WHERE id = $1 AND status = $5 AND retry_count = $6;
    `

	res, err := r.db.ExecContext(
		ctx, query, id, model.StatusFailedPermanently, backoff.MaxRetries, lastError,
		model.StatusPending, backoff.MaxRetries-1,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification permanently failed: %w", err)
	}

	rows, _ := res.RowsAffected()

	return rows > 0, nil
}

// ClaimDueRetries atomically claims retry_scheduled notifications whose
// next_retry_at is due, flipping them back to pending and clearing
// next_retry_at in the same statement. A record claimed by one scan can never
// be returned to an overlapping one.
func (r *Repository) ClaimDueRetries(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	query := `
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
    `

	rows, err := r.db.QueryContext(ctx, query, model.StatusRetryScheduled, now, model.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due retries: %w", err)
	}
	defer rows.Close()

	var claimed []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Channel, &n.Message, &n.Destination, &n.RetryCount); err != nil {
			return nil, err
		}

		n.Status = model.StatusPending
		claimed = append(claimed, n)
	}

	return claimed, rows.Err()
}

// RestoreRetrySchedule puts a claimed notification back into retry_scheduled
// after a failed re-publish, so the next scan picks it up again.
func (r *Repository) RestoreRetrySchedule(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
	query := `
		UPDATE notifications
		SET status = $2, next_retry_at = $3, updated_at = now()
		WHERE id = $1 AND status = $4;
    `

	res, err := r.db.ExecContext(ctx, query, id, model.StatusRetryScheduled, nextRetryAt, model.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to restore retry schedule: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return model.ErrNotificationNotFound
	}

	return nil
}

// ResetForManualRetry resets a notification for a user-triggered retry:
// retry_count back to 0, status back to pending, schedule and last error
// cleared. Legal from failed_permanently, and additionally from
// retry_scheduled when fromScheduled is set.
func (r *Repository) ResetForManualRetry(ctx context.Context, id uuid.UUID, fromScheduled bool) (bool, error) {
	query := `
		UPDATE notifications
		SET status = $2, retry_count = 0, next_retry_at = NULL, last_error = NULL, updated_at = now()
		WHERE id = $1 AND (status = $3 OR ($4 AND status = $5));
    `

	res, err := r.db.ExecContext(
		ctx, query, id, model.StatusPending, model.StatusFailedPermanently,
		fromScheduled, model.StatusRetryScheduled,
	)
	if err != nil {
		return false, fmt.Errorf("failed to reset notification for manual retry: %w", err)
	}

	rows, _ := res.RowsAffected()

	return rows > 0, nil
}

// GetByUser retrieves a user's notifications, newest first, optionally
// filtered by channel.
func (r *Repository) GetByUser(ctx context.Context, userID, channel string) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, channel, message, destination, status, retry_count,
		       next_retry_at, last_error, created_at, updated_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = '' OR channel = $2)
		ORDER BY created_at DESC;
    `

	rows, err := r.db.QueryContext(ctx, query, userID, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var (
			n         model.Notification
			nextRetry sql.NullTime
			lastErr   sql.NullString
		)

		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Channel, &n.Message, &n.Destination, &n.Status,
			&n.RetryCount, &nextRetry, &lastErr, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if nextRetry.Valid {
			t := nextRetry.Time
			n.NextRetryAt = &t
		}
		if lastErr.Valid {
			n.LastError = lastErr.String
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(notifications) == 0 {
		return nil, model.ErrNoNotificationsFound
	}

	return notifications, nil
}

// CountByStatus returns the number of notifications per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM notifications
		GROUP BY status;
    `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)

		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}

		counts[status] = count
	}

	return counts, rows.Err()
}
