// Package scheduler re-enqueues notifications whose retry wait has elapsed.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"notification-service/internal/model"
	"notification-service/internal/rabbitmq/queue"
)

//go:generate mockgen -source=scheduler.go -destination=../mocks/scheduler/mock.go -package=mocks

type retryRepository interface {
	ClaimDueRetries(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
	RestoreRetrySchedule(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error
}

type retryPublisher interface {
	Publish(msg queue.NotificationMessage, strategy retry.Strategy) error
}

// Scheduler owns its ticking loop and store handle; it is started and
// stopped through Run's context, with no process-wide state.
//
// Each scan claims due retry_scheduled records through a conditional update
// before publishing, so a record is never published twice even when scans
// overlap, and records whose next_retry_at is still in the future are never
// touched.
type Scheduler struct {
	repo      retryRepository
	queue     retryPublisher
	interval  time.Duration
	batchSize int
	strategy  retry.Strategy
}

func New(repo retryRepository, q retryPublisher, interval time.Duration, batchSize int, strategy retry.Strategy) *Scheduler {
	return &Scheduler{
		repo:      repo,
		queue:     q,
		interval:  interval,
		batchSize: batchSize,
		strategy:  strategy,
	}
}

// Run scans for due retries on a fixed interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	zlog.Logger.Info().Dur("interval", s.interval).Msg("retry scheduler started")

	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("retry scheduler stopped")
			return
		case <-t.C:
			s.scan(ctx)
		}
	}
}

func (s *Scheduler) scan(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.repo.ClaimDueRetries(ctx, now, s.batchSize)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to claim due retries")
		return
	}

	if len(due) == 0 {
		return
	}

	zlog.Logger.Info().Int("count", len(due)).Msg("re-enqueueing due retries")

	for _, n := range due {
		msg := queue.NotificationMessage{
			ID:          n.ID,
			UserID:      n.UserID,
			Channel:     n.Channel,
			Message:     n.Message,
			Destination: n.Destination,
			RetryCount:  n.RetryCount,
		}

		if err := s.queue.Publish(msg, s.strategy); err != nil {
			zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to re-enqueue notification")

			// Put the claim back so the next scan retries it. The record is
			// already due, so it is rescheduled for now rather than pushed out.
			if restoreErr := s.repo.RestoreRetrySchedule(ctx, n.ID, now); restoreErr != nil {
				zlog.Logger.Error().Err(restoreErr).Str("id", n.ID.String()).Msg("failed to restore retry schedule")
			}

			continue
		}

		zlog.Logger.Info().Str("id", n.ID.String()).Int("retry_count", n.RetryCount).Msg("notification re-enqueued")
	}
}
