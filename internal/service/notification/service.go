package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"notification-service/internal/backoff"
	"notification-service/internal/model"
	"notification-service/internal/rabbitmq/queue"
)

//go:generate mockgen -source=service.go -destination=../../mocks/service/notification/mock.go -package=mocks

type notificationPublisher interface {
	Publish(msg queue.NotificationMessage, strategy retry.Strategy) error
	PublishToDLQ(msg queue.NotificationMessage, strategy retry.Strategy) error
}

type notificationRepository interface {
	Create(context.Context, model.Notification) (uuid.UUID, error)
	GetByID(context.Context, uuid.UUID) (model.Notification, error)
	MarkSent(context.Context, uuid.UUID) (bool, error)
	ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextRetryAt time.Time, lastError string) (bool, error)
	MarkFailedPermanently(ctx context.Context, id uuid.UUID, lastError string) (bool, error)
	ResetForManualRetry(ctx context.Context, id uuid.UUID, fromScheduled bool) (bool, error)
	GetByUser(ctx context.Context, userID, channel string) ([]model.Notification, error)
	CountByStatus(context.Context) (map[string]int, error)
}

// Notifier is the delivery adapter contract. Expected failure modes
// (unreachable network, rejected destination) come back as ordinary errors.
type Notifier interface {
	Send(ctx context.Context, to string, message string) error
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

// Service owns the notification lifecycle: creation, channel dispatch, the
// state machine transitions after each delivery attempt, and manual retries.
type Service struct {
	repo      notificationRepository
	queue     notificationPublisher
	notifiers map[string]Notifier
	cache     cache

	deliveryTimeout          time.Duration
	manualRetryFromScheduled bool
}

func NewService(
	repo notificationRepository,
	queue notificationPublisher,
	notifiers map[string]Notifier,
	cache cache,
	deliveryTimeout time.Duration,
	manualRetryFromScheduled bool,
) *Service {
	return &Service{
		repo:                     repo,
		queue:                    queue,
		notifiers:                notifiers,
		cache:                    cache,
		deliveryTimeout:          deliveryTimeout,
		manualRetryFromScheduled: manualRetryFromScheduled,
	}
}

// CreateNotification persists a new pending notification and publishes it to
// the primary queue.
func (s *Service) CreateNotification(ctx context.Context, strategy retry.Strategy, notification model.Notification) (uuid.UUID, error) {
	id, err := s.repo.Create(ctx, notification)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create notification: %w", err)
	}

	err = s.cache.SetWithRetry(ctx, strategy, id.String(), model.StatusPending)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
	}

	msg := queue.NotificationMessage{
		ID:          id,
		UserID:      notification.UserID,
		Channel:     notification.Channel,
		Message:     notification.Message,
		Destination: notification.Destination,
		RetryCount:  0,
	}

	err = s.queue.Publish(msg, strategy)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to publish notification")
	}

	return id, nil
}

// GetNotification returns the authoritative stored record.
func (s *Service) GetNotification(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	return s.repo.GetByID(ctx, id)
}

// Deliver dispatches one delivery attempt to the adapter matching the
// channel. The adapter call runs under a bounded timeout; a timeout is an
// ordinary delivery failure, same as a remote rejection.
func (s *Service) Deliver(ctx context.Context, channel, destination, message string) error {
	notifier, ok := s.notifiers[channel]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownChannel, channel)
	}

	ctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	if err := notifier.Send(ctx, destination, message); err != nil {
		return fmt.Errorf("send via %s: %w", channel, err)
	}

	return nil
}

// HandleDeliverySuccess transitions the notification to sent. Redelivered
// duplicates of an already terminal record are skipped without touching it.
func (s *Service) HandleDeliverySuccess(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error {
	updated, err := s.repo.MarkSent(ctx, id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}

	if !updated {
		zlog.Logger.Info().Str("id", id.String()).Msg("notification already in a terminal status, skipping")
		return nil
	}

	if err := s.cache.SetWithRetry(ctx, strategy, id.String(), model.StatusSent); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
	}

	return nil
}

// HandleDeliveryFailure records a failed attempt for the given notification:
// either schedules the next retry per the backoff table, or, once the retry
// budget is exhausted, transitions the record to failed_permanently and
// publishes it to the dead-letter queue. The returned error signals a store
// failure only; a lost compare-and-set race means another worker already
// recorded the attempt and is not an error.
func (s *Service) HandleDeliveryFailure(ctx context.Context, strategy retry.Strategy, n model.Notification, cause error) error {
	attempt := n.RetryCount + 1

	if backoff.Exhausted(attempt) {
		won, err := s.repo.MarkFailedPermanently(ctx, n.ID, cause.Error())
		if err != nil {
			return fmt.Errorf("mark notification permanently failed: %w", err)
		}

		if !won {
			zlog.Logger.Warn().Str("id", n.ID.String()).Msg("lost failed_permanently transition to a concurrent worker, skipping")
			return nil
		}

		if err := s.cache.SetWithRetry(ctx, strategy, n.ID.String(), model.StatusFailedPermanently); err != nil {
			zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to cache notification status")
		}

		dlqMsg := queue.NotificationMessage{
			ID:          n.ID,
			UserID:      n.UserID,
			Channel:     n.Channel,
			Message:     n.Message,
			Destination: n.Destination,
			RetryCount:  backoff.MaxRetries,
		}

		// The record is already terminal; a failed DLQ publish is an
		// infrastructure problem to alert on, not a reason to nack.
		if err := s.queue.PublishToDLQ(dlqMsg, strategy); err != nil {
			zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to publish notification to DLQ")
		}

		zlog.Logger.Warn().
			Str("id", n.ID.String()).
			Str("cause", cause.Error()).
			Msgf("notification permanently failed after %d attempts", attempt)

		return nil
	}

	nextRetryAt, err := backoff.NextRetryAt(time.Now().UTC(), attempt)
	if err != nil {
		return fmt.Errorf("compute next retry time: %w", err)
	}

	scheduled, err := s.repo.ScheduleRetry(ctx, n.ID, attempt, nextRetryAt, cause.Error())
	if err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}

	if !scheduled {
		zlog.Logger.Warn().Str("id", n.ID.String()).Msg("lost retry_scheduled transition to a concurrent worker, skipping")
		return nil
	}

	if err := s.cache.SetWithRetry(ctx, strategy, n.ID.String(), model.StatusRetryScheduled); err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to cache notification status")
	}

	zlog.Logger.Info().
		Str("id", n.ID.String()).
		Int("retry_count", attempt).
		Time("next_retry_at", nextRetryAt).
		Msg("notification scheduled for retry")

	return nil
}

// ManualRetry resets a notification's retry budget and republishes it to the
// primary queue as pending. By default this is only legal from
// failed_permanently; retry_scheduled can be allowed by configuration.
func (s *Service) ManualRetry(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}

	reset, err := s.repo.ResetForManualRetry(ctx, id, s.manualRetryFromScheduled)
	if err != nil {
		return fmt.Errorf("reset notification for manual retry: %w", err)
	}

	if !reset {
		return model.ErrInvalidRetryState
	}

	if err := s.cache.SetWithRetry(ctx, strategy, id.String(), model.StatusPending); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
	}

	msg := queue.NotificationMessage{
		ID:          n.ID,
		UserID:      n.UserID,
		Channel:     n.Channel,
		Message:     n.Message,
		Destination: n.Destination,
		RetryCount:  0,
	}

	if err := s.queue.Publish(msg, strategy); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

// GetNotificationStatusByID retrieves the status of a notification, serving
// from the cache when possible.
func (s *Service) GetNotificationStatusByID(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (string, error) {
	status, err := s.cache.GetWithRetry(ctx, strategy, id.String())
	if err != nil && !errors.Is(err, redis.Nil) {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification status from cache")
	}

	if err != nil {
		n, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("get notification status: %w", err)
		}

		status = n.Status

		err = s.cache.SetWithRetry(ctx, strategy, id.String(), status)
		if err != nil {
			zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
		}
	}

	return status, nil
}

// GetUserNotifications retrieves a user's notifications, optionally filtered
// by channel.
func (s *Service) GetUserNotifications(ctx context.Context, userID, channel string) ([]model.Notification, error) {
	if channel != "" && !model.KnownChannel(channel) {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownChannel, channel)
	}

	notifications, err := s.repo.GetByUser(ctx, userID, channel)
	if err != nil {
		return nil, fmt.Errorf("get user notifications: %w", err)
	}

	return notifications, nil
}

// GetStats returns the number of notifications per status. Statuses with no
// records are reported as zero so the surface is stable for consumers.
func (s *Service) GetStats(ctx context.Context) (map[string]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count notifications by status: %w", err)
	}

	for _, status := range []string{
		model.StatusPending, model.StatusSent, model.StatusRetryScheduled, model.StatusFailedPermanently,
	} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	return counts, nil
}
