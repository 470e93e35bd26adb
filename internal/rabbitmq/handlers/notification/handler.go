package notification

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"notification-service/internal/model"
	"notification-service/internal/rabbitmq/queue"
)

//go:generate mockgen -source=handler.go -destination=../../../mocks/rabbitmq/handlers/notification/mock.go -package=mocks
type notificationService interface {
	GetNotification(ctx context.Context, id uuid.UUID) (model.Notification, error)
	Deliver(ctx context.Context, channel, destination, message string) error
	HandleDeliverySuccess(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error
	HandleDeliveryFailure(ctx context.Context, strategy retry.Strategy, n model.Notification, cause error) error
}

// Handler implements the per-message contract of the delivery engine.
//
// Every consumed message ends in exactly one of: Ack after an outcome is
// recorded in the store, Nack with requeue on infrastructure errors (store
// unreachable), or Nack without requeue (dead-letter) for payloads that can
// never be processed. No message is dropped without a recorded outcome.
type Handler struct {
	service notificationService
}

func NewHandler(svc notificationService) *Handler {
	return &Handler{
		service: svc,
	}
}

// HandleMessage processes one queued notification delivery.
func (h *Handler) HandleMessage(ctx context.Context, d amqp.Delivery, strategy retry.Strategy) {
	var msg queue.NotificationMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.ID == uuid.Nil {
		zlog.Logger.Error().Err(err).Msg("malformed queue message, rejecting to DLQ")
		h.nack(d, false)
		return
	}

	// The stored record, not the message payload, decides what happens.
	n, err := h.service.GetNotification(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotificationNotFound) {
			zlog.Logger.Warn().Str("id", msg.ID.String()).Msg("no record for queued notification, rejecting to DLQ")
			h.nack(d, false)
			return
		}

		// Engine-side outage: leave the message for broker redelivery and
		// do not record a failure against the notification.
		zlog.Logger.Error().Err(err).Str("id", msg.ID.String()).Msg("failed to load notification, requeueing")
		h.nack(d, true)
		return
	}

	if n.Terminal() {
		zlog.Logger.Info().Str("id", n.ID.String()).Str("status", n.Status).Msg("duplicate delivery of a terminal notification, skipping")
		h.ack(d)
		return
	}

	zlog.Logger.Info().Str("id", n.ID.String()).Str("channel", n.Channel).Msg("attempting delivery")

	if deliverErr := h.service.Deliver(ctx, n.Channel, n.Destination, n.Message); deliverErr != nil {
		zlog.Logger.Warn().Err(deliverErr).Str("id", n.ID.String()).Msg("delivery attempt failed")

		if err := h.service.HandleDeliveryFailure(ctx, strategy, n, deliverErr); err != nil {
			zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to record delivery failure, requeueing")
			h.nack(d, true)
			return
		}

		// The failure is recorded: the notification now belongs to the
		// retry scheduler or the DLQ, so it must leave the primary queue.
		h.ack(d)
		return
	}

	if err := h.service.HandleDeliverySuccess(ctx, strategy, msg.ID); err != nil {
		zlog.Logger.Error().Err(err).Str("id", msg.ID.String()).Msg("failed to record delivery success, requeueing")
		h.nack(d, true)
		return
	}

	zlog.Logger.Info().Str("id", msg.ID.String()).Msg("notification sent successfully")
	h.ack(d)
}

func (h *Handler) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to ack message")
	}
}

func (h *Handler) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to nack message")
	}
}
