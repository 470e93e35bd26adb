package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"notification-service/internal/api/dto"
	"notification-service/internal/api/respond"
	"notification-service/internal/config"
	"notification-service/internal/model"
)

// notificationService defines the interface that the Handler depends on.
//
// It abstracts the business logic for creating notifications, querying their
// delivery state, and re-enqueueing failed ones.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/notification/mock.go -package=mocks
type notificationService interface {
	CreateNotification(context.Context, retry.Strategy, model.Notification) (uuid.UUID, error)
	GetNotificationStatusByID(context.Context, retry.Strategy, uuid.UUID) (string, error)
	GetStats(context.Context) (map[string]int, error)
	GetUserNotifications(ctx context.Context, userID, channel string) ([]model.Notification, error)
	ManualRetry(context.Context, retry.Strategy, uuid.UUID) error
}

// Handler handles HTTP requests related to notifications.
//
// It provides endpoints for creating notifications, checking their status,
// listing a user's notifications, and retrying failed ones.
type Handler struct {
	service   notificationService
	validator *validator.Validate
	cfg       *config.Config
}

// NewHandler creates a new Handler instance.
func NewHandler(
	s notificationService,
	v *validator.Validate,
	cfg *config.Config,
) *Handler {
	return &Handler{service: s, validator: v, cfg: cfg}
}

// Create handles HTTP POST requests to create a new notification.
//
// It validates the request body, checks the destination against the channel,
// and returns the created notification ID. The notification itself is
// delivered asynchronously.
func (h *Handler) Create(c *ginext.Context) {
	var req dto.CreateRequest

	// Decode JSON request body into CreateRequest struct.
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	// Validate request fields using go-playground/validator.
	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	// The destination format depends on the channel.
	switch req.Channel {
	case model.ChannelEmail:
		if err := h.validator.Var(req.Destination, "email"); err != nil {
			zlog.Logger.Warn().Err(err).Msg("invalid email destination")
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("destination must be a valid email address"))
			return
		}
	case model.ChannelSMS:
		if err := h.validator.Var(req.Destination, "e164"); err != nil {
			zlog.Logger.Warn().Err(err).Msg("invalid sms destination")
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("destination must be an E.164 phone number"))
			return
		}
	}

	// Construct a Notification model.
	notif := model.Notification{
		UserID:      req.UserID,
		Channel:     req.Channel,
		Message:     req.Message,
		Destination: req.Destination,
		Status:      model.StatusPending,
	}

	// Create notification using the service layer.
	id, err := h.service.CreateNotification(c.Request.Context(), h.cfg.Retry, notif)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", notif.UserID).Msg("failed to create notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	// Respond with created notification ID.
	respond.Created(c.Writer, id)
}

// GetStatus handles HTTP GET requests to retrieve the status of a notification.
//
// It expects the notification ID as a URL parameter and returns its status.
func (h *Handler) GetStatus(c *ginext.Context) {
	// Extract notification ID from URL parameters.
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", idStr).Msg("failed to parse id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	// Check for missing ID.
	if id == uuid.Nil {
		zlog.Logger.Warn().Msg("missing id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing id"))
		return
	}

	// Fetch notification status from service.
	status, err := h.service.GetNotificationStatusByID(c.Request.Context(), h.cfg.Retry, id)
	if err != nil {
		if errors.Is(err, model.ErrNotificationNotFound) {
			zlog.Logger.Warn().Str("id", id.String()).Err(err).Msg("notification not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		// Internal server error.
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification status")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	// Return notification status.
	respond.OK(c.Writer, status)
}

// Retry handles HTTP POST requests to re-enqueue a failed notification.
//
// It expects the notification ID as a URL parameter, resets its delivery
// state, and publishes it for a fresh delivery attempt.
func (h *Handler) Retry(c *ginext.Context) {
	// Extract notification ID from URL parameters.
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", idStr).Msg("failed to parse id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	// Check for missing ID.
	if id == uuid.Nil {
		zlog.Logger.Warn().Msg("missing id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing id"))
		return
	}

	err = h.service.ManualRetry(c.Request.Context(), h.cfg.Retry, id)
	if err != nil {
		if errors.Is(err, model.ErrNotificationNotFound) {
			zlog.Logger.Warn().Str("id", id.String()).Err(err).Msg("notification not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		// A retry is only allowed once the notification has failed for good.
		if errors.Is(err, model.ErrInvalidRetryState) {
			zlog.Logger.Warn().Str("id", id.String()).Err(err).Msg("notification is not retryable")
			respond.Fail(c.Writer, http.StatusConflict, fmt.Errorf("notification is not in a retryable state"))
			return
		}

		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to retry notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	// Return a success message.
	respond.OK(c.Writer, "notification queued for retry")
}

// ListByUser handles HTTP GET requests to retrieve a user's notifications.
//
// It expects the user ID as a URL parameter and accepts an optional
// "channel" query parameter to narrow the listing.
func (h *Handler) ListByUser(c *ginext.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		zlog.Logger.Warn().Msg("missing user id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing user id"))
		return
	}

	channel := c.Query("channel")

	notifications, err := h.service.GetUserNotifications(c.Request.Context(), userID, channel)
	if err != nil {
		if errors.Is(err, model.ErrUnknownChannel) {
			zlog.Logger.Warn().Str("channel", channel).Err(err).Msg("unknown channel filter")
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("unknown channel: %s", channel))
			return
		}

		// Check if no notifications found and return 404.
		if errors.Is(err, model.ErrNoNotificationsFound) {
			zlog.Logger.Warn().Str("user_id", userID).Err(err).Msg("no notifications found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("no notifications found"))
			return
		}

		// Log unexpected errors and return 500.
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to get notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	// Respond with the list of notifications.
	respond.OK(c.Writer, notifications)
}

// Stats handles HTTP GET requests for aggregate delivery counts per status.
func (h *Handler) Stats(c *ginext.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to get notification stats")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, stats)
}
