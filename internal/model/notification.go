package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Statuses a notification can persist in. There is no standalone "failed"
// status: a failed attempt always lands in StatusRetryScheduled or
// StatusFailedPermanently.
const (
	StatusPending           = "pending"
	StatusSent              = "sent"
	StatusRetryScheduled    = "retry_scheduled"
	StatusFailedPermanently = "failed_permanently"
)

// Delivery channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelInApp = "in_app"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoNotificationsFound = errors.New("no notifications found")
	ErrUnknownChannel       = errors.New("unknown notification channel")
	ErrInvalidRetryState    = errors.New("notification cannot be retried from its current status")
)

// Notification represents a notification record in the store.
type Notification struct {
	ID          uuid.UUID  `json:"id"`                      // unique identifier, assigned at creation
	UserID      string     `json:"user_id"`                 // addressee identifier
	Channel     string     `json:"channel"`                 // delivery channel: email, sms or in_app
	Message     string     `json:"message"`                 // notification content
	Destination string     `json:"destination,omitempty"`   // email address or phone number; empty for in_app
	Status      string     `json:"status"`                  // current lifecycle state
	RetryCount  int        `json:"retry_count"`             // failed delivery attempts so far
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"` // set only while status is retry_scheduled
	LastError   string     `json:"last_error,omitempty"`    // most recent failure, overwritten on each attempt
	CreatedAt   time.Time  `json:"created_at"`              // timestamp when the notification was created
	UpdatedAt   time.Time  `json:"updated_at"`              // timestamp when the notification was last updated
}

// Terminal reports whether the notification allows no further automatic
// transitions.
func (n *Notification) Terminal() bool {
	return n.Status == StatusSent || n.Status == StatusFailedPermanently
}

// KnownChannel reports whether c is one of the supported delivery channels.
func KnownChannel(c string) bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}
