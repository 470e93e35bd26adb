// Package inapp implements the in-app notification channel.
//
// In-app notifications have no external transport. The stored record is the
// delivery itself, and users read it through the listing API.
package inapp

import (
	"context"
)

// Client satisfies the notifier contract for the in_app channel.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

// Send reports success immediately. The notification is already persisted,
// which is all an in-app delivery requires.
func (c *Client) Send(ctx context.Context, to string, msg string) error {
	return nil
}
