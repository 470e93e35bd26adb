// Package sms provides a simple client for sending notifications via the
// Twilio Messages API.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client represents a Twilio client used to send SMS notifications.
type Client struct {
	accountSID string
	authToken  string
	from       string       // sender phone number in E.164 format
	client     *http.Client // HTTP client used to make requests
}

// NewClient creates a new SMS Client instance with the given Twilio credentials.
func NewClient(accountSID, authToken, from string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     &http.Client{},
	}
}

// Send sends a notification message to the specified phone number.
//
// It posts a form-encoded request to the Twilio Messages API and returns an
// error if the request fails or the API responds with a non-2xx status.
func (c *Client) Send(ctx context.Context, to string, msg string) error {
	apiURL := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", c.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", msg)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("twilio API error: %s: %s", resp.Status, body)
	}

	return nil
}
