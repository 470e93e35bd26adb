// Package backoff defines the retry schedule for failed deliveries.
//
// The schedule is a fixed lookup table rather than a formula so the exact
// timings stay reproducible across releases.
package backoff

import (
	"fmt"
	"time"
)

// MaxRetries is the number of failed delivery attempts after which a
// notification is declared permanently failed.
const MaxRetries = 5

// schedule maps the 1-indexed attempt that just failed to the wait before
// the next attempt.
var schedule = [MaxRetries]time.Duration{
	30 * time.Second,
	2 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
	time.Hour,
}

// Exhausted reports whether retryCount has reached the retry cap.
func Exhausted(retryCount int) bool {
	return retryCount >= MaxRetries
}

// Delay returns the wait duration after the given failed attempt.
func Delay(attempt int) (time.Duration, error) {
	if attempt < 1 || attempt > MaxRetries {
		return 0, fmt.Errorf("attempt %d out of range 1..%d", attempt, MaxRetries)
	}
	return schedule[attempt-1], nil
}

// NextRetryAt computes the timestamp of the next delivery attempt after the
// given failed attempt.
func NextRetryAt(now time.Time, attempt int) (time.Time, error) {
	d, err := Delay(attempt)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(d), nil
}
