package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelay_Schedule(t *testing.T) {
	want := []time.Duration{
		30 * time.Second,
		120 * time.Second,
		600 * time.Second,
		1800 * time.Second,
		3600 * time.Second,
	}

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		d, err := Delay(attempt)
		require.NoError(t, err)
		assert.Equal(t, want[attempt-1], d, "attempt %d", attempt)
	}
}

func TestDelay_OutOfRange(t *testing.T) {
	for _, attempt := range []int{0, -1, MaxRetries + 1} {
		_, err := Delay(attempt)
		assert.Error(t, err, "attempt %d", attempt)
	}
}

func TestExhausted(t *testing.T) {
	for count := 0; count < MaxRetries; count++ {
		assert.False(t, Exhausted(count), "count %d", count)
	}

	assert.True(t, Exhausted(MaxRetries))
	assert.True(t, Exhausted(MaxRetries+1))
}

func TestNextRetryAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	at, err := NextRetryAt(now, 1)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Second), at)

	at, err = NextRetryAt(now, MaxRetries)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), at)

	_, err = NextRetryAt(now, MaxRetries+1)
	assert.Error(t, err)
}
