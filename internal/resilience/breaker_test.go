package resilience

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(threshold int, reset time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker(BreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	require.NoError(t, b.Allow())
	b.Record(nil)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Allow())
		b.Record(eris.New("provider down"))
	}

	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.Record(eris.New("blip"))
	b.Record(eris.New("blip"))
	b.Record(nil)
	b.Record(eris.New("blip"))
	b.Record(eris.New("blip"))

	assert.Equal(t, BreakerClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	require.NoError(t, b.Allow())
	b.Record(eris.New("provider down"))
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	b.Record(eris.New("provider down"))
	*now = now.Add(2 * time.Minute)

	require.NoError(t, b.Allow())
	b.Record(nil)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	b, now := newTestBreaker(5, time.Minute)

	for i := 0; i < 5; i++ {
		b.Record(eris.New("provider down"))
	}
	*now = now.Add(2 * time.Minute)

	require.NoError(t, b.Allow())
	b.Record(eris.New("still down"))

	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}
