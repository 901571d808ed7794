package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker() *Breaker {
	return New(Config{
		FailThreshold:    3,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	})
}

func TestBreaker_StartsClosed(t *testing.T) {
	b := newTestBreaker()

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := newTestBreaker()

	b.Record(false)
	b.Record(false)
	assert.Equal(t, StateClosed, b.State())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	b := newTestBreaker()

	b.Record(false)
	b.Record(false)
	b.Record(true)
	b.Record(false)
	b.Record(false)

	// The run was broken, so the threshold was never reached.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenAfterTimeout(t *testing.T) {
	b := newTestBreaker()

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	require.Equal(t, StateOpen, b.State())
	require.False(t, b.Allow())

	time.Sleep(60 * time.Millisecond)

	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_ClosesAfterProbeSuccesses(t *testing.T) {
	b := newTestBreaker()

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	time.Sleep(60 * time.Millisecond)
	require.True(t, b.Allow())

	b.Record(true)
	assert.Equal(t, StateHalfOpen, b.State())
	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ReopensOnProbeFailure(t *testing.T) {
	b := newTestBreaker()

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	time.Sleep(60 * time.Millisecond)
	require.True(t, b.Allow())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_Reset(t *testing.T) {
	b := newTestBreaker()

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_Metrics(t *testing.T) {
	b := newTestBreaker()

	b.Allow()
	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	b.Allow()

	m := b.Metrics()
	assert.Equal(t, int64(2), m.TotalCalls)
	assert.Equal(t, int64(1), m.Rejected)
	assert.Equal(t, "open", m.CurrentState)
}
