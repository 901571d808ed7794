package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(quotation, exchange int) *Limiter {
	return New(map[string]GroupConfig{
		GroupQuotation: {RequestsPerSecond: quotation, Burst: quotation},
		GroupExchange:  {RequestsPerSecond: exchange, Burst: exchange},
	})
}

func TestLimiter_Allow_BurstBound(t *testing.T) {
	limiter := newTestLimiter(30, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(GroupExchange), "request %d should pass", i+1)
	}
	assert.False(t, limiter.Allow(GroupExchange), "request 6 should be denied")
}

func TestLimiter_GroupsIndependent(t *testing.T) {
	limiter := newTestLimiter(3, 3)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(GroupExchange))
	}
	require.False(t, limiter.Allow(GroupExchange))

	// Depleting the exchange budget must not touch the quotation budget.
	assert.True(t, limiter.Allow(GroupQuotation))
}

func TestLimiter_UnknownGroup(t *testing.T) {
	limiter := newTestLimiter(1, 1)

	assert.False(t, limiter.Allow("bogus"))
	assert.Error(t, limiter.Wait(context.Background(), "bogus"))
}

func TestLimiter_Wait_ContextCancellation(t *testing.T) {
	limiter := newTestLimiter(30, 1)
	require.NoError(t, limiter.Wait(context.Background(), GroupExchange))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, GroupExchange)
	assert.Error(t, err)
}

func TestLimiter_ConcurrentAcquisition(t *testing.T) {
	limiter := newTestLimiter(30, 8)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow(GroupExchange) {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	// No token may be double-spent under concurrency.
	assert.LessOrEqual(t, allowed.Load(), int64(8))
	assert.Greater(t, allowed.Load(), int64(0))
}

func TestLimiter_Snapshot(t *testing.T) {
	limiter := newTestLimiter(30, 2)

	limiter.Allow(GroupExchange)
	limiter.Allow(GroupExchange)
	limiter.Allow(GroupExchange)

	snap := limiter.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.AllowedRequests)
	assert.Equal(t, int64(1), snap.DeniedRequests)
}

func TestParseRemainingReq(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    RemainingReq
		wantErr bool
	}{
		{
			"full header",
			"group=default; min=598; sec=9",
			RemainingReq{Group: "default", Min: 598, Sec: 9},
			false,
		},
		{
			"no spaces",
			"group=exchange;min=100;sec=2",
			RemainingReq{Group: "exchange", Min: 100, Sec: 2},
			false,
		},
		{
			"sec only",
			"group=quotation; sec=29",
			RemainingReq{Group: "quotation", Min: -1, Sec: 29},
			false,
		},
		{"empty", "", RemainingReq{}, true},
		{"missing group", "min=10; sec=1", RemainingReq{}, true},
		{"no values", "group=default", RemainingReq{}, true},
		{"bad number", "group=default; sec=abc", RemainingReq{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRemainingReq(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimiter_UpdateFromHeader_ClampsDown(t *testing.T) {
	limiter := newTestLimiter(30, 8)

	// Server reports less headroom than the local rate assumes.
	limiter.UpdateFromHeader("group=exchange; min=500; sec=2")

	g, err := limiter.group(GroupExchange)
	require.NoError(t, err)
	assert.Equal(t, float64(2), float64(g.limiter.Limit()))
}

func TestLimiter_UpdateFromHeader_RestoresConfigured(t *testing.T) {
	limiter := newTestLimiter(30, 8)

	limiter.UpdateFromHeader("group=exchange; sec=2")
	limiter.UpdateFromHeader("group=exchange; sec=9")

	g, err := limiter.group(GroupExchange)
	require.NoError(t, err)
	assert.Equal(t, float64(8), float64(g.limiter.Limit()))
}

func TestLimiter_UpdateFromHeader_ZeroKeepsFloor(t *testing.T) {
	limiter := newTestLimiter(30, 8)

	limiter.UpdateFromHeader("group=exchange; sec=0")

	g, err := limiter.group(GroupExchange)
	require.NoError(t, err)
	assert.Equal(t, float64(1), float64(g.limiter.Limit()))
}

func TestLimiter_UpdateFromHeader_MalformedIgnored(t *testing.T) {
	limiter := newTestLimiter(30, 8)

	limiter.UpdateFromHeader("totally broken")
	limiter.UpdateFromHeader("group=unknown; sec=1")

	g, err := limiter.group(GroupExchange)
	require.NoError(t, err)
	assert.Equal(t, float64(8), float64(g.limiter.Limit()))
}
