// Package ratelimit enforces the per-group request budgets the exchange
// publishes: one token bucket per request group, shared by every caller in
// the process.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Request groups recognized by the exchange. Trading and account endpoints
// draw from one budget, market-data endpoints from another; depleting one
// never blocks the other.
const (
	// GroupExchange covers order, account, deposit, and withdrawal requests.
	GroupExchange = "exchange"
	// GroupQuotation covers market-data requests.
	GroupQuotation = "quotation"
)

// GroupConfig holds the bucket parameters for one group.
type GroupConfig struct {
	// RequestsPerSecond is the refill rate of the bucket.
	RequestsPerSecond int
	// Burst is the bucket capacity.
	Burst int
}

// Limiter provides per-group token-bucket rate limiting. Waiting callers
// suspend until a token is available; the debit is atomic, so no token is
// lost to concurrent acquisition.
type Limiter struct {
	mu      sync.RWMutex
	groups  map[string]*groupLimiter
	metrics *Metrics
}

type groupLimiter struct {
	limiter    *rate.Limiter
	configured rate.Limit
}

// Metrics tracks statistics about limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
}

// New creates a Limiter with the given group budgets.
func New(groups map[string]GroupConfig) *Limiter {
	l := &Limiter{
		groups:  make(map[string]*groupLimiter, len(groups)),
		metrics: &Metrics{},
	}
	for name, cfg := range groups {
		limit := rate.Limit(cfg.RequestsPerSecond)
		l.groups[name] = &groupLimiter{
			limiter:    rate.NewLimiter(limit, cfg.Burst),
			configured: limit,
		}
	}
	return l
}

func (l *Limiter) group(name string) (*groupLimiter, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.groups[name]
	if !ok {
		return nil, fmt.Errorf("unknown rate limit group: %s", name)
	}
	return g, nil
}

// Wait blocks until the named group's bucket has a token or the context is
// cancelled. Cancellation releases the waiter without consuming a token.
func (l *Limiter) Wait(ctx context.Context, group string) error {
	l.metrics.totalRequests.Add(1)
	g, err := l.group(group)
	if err != nil {
		l.metrics.deniedRequests.Add(1)
		return err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		l.metrics.deniedRequests.Add(1)
		return err
	}
	l.metrics.allowedRequests.Add(1)
	return nil
}

// Allow reports whether the named group permits a request immediately,
// debiting a token when it does.
func (l *Limiter) Allow(group string) bool {
	l.metrics.totalRequests.Add(1)
	g, err := l.group(group)
	if err != nil {
		l.metrics.deniedRequests.Add(1)
		return false
	}
	allowed := g.limiter.Allow()
	if allowed {
		l.metrics.allowedRequests.Add(1)
	} else {
		l.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// SetLimit replaces the named group's bucket parameters.
func (l *Limiter) SetLimit(group string, cfg GroupConfig) {
	g, err := l.group(group)
	if err != nil {
		return
	}
	limit := rate.Limit(cfg.RequestsPerSecond)
	g.limiter.SetLimit(limit)
	g.limiter.SetBurst(cfg.Burst)
	l.mu.Lock()
	g.configured = limit
	l.mu.Unlock()
}

// UpdateFromHeader folds the service's Remaining-Req response header into
// the matching group's budget. When the server reports fewer remaining
// requests per second than the local rate assumes, the rate is clamped down
// for the group; it is restored to the configured rate once the server
// reports headroom again. Malformed headers are ignored.
func (l *Limiter) UpdateFromHeader(header string) {
	remaining, err := ParseRemainingReq(header)
	if err != nil {
		return
	}
	g, err := l.group(remaining.Group)
	if err != nil {
		return
	}

	l.mu.Lock()
	configured := g.configured
	l.mu.Unlock()

	if remaining.Sec >= 0 && rate.Limit(remaining.Sec) < configured {
		if remaining.Sec == 0 {
			g.limiter.SetLimit(1)
		} else {
			g.limiter.SetLimit(rate.Limit(remaining.Sec))
		}
		return
	}
	g.limiter.SetLimit(configured)
}

// Snapshot returns a point-in-time capture of limiter statistics.
func (l *Limiter) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   l.metrics.totalRequests.Load(),
		AllowedRequests: l.metrics.allowedRequests.Load(),
		DeniedRequests:  l.metrics.deniedRequests.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests is the total number of acquisitions attempted.
	TotalRequests int64
	// AllowedRequests is the number of acquisitions that succeeded.
	AllowedRequests int64
	// DeniedRequests is the number of acquisitions that failed or were cancelled.
	DeniedRequests int64
}

// RemainingReq is the parsed form of the service's Remaining-Req header,
// e.g. "group=market; min=598; sec=9".
type RemainingReq struct {
	// Group is the rate limit group the header reports on.
	Group string
	// Min is the remaining requests in the current minute, -1 when absent.
	Min int
	// Sec is the remaining requests in the current second, -1 when absent.
	Sec int
}

// ParseRemainingReq parses the Remaining-Req header value.
func ParseRemainingReq(header string) (RemainingReq, error) {
	if header == "" {
		return RemainingReq{}, fmt.Errorf("empty Remaining-Req header")
	}

	result := RemainingReq{Min: -1, Sec: -1}
	for part := range strings.SplitSeq(header, ";") {
		part = strings.TrimSpace(part)
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "group":
			result.Group = value
		case "min", "sec":
			n, err := strconv.Atoi(value)
			if err != nil {
				return RemainingReq{}, fmt.Errorf("invalid numeric value for %s: %s", key, value)
			}
			if key == "min" {
				result.Min = n
			} else {
				result.Sec = n
			}
		}
	}

	if result.Group == "" {
		return RemainingReq{}, fmt.Errorf("missing group in Remaining-Req header")
	}
	if result.Min < 0 && result.Sec < 0 {
		return RemainingReq{}, fmt.Errorf("missing rate limit values in Remaining-Req header")
	}
	return result, nil
}
