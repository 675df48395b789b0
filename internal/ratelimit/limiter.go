// Package ratelimit provides per-tool token bucket rate limiting for the MCP server.
package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is wrapped by every error returned from ToolLimiters.Check.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limit describes one token bucket: Rate tokens per second refill, up to
// Burst tokens held. Burst is also the initial token count.
type Limit struct {
	Rate  float64
	Burst int
}

// NewLimiter creates a full bucket for limit.
func NewLimiter(limit Limit) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(limit.Rate), limit.Burst)
}

// DefaultToolLimits returns the per-tool limits used by the MCP server.
// Optimizing runs up to a full round budget, so it is the most restricted.
func DefaultToolLimits() map[string]Limit {
	return map[string]Limit{
		"coherence_optimize": {Rate: 10.0 / 60.0, Burst: 3}, // 10/minute
		"coherence_status":   {Rate: 1.0, Burst: 10},        // 60/minute
		"coherence_manifest": {Rate: 5.0 / 60.0, Burst: 2},  // 5/minute
		"coherence_reset":    {Rate: 5.0 / 60.0, Burst: 2},  // 5/minute
	}
}

// ToolLimiters maps tool names to their limiters.
type ToolLimiters map[string]*rate.Limiter

// NewToolLimiters creates one limiter per entry in limits.
func NewToolLimiters(limits map[string]Limit) ToolLimiters {
	out := make(ToolLimiters, len(limits))
	for tool, limit := range limits {
		out[tool] = NewLimiter(limit)
	}
	return out
}

// Check takes a token for tool. Tools without a limiter are always allowed.
func (t ToolLimiters) Check(tool string) error {
	return t.CheckAt(tool, time.Now())
}

// CheckAt is Check with an explicit clock reading.
func (t ToolLimiters) CheckAt(tool string, now time.Time) error {
	limiter, ok := t[tool]
	if !ok {
		return nil
	}
	if !limiter.AllowN(now, 1) {
		return fmt.Errorf("%s: %w, try again shortly", tool, ErrRateLimited)
	}
	return nil
}
