package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLimiter_WithinBurst(t *testing.T) {
	l := NewLimiter(Limit{Rate: 1.0, Burst: 3})

	for i := 0; i < 3; i++ {
		if !l.AllowN(epoch, 1) {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}
	if l.AllowN(epoch, 1) {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestLimiter_Refill(t *testing.T) {
	l := NewLimiter(Limit{Rate: 10.0, Burst: 2})

	l.AllowN(epoch, 1)
	l.AllowN(epoch, 1)
	if l.AllowN(epoch, 1) {
		t.Fatal("expected rejection after burst")
	}

	later := epoch.Add(200 * time.Millisecond) // 2 tokens
	if !l.AllowN(later, 1) {
		t.Error("expected allow after token refill")
	}
}

func TestLimiter_RefillCappedAtBurst(t *testing.T) {
	l := NewLimiter(Limit{Rate: 100.0, Burst: 3})

	for i := 0; i < 3; i++ {
		l.AllowN(epoch, 1)
	}
	later := epoch.Add(10 * time.Second)

	for i := 0; i < 3; i++ {
		if !l.AllowN(later, 1) {
			t.Errorf("request %d should be allowed after refill", i+1)
		}
	}
	if l.AllowN(later, 1) {
		t.Error("4th request should be rejected (burst cap)")
	}
}

func TestLimiter_ZeroRate(t *testing.T) {
	l := NewLimiter(Limit{Rate: 0, Burst: 2})

	l.AllowN(epoch, 1)
	l.AllowN(epoch, 1)

	if l.AllowN(epoch.Add(time.Hour), 1) {
		t.Error("should be rejected with zero rate")
	}
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	l := NewLimiter(Limit{Rate: 0, Burst: 100})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 100 {
		t.Errorf("allowed %d requests, want exactly the burst of 100", allowed)
	}
}

func TestDefaultToolLimits(t *testing.T) {
	limits := DefaultToolLimits()

	tests := []struct {
		tool  string
		burst int
	}{
		{"coherence_optimize", 3},
		{"coherence_status", 10},
		{"coherence_manifest", 2},
		{"coherence_reset", 2},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			limit, ok := limits[tt.tool]
			if !ok {
				t.Fatalf("missing limit for %s", tt.tool)
			}
			if limit.Burst != tt.burst {
				t.Errorf("burst = %d, want %d", limit.Burst, tt.burst)
			}
		})
	}
}

func TestToolLimiters_Check(t *testing.T) {
	limiters := NewToolLimiters(map[string]Limit{"tool": {Rate: 0, Burst: 1}})

	if err := limiters.Check("tool"); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	err := limiters.Check("tool")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}

	if err := limiters.Check("unknown_tool"); err != nil {
		t.Errorf("unlimited tool returned %v", err)
	}
}

func TestToolLimiters_CheckAtRefills(t *testing.T) {
	limiters := NewToolLimiters(map[string]Limit{"tool": {Rate: 1.0, Burst: 1}})

	if err := limiters.CheckAt("tool", epoch); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	if err := limiters.CheckAt("tool", epoch.Add(500*time.Millisecond)); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited before refill", err)
	}
	if err := limiters.CheckAt("tool", epoch.Add(1500*time.Millisecond)); err != nil {
		t.Errorf("expected allow after refill, got %v", err)
	}
}

func TestToolLimiters_IndependentTools(t *testing.T) {
	limiters := NewToolLimiters(map[string]Limit{
		"a": {Rate: 0, Burst: 1},
		"b": {Rate: 0, Burst: 1},
	})

	_ = limiters.Check("a")
	if err := limiters.Check("a"); err == nil {
		t.Error("a should be exhausted")
	}
	if err := limiters.Check("b"); err != nil {
		t.Errorf("b should be allowed (independent bucket): %v", err)
	}
}
