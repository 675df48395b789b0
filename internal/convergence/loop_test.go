package convergence

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/nvandessel/coherence/internal/logging"
	"github.com/nvandessel/coherence/internal/models"
	"github.com/nvandessel/coherence/internal/registry"
)

var fixedNow = func() time.Time { return time.Date(2025, 12, 8, 9, 0, 0, 0, time.UTC) }

// newTestLoop builds a loop over entries with a fixed clock and fails the
// test on error.
func newTestLoop(t *testing.T, entries []registry.Entry, mutate ...func(*Config)) *Loop {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Now = fixedNow
	for _, m := range mutate {
		m(&cfg)
	}
	l, err := NewLoop(entries, cfg)
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	return l
}

func TestNewLoop_InvalidRegistry(t *testing.T) {
	tests := []struct {
		name    string
		entries []registry.Entry
	}{
		{"duplicate name", []registry.Entry{
			{Name: "A", Category: models.CategorySilver},
			{Name: "A", Category: models.CategoryVoid},
		}},
		{"unknown category", []registry.Entry{{Name: "A", Category: "gold"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoop(tt.entries, DefaultConfig()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewLoop_InitialState(t *testing.T) {
	l := newTestLoop(t, registry.Core())

	if l.Phase() != PhaseInitialized {
		t.Errorf("Phase = %s, want %s", l.Phase(), PhaseInitialized)
	}
	if l.Ready() || l.Aggregate() != 0 || l.Rounds() != 0 {
		t.Errorf("unexpected initial state: ready=%v aggregate=%v rounds=%d", l.Ready(), l.Aggregate(), l.Rounds())
	}
	if l.Len() != 5 {
		t.Errorf("Len = %d, want 5", l.Len())
	}
	if l.Threshold() != 0.97 {
		t.Errorf("Threshold = %v, want 0.97", l.Threshold())
	}
}

func TestRunRound_AggregateIsMean(t *testing.T) {
	l := newTestLoop(t, registry.Constellation())
	ctx := context.Background()

	for round := 1; round <= 20; round++ {
		status := l.RunRound(ctx)

		var sum float64
		for _, s := range status.Entities {
			sum += s.Coherence
		}
		mean := sum / float64(len(status.Entities))
		if math.Abs(status.Aggregate-mean) > 1e-12 {
			t.Fatalf("round %d: aggregate %v != mean %v", round, status.Aggregate, mean)
		}
		if status.Round != round {
			t.Errorf("status.Round = %d, want %d", status.Round, round)
		}
	}
}

func TestRunRound_FirstRoundAggregate(t *testing.T) {
	l := newTestLoop(t, registry.Core())

	status := l.RunRound(context.Background())

	// (0.81 + 0.81 + 0.964 + 0.887 + 1.0) / 5
	if math.Abs(status.Aggregate-0.8942) > 1e-9 {
		t.Errorf("aggregate = %.6f, want 0.8942", status.Aggregate)
	}
	if status.Ready {
		t.Error("should not be ready after first round")
	}
	if status.Phase != PhaseRunning {
		t.Errorf("Phase = %s, want %s", status.Phase, PhaseRunning)
	}
}

func TestRunRound_FirstRoundAlignments(t *testing.T) {
	l := newTestLoop(t, registry.Core())
	status := l.RunRound(context.Background())

	want := map[models.Category]float64{
		models.CategorySilver:   0.95,
		models.CategoryCrimson:  0.95,
		models.CategoryVoid:     1.0,
		models.CategoryObsidian: 0.9,
		models.CategoryOmni:     1.0,
	}
	for _, s := range status.Entities {
		if math.Abs(s.Alignment-want[s.Category]) > 1e-9 {
			t.Errorf("%s (%s) alignment = %v, want %v", s.Name, s.Category, s.Alignment, want[s.Category])
		}
	}
}

func TestRunRound_EmptyRegistry(t *testing.T) {
	l := newTestLoop(t, nil)

	status := l.RunRound(context.Background())

	if status.Aggregate != 0 {
		t.Errorf("aggregate = %v, want 0", status.Aggregate)
	}
	if status.Ready {
		t.Error("empty registry must never be ready")
	}
	if math.IsNaN(status.Aggregate) {
		t.Error("aggregate is NaN")
	}

	res := l.Optimize(context.Background(), 5)
	if res.Rounds != 5 || res.Ready || res.Phase != PhaseExhausted {
		t.Errorf("Optimize on empty registry = %+v", res)
	}
}

func TestOptimize_SingleRoundExhausts(t *testing.T) {
	l := newTestLoop(t, registry.Core())

	res := l.Optimize(context.Background(), 1)

	if res.Rounds != 1 {
		t.Errorf("Rounds = %d, want 1", res.Rounds)
	}
	if res.Ready {
		t.Error("Ready = true, want false after one round")
	}
	if res.Phase != PhaseExhausted {
		t.Errorf("Phase = %s, want %s", res.Phase, PhaseExhausted)
	}
	if len(res.History) != 1 {
		t.Errorf("History has %d rounds, want 1", len(res.History))
	}
}

func TestOptimize_ZeroRoundsChangesNothing(t *testing.T) {
	for _, budget := range []int{0, -3} {
		l := newTestLoop(t, registry.Constellation())
		before := l.Snapshots()

		res := l.Optimize(context.Background(), budget)

		if res.Rounds != 0 || res.TotalRounds != 0 {
			t.Errorf("budget %d: ran %d rounds", budget, res.Rounds)
		}
		if res.Aggregate != 0 || res.Ready {
			t.Errorf("budget %d: aggregate/ready changed: %+v", budget, res)
		}
		if l.Phase() != PhaseInitialized {
			t.Errorf("budget %d: Phase = %s, want %s", budget, l.Phase(), PhaseInitialized)
		}
		if !reflect.DeepEqual(before, l.Snapshots()) {
			t.Errorf("budget %d: entity state changed", budget)
		}
		for _, name := range []string{"Architect", "Unified-Field"} {
			if n := len(l.Entity(name).Log); n != 0 {
				t.Errorf("budget %d: %s has %d log entries", budget, name, n)
			}
		}
	}
}

func TestOptimize_ConvergesWithinBudget(t *testing.T) {
	tests := []struct {
		name       string
		entries    []registry.Entry
		wantRounds int
	}{
		{"core", registry.Core(), 14},
		{"constellation", registry.Constellation(), 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoop(t, tt.entries)

			res := l.Optimize(context.Background(), 100)

			if !res.Ready {
				t.Fatalf("not ready after %d rounds, aggregate %.4f", res.Rounds, res.Aggregate)
			}
			if res.Rounds != tt.wantRounds {
				t.Errorf("Rounds = %d, want %d", res.Rounds, tt.wantRounds)
			}
			if res.Phase != PhaseReady {
				t.Errorf("Phase = %s, want %s", res.Phase, PhaseReady)
			}
			if res.Aggregate < 0.97 {
				t.Errorf("Aggregate = %v, below threshold", res.Aggregate)
			}
			for i, h := range res.History[:len(res.History)-1] {
				if h.Ready {
					t.Errorf("round %d reported ready before the final round", i+1)
				}
			}
		})
	}
}

func TestOptimize_AggregateNonDecreasing(t *testing.T) {
	l := newTestLoop(t, registry.Constellation())
	res := l.Optimize(context.Background(), 100)

	prev := -1.0
	for _, h := range res.History {
		if h.Aggregate < prev {
			t.Fatalf("round %d: aggregate fell from %v to %v", h.Round, prev, h.Aggregate)
		}
		prev = h.Aggregate
	}
}

func TestOptimize_StopsWhenAlreadyReady(t *testing.T) {
	l := newTestLoop(t, registry.Core())
	ctx := context.Background()
	l.Optimize(ctx, 100)

	res := l.Optimize(ctx, 10)

	if res.Rounds != 0 {
		t.Errorf("Rounds = %d, want 0 once ready", res.Rounds)
	}
	if res.TotalRounds != 14 {
		t.Errorf("TotalRounds = %d, want 14", res.TotalRounds)
	}
	if res.Phase != PhaseReady {
		t.Errorf("Phase = %s, want %s", res.Phase, PhaseReady)
	}
}

func TestOptimize_ExhaustedThenManualRoundsReachReady(t *testing.T) {
	l := newTestLoop(t, registry.Core())
	ctx := context.Background()

	res := l.Optimize(ctx, 5)
	if res.Phase != PhaseExhausted {
		t.Fatalf("Phase = %s, want %s", res.Phase, PhaseExhausted)
	}

	// Manual rounds are still allowed and keep the phase until ready.
	status := l.RunRound(ctx)
	if status.Phase != PhaseExhausted {
		t.Errorf("Phase after manual round = %s, want %s", status.Phase, PhaseExhausted)
	}

	for !l.Ready() && l.Rounds() < 100 {
		l.RunRound(ctx)
	}
	if l.Phase() != PhaseReady {
		t.Errorf("Phase = %s, want %s", l.Phase(), PhaseReady)
	}
	if l.Rounds() != 14 {
		t.Errorf("Rounds = %d, want 14", l.Rounds())
	}
}

func TestOptimize_ZeroDriveNeverReady(t *testing.T) {
	l := newTestLoop(t, registry.Core(), func(c *Config) { c.Params.DriveSignal = 0 })

	res := l.Optimize(context.Background(), 50)

	if res.Ready {
		t.Fatal("zero drive should never reach the threshold")
	}
	first := res.History[0].Aggregate
	for _, h := range res.History {
		if h.Aggregate != first {
			t.Fatalf("round %d: aggregate %v drifted from %v with zero drive", h.Round, h.Aggregate, first)
		}
	}
}

func TestOptimize_Deterministic(t *testing.T) {
	a := newTestLoop(t, registry.Constellation()).Optimize(context.Background(), 100)
	b := newTestLoop(t, registry.Constellation()).Optimize(context.Background(), 100)

	if a.Rounds != b.Rounds || a.Aggregate != b.Aggregate {
		t.Errorf("runs differ: %d/%v vs %d/%v", a.Rounds, a.Aggregate, b.Rounds, b.Aggregate)
	}
}

func TestOnRound_ObservesCompletedRounds(t *testing.T) {
	l := newTestLoop(t, registry.Core())

	var seen []RoundStatus
	l.OnRound(func(s RoundStatus) {
		// The loop has already applied the round when observers run.
		if l.Rounds() != s.Round || l.Aggregate() != s.Aggregate {
			t.Errorf("observer saw stale loop state: %d/%v vs %d/%v", l.Rounds(), l.Aggregate(), s.Round, s.Aggregate)
		}
		seen = append(seen, s)
	})

	res := l.Optimize(context.Background(), 3)

	if len(seen) != 3 {
		t.Fatalf("observer called %d times, want 3", len(seen))
	}
	if !reflect.DeepEqual(seen, res.History) {
		t.Error("observer statuses differ from history")
	}
}

func TestRunRound_LogsDecisions(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLoop(t, registry.Core(), func(c *Config) {
		c.Decisions = logging.NewDecisionLogger(&buf, "debug")
	})

	l.Optimize(context.Background(), 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 decisions, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("parse decision: %v", err)
	}
	if entry["event"] != "threshold_check" || entry["round"] != float64(2) || entry["ready"] != false {
		t.Errorf("unexpected decision entry: %v", entry)
	}
}

func TestLoop_EmitsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	l := newTestLoop(t, registry.Core(), func(c *Config) { c.TracerProvider = tp })
	l.Optimize(context.Background(), 3)

	spans := sr.Ended()
	if len(spans) != 4 {
		t.Fatalf("expected 4 spans (3 rounds + optimize), got %d", len(spans))
	}

	optimize := spans[len(spans)-1]
	if optimize.Name() != "convergence.Optimize" {
		t.Fatalf("last span = %s, want convergence.Optimize", optimize.Name())
	}
	for _, s := range spans[:3] {
		if s.Name() != "convergence.RunRound" {
			t.Errorf("span = %s, want convergence.RunRound", s.Name())
		}
		if s.Parent().SpanID() != optimize.SpanContext().SpanID() {
			t.Errorf("round span not parented to optimize span")
		}
	}

	attrs := make(map[string]any)
	for _, kv := range optimize.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["convergence.rounds"] != int64(3) {
		t.Errorf("convergence.rounds = %v, want 3", attrs["convergence.rounds"])
	}
	if attrs["convergence.ready"] != false {
		t.Errorf("convergence.ready = %v, want false", attrs["convergence.ready"])
	}
}
