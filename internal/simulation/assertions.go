package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/coherence/internal/models"
)

// meanTolerance absorbs summation-order differences when recomputing means.
const meanTolerance = 1e-12

// AssertBounded asserts that every bounded scalar of every entity lies in
// [0, 1] after every round.
func AssertBounded(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, rs := range result.Rounds {
		for _, e := range rs.Entities {
			for name, v := range map[string]float64{
				"balance_ratio": e.BalanceRatio,
				"precision":     e.Precision,
				"flow":          e.Flow,
				"coherence":     e.Coherence,
			} {
				if v < 0 || v > 1 || math.IsNaN(v) {
					t.Errorf("AssertBounded: round %d: %s %s = %.6f outside [0, 1]", rs.Round, e.Name, name, v)
				}
			}
		}
	}
}

// AssertTerminalPinned asserts that terminal entities have coherence exactly
// 1.0 after every round.
func AssertTerminalPinned(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, rs := range result.Rounds {
		for _, e := range rs.Entities {
			if e.Category.Terminal() && e.Coherence != 1.0 {
				t.Errorf("AssertTerminalPinned: round %d: %s coherence %.6f != 1.0", rs.Round, e.Name, e.Coherence)
			}
		}
	}
}

// AssertCeiling asserts that no non-terminal entity exceeds ceiling.
func AssertCeiling(t *testing.T, result SimulationResult, ceiling float64) {
	t.Helper()
	for _, rs := range result.Rounds {
		for _, e := range rs.Entities {
			if !e.Category.Terminal() && e.Coherence > ceiling {
				t.Errorf("AssertCeiling: round %d: %s coherence %.6f > %.4f", rs.Round, e.Name, e.Coherence, ceiling)
			}
		}
	}
}

// AssertMonotonicEffectiveness asserts that precision and flow never
// decrease from one round to the next for any entity.
func AssertMonotonicEffectiveness(t *testing.T, result SimulationResult) {
	t.Helper()
	prev := make(map[string]models.Snapshot)
	for _, rs := range result.Rounds {
		for _, e := range rs.Entities {
			if p, ok := prev[e.Name]; ok {
				if e.Precision < p.Precision {
					t.Errorf("AssertMonotonicEffectiveness: round %d: %s precision fell %.6f -> %.6f", rs.Round, e.Name, p.Precision, e.Precision)
				}
				if e.Flow < p.Flow {
					t.Errorf("AssertMonotonicEffectiveness: round %d: %s flow fell %.6f -> %.6f", rs.Round, e.Name, p.Flow, e.Flow)
				}
			}
			prev[e.Name] = e
		}
	}
}

// AssertAggregateIsMean asserts that every round's aggregate is the mean of
// that round's entity coherence, and 0 for an empty registry.
func AssertAggregateIsMean(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, rs := range result.Rounds {
		want := 0.0
		if len(rs.Entities) > 0 {
			var sum float64
			for _, e := range rs.Entities {
				sum += e.Coherence
			}
			want = sum / float64(len(rs.Entities))
		}
		if math.Abs(rs.Aggregate-want) > meanTolerance {
			t.Errorf("AssertAggregateIsMean: round %d: aggregate %.12f, mean %.12f", rs.Round, rs.Aggregate, want)
		}
	}
}

// AssertAggregateNonDecreasing asserts that the aggregate never falls.
func AssertAggregateNonDecreasing(t *testing.T, result SimulationResult) {
	t.Helper()
	for i := 1; i < len(result.Rounds); i++ {
		prev, cur := result.Rounds[i-1], result.Rounds[i]
		if cur.Aggregate < prev.Aggregate {
			t.Errorf("AssertAggregateNonDecreasing: round %d: aggregate fell %.6f -> %.6f", cur.Round, prev.Aggregate, cur.Aggregate)
		}
	}
}

// AssertReadyAt asserts that the loop first became ready at the given
// one-based round.
func AssertReadyAt(t *testing.T, result SimulationResult, round int) {
	t.Helper()
	if got := FirstReadyRound(result); got != round {
		t.Errorf("AssertReadyAt: first ready round = %d, want %d", got, round)
	}
}

// AssertNeverReady asserts that no round reached the threshold.
func AssertNeverReady(t *testing.T, result SimulationResult) {
	t.Helper()
	if got := FirstReadyRound(result); got != 0 {
		t.Errorf("AssertNeverReady: loop became ready at round %d (aggregate %.6f)", got, result.Rounds[got-1].Aggregate)
	}
}

// AssertReadySticky asserts that once ready, every later round stays ready.
func AssertReadySticky(t *testing.T, result SimulationResult) {
	t.Helper()
	seen := false
	for _, rs := range result.Rounds {
		if seen && !rs.Ready {
			t.Errorf("AssertReadySticky: round %d: ready flag was reset", rs.Round)
		}
		seen = seen || rs.Ready
	}
}

// AssertAggregateStable asserts that the aggregate's variance over the last
// lastN rounds is at most maxVariance.
func AssertAggregateStable(t *testing.T, result SimulationResult, maxVariance float64, lastN int) {
	t.Helper()
	start := len(result.Rounds) - lastN
	if start < 0 {
		start = 0
	}
	vals := make([]float64, 0, lastN)
	for _, rs := range result.Rounds[start:] {
		vals = append(vals, rs.Aggregate)
	}
	if v := variance(vals); v > maxVariance {
		t.Errorf("AssertAggregateStable: variance %.12f over last %d rounds > %.12f", v, len(vals), maxVariance)
	}
}

// AssertInvariants runs every property that holds for all scenarios.
func AssertInvariants(t *testing.T, result SimulationResult, ceiling float64) {
	t.Helper()
	AssertBounded(t, result)
	AssertTerminalPinned(t, result)
	AssertCeiling(t, result, ceiling)
	AssertMonotonicEffectiveness(t, result)
	AssertAggregateIsMean(t, result)
	AssertAggregateNonDecreasing(t, result)
	AssertReadySticky(t, result)
}

// variance computes the population variance of a float64 slice.
func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))

	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(vals))
}

// FirstReadyRound returns the one-based round at which the loop first became
// ready, or 0 if it never did.
func FirstReadyRound(result SimulationResult) int {
	for _, rs := range result.Rounds {
		if rs.Ready {
			return rs.Round
		}
	}
	return 0
}

// EntitySeries returns the named entity's snapshot after each round.
func EntitySeries(result SimulationResult, name string) []models.Snapshot {
	var out []models.Snapshot
	for _, rs := range result.Rounds {
		for _, e := range rs.Entities {
			if e.Name == name {
				out = append(out, e)
			}
		}
	}
	return out
}
