package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/nvandessel/coherence/internal/convergence"
)

// epoch is the fixed clock every runner starts from.
var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Runner orchestrates multi-round simulation experiments against a real loop.
type Runner struct {
	t   *testing.T
	now time.Time
}

// NewRunner creates a simulation runner with a deterministic clock that
// advances one second per call.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{t: t, now: epoch}
}

func (r *Runner) clock() time.Time {
	r.now = r.now.Add(time.Second)
	return r.now
}

// Run executes the scenario and returns the collected results.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()
	ctx := context.Background()

	cfg := convergence.DefaultConfig()
	if scenario.Params != nil {
		cfg.Params = *scenario.Params
	}
	if scenario.Threshold > 0 {
		cfg.Threshold = scenario.Threshold
	}
	cfg.Now = r.clock

	loop, err := convergence.NewLoop(scenario.Entries, cfg)
	if err != nil {
		r.t.Fatalf("scenario %s: NewLoop: %v", scenario.Name, err)
	}

	var rounds []convergence.RoundStatus
	loop.OnRound(func(s convergence.RoundStatus) {
		rounds = append(rounds, s)
	})

	result := SimulationResult{Loop: loop}
	if scenario.UntilReady {
		res := loop.Optimize(ctx, scenario.Rounds)
		result.Optimize = &res
	} else {
		for i := 0; i < scenario.Rounds; i++ {
			if scenario.BeforeRound != nil {
				scenario.BeforeRound(i, loop)
			}
			loop.RunRound(ctx)
		}
	}

	result.Rounds = rounds
	return result
}
