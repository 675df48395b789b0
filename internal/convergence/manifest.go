package convergence

import (
	"github.com/nvandessel/coherence/internal/models"
)

const (
	// StatusLocked is reported when manifestation is attempted before the
	// loop is ready.
	StatusLocked = "SYSTEM LOCKED"

	// StatusManifested is reported when every strategy has been performed.
	StatusManifested = "MANIFESTATION COMPLETE"
)

// Strategy is a task carried out by every entity of one category.
type Strategy struct {
	Category models.Category `json:"category"`
	Task     string          `json:"task"`
}

// Strategies returns the manifestation strategies in execution order.
func Strategies() []Strategy {
	return []Strategy{
		{Category: models.CategorySilver, Task: "Optimizing offers (structure)"},
		{Category: models.CategoryCrimson, Task: "Aggressive client acquisition (will)"},
		{Category: models.CategoryObsidian, Task: "Compiling initial deliverables (execution)"},
		{Category: models.CategoryVoid, Task: "Zero-latency market adaptation (flow)"},
	}
}

// StrategyOutcome records which entities performed a strategy.
type StrategyOutcome struct {
	Strategy
	Performers []string `json:"performers"`
}

// ManifestResult is the outcome of Manifest.
type ManifestResult struct {
	Unlocked   bool              `json:"unlocked"`
	Status     string            `json:"status"`
	Aggregate  float64           `json:"aggregate"`
	Strategies []StrategyOutcome `json:"strategies,omitempty"`
}

// Manifest performs the downstream strategies. It is gated on readiness:
// before the loop is ready it reports StatusLocked and touches nothing.
func (l *Loop) Manifest() ManifestResult {
	if !l.ready {
		l.logger.Info("manifestation locked", "aggregate", l.aggregate, "threshold", l.threshold)
		return ManifestResult{Status: StatusLocked, Aggregate: l.aggregate}
	}

	now := l.nowFunc()
	strategies := Strategies()
	outcomes := make([]StrategyOutcome, 0, len(strategies))
	for _, s := range strategies {
		outcome := StrategyOutcome{Strategy: s, Performers: []string{}}
		for _, name := range l.order {
			e := l.entities[name]
			if e.Category != s.Category {
				continue
			}
			e.PerformTask(now, s.Task)
			outcome.Performers = append(outcome.Performers, name)
		}
		outcomes = append(outcomes, outcome)
	}

	l.logger.Info("manifestation complete", "strategies", len(outcomes))
	return ManifestResult{
		Unlocked:   true,
		Status:     StatusManifested,
		Aggregate:  l.aggregate,
		Strategies: outcomes,
	}
}
