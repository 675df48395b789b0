// Package convergence runs the round-based convergence loop. Each round
// synchronizes every entity once, averages their coherence into a global
// aggregate, and marks the system ready once the aggregate reaches the
// threshold. Rounds repeat until ready or until a round budget is spent.
package convergence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nvandessel/coherence/internal/constants"
	"github.com/nvandessel/coherence/internal/logging"
	"github.com/nvandessel/coherence/internal/models"
	"github.com/nvandessel/coherence/internal/registry"
	"github.com/nvandessel/coherence/internal/resonance"
)

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/nvandessel/coherence/internal/convergence"

// Phase is the lifecycle state of a Loop.
type Phase string

const (
	// PhaseInitialized is the state before the first round.
	PhaseInitialized Phase = "initialized"

	// PhaseRunning is entered by the first round.
	PhaseRunning Phase = "running"

	// PhaseReady is entered when the aggregate reaches the threshold. It is
	// never left.
	PhaseReady Phase = "ready"

	// PhaseExhausted is entered when an Optimize budget runs out before the
	// threshold is reached. A later round that crosses the threshold still
	// moves the loop to PhaseReady.
	PhaseExhausted Phase = "exhausted"
)

// Config holds the loop's parameters and collaborators.
type Config struct {
	// Params configures the per-entity updater.
	Params resonance.Params

	// Threshold is the aggregate at which the loop becomes ready. Default: 0.97.
	Threshold float64

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// Decisions receives one threshold decision per round. Nil is allowed.
	Decisions *logging.DecisionLogger

	// TracerProvider supplies the tracer for round spans. Nil uses the
	// global provider.
	TracerProvider trace.TracerProvider

	// Now is the clock used for entity log entries. Nil uses time.Now.
	Now func() time.Time
}

// DefaultConfig returns the default loop configuration.
func DefaultConfig() Config {
	return Config{
		Params:    resonance.DefaultParams(),
		Threshold: constants.CoherenceThreshold,
	}
}

// RoundStatus is the outcome of a single round.
type RoundStatus struct {
	Round     int               `json:"round"`
	Aggregate float64           `json:"aggregate"`
	Ready     bool              `json:"ready"`
	Phase     Phase             `json:"phase"`
	Entities  []models.Snapshot `json:"entities"`
}

// Result is the outcome of an Optimize call.
type Result struct {
	// Rounds is the number of rounds executed by this call.
	Rounds int `json:"rounds"`

	// TotalRounds is the number of rounds executed over the loop's lifetime.
	TotalRounds int `json:"total_rounds"`

	Aggregate float64       `json:"aggregate"`
	Ready     bool          `json:"ready"`
	Phase     Phase         `json:"phase"`
	History   []RoundStatus `json:"history,omitempty"`
}

// Loop owns the entities of one simulation and their aggregate state.
// It is not safe for concurrent use.
type Loop struct {
	updater   *resonance.Updater
	threshold float64
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	tracer    trace.Tracer
	nowFunc   func() time.Time

	entities  map[string]*models.Entity
	order     []string
	aggregate float64
	ready     bool
	phase     Phase
	rounds    int
	observers []func(RoundStatus)
}

// NewLoop creates a loop with one entity per registry entry.
// It returns an error if the entries have duplicate names or unknown categories.
func NewLoop(entries []registry.Entry, cfg Config) (*Loop, error) {
	if err := registry.Validate(entries); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}

	if cfg.Threshold == 0 {
		cfg.Threshold = constants.CoherenceThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	updater := resonance.NewUpdater(cfg.Params)
	updater.SetClock(cfg.Now)

	l := &Loop{
		updater:   updater,
		threshold: cfg.Threshold,
		logger:    cfg.Logger,
		decisions: cfg.Decisions,
		tracer:    cfg.TracerProvider.Tracer(tracerName),
		nowFunc:   cfg.Now,
		entities:  make(map[string]*models.Entity, len(entries)),
		order:     make([]string, 0, len(entries)),
		phase:     PhaseInitialized,
	}
	for _, e := range entries {
		l.entities[e.Name] = models.NewEntity(e.Name, e.Role, e.Category)
		l.order = append(l.order, e.Name)
	}

	return l, nil
}

// OnRound registers fn to be called after every round, once the numeric
// update for that round is complete.
func (l *Loop) OnRound(fn func(RoundStatus)) {
	l.observers = append(l.observers, fn)
}

// RunRound synchronizes every entity once and recomputes the aggregate.
// With no entities the aggregate is 0 and the loop never becomes ready.
func (l *Loop) RunRound(ctx context.Context) RoundStatus {
	ctx, span := l.tracer.Start(ctx, "convergence.RunRound")
	defer span.End()

	var total float64
	for _, name := range l.order {
		e := l.entities[name]
		coherence := l.updater.Synchronize(e)
		total += coherence
		l.logger.Log(ctx, logging.LevelTrace, "entity synchronized",
			"entity", name, "category", e.Category, "coherence", coherence,
			"precision", e.State.Precision, "flow", e.State.Flow)
	}

	l.rounds++
	if len(l.order) > 0 {
		l.aggregate = total / float64(len(l.order))
	} else {
		l.aggregate = 0
	}

	if l.aggregate >= l.threshold {
		l.ready = true
	}
	switch {
	case l.ready:
		l.phase = PhaseReady
	case l.phase == PhaseInitialized:
		l.phase = PhaseRunning
	}

	status := l.status()

	span.SetAttributes(
		attribute.Int("convergence.round", status.Round),
		attribute.Float64("convergence.aggregate", status.Aggregate),
		attribute.Bool("convergence.ready", status.Ready),
	)
	l.logger.Debug("round complete", "round", status.Round, "aggregate", status.Aggregate, "ready", status.Ready)
	l.decisions.Log(map[string]any{
		"event":     "threshold_check",
		"round":     status.Round,
		"aggregate": status.Aggregate,
		"threshold": l.threshold,
		"ready":     status.Ready,
	})

	for _, fn := range l.observers {
		fn(status)
	}

	return status
}

// Optimize runs rounds until the loop is ready or maxRounds rounds have
// run, whichever comes first. maxRounds <= 0 runs nothing and leaves the
// loop untouched. ctx carries trace context; it is not a cancellation signal.
func (l *Loop) Optimize(ctx context.Context, maxRounds int) Result {
	ctx, span := l.tracer.Start(ctx, "convergence.Optimize",
		trace.WithAttributes(attribute.Int("convergence.max_rounds", maxRounds)))
	defer span.End()

	var history []RoundStatus
	for i := 0; i < maxRounds && !l.ready; i++ {
		history = append(history, l.RunRound(ctx))
	}

	if !l.ready && len(history) > 0 {
		l.phase = PhaseExhausted
		l.logger.Info("round budget exhausted", "rounds", len(history), "aggregate", l.aggregate)
	}

	res := Result{
		Rounds:      len(history),
		TotalRounds: l.rounds,
		Aggregate:   l.aggregate,
		Ready:       l.ready,
		Phase:       l.phase,
		History:     history,
	}
	span.SetAttributes(
		attribute.Int("convergence.rounds", res.Rounds),
		attribute.Float64("convergence.aggregate", res.Aggregate),
		attribute.Bool("convergence.ready", res.Ready),
	)
	return res
}

// Aggregate returns the mean coherence from the latest round.
func (l *Loop) Aggregate() float64 { return l.aggregate }

// Ready reports whether the aggregate has ever reached the threshold.
func (l *Loop) Ready() bool { return l.ready }

// Phase returns the loop's lifecycle phase.
func (l *Loop) Phase() Phase { return l.phase }

// Rounds returns the number of rounds executed so far.
func (l *Loop) Rounds() int { return l.rounds }

// Threshold returns the readiness threshold.
func (l *Loop) Threshold() float64 { return l.threshold }

// Len returns the number of entities.
func (l *Loop) Len() int { return len(l.order) }

// Entity returns the named entity, or nil if it is not registered.
func (l *Loop) Entity(name string) *models.Entity {
	return l.entities[name]
}

// Snapshots returns copies of every entity's state in registration order.
func (l *Loop) Snapshots() []models.Snapshot {
	out := make([]models.Snapshot, 0, len(l.order))
	for _, name := range l.order {
		e := l.entities[name]
		out = append(out, models.Snapshot{
			Name:      e.Name,
			Category:  e.Category,
			Alignment: resonance.Alignment(e),
			State:     e.State,
		})
	}
	return out
}

// Status returns the loop's current state without running a round.
func (l *Loop) Status() RoundStatus {
	return l.status()
}

func (l *Loop) status() RoundStatus {
	return RoundStatus{
		Round:     l.rounds,
		Aggregate: l.aggregate,
		Ready:     l.ready,
		Phase:     l.phase,
		Entities:  l.Snapshots(),
	}
}
