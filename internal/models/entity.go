package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/coherence/internal/constants"
)

// State is the mutable scalar state of an entity.
type State struct {
	// Frequency is the entity's carrier frequency. It is unbounded.
	Frequency float64 `json:"frequency"`

	// BalanceRatio is in [0, 1].
	BalanceRatio float64 `json:"balance_ratio"`

	// Precision is the first effectiveness scalar, in [0, 1].
	Precision float64 `json:"precision"`

	// Flow is the second effectiveness scalar, in [0, 1].
	Flow float64 `json:"flow"`

	// Coherence is derived from the other scalars, in [0, 1].
	Coherence float64 `json:"coherence"`

	// Initialized is set by the first synchronization, after which the
	// category presets are no longer applied.
	Initialized bool `json:"initialized"`
}

// LogEntry is a timestamped event recorded on an entity.
type LogEntry struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
}

// String formats the entry as "[timestamp] event".
func (l LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", l.Time.Format(time.RFC3339Nano), l.Event)
}

// Entity is one simulated node: a named agent with a category and state.
type Entity struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Role     string     `json:"role,omitempty"`
	Category Category   `json:"category"`
	State    State      `json:"state"`
	Log      []LogEntry `json:"log,omitempty"`
}

// NewEntity creates an entity at its pre-synchronization state.
func NewEntity(name, role string, category Category) *Entity {
	return &Entity{
		ID:       uuid.NewString()[:8],
		Name:     name,
		Role:     role,
		Category: category,
		State: State{
			Frequency:    constants.InitialFrequency,
			BalanceRatio: constants.BalanceTarget,
		},
	}
}

// Record appends a timestamped event to the entity log.
func (e *Entity) Record(at time.Time, event string) {
	e.Log = append(e.Log, LogEntry{Time: at, Event: event})
}

// PerformTask records an executed task on the entity log.
func (e *Entity) PerformTask(at time.Time, task string) {
	e.Record(at, "TASK EXECUTED: "+task)
}

// Snapshot is a point-in-time copy of an entity's identity and state.
type Snapshot struct {
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Alignment float64  `json:"alignment"`
	State
}

// Clamp01 restricts v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
