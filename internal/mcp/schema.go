package mcp

// CoherenceOptimizeInput defines the input for the coherence_optimize tool.
type CoherenceOptimizeInput struct {
	MaxRounds int `json:"max_rounds,omitempty" jsonschema:"Maximum rounds to run before giving up (default: server round budget)"`
}

// CoherenceOptimizeOutput defines the output for the coherence_optimize tool.
type CoherenceOptimizeOutput struct {
	Rounds      int             `json:"rounds" jsonschema:"Rounds executed by this call"`
	TotalRounds int             `json:"total_rounds" jsonschema:"Rounds executed since the loop was created"`
	Aggregate   float64         `json:"aggregate" jsonschema:"Mean coherence after the last round (0.0-1.0)"`
	Ready       bool            `json:"ready" jsonschema:"Whether the aggregate has reached the threshold"`
	Phase       string          `json:"phase" jsonschema:"Loop phase: initialized, running, ready or exhausted"`
	Entities    []EntitySummary `json:"entities" jsonschema:"Per-entity state after the last round"`
	Message     string          `json:"message" jsonschema:"Human-readable result message"`
}

// CoherenceStatusInput defines the input for the coherence_status tool.
type CoherenceStatusInput struct{}

// CoherenceStatusOutput defines the output for the coherence_status tool.
type CoherenceStatusOutput struct {
	Registry  string          `json:"registry" jsonschema:"Registry the loop was initialized from"`
	Round     int             `json:"round" jsonschema:"Rounds executed so far"`
	Aggregate float64         `json:"aggregate" jsonschema:"Mean coherence from the latest round"`
	Threshold float64         `json:"threshold" jsonschema:"Aggregate required for readiness"`
	Ready     bool            `json:"ready" jsonschema:"Whether the aggregate has reached the threshold"`
	Phase     string          `json:"phase" jsonschema:"Loop phase: initialized, running, ready or exhausted"`
	Entities  []EntitySummary `json:"entities" jsonschema:"Per-entity state"`
}

// CoherenceManifestInput defines the input for the coherence_manifest tool.
type CoherenceManifestInput struct{}

// CoherenceManifestOutput defines the output for the coherence_manifest tool.
type CoherenceManifestOutput struct {
	Unlocked   bool              `json:"unlocked" jsonschema:"Whether manifestation was permitted"`
	Status     string            `json:"status" jsonschema:"Outcome status line"`
	Aggregate  float64           `json:"aggregate" jsonschema:"Aggregate coherence at the time of the call"`
	Strategies []StrategySummary `json:"strategies,omitempty" jsonschema:"Strategies performed, in order"`
}

// CoherenceResetInput defines the input for the coherence_reset tool.
type CoherenceResetInput struct {
	Registry string `json:"registry,omitempty" jsonschema:"Registry to initialize from: core or constellation (default: current registry)"`
}

// CoherenceResetOutput defines the output for the coherence_reset tool.
type CoherenceResetOutput struct {
	Registry string `json:"registry" jsonschema:"Registry the new loop was initialized from"`
	Entities int    `json:"entities" jsonschema:"Number of entities in the new loop"`
	Message  string `json:"message" jsonschema:"Human-readable result message"`
}

// EntitySummary provides a flat view of one entity's state.
type EntitySummary struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Coherence    float64 `json:"coherence"`
	Alignment    float64 `json:"alignment"`
	Precision    float64 `json:"precision"`
	Flow         float64 `json:"flow"`
	BalanceRatio float64 `json:"balance_ratio"`
	Frequency    float64 `json:"frequency"`
}

// StrategySummary records one performed strategy.
type StrategySummary struct {
	Category   string   `json:"category"`
	Task       string   `json:"task"`
	Performers []string `json:"performers"`
}
