package models

import (
	"math"

	"github.com/nvandessel/coherence/internal/constants"
)

// Category is the behavioral profile of an entity. It decides the preset
// metrics an entity starts from and how its balance ratio is scored.
type Category string

const (
	CategorySilver   Category = "silver"   // Structure: scores the ratio directly
	CategoryCrimson  Category = "crimson"  // Will: scores the inverse ratio
	CategoryVoid     Category = "void"     // Synthesis: scores closeness to balance
	CategoryObsidian Category = "obsidian" // Execution: scores closeness to balance
	CategoryOmni     Category = "omni"     // Terminal: always fully coherent
)

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{CategorySilver, CategoryCrimson, CategoryVoid, CategoryObsidian, CategoryOmni}
}

// Valid returns true if the category is a recognized value.
func (c Category) Valid() bool {
	_, ok := profiles[c]
	return ok
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Terminal reports whether the category is pinned at full coherence.
func (c Category) Terminal() bool {
	return profiles[c].Terminal
}

// Profile returns the preset table row for the category.
// The second return value is false for unknown categories.
func (c Category) Profile() (Profile, bool) {
	p, ok := profiles[c]
	return p, ok
}

// AlignmentRule selects how a balance ratio turns into an alignment score.
type AlignmentRule int

const (
	// AlignDirect scores the ratio itself.
	AlignDirect AlignmentRule = iota
	// AlignInverse scores 1 - ratio.
	AlignInverse
	// AlignBalance peaks at a ratio of exactly 0.5.
	AlignBalance
	// AlignUnity always scores 1.0.
	AlignUnity
)

// Score applies the rule to a balance ratio. The result is in [0, 1] for
// any ratio in [0, 1].
func (r AlignmentRule) Score(ratio float64) float64 {
	switch r {
	case AlignDirect:
		return ratio
	case AlignInverse:
		return 1.0 - ratio
	case AlignBalance:
		return 1.0 - math.Abs(ratio-constants.BalanceTarget)*2
	default:
		return 1.0
	}
}

// String returns a short formula for display.
func (r AlignmentRule) String() string {
	switch r {
	case AlignDirect:
		return "ratio"
	case AlignInverse:
		return "1-ratio"
	case AlignBalance:
		return "1-|ratio-0.5|*2"
	default:
		return "1"
	}
}

// Profile is the preset state and scoring rule for a category.
type Profile struct {
	// Ratio is the initial balance ratio.
	Ratio float64 `json:"ratio" yaml:"ratio"`

	// Precision is the initial value of the first effectiveness scalar.
	Precision float64 `json:"precision" yaml:"precision"`

	// Flow is the initial value of the second effectiveness scalar.
	Flow float64 `json:"flow" yaml:"flow"`

	// Alignment scores the balance ratio.
	Alignment AlignmentRule `json:"-" yaml:"-"`

	// Terminal pins coherence at 1.0 regardless of the weighted sum.
	Terminal bool `json:"terminal" yaml:"terminal"`
}

var profiles = map[Category]Profile{
	CategorySilver:   {Ratio: 0.95, Precision: 0.7, Flow: 0.7, Alignment: AlignDirect},
	CategoryCrimson:  {Ratio: 0.05, Precision: 0.8, Flow: 0.6, Alignment: AlignInverse},
	CategoryVoid:     {Ratio: constants.BalanceTarget, Precision: 0.9, Flow: 0.98, Alignment: AlignBalance},
	CategoryObsidian: {Ratio: 0.45, Precision: 0.99, Flow: 0.7, Alignment: AlignBalance},
	CategoryOmni:     {Ratio: constants.BalanceTarget, Alignment: AlignUnity, Terminal: true},
}
