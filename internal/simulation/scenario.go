package simulation

import (
	"strconv"

	"github.com/nvandessel/coherence/internal/convergence"
	"github.com/nvandessel/coherence/internal/models"
	"github.com/nvandessel/coherence/internal/registry"
	"github.com/nvandessel/coherence/internal/resonance"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name    string
	Entries []registry.Entry

	// Params overrides the updater parameters. Nil uses the defaults.
	Params *resonance.Params

	// Threshold overrides the readiness threshold. 0 uses the default.
	Threshold float64

	// Rounds is the round budget.
	Rounds int

	// UntilReady runs the budget through Optimize, stopping once ready.
	// Otherwise exactly Rounds rounds run through RunRound.
	UntilReady bool

	// BeforeRound, when non-nil, is called before each manual round with the
	// zero-based round index. It is ignored when UntilReady is set.
	BeforeRound func(round int, l *convergence.Loop)
}

// SimulationResult captures every round and the final loop.
type SimulationResult struct {
	// Rounds holds the status observed after each round, in order.
	Rounds []convergence.RoundStatus

	// Optimize is the Optimize result when the scenario ran UntilReady.
	Optimize *convergence.Result

	Loop *convergence.Loop
}

// Uniform returns n entries of one category named "<category>-1".."<category>-n".
func Uniform(category models.Category, n int) []registry.Entry {
	entries := make([]registry.Entry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, registry.Entry{
			Name:     string(category) + "-" + strconv.Itoa(i),
			Category: category,
		})
	}
	return entries
}

// Mixed returns one entry per category, named after the category.
func Mixed(categories ...models.Category) []registry.Entry {
	entries := make([]registry.Entry, 0, len(categories))
	for i, c := range categories {
		entries = append(entries, registry.Entry{Name: string(c) + "-" + strconv.Itoa(i+1), Category: c})
	}
	return entries
}
