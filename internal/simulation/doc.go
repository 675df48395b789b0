// Package simulation provides a multi-round test harness for validating the
// convergence dynamics of the loop.
//
// The simulation exercises the real Loop and Updater with no mocks.
// Scenarios name a registry of entries and a round budget; the runner
// captures a status snapshot after every round for property-based
// assertions (bounds, ceiling, terminal pinning, monotonic drift, readiness).
//
// Each runner uses a fixed clock so entity logs are reproducible.
//
// Usage:
//
//	func TestCoreConvergence(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:       "core",
//	        Entries:    registry.Core(),
//	        Rounds:     100,
//	        UntilReady: true,
//	    })
//	    simulation.AssertReadyAt(t, result, 14)
//	}
package simulation
