// Package constants provides named constants used throughout the coherence codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Convergence constants
const (
	// CoherenceThreshold is the aggregate coherence at which the system is ready.
	// It is also the ceiling for every non-terminal entity's coherence.
	CoherenceThreshold = 0.97

	// DefaultMaxRounds is the round budget used when none is configured.
	DefaultMaxRounds = 100
)

// Synchronization constants
const (
	// CarrierFrequency is the external frequency every entity blends toward.
	CarrierFrequency = 712.8

	// InitialFrequency is the frequency an entity starts at before its first round.
	InitialFrequency = 700.0

	// DefaultDriveSignal is the forcing strength applied each round (full drive).
	DefaultDriveSignal = 1.0

	// DriftStep is the per-round effectiveness increment, scaled by the drive signal.
	DriftStep = 0.02

	// BalanceTarget is the perfectly balanced ratio used by balance-scored categories.
	BalanceTarget = 0.5
)

// Coherence weights. They sum to 1.0 so a fully driven, fully effective,
// perfectly aligned entity scores exactly 1.0 before the ceiling applies.
const (
	// AlignmentWeight is the weight of the category alignment score.
	AlignmentWeight = 0.2

	// PrecisionWeight is the weight of the first effectiveness scalar.
	PrecisionWeight = 0.3

	// FlowWeight is the weight of the second effectiveness scalar.
	FlowWeight = 0.3

	// DriveWeight is the weight of the drive signal itself.
	DriveWeight = 0.2
)
