// Package resonance implements the per-entity state update. Each call blends
// the entity's frequency toward the carrier, initializes or drifts its
// effectiveness metrics, and derives a bounded coherence score.
package resonance

import (
	"fmt"
	"time"

	"github.com/nvandessel/coherence/internal/constants"
	"github.com/nvandessel/coherence/internal/models"
)

// Params holds the tunable parameters of the updater.
type Params struct {
	// CarrierFrequency is the external frequency entities blend toward. Default: 712.8.
	CarrierFrequency float64

	// DriveSignal is the forcing strength (0.0-1.0). Default: 1.0.
	// It scales the drift step and contributes directly to coherence.
	DriveSignal float64

	// DriftStep is the effectiveness increment at full drive. Default: 0.02.
	DriftStep float64

	// Ceiling caps the coherence of non-terminal entities. Default: 0.97.
	Ceiling float64
}

// DefaultParams returns the default updater parameters.
func DefaultParams() Params {
	return Params{
		CarrierFrequency: constants.CarrierFrequency,
		DriveSignal:      constants.DefaultDriveSignal,
		DriftStep:        constants.DriftStep,
		Ceiling:          constants.CoherenceThreshold,
	}
}

// Updater synchronizes entities. It holds no per-entity state; everything it
// mutates lives on the entity passed to Synchronize.
type Updater struct {
	params  Params
	nowFunc func() time.Time // injectable clock for testing
}

// NewUpdater creates an updater with the given parameters.
func NewUpdater(params Params) *Updater {
	return &Updater{
		params:  params,
		nowFunc: time.Now,
	}
}

// Params returns the updater's parameters.
func (u *Updater) Params() Params {
	return u.params
}

// SetClock replaces the clock used to timestamp log entries.
func (u *Updater) SetClock(now func() time.Time) {
	u.nowFunc = now
}

// Synchronize updates the entity in place and returns its new coherence.
//
// The first call applies the category presets; every later call drifts both
// effectiveness scalars up by DriveSignal*DriftStep, saturating at 1.0.
// Coherence is the weighted sum
//
//	alignment*0.2 + precision*0.3 + flow*0.3 + drive*0.2
//
// capped at Ceiling, except for terminal categories which are pinned at 1.0.
func (u *Updater) Synchronize(e *models.Entity) float64 {
	st := &e.State
	profile, _ := e.Category.Profile()

	// Step 1: Blend frequency toward the carrier, halving the gap.
	st.Frequency = (st.Frequency + u.params.CarrierFrequency) / 2

	// Step 2: Presets on first contact, drift afterwards.
	if !st.Initialized {
		st.BalanceRatio = profile.Ratio
		st.Precision = profile.Precision
		st.Flow = profile.Flow
		st.Initialized = true
	} else {
		step := u.params.DriveSignal * u.params.DriftStep
		st.Precision = drift(st.Precision, step)
		st.Flow = drift(st.Flow, step)
	}
	st.BalanceRatio = models.Clamp01(st.BalanceRatio)

	// Step 3: Alignment from the category rule.
	alignment := Alignment(e)

	// Step 4: Weighted coherence.
	if profile.Terminal {
		st.Coherence = 1.0
	} else {
		score := alignment*constants.AlignmentWeight +
			st.Precision*constants.PrecisionWeight +
			st.Flow*constants.FlowWeight +
			u.params.DriveSignal*constants.DriveWeight
		if score > u.params.Ceiling {
			score = u.params.Ceiling
		}
		st.Coherence = models.Clamp01(score)
	}

	e.Record(u.nowFunc(), fmt.Sprintf("SYNCHRONIZED: coherence=%.4f frequency=%.2f", st.Coherence, st.Frequency))

	return st.Coherence
}

// Alignment returns the entity's current alignment score.
func Alignment(e *models.Entity) float64 {
	profile, _ := e.Category.Profile()
	return models.Clamp01(profile.Alignment.Score(e.State.BalanceRatio))
}

// drift raises v by step, never lowering it and never passing 1.0.
func drift(v, step float64) float64 {
	if !(step > 0) {
		return models.Clamp01(v)
	}
	return models.Clamp01(v + step)
}
