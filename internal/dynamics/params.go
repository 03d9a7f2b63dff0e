package dynamics

import (
	"fmt"
	"math"
)

// Defaults for IntegrationParams.
const (
	DefaultDt                 = 1.0 / 60.0
	DefaultVelocityIterations = 8
	DefaultPositionIterations = 3
	DefaultERP                = 0.2
	DefaultAllowedPenetration = 0.005
	DefaultPredictionDistance = 0.02
	DefaultRestitutionCutoff  = 1.0
	DefaultSleepLinearSpeed   = 0.05
	DefaultSleepAngularSpeed  = 0.05
	DefaultTimeUntilSleep     = 0.5
	DefaultMaxCCDSubsteps     = 4
)

// IntegrationParams controls one simulation step. Changing Dt between steps
// is discouraged: it hurts solver convergence and introduces instability.
type IntegrationParams struct {
	// Dt is the fixed time step in seconds.
	Dt float64

	// VelocityIterations bounds the contact/joint impulse passes per step;
	// the solver always terminates, residual violation is accepted.
	VelocityIterations int

	// PositionIterations bounds the positional penetration-correction passes.
	PositionIterations int

	// ERP is the fraction of residual penetration corrected per pass.
	ERP float64

	// AllowedPenetration is the slop depth below which no correction applies;
	// it keeps resting contacts from jittering.
	AllowedPenetration float64

	// PredictionDistance is how far apart two shapes may be while still
	// producing (speculative) contact points.
	PredictionDistance float64

	// RestitutionCutoff is the minimum approach speed for bounces; slower
	// impacts are treated as inelastic so stacks come to rest.
	RestitutionCutoff float64

	// SleepLinearSpeed and SleepAngularSpeed are the velocity thresholds
	// below which a body accumulates sleep time.
	SleepLinearSpeed  float64
	SleepAngularSpeed float64

	// TimeUntilSleep is how long a whole island must stay below the sleep
	// thresholds before it is deactivated.
	TimeUntilSleep float64

	// MaxCCDSubsteps bounds the continuous-collision correction loop.
	MaxCCDSubsteps int
}

// DefaultIntegrationParams returns the documented defaults (60 Hz step).
func DefaultIntegrationParams() IntegrationParams {
	return IntegrationParams{
		Dt:                 DefaultDt,
		VelocityIterations: DefaultVelocityIterations,
		PositionIterations: DefaultPositionIterations,
		ERP:                DefaultERP,
		AllowedPenetration: DefaultAllowedPenetration,
		PredictionDistance: DefaultPredictionDistance,
		RestitutionCutoff:  DefaultRestitutionCutoff,
		SleepLinearSpeed:   DefaultSleepLinearSpeed,
		SleepAngularSpeed:  DefaultSleepAngularSpeed,
		TimeUntilSleep:     DefaultTimeUntilSleep,
		MaxCCDSubsteps:     DefaultMaxCCDSubsteps,
	}
}

// Validate rejects parameter combinations the solver cannot run with.
func (p IntegrationParams) Validate() error {
	if !(p.Dt > 0) || math.IsInf(p.Dt, 0) || math.IsNaN(p.Dt) {
		return fmt.Errorf("%w: dt %v", ErrBadTimestep, p.Dt)
	}
	if p.VelocityIterations < 1 || p.PositionIterations < 0 {
		return fmt.Errorf("%w: iterations %d/%d", ErrBadTimestep, p.VelocityIterations, p.PositionIterations)
	}
	if p.ERP < 0 || p.ERP > 1 {
		return fmt.Errorf("%w: erp %v", ErrBadTimestep, p.ERP)
	}
	if p.AllowedPenetration < 0 || p.PredictionDistance < 0 {
		return fmt.Errorf("%w: penetration %v prediction %v", ErrBadTimestep, p.AllowedPenetration, p.PredictionDistance)
	}
	return nil
}
