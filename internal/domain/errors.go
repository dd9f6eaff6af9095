package domain

import "errors"

var (
	ErrUnknownDiseaseState = errors.New("unknown disease state")
	// ErrVisitTimeUnderivable marks a visit whose simulated time cannot
	// be computed from its stored fields. Silent fallbacks (such as
	// using a visit index as a time) are forbidden.
	ErrVisitTimeUnderivable = errors.New("visit time cannot be derived")
	// ErrInvariantViolated marks a fatal internal inconsistency; runs
	// never recover from it.
	ErrInvariantViolated = errors.New("simulation invariant violated")
)
