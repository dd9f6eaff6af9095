package domain

import (
	"fmt"
	"math"
	"strings"
)

type DiseaseState string

const (
	StateNaive        DiseaseState = "NAIVE"
	StateStable       DiseaseState = "STABLE"
	StateActive       DiseaseState = "ACTIVE"
	StateHighlyActive DiseaseState = "HIGHLY_ACTIVE"
)

// DiseaseStates lists every state in canonical order. Transition tables
// are iterated in this order so that random draws consume probability
// mass deterministically.
var DiseaseStates = []DiseaseState{StateNaive, StateStable, StateActive, StateHighlyActive}

func (s DiseaseState) Valid() bool {
	switch s {
	case StateNaive, StateStable, StateActive, StateHighlyActive:
		return true
	}
	return false
}

// ActiveDisease reports whether the state indicates current lesion
// activity (fluid on OCT is biased toward these states).
func (s DiseaseState) ActiveDisease() bool {
	return s == StateActive || s == StateHighlyActive
}

func ParseDiseaseState(raw string) (DiseaseState, error) {
	s := DiseaseState(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDiseaseState, raw)
	}
	return s, nil
}

// TransitionRow holds the outgoing probabilities from one disease state,
// keyed by destination state.
type TransitionRow map[DiseaseState]float64

func (r TransitionRow) Sum() float64 {
	sum := 0.0
	for _, p := range r {
		sum += p
	}
	return sum
}

const transitionRowEpsilon = 1e-6

// Validate checks that the row covers every state with probabilities in
// [0,1] summing to 1.0. The path parameter names the configuration
// location for diagnostics.
func (r TransitionRow) Validate(path string) error {
	for _, to := range DiseaseStates {
		p, ok := r[to]
		if !ok {
			return fmt.Errorf("%s: missing probability for state %s", path, to)
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("%s.%s: probability %v out of [0,1]", path, to, p)
		}
	}
	if len(r) != len(DiseaseStates) {
		return fmt.Errorf("%s: row has %d entries, want %d", path, len(r), len(DiseaseStates))
	}
	if sum := r.Sum(); math.Abs(sum-1.0) > transitionRowEpsilon {
		return fmt.Errorf("%s: row sums to %v, want 1.0", path, sum)
	}
	return nil
}

// TransitionTable maps each source state to its outgoing row.
type TransitionTable map[DiseaseState]TransitionRow

func (t TransitionTable) Validate(path string) error {
	for _, from := range DiseaseStates {
		row, ok := t[from]
		if !ok {
			return fmt.Errorf("%s: missing row for state %s", path, from)
		}
		if err := row.Validate(fmt.Sprintf("%s.%s", path, from)); err != nil {
			return err
		}
	}
	return nil
}
