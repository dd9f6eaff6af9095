package sim

import (
	"math/rand"

	"github.com/maculab/amdsim/internal/config"
	"github.com/maculab/amdsim/internal/domain"
	"github.com/maculab/amdsim/internal/ports"
)

// DiseaseModel advances the 4-state stochastic disease process and
// produces per-visit clinical outcomes through the configured vision
// model. Draw order per advance is fixed (transition, vision delta,
// fluid) so identical seeds replay identical runs.
type DiseaseModel struct {
	params config.DiseaseParams
	vision ports.VisionModel
	rng    *rand.Rand
}

func NewDiseaseModel(params config.DiseaseParams, vision ports.VisionModel, rng *rand.Rand) *DiseaseModel {
	return &DiseaseModel{params: params, vision: vision, rng: rng}
}

// Outcome is the clinical result of one disease update.
type Outcome struct {
	NewState      domain.DiseaseState
	VisionDelta   float64
	FluidDetected bool
}

// Advance runs one update: a transition draw conditioned on treatment,
// then an independent vision-change draw conditioned on the state
// going in, then a fluid draw correlated with the state coming out.
// weeksSinceTreatment modulates untreated transitions toward more
// active states (used by calendar-time updates; zero disables it).
func (m *DiseaseModel) Advance(state domain.DiseaseState, injected bool, weeksSinceTreatment int, phase domain.Phase) Outcome {
	row := m.params.Table(injected)[state]
	if !injected && m.params.TimeFactorPerWeek > 0 && weeksSinceTreatment > 0 {
		row = modulateRow(row, 1+m.params.TimeFactorPerWeek*float64(weeksSinceTreatment))
	}

	newState := m.drawState(row)
	change := m.vision.CalculateVisionChange(state, newState, injected, phase)

	return Outcome{
		NewState:      newState,
		VisionDelta:   change.Delta,
		FluidDetected: change.FluidDetected,
	}
}

// drawState samples a destination state from a transition row,
// consuming probability mass in canonical state order.
func (m *DiseaseModel) drawState(row domain.TransitionRow) domain.DiseaseState {
	u := m.rng.Float64()
	acc := 0.0
	for _, to := range domain.DiseaseStates {
		acc += row[to]
		if u < acc {
			return to
		}
	}
	// Floating-point shortfall lands on the last state.
	return domain.DiseaseStates[len(domain.DiseaseStates)-1]
}

// modulateRow scales the mass of the active states by factor and
// renormalizes. This is an explicit runtime adjustment; configured
// rows themselves must already sum to 1.0 and are never silently
// normalized at load.
func modulateRow(row domain.TransitionRow, factor float64) domain.TransitionRow {
	out := make(domain.TransitionRow, len(row))
	sum := 0.0
	for _, to := range domain.DiseaseStates {
		p := row[to]
		if to.ActiveDisease() {
			p *= factor
		}
		out[to] = p
		sum += p
	}
	for to, p := range out {
		out[to] = p / sum
	}
	return out
}

// TreatmentResponse draws the immediate acuity response to an
// injection without advancing the disease state, used by calendar-mode
// visits where state evolution happens on the tick grid instead.
func (m *DiseaseModel) TreatmentResponse(state domain.DiseaseState, phase domain.Phase) float64 {
	return m.vision.CalculateVisionChange(state, state, true, phase).Delta
}

// MeasurementNoise returns the Gaussian acuity measurement error used
// by calendar-mode visits, which measure rather than evolve the state.
func (m *DiseaseModel) MeasurementNoise(std float64) float64 {
	if std <= 0 {
		return 0
	}
	return m.rng.NormFloat64() * std
}

// FluidDraw samples fluid presence for a given state without a
// transition, used when a visit only measures the already-evolved
// state.
func (m *DiseaseModel) FluidDraw(state domain.DiseaseState) bool {
	return m.rng.Float64() < m.params.Fluid[state]
}
