package ports

import "github.com/maculab/amdsim/internal/domain"

// VisionChange is the clinical outcome of one visit: the letter delta
// to apply and whether fluid was seen on imaging.
type VisionChange struct {
	Delta         float64
	FluidDetected bool
}

// VisionModel computes the vision outcome of a visit. The letter delta
// is conditioned on the state going into the visit and on whether an
// injection was given -- never on the transition result, which would
// double-count treatment benefit. Fluid detection is a separate draw
// correlated with the post-transition state.
//
// Implementations are selected once at configuration time (simplified
// vs. literature based); callers never inspect the concrete type at
// runtime. Draws come from the generator passed at construction so
// run reproducibility is preserved.
type VisionModel interface {
	CalculateVisionChange(state, newState domain.DiseaseState, injected bool, phase domain.Phase) VisionChange
}
