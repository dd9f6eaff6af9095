package domain

import "fmt"

type ClinicianID string

type ProfileKind string

const (
	ProfileAdherent    ProfileKind = "adherent"
	ProfileAverage     ProfileKind = "average"
	ProfileNonAdherent ProfileKind = "non_adherent"
)

func (k ProfileKind) Valid() bool {
	switch k {
	case ProfileAdherent, ProfileAverage, ProfileNonAdherent:
		return true
	}
	return false
}

// ClinicianProfile is a read-only behavioural parameter set shared by
// every patient assigned to that clinician. It perturbs protocol
// decisions; it never mutates simulation state itself.
type ClinicianProfile struct {
	ID   ClinicianID
	Kind ProfileKind

	// Share of the population assigned this profile; the configured
	// mix must sum to 1.0.
	Share float64

	// AdherenceRate in [0,1]: the per-visit probability that the
	// clinician follows the protocol interval adjustment.
	AdherenceRate float64

	// StabilityThreshold substitutes the protocol's consecutive-stable
	// visit threshold when > 0. Zero means no override.
	StabilityThreshold int

	// PrematureMultiplier scales the premature-discontinuation base
	// rate (non-adherent clinicians well above adherent ones).
	PrematureMultiplier float64

	// RetreatmentScale multiplies the retreatment probability;
	// conservative clinicians retreat more readily (> 1).
	RetreatmentScale float64
}

func (p ClinicianProfile) Validate(path string) error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%s.kind: unknown profile kind %q", path, p.Kind)
	}
	if p.Share < 0 || p.Share > 1 {
		return fmt.Errorf("%s.share: %v out of [0,1]", path, p.Share)
	}
	if p.AdherenceRate < 0 || p.AdherenceRate > 1 {
		return fmt.Errorf("%s.adherence_rate: %v out of [0,1]", path, p.AdherenceRate)
	}
	if p.StabilityThreshold < 0 {
		return fmt.Errorf("%s.stability_threshold: must be >= 0", path)
	}
	if p.PrematureMultiplier < 0 {
		return fmt.Errorf("%s.premature_multiplier: must be >= 0", path)
	}
	if p.RetreatmentScale < 0 {
		return fmt.Errorf("%s.retreatment_scale: must be >= 0", path)
	}
	return nil
}
