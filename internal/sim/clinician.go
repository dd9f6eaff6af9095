package sim

import (
	"math/rand"

	"github.com/maculab/amdsim/internal/config"
	"github.com/maculab/amdsim/internal/domain"
)

// ClinicianRoster assigns behavioural profiles to patients per the
// configured population mix. Profiles are read-only; the roster never
// mutates simulation state.
type ClinicianRoster struct {
	params config.ClinicianParams
	rng    *rand.Rand
	byID   map[domain.ClinicianID]domain.ClinicianProfile
}

func NewClinicianRoster(params config.ClinicianParams, rng *rand.Rand) *ClinicianRoster {
	byID := make(map[domain.ClinicianID]domain.ClinicianProfile, len(params.Profiles))
	for _, p := range params.Profiles {
		byID[p.ID] = p
	}
	return &ClinicianRoster{params: params, rng: rng, byID: byID}
}

// Assign draws a clinician for a newly enrolled patient from the
// configured mix.
func (r *ClinicianRoster) Assign() domain.ClinicianID {
	return r.draw()
}

// ForVisit returns the clinician seeing the patient at this visit.
// Fixed assignment keeps the enrollment clinician for life; per-visit
// assignment keeps the current clinician with the continuity-of-care
// probability and otherwise redraws from the mix.
func (r *ClinicianRoster) ForVisit(p *domain.Patient) domain.ClinicianProfile {
	if r.params.Assignment == config.AssignmentPerVisit {
		if r.rng.Float64() >= r.params.ContinuityProbability {
			p.Clinician = r.draw()
		}
	}
	return r.byID[p.Clinician]
}

func (r *ClinicianRoster) draw() domain.ClinicianID {
	u := r.rng.Float64()
	acc := 0.0
	for _, profile := range r.params.Profiles {
		acc += profile.Share
		if u < acc {
			return profile.ID
		}
	}
	return r.params.Profiles[len(r.params.Profiles)-1].ID
}

// Profile looks up a profile by id.
func (r *ClinicianRoster) Profile(id domain.ClinicianID) domain.ClinicianProfile {
	return r.byID[id]
}
