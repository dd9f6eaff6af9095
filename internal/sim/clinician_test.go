package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maculab/amdsim/internal/config"
	"github.com/maculab/amdsim/internal/domain"
)

func testClinicianParams(assignment string) config.ClinicianParams {
	return config.ClinicianParams{
		Assignment:            assignment,
		ContinuityProbability: 0.9,
		Profiles: []domain.ClinicianProfile{
			{ID: "clinician-1", Kind: domain.ProfileAdherent, Share: 0.25, AdherenceRate: 0.95, PrematureMultiplier: 0.4, RetreatmentScale: 1.2},
			{ID: "clinician-2", Kind: domain.ProfileAverage, Share: 0.50, AdherenceRate: 0.80, PrematureMultiplier: 1.0, RetreatmentScale: 1.0},
			{ID: "clinician-3", Kind: domain.ProfileNonAdherent, Share: 0.25, AdherenceRate: 0.50, PrematureMultiplier: 3.0, RetreatmentScale: 0.8},
		},
	}
}

func TestAssignFollowsConfiguredMix(t *testing.T) {
	roster := NewClinicianRoster(testClinicianParams(config.AssignmentFixed), rand.New(rand.NewSource(11)))

	counts := map[domain.ClinicianID]int{}
	for i := 0; i < 10000; i++ {
		counts[roster.Assign()]++
	}

	require.Len(t, counts, 3)
	assert.InDelta(t, 2500, counts["clinician-1"], 300)
	assert.InDelta(t, 5000, counts["clinician-2"], 300)
	assert.InDelta(t, 2500, counts["clinician-3"], 300)
}

func TestFixedAssignmentNeverChangesClinician(t *testing.T) {
	roster := NewClinicianRoster(testClinicianParams(config.AssignmentFixed), rand.New(rand.NewSource(11)))
	p := domain.NewPatient("patient-0001", 60, 0, "clinician-3")

	for i := 0; i < 50; i++ {
		profile := roster.ForVisit(p)
		assert.Equal(t, domain.ClinicianID("clinician-3"), profile.ID)
		assert.Equal(t, domain.ClinicianID("clinician-3"), p.Clinician)
	}
}

func TestPerVisitAssignmentRedrawsOnContinuityMiss(t *testing.T) {
	params := testClinicianParams(config.AssignmentPerVisit)
	params.ContinuityProbability = 0
	roster := NewClinicianRoster(params, rand.New(rand.NewSource(11)))
	p := domain.NewPatient("patient-0001", 60, 0, "clinician-1")

	seen := map[domain.ClinicianID]bool{}
	for i := 0; i < 100; i++ {
		seen[roster.ForVisit(p).ID] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestProfileLookup(t *testing.T) {
	roster := NewClinicianRoster(testClinicianParams(config.AssignmentFixed), rand.New(rand.NewSource(11)))

	profile := roster.Profile("clinician-3")
	assert.Equal(t, domain.ProfileNonAdherent, profile.Kind)
	assert.InDelta(t, 3.0, profile.PrematureMultiplier, 1e-12)
}
