package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maculab/amdsim/internal/domain"
)

func TestFinalizeComputesVisionMeans(t *testing.T) {
	a := domain.NewPatient("patient-0001", 60, 0, "clinician-1")
	a.Visits = []domain.Visit{{Day: 0, Vision: 64}}
	b := domain.NewPatient("patient-0002", 70, 0, "clinician-1")
	b.Visits = []domain.Visit{{Day: 0, Vision: 68}}
	// No visits: counts at baseline.
	c := domain.NewPatient("patient-0003", 50, 0, "clinician-1")

	stats := NewStats()
	stats.CountVisit()
	stats.CountVisit()
	stats.CountInjection()

	out := stats.Finalize([]*domain.Patient{a, b, c})

	assert.Equal(t, 2, out.Visits)
	assert.Equal(t, 1, out.Injections)
	assert.InDelta(t, (64.0+68.0+50.0)/3, out.MeanFinalVision, 1e-12)
	assert.InDelta(t, (4.0-2.0+0.0)/3, out.MeanVisionChange, 1e-12)
}

func TestCohortPartitionIsExhaustiveAndExclusive(t *testing.T) {
	active := domain.NewPatient("patient-0001", 60, 0, "clinician-1")

	retreated := domain.NewPatient("patient-0002", 60, 0, "clinician-1")
	retreated.EverRetreated = true

	monitoring := domain.NewPatient("patient-0003", 60, 0, "clinician-1")
	monitoring.TreatmentActive = false
	monitoring.Discontinuation = domain.DiscontinuationStableMax
	monitoring.MonitoringDays = []int{400, 500}
	monitoring.MonitoringIndex = 1

	done := domain.NewPatient("patient-0004", 60, 0, "clinician-1")
	done.TreatmentActive = false
	done.Discontinuation = domain.DiscontinuationPremature
	done.MonitoringDays = []int{400}
	done.MonitoringIndex = 1

	patients := []*domain.Patient{active, retreated, monitoring, done}
	counts := Cohort(patients)

	require.Equal(t, len(patients), counts.Total())
	assert.Equal(t, 1, counts.Active)
	assert.Equal(t, 1, counts.Retreated)
	assert.Equal(t, 1, counts.Monitoring)
	assert.Equal(t, 1, counts.Discontinued[domain.DiscontinuationPremature])
}
