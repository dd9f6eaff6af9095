package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		visit   Visit
		wantErr bool
	}{
		{
			name:  "plain visit",
			visit: Visit{Day: 10},
		},
		{
			name:  "discontinuation with type",
			visit: Visit{Day: 10, IsDiscontinuationVisit: true, DiscontinuationType: DiscontinuationPremature},
		},
		{
			name:  "retreatment visit",
			visit: Visit{Day: 10, IsRetreatmentVisit: true},
		},
		{
			name:    "both flags set",
			visit:   Visit{Day: 10, IsDiscontinuationVisit: true, DiscontinuationType: DiscontinuationPremature, IsRetreatmentVisit: true},
			wantErr: true,
		},
		{
			name:    "discontinuation without type",
			visit:   Visit{Day: 10, IsDiscontinuationVisit: true},
			wantErr: true,
		},
		{
			name:    "type without flag",
			visit:   Visit{Day: 10, DiscontinuationType: DiscontinuationStableMax},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.visit.ValidateFlags()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvariantViolated)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAppendVisitRejectsInvalidFlagsWithPatientContext(t *testing.T) {
	p := NewPatient("patient-0007", 60, 0, "clinician-1")

	err := p.AppendVisit(Visit{Day: 0, IsDiscontinuationVisit: true})
	require.ErrorIs(t, err, ErrInvariantViolated)
	assert.Contains(t, err.Error(), "patient-0007")
	assert.Contains(t, err.Error(), "visit 0")
	assert.Empty(t, p.Visits)
}

func TestNewPatientDefaults(t *testing.T) {
	p := NewPatient("patient-0001", 58, 14, "clinician-2")

	assert.Equal(t, StateNaive, p.DiseaseState)
	assert.Equal(t, PhaseLoading, p.Phase)
	assert.True(t, p.TreatmentActive)
	assert.Equal(t, 58.0, p.ActualVision)
	assert.Equal(t, -1, p.FirstTreatmentDay)
	assert.Equal(t, -1, p.CourseStartDay)
	assert.Equal(t, -1, p.LastTreatmentDay)
	assert.Equal(t, -1, p.DiscontinuationDay)
	assert.Equal(t, 14, p.LastDiseaseTick)
}

func TestWeeksSinceTreatment(t *testing.T) {
	p := NewPatient("patient-0001", 60, 0, "clinician-1")
	assert.Equal(t, 0, p.WeeksSinceTreatment(100))

	p.LastTreatmentDay = 30
	assert.Equal(t, 0, p.WeeksSinceTreatment(33))
	assert.Equal(t, 2, p.WeeksSinceTreatment(44))
	assert.Equal(t, 0, p.WeeksSinceTreatment(20))
}
