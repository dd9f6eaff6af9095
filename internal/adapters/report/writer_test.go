package report

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maculab/amdsim/internal/domain"
	"github.com/maculab/amdsim/internal/ports"
)

func fixtureResult() ports.RunResult {
	patient := domain.NewPatient("patient-0001", 62, 0, "clinician-1")
	patient.Visits = []domain.Visit{
		{Day: 0, Type: domain.VisitInjection, State: domain.StateNaive, Vision: 62, Phase: domain.PhaseLoading, IntervalDays: 28, Injected: true},
		{Day: 28, Type: domain.VisitInjection, State: domain.StateStable, Vision: 66, Phase: domain.PhaseLoading, IntervalDays: 28, Injected: true},
	}
	patient.Vision = 66
	patient.TotalInjections = 2

	return ports.RunResult{
		RunID:      "run-123",
		Seed:       42,
		Mode:       "abs",
		Population: 1,
		HorizonDay: 728,
		Patients:   []*domain.Patient{patient},
		Stats: ports.RunStats{
			Injections: 2,
			Visits:     2,
			DiscontinuationsByType: map[domain.DiscontinuationType]int{},
			RetreatmentsByPrior:    map[domain.DiscontinuationType]int{},
			ClinicianModifications: map[string]int{},
			MeanFinalVision:        66,
			MeanVisionChange:       4,
		},
	}
}

func TestWriteSummaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)
	w.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, w.Write(context.Background(), fixtureResult()))

	data, err := os.ReadFile(w.SummaryPath())
	require.NoError(t, err)

	var decoded summarySchema
	require.NoError(t, toml.Unmarshal(data, &decoded))
	assert.Equal(t, "run-123", decoded.Run.ID)
	assert.Equal(t, int64(42), decoded.Run.Seed)
	assert.Equal(t, 728, decoded.Run.HorizonDays)
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded.Run.GeneratedAt)
	assert.Equal(t, 2, decoded.Counts.Injections)
	assert.InDelta(t, 4.0, decoded.Vision.MeanChange, 1e-12)

	_, err = os.Stat(w.PatientsPath())
	assert.True(t, os.IsNotExist(err), "patient histories written without being requested")
}

func TestWritePatientHistories(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, true)

	require.NoError(t, w.Write(context.Background(), fixtureResult()))

	data, err := os.ReadFile(w.PatientsPath())
	require.NoError(t, err)
	require.True(t, json.Valid(data))

	var decoded []patientSchema
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, domain.PatientID("patient-0001"), decoded[0].ID)
	assert.Len(t, decoded[0].Visits, 2)
	assert.Nil(t, decoded[0].DiscontinuationDay)
}

func TestWriteOverwritesPreviousReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	require.NoError(t, w.Write(context.Background(), fixtureResult()))

	second := fixtureResult()
	second.RunID = "run-456"
	require.NoError(t, w.Write(context.Background(), second))

	data, err := os.ReadFile(w.SummaryPath())
	require.NoError(t, err)

	var decoded summarySchema
	require.NoError(t, toml.Unmarshal(data, &decoded))
	assert.Equal(t, "run-456", decoded.Run.ID)
}

func TestWriteHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWriter(t.TempDir(), false)
	require.Error(t, w.Write(ctx, fixtureResult()))
}
