package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maculab/amdsim/internal/domain"
)

func loadSample(t *testing.T) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "amdsim.toml")
	require.NoError(t, os.WriteFile(path, []byte(SampleTOML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	return cfg
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read protocol config")
}

func TestCompileSample(t *testing.T) {
	cfg := loadSample(t)

	compiled, err := cfg.Compile()
	require.NoError(t, err)

	assert.Equal(t, ModeABS, compiled.Mode)
	assert.Equal(t, 500, compiled.Population)
	assert.Equal(t, 104*7, compiled.HorizonDays)
	assert.Equal(t, 12*7, compiled.EnrollmentSpanDays)
	assert.Equal(t, int64(42), compiled.Seed)

	// Week-denominated regimen values arrive in days.
	assert.Equal(t, 28, compiled.Regimen.LoadingIntervalDays)
	assert.Equal(t, 56, compiled.Regimen.InitialIntervalDays)
	assert.Equal(t, 28, compiled.Regimen.MinIntervalDays)
	assert.Equal(t, 112, compiled.Regimen.MaxIntervalDays)

	// The administrative rate is converted once, against the calibrated
	// visit frequency rather than a per-week guess.
	assert.InDelta(t, 0.05/7.5, compiled.Discontinuation.Administrative.PerVisitProbability, 1e-12)

	// State keys survive viper's lowercasing.
	require.Contains(t, compiled.Disease.Treated, domain.StateHighlyActive)
	assert.InDelta(t, 0.45, compiled.Disease.Treated[domain.StateHighlyActive][domain.StateActive], 1e-12)

	require.Len(t, compiled.Clinicians.Profiles, 3)
	assert.Equal(t, domain.ClinicianID("clinician-1"), compiled.Clinicians.Profiles[0].ID)
	assert.Equal(t, domain.ProfileNonAdherent, compiled.Clinicians.Profiles[2].Kind)

	curve, ok := compiled.Retreatment.Recurrence[domain.DiscontinuationStableMax]
	require.True(t, ok)
	assert.Equal(t, 26.0*7, curve.Days[1])
}

func TestAdministrativeRiskFallsWithVisitFrequency(t *testing.T) {
	infrequent := loadSample(t)
	infrequent.Discontinuation.RandomAdministrative.MeanVisitsPerYear = 7

	frequent := loadSample(t)
	frequent.Discontinuation.RandomAdministrative.MeanVisitsPerYear = 13

	ci, err := infrequent.Compile()
	require.NoError(t, err)
	cf, err := frequent.Compile()
	require.NoError(t, err)

	// The same annual rate spread over more visits leaves each visit
	// with strictly less risk.
	assert.Greater(t,
		ci.Discontinuation.Administrative.PerVisitProbability,
		cf.Discontinuation.Administrative.PerVisitProbability)
}

func TestCompileRejectsBadTransitionRowSum(t *testing.T) {
	cfg := loadSample(t)
	cfg.Disease.Transitions.Treated["naive"]["stable"] = 0.5

	_, err := cfg.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disease.transitions.treated.NAIVE")
	assert.Contains(t, err.Error(), "sums to")
}

func TestCompileRejectsMinIntervalAboveMax(t *testing.T) {
	cfg := loadSample(t)
	cfg.Regimen.MinIntervalWeeks = 20

	_, err := cfg.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regimen.min_interval_weeks")
}

func TestCompileRejectsUnknownMode(t *testing.T) {
	cfg := loadSample(t)
	cfg.Simulation.Mode = "hybrid"

	_, err := cfg.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation.mode")
}

func TestCompileRejectsZeroVisitFrequency(t *testing.T) {
	cfg := loadSample(t)
	cfg.Discontinuation.RandomAdministrative.MeanVisitsPerYear = 0

	_, err := cfg.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mean_visits_per_year")
}

func TestCompileRejectsMissingRecurrenceCurve(t *testing.T) {
	cfg := loadSample(t)
	delete(cfg.Retreatment.Recurrence, "premature")

	_, err := cfg.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retreatment.recurrence.premature")
}

func TestCompileRejectsProfileSharesNotSummingToOne(t *testing.T) {
	cfg := loadSample(t)
	cfg.Clinicians.Profiles[0].Share = 0.5

	_, err := cfg.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shares sum to")
}

func TestCompileRejectsNonDecreasingViolationInCurve(t *testing.T) {
	cfg := loadSample(t)
	section := cfg.Retreatment.Recurrence["premature"]
	section.Cumulative = []float64{0.0, 0.5, 0.4, 0.9}
	cfg.Retreatment.Recurrence["premature"] = section

	_, err := cfg.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-decreasing")
}

func TestCurveAt(t *testing.T) {
	curve := Curve{
		Days:       []float64{0, 100, 200},
		Cumulative: []float64{0, 0.4, 0.6},
	}

	assert.InDelta(t, 0.0, curve.At(0), 1e-12)
	assert.InDelta(t, 0.2, curve.At(50), 1e-12)
	assert.InDelta(t, 0.4, curve.At(100), 1e-12)
	assert.InDelta(t, 0.5, curve.At(150), 1e-12)
	assert.InDelta(t, 0.6, curve.At(500), 1e-12)
	assert.InDelta(t, 0.0, curve.At(-10), 1e-12)
}
