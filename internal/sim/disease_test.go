package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maculab/amdsim/internal/config"
	"github.com/maculab/amdsim/internal/domain"
)

func degenerateRow(to domain.DiseaseState) domain.TransitionRow {
	row := domain.TransitionRow{}
	for _, state := range domain.DiseaseStates {
		row[state] = 0
	}
	row[to] = 1
	return row
}

func testDiseaseParams() config.DiseaseParams {
	table := domain.TransitionTable{
		domain.StateNaive:        degenerateRow(domain.StateStable),
		domain.StateStable:       degenerateRow(domain.StateStable),
		domain.StateActive:       degenerateRow(domain.StateStable),
		domain.StateHighlyActive: degenerateRow(domain.StateActive),
	}
	untreated := domain.TransitionTable{
		domain.StateNaive:        degenerateRow(domain.StateActive),
		domain.StateStable:       degenerateRow(domain.StateActive),
		domain.StateActive:       degenerateRow(domain.StateHighlyActive),
		domain.StateHighlyActive: degenerateRow(domain.StateHighlyActive),
	}
	dists := map[domain.DiseaseState]config.Dist{
		domain.StateNaive:        {Mean: 2, Std: 0},
		domain.StateStable:       {Mean: 1, Std: 0},
		domain.StateActive:       {Mean: -1, Std: 0},
		domain.StateHighlyActive: {Mean: -3, Std: 0},
	}
	return config.DiseaseParams{
		TimeFactorPerWeek: 0.02,
		Treated:           table,
		Untreated:         untreated,
		VisionTreated:     dists,
		VisionUntreated:   dists,
		Fluid: map[domain.DiseaseState]float64{
			domain.StateNaive:        0,
			domain.StateStable:       0,
			domain.StateActive:       1,
			domain.StateHighlyActive: 1,
		},
	}
}

func newTestDiseaseModel() *DiseaseModel {
	rng := rand.New(rand.NewSource(7))
	params := testDiseaseParams()
	return NewDiseaseModel(params, NewVisionModel(params, testVisionParams(), rng), rng)
}

func TestAdvanceFollowsTreatedTable(t *testing.T) {
	m := newTestDiseaseModel()

	out := m.Advance(domain.StateNaive, true, 0, domain.PhaseLoading)
	assert.Equal(t, domain.StateStable, out.NewState)
	// Delta is drawn against the state going in, not the new state.
	assert.InDelta(t, 2.0, out.VisionDelta, 1e-12)
	// Fluid correlates with the state coming out.
	assert.False(t, out.FluidDetected)
}

func TestAdvanceUntreatedWorsens(t *testing.T) {
	m := newTestDiseaseModel()

	out := m.Advance(domain.StateStable, false, 8, domain.PhaseMonitoring)
	assert.Equal(t, domain.StateActive, out.NewState)
	assert.InDelta(t, 1.0, out.VisionDelta, 1e-12)
	assert.True(t, out.FluidDetected)
}

func TestModulateRowScalesActiveMassAndRenormalizes(t *testing.T) {
	row := domain.TransitionRow{
		domain.StateNaive:        0,
		domain.StateStable:       0.6,
		domain.StateActive:       0.3,
		domain.StateHighlyActive: 0.1,
	}

	out := modulateRow(row, 2.0)

	sum := 0.0
	for _, p := range out {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-12)
	// Active states gained relative mass at the stable state's expense.
	assert.Greater(t, out[domain.StateActive], row[domain.StateActive])
	assert.Greater(t, out[domain.StateHighlyActive], row[domain.StateHighlyActive])
	assert.Less(t, out[domain.StateStable], row[domain.StateStable])
}

func TestDrawStateConsumesMassInCanonicalOrder(t *testing.T) {
	m := newTestDiseaseModel()
	row := domain.TransitionRow{
		domain.StateNaive:        0,
		domain.StateStable:       0.5,
		domain.StateActive:       0.5,
		domain.StateHighlyActive: 0,
	}

	for i := 0; i < 100; i++ {
		state := m.drawState(row)
		assert.Contains(t, []domain.DiseaseState{domain.StateStable, domain.StateActive}, state)
	}
}

func TestMeasurementNoiseZeroStd(t *testing.T) {
	m := newTestDiseaseModel()
	assert.Zero(t, m.MeasurementNoise(0))
	assert.NotZero(t, m.MeasurementNoise(2))
}

func TestFluidDrawFollowsStateProbability(t *testing.T) {
	m := newTestDiseaseModel()
	assert.True(t, m.FluidDraw(domain.StateHighlyActive))
	assert.False(t, m.FluidDraw(domain.StateStable))
}

func TestClampVision(t *testing.T) {
	p := testVisionParams()
	assert.Equal(t, 0.0, clampVision(-5, p))
	assert.Equal(t, 85.0, clampVision(90, p))
	assert.Equal(t, 60.0, clampVision(60, p))
}

func TestApplyVisionDeltaCeilingDamping(t *testing.T) {
	p := testVisionParams() // max 85, headroom 20

	// Far from the ceiling a gain applies in full.
	assert.InDelta(t, 54.0, applyVisionDelta(50, 4, p), 1e-12)

	// Close to the ceiling the gain tapers: 5 letters of headroom out
	// of 20 keeps a quarter of the gain.
	assert.InDelta(t, 81.0, applyVisionDelta(80, 4, p), 1e-12)

	// Losses never taper.
	assert.InDelta(t, 76.0, applyVisionDelta(80, -4, p), 1e-12)
}

func TestLiteratureModelBoostsLoadingResponse(t *testing.T) {
	params := testDiseaseParams()
	vp := testVisionParams()

	loading := NewVisionModel(params, config.VisionParams{Model: "literature", MaxLetters: vp.MaxLetters}, rand.New(rand.NewSource(3)))
	maintenance := NewVisionModel(params, config.VisionParams{Model: "literature", MaxLetters: vp.MaxLetters}, rand.New(rand.NewSource(3)))

	// Zero-std distributions expose the mean shift directly.
	a := loading.CalculateVisionChange(domain.StateNaive, domain.StateStable, true, domain.PhaseLoading)
	b := maintenance.CalculateVisionChange(domain.StateNaive, domain.StateStable, true, domain.PhaseMaintenance)
	assert.InDelta(t, 2.0*1.25, a.Delta, 1e-12)
	assert.InDelta(t, 2.0, b.Delta, 1e-12)
	assert.True(t, math.Abs(a.Delta) > math.Abs(b.Delta))
}
