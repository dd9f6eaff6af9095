package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maculab/amdsim/internal/domain"
	"github.com/maculab/amdsim/internal/ports"
)

func TestRenderIncludesRunFacts(t *testing.T) {
	out := Render(ports.RunResult{
		RunID:      "run-789",
		Seed:       42,
		Mode:       "abs",
		Population: 40,
		HorizonDay: 728,
		Stats: ports.RunStats{
			Visits:     310,
			Injections: 260,
			DiscontinuationsByType: map[domain.DiscontinuationType]int{
				domain.DiscontinuationStableMax: 5,
				domain.DiscontinuationPremature: 2,
			},
			RetreatmentsByPrior: map[domain.DiscontinuationType]int{
				domain.DiscontinuationStableMax: 1,
			},
			ClinicianModifications: map[string]int{
				"interval_adjustment_skipped": 12,
			},
			MeanFinalVision:  63.2,
			MeanVisionChange: 1.4,
		},
	})

	assert.Contains(t, out, "AMD Treatment Simulation")
	assert.Contains(t, out, "run-789")
	assert.Contains(t, out, "310")
	assert.Contains(t, out, "260")
	assert.Contains(t, out, "stable_max_interval")
	assert.Contains(t, out, "(1 retreated)")
	assert.Contains(t, out, "interval_adjustment_skipped")
	assert.Contains(t, out, "+1.4 letters")
}

func TestRenderWithoutStops(t *testing.T) {
	out := Render(ports.RunResult{
		RunID: "run-000", Mode: "des", Population: 5, HorizonDay: 70,
		Stats: ports.RunStats{Visits: 10, Injections: 10},
	})

	assert.Contains(t, out, "No discontinuations.")
	assert.NotContains(t, out, "dropped visits")
}
