package ports

import (
	"context"

	"github.com/maculab/amdsim/internal/domain"
)

// RunResult is the boundary artifact handed to downstream consumers
// (dashboards, analysis scripts). Visit histories are ordered and the
// per-visit flags are the sole record of discontinuation/retreatment
// transitions.
type RunResult struct {
	RunID      string
	Seed       int64
	Mode       string
	Population int
	HorizonDay int
	Patients   []*domain.Patient
	Stats      RunStats
}

// RunStats aggregates run-level counters.
type RunStats struct {
	Injections             int
	Visits                 int
	DroppedVisits          int
	DiscontinuationsByType map[domain.DiscontinuationType]int
	RetreatmentsByPrior    map[domain.DiscontinuationType]int
	// ClinicianModifications counts protocol decisions changed by a
	// clinician profile, keyed by the kind of modification.
	ClinicianModifications map[string]int
	MeanFinalVision        float64
	MeanVisionChange       float64
}

// ResultWriter persists a run result at the simulation boundary.
type ResultWriter interface {
	Write(ctx context.Context, result RunResult) error
}
