package report

import (
	"time"

	"github.com/maculab/amdsim/internal/domain"
	"github.com/maculab/amdsim/internal/ports"
)

// summarySchema is the on-disk TOML layout of a run summary. It is
// decoupled from the domain structs so the report format can stay
// stable across internal refactors.
type summarySchema struct {
	Run                    runSchema      `toml:"run"`
	Counts                 countsSchema   `toml:"counts"`
	Discontinuations       map[string]int `toml:"discontinuations"`
	Retreatments           map[string]int `toml:"retreatments_by_prior_stop"`
	ClinicianModifications map[string]int `toml:"clinician_modifications"`
	Vision                 visionSchema   `toml:"vision"`
}

type runSchema struct {
	ID          string `toml:"id"`
	Seed        int64  `toml:"seed"`
	Mode        string `toml:"mode"`
	Population  int    `toml:"population"`
	HorizonDays int    `toml:"horizon_days"`
	GeneratedAt string `toml:"generated_at"`
}

type countsSchema struct {
	Visits        int `toml:"visits"`
	Injections    int `toml:"injections"`
	DroppedVisits int `toml:"dropped_visits"`
}

type visionSchema struct {
	MeanFinal  float64 `toml:"mean_final_letters"`
	MeanChange float64 `toml:"mean_change_letters"`
}

func toSummarySchema(result ports.RunResult, now time.Time) summarySchema {
	return summarySchema{
		Run: runSchema{
			ID:          result.RunID,
			Seed:        result.Seed,
			Mode:        result.Mode,
			Population:  result.Population,
			HorizonDays: result.HorizonDay,
			GeneratedAt: now.UTC().Format(time.RFC3339),
		},
		Counts: countsSchema{
			Visits:        result.Stats.Visits,
			Injections:    result.Stats.Injections,
			DroppedVisits: result.Stats.DroppedVisits,
		},
		Discontinuations:       typeCounts(result.Stats.DiscontinuationsByType),
		Retreatments:           typeCounts(result.Stats.RetreatmentsByPrior),
		ClinicianModifications: result.Stats.ClinicianModifications,
		Vision: visionSchema{
			MeanFinal:  result.Stats.MeanFinalVision,
			MeanChange: result.Stats.MeanVisionChange,
		},
	}
}

func typeCounts(m map[domain.DiscontinuationType]int) map[string]int {
	out := make(map[string]int, len(m))
	for typ, n := range m {
		out[string(typ)] = n
	}
	return out
}

// patientSchema is one patient's JSON record, visit history included.
type patientSchema struct {
	ID                 domain.PatientID           `json:"id"`
	BaselineVision     float64                    `json:"baseline_vision"`
	EnrollmentDay      int                        `json:"enrollment_day"`
	Clinician          domain.ClinicianID         `json:"clinician"`
	HasPED             bool                       `json:"has_ped"`
	FinalState         domain.DiseaseState        `json:"final_disease_state"`
	FinalVision        float64                    `json:"final_vision"`
	Phase              domain.Phase               `json:"final_phase"`
	TreatmentActive    bool                       `json:"treatment_active"`
	TotalInjections    int                        `json:"total_injections"`
	Discontinuation    domain.DiscontinuationType `json:"discontinuation_type,omitempty"`
	DiscontinuationDay *int                       `json:"discontinuation_day,omitempty"`
	EverRetreated      bool                       `json:"ever_retreated"`
	Dropped            bool                       `json:"dropped_from_scheduling"`
	Visits             []domain.Visit             `json:"visits"`
}

func toPatientSchemas(patients []*domain.Patient) []patientSchema {
	out := make([]patientSchema, 0, len(patients))
	for _, p := range patients {
		entry := patientSchema{
			ID:              p.ID,
			BaselineVision:  p.BaselineVision,
			EnrollmentDay:   p.EnrollmentDay,
			Clinician:       p.Clinician,
			HasPED:          p.HasPED,
			FinalState:      p.DiseaseState,
			FinalVision:     p.Vision,
			Phase:           p.Phase,
			TreatmentActive: p.TreatmentActive,
			TotalInjections: p.TotalInjections,
			Discontinuation: p.Discontinuation,
			EverRetreated:   p.EverRetreated,
			Dropped:         p.DroppedFromScheduling,
			Visits:          p.Visits,
		}
		if p.DiscontinuationDay >= 0 {
			day := p.DiscontinuationDay
			entry.DiscontinuationDay = &day
		}
		out = append(out, entry)
	}
	return out
}
