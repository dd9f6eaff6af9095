package sim

import (
	"github.com/maculab/amdsim/internal/domain"
	"github.com/maculab/amdsim/internal/ports"
)

// Stats accumulates run-level counters while the simulation executes.
type Stats struct {
	injections             int
	visits                 int
	droppedVisits          int
	discontinuationsByType map[domain.DiscontinuationType]int
	retreatmentsByPrior    map[domain.DiscontinuationType]int
	clinicianModifications map[string]int
}

func NewStats() *Stats {
	return &Stats{
		discontinuationsByType: make(map[domain.DiscontinuationType]int),
		retreatmentsByPrior:    make(map[domain.DiscontinuationType]int),
		clinicianModifications: make(map[string]int),
	}
}

func (s *Stats) CountVisit()     { s.visits++ }
func (s *Stats) CountInjection() { s.injections++ }
func (s *Stats) CountDropped()   { s.droppedVisits++ }

func (s *Stats) CountDiscontinuation(typ domain.DiscontinuationType) {
	s.discontinuationsByType[typ]++
}

func (s *Stats) CountRetreatment(prior domain.DiscontinuationType) {
	s.retreatmentsByPrior[prior]++
}

func (s *Stats) CountModification(key string) {
	s.clinicianModifications[key]++
}

// Finalize folds the counters and the patient histories into the
// boundary statistics struct.
func (s *Stats) Finalize(patients []*domain.Patient) ports.RunStats {
	finalSum := 0.0
	changeSum := 0.0
	for _, p := range patients {
		final := p.BaselineVision
		if n := len(p.Visits); n > 0 {
			final = p.Visits[n-1].Vision
		}
		finalSum += final
		changeSum += final - p.BaselineVision
	}

	stats := ports.RunStats{
		Injections:             s.injections,
		Visits:                 s.visits,
		DroppedVisits:          s.droppedVisits,
		DiscontinuationsByType: s.discontinuationsByType,
		RetreatmentsByPrior:    s.retreatmentsByPrior,
		ClinicianModifications: s.clinicianModifications,
	}
	if len(patients) > 0 {
		stats.MeanFinalVision = finalSum / float64(len(patients))
		stats.MeanVisionChange = changeSum / float64(len(patients))
	}
	return stats
}

// CohortCounts partitions the population into mutually exclusive end
// states; the partition must always sum to the enrolled population.
type CohortCounts struct {
	Active       int
	Retreated    int
	Monitoring   int
	Discontinued map[domain.DiscontinuationType]int
}

func (c CohortCounts) Total() int {
	total := c.Active + c.Retreated + c.Monitoring
	for _, n := range c.Discontinued {
		total += n
	}
	return total
}

// Cohort classifies every patient into exactly one state.
func Cohort(patients []*domain.Patient) CohortCounts {
	counts := CohortCounts{Discontinued: make(map[domain.DiscontinuationType]int)}
	for _, p := range patients {
		switch {
		case p.TreatmentActive && p.EverRetreated:
			counts.Retreated++
		case p.TreatmentActive:
			counts.Active++
		case p.MonitoringIndex < len(p.MonitoringDays):
			counts.Monitoring++
		default:
			counts.Discontinued[p.Discontinuation]++
		}
	}
	return counts
}
