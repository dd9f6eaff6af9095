package sim

import (
	"fmt"

	"github.com/maculab/amdsim/internal/config"
	"github.com/maculab/amdsim/internal/domain"
)

// ProtocolMachine drives each patient through loading, maintenance and
// monitoring phases and adjusts the treat-and-extend interval. It
// exposes the stable-at-max-interval eligibility signal but never
// discontinues a patient itself; that call belongs to the
// discontinuation manager.
type ProtocolMachine struct {
	regimen config.RegimenParams
}

func NewProtocolMachine(regimen config.RegimenParams) *ProtocolMachine {
	return &ProtocolMachine{regimen: regimen}
}

// StartLoading (re)enters the loading phase: fixed spacing, fixed
// injection count. Disease state is deliberately untouched so a
// retreated patient keeps disease continuity; the course duration
// clock restarts with the next injection.
func (pm *ProtocolMachine) StartLoading(p *domain.Patient) {
	p.Phase = domain.PhaseLoading
	p.IntervalDays = pm.regimen.LoadingIntervalDays
	p.LoadingInjections = 0
	p.ConsecutiveStable = 0
	p.TreatmentActive = true
	p.Discontinuation = domain.DiscontinuationNone
	p.DiscontinuationDay = -1
	p.CourseStartDay = -1
	p.MonitoringDays = nil
	p.MonitoringIndex = 0
}

// RecordInjection updates phase state after an injection was given.
// Completing the loading series moves the patient to maintenance at
// the configured initial interval -- never derived from the loading
// spacing.
func (pm *ProtocolMachine) RecordInjection(p *domain.Patient, day int) {
	if p.FirstTreatmentDay < 0 {
		p.FirstTreatmentDay = day
	}
	if p.CourseStartDay < 0 {
		p.CourseStartDay = day
	}
	p.LastTreatmentDay = day
	p.TotalInjections++

	if p.Phase == domain.PhaseLoading {
		p.LoadingInjections++
		if p.LoadingInjections >= pm.regimen.LoadingInjections {
			p.Phase = domain.PhaseMaintenance
			p.IntervalDays = pm.regimen.InitialIntervalDays
		}
	}
}

// AdjustInterval applies the treat-and-extend rule after a maintenance
// visit: fluid shortens the interval and resets the stability counter,
// a dry visit extends it and increments the counter. Intervals stay
// within the configured bounds.
func (pm *ProtocolMachine) AdjustInterval(p *domain.Patient, fluidDetected bool) {
	if p.Phase != domain.PhaseMaintenance {
		return
	}
	if fluidDetected {
		p.IntervalDays -= pm.regimen.ShortenDays
		if p.IntervalDays < pm.regimen.MinIntervalDays {
			p.IntervalDays = pm.regimen.MinIntervalDays
		}
		p.ConsecutiveStable = 0
		return
	}
	p.IntervalDays += pm.regimen.ExtendDays
	if p.IntervalDays > pm.regimen.MaxIntervalDays {
		p.IntervalDays = pm.regimen.MaxIntervalDays
	}
	p.ConsecutiveStable++
}

// StableAtMax reports protocol-discontinuation eligibility: the
// patient sits at the maximum interval with at least threshold
// consecutive stable visits. threshold <= 0 uses the regimen default.
func (pm *ProtocolMachine) StableAtMax(p *domain.Patient, threshold int) bool {
	if threshold <= 0 {
		threshold = pm.regimen.StableVisitThreshold
	}
	return p.Phase == domain.PhaseMaintenance &&
		p.IntervalDays == pm.regimen.MaxIntervalDays &&
		p.ConsecutiveStable >= threshold
}

// NextVisitDay derives the next requested visit day. A patient whose
// stored fields cannot produce a time fails loudly with the patient and
// visit index; substituting a fallback (such as the visit index) is
// forbidden because it corrupts downstream timelines undetectably.
func (pm *ProtocolMachine) NextVisitDay(p *domain.Patient, day int) (int, error) {
	switch p.Phase {
	case domain.PhaseLoading, domain.PhaseMaintenance:
		if p.IntervalDays <= 0 {
			return 0, fmt.Errorf("patient %s visit %d: %w: no interval set in phase %s", p.ID, len(p.Visits), domain.ErrVisitTimeUnderivable, p.Phase)
		}
		return day + p.IntervalDays, nil
	case domain.PhaseMonitoring:
		if p.DiscontinuationDay < 0 {
			return 0, fmt.Errorf("patient %s visit %d: %w: monitoring phase without a discontinuation day", p.ID, len(p.Visits), domain.ErrVisitTimeUnderivable)
		}
		if p.MonitoringIndex >= len(p.MonitoringDays) {
			return 0, fmt.Errorf("patient %s visit %d: %w: monitoring schedule exhausted", p.ID, len(p.Visits), domain.ErrVisitTimeUnderivable)
		}
		return p.MonitoringDays[p.MonitoringIndex], nil
	default:
		return 0, fmt.Errorf("patient %s visit %d: %w: unknown phase %q", p.ID, len(p.Visits), domain.ErrVisitTimeUnderivable, p.Phase)
	}
}

// VisitTypeFor classifies the visit that happens in a phase.
func (pm *ProtocolMachine) VisitTypeFor(phase domain.Phase) domain.VisitType {
	switch phase {
	case domain.PhaseLoading:
		return domain.VisitInjection
	case domain.PhaseMaintenance:
		return domain.VisitInjectionImaging
	default:
		return domain.VisitMonitoring
	}
}
