package sim

import (
	"math/rand"

	"github.com/maculab/amdsim/internal/config"
	"github.com/maculab/amdsim/internal/domain"
)

// Clinician-modification counters reported in run statistics. Every
// decision a profile changes away from the protocol default is counted
// under one of these keys.
const (
	ModStabilityThreshold = "stability_threshold_override"
	ModRetreatmentScale   = "retreatment_probability_scaled"
)

// DiscontinuationManager evaluates treatment stops and, for stopped
// patients, recurrence and retreatment. The four stop criteria are
// independent causes, each tunable in isolation; they are evaluated in
// the fixed order of domain.DiscontinuationTypes (planned causes
// first) and only the first that fires applies.
type DiscontinuationManager struct {
	params   config.DiscontinuationParams
	retreat  config.RetreatmentParams
	vision   config.VisionParams
	protocol *ProtocolMachine
	rng      *rand.Rand
	stats    *Stats
}

func NewDiscontinuationManager(
	params config.DiscontinuationParams,
	retreat config.RetreatmentParams,
	vision config.VisionParams,
	protocol *ProtocolMachine,
	rng *rand.Rand,
	stats *Stats,
) *DiscontinuationManager {
	return &DiscontinuationManager{
		params:   params,
		retreat:  retreat,
		vision:   vision,
		protocol: protocol,
		rng:      rng,
		stats:    stats,
	}
}

// Evaluate runs the four criteria at a treatment-visit decision point
// and returns the stop event for the first that fires, or nil.
func (m *DiscontinuationManager) Evaluate(p *domain.Patient, day int, clin domain.ClinicianProfile) *domain.DiscontinuationEvent {
	for _, typ := range domain.DiscontinuationTypes {
		var fired bool
		visionDelta := 0.0
		switch typ {
		case domain.DiscontinuationStableMax:
			fired = m.evaluateStableMax(p, clin)
		case domain.DiscontinuationCourseComplete:
			fired = m.evaluateCourseComplete(p, day)
		case domain.DiscontinuationPremature:
			fired, visionDelta = m.evaluatePremature(p, day, clin)
		case domain.DiscontinuationAdministrative:
			fired = m.rng.Float64() < m.params.Administrative.PerVisitProbability
		}
		if fired {
			return &domain.DiscontinuationEvent{
				Type:           typ,
				Day:            day,
				VisionDelta:    visionDelta,
				MonitoringDays: m.monitoringDays(typ, day),
			}
		}
	}
	return nil
}

func (m *DiscontinuationManager) evaluateStableMax(p *domain.Patient, clin domain.ClinicianProfile) bool {
	eligible := m.protocol.StableAtMax(p, clin.StabilityThreshold)
	if clin.StabilityThreshold > 0 && eligible != m.protocol.StableAtMax(p, 0) {
		m.stats.CountModification(ModStabilityThreshold)
	}
	if !eligible {
		return false
	}
	return m.rng.Float64() < m.params.StableMax.Probability
}

func (m *DiscontinuationManager) evaluateCourseComplete(p *domain.Patient, day int) bool {
	if p.CourseStartDay < 0 {
		return false
	}
	if p.TreatmentDurationDays(day) < m.params.CourseComplete.ThresholdDays {
		return false
	}
	return m.rng.Float64() < m.params.CourseComplete.Probability
}

func (m *DiscontinuationManager) evaluatePremature(p *domain.Patient, day int, clin domain.ClinicianProfile) (bool, float64) {
	pr := m.params.Premature
	if p.IntervalDays < pr.MinIntervalDays {
		return false, 0
	}

	probability := pr.Probability *
		clin.PrematureMultiplier *
		m.durationFactor(p.TreatmentDurationDays(day)) *
		m.intervalFactor(p.IntervalDays)
	if probability > 1 {
		probability = 1
	}

	if m.rng.Float64() >= probability {
		return false, 0
	}

	// Unplanned stops carry an immediate acuity penalty; the draw is
	// clamped so it can never be a gain.
	delta := m.rng.NormFloat64()*pr.VisionLoss.Std + pr.VisionLoss.Mean
	if delta > 0 {
		delta = 0
	}
	return true, delta
}

// durationFactor models the clinical observation that premature stops
// concentrate early: highest in the first six months of treatment,
// lowest after a full year.
func (m *DiscontinuationManager) durationFactor(durationDays int) float64 {
	pr := m.params.Premature
	switch {
	case durationDays < 26*config.DaysPerWeek:
		return pr.FirstSixMonthsFactor
	case durationDays < 52*config.DaysPerWeek:
		return pr.SixToTwelveFactor
	default:
		return pr.AfterYearFactor
	}
}

// intervalFactor raises the probability as the treatment interval
// lengthens, capped at the configured maximum.
func (m *DiscontinuationManager) intervalFactor(intervalDays int) float64 {
	pr := m.params.Premature
	weeksOverMin := float64(intervalDays-pr.MinIntervalDays) / float64(config.DaysPerWeek)
	factor := 1 + pr.IntervalSlopePerWeek*weeksOverMin
	if factor > pr.IntervalFactorCap {
		factor = pr.IntervalFactorCap
	}
	return factor
}

func (m *DiscontinuationManager) monitoringDays(typ domain.DiscontinuationType, day int) []int {
	var offsets []int
	switch typ {
	case domain.DiscontinuationStableMax:
		offsets = m.params.StableMax.MonitoringDays
	case domain.DiscontinuationAdministrative:
		offsets = m.params.Administrative.MonitoringDays
	case domain.DiscontinuationCourseComplete:
		offsets = m.params.CourseComplete.MonitoringDays
	case domain.DiscontinuationPremature:
		offsets = m.params.Premature.MonitoringDays
	}
	days := make([]int, len(offsets))
	for i, off := range offsets {
		days[i] = day + off
	}
	return days
}

// Apply records a stop on the current visit record -- never an earlier
// or later one -- and moves the patient into the monitoring phase.
func (m *DiscontinuationManager) Apply(p *domain.Patient, visit *domain.Visit, event *domain.DiscontinuationEvent) {
	visit.IsDiscontinuationVisit = true
	visit.DiscontinuationType = event.Type

	if event.VisionDelta != 0 {
		p.ActualVision = clampVision(p.ActualVision+event.VisionDelta, m.vision)
		p.Vision = clampVision(p.Vision+event.VisionDelta, m.vision)
		visit.Vision = p.Vision
	}

	p.TreatmentActive = false
	p.Discontinuation = event.Type
	p.DiscontinuationDay = event.Day
	p.VisionAtStop = p.Vision
	p.Phase = domain.PhaseMonitoring
	p.MonitoringDays = event.MonitoringDays
	p.MonitoringIndex = 0

	m.stats.CountDiscontinuation(event.Type)
}

// EvaluateMonitoring processes a post-discontinuation monitoring
// visit: a recurrence draw from the type-specific cumulative curve
// over time since discontinuation, modified by risk factors, then the
// retreatment eligibility check. It returns true when the patient is
// cleared to resume treatment; the visit where injections actually
// resume carries the retreatment flag.
func (m *DiscontinuationManager) EvaluateMonitoring(p *domain.Patient, visit *domain.Visit, day int, clin domain.ClinicianProfile) bool {
	curve, ok := m.retreat.Recurrence[p.Discontinuation]
	if !ok {
		return false
	}

	sinceStop := day - p.DiscontinuationDay
	prevSinceStop := 0
	if p.MonitoringIndex > 0 {
		prevSinceStop = p.MonitoringDays[p.MonitoringIndex-1] - p.DiscontinuationDay
	}

	probability := conditionalProbability(curve, prevSinceStop, sinceStop)
	if p.HasPED {
		probability *= m.retreat.PEDMultiplier
	}
	if probability > 1 {
		probability = 1
	}

	if m.rng.Float64() >= probability {
		return false
	}

	// Recurrence shows as fluid on the monitoring OCT.
	visit.FluidDetected = true
	if p.DiseaseState == domain.StateStable {
		p.DiseaseState = domain.StateActive
		visit.State = p.DiseaseState
	}

	// Fluid is present by construction once recurrence fired, so
	// eligibility reduces to the vision-loss floor.
	if p.VisionAtStop-p.Vision < m.retreat.MinVisionLoss {
		return false
	}

	probability = m.retreat.Probability
	if clin.RetreatmentScale != 1 {
		probability *= clin.RetreatmentScale
		m.stats.CountModification(ModRetreatmentScale)
	}
	if probability > 1 {
		probability = 1
	}

	return m.rng.Float64() < probability
}

// conditionalProbability converts a cumulative recurrence curve into
// the probability of recurrence during (prev, now] given no recurrence
// by prev.
func conditionalProbability(curve config.Curve, prev, now int) float64 {
	cPrev := curve.At(prev)
	cNow := curve.At(now)
	if cPrev >= 1 {
		return 1
	}
	p := (cNow - cPrev) / (1 - cPrev)
	if p < 0 {
		return 0
	}
	return p
}
