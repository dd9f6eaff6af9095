package sim

import (
	"fmt"
	"math/rand"

	"github.com/maculab/amdsim/internal/config"
	"github.com/maculab/amdsim/internal/domain"
	"github.com/maculab/amdsim/internal/ports"
)

// ModIntervalSkipped counts maintenance visits where a clinician's
// adherence draw skipped the protocol interval adjustment.
const ModIntervalSkipped = "interval_adjustment_skipped"

// Engine runs one simulation over the compiled parameters. All
// stochastic draws come from a single seeded generator, so a run is
// fully determined by its configuration.
//
// The agent-stepped mode walks each patient's timeline to the horizon
// in enrollment order; the event-queue mode interleaves all patients
// through the clock. Both share the same per-visit processing, so they
// differ only in dispatch order (and therefore in draw interleaving),
// never in per-visit semantics.
type Engine struct {
	cfg       *config.Compiled
	rng       *rand.Rand
	scheduler *ClinicScheduler
	protocol  *ProtocolMachine
	disease   *DiseaseModel
	roster    *ClinicianRoster
	manager   *DiscontinuationManager
	stats     *Stats
	patients  []*domain.Patient
}

func NewEngine(cfg *config.Compiled) *Engine {
	rng := rand.New(rand.NewSource(cfg.Seed))
	protocol := NewProtocolMachine(cfg.Regimen)
	stats := NewStats()
	vision := NewVisionModel(cfg.Disease, cfg.Vision, rng)
	return &Engine{
		cfg:       cfg,
		rng:       rng,
		scheduler: NewClinicScheduler(cfg.Clinic.DailyCapacity, cfg.Clinic.DaysPerWeek),
		protocol:  protocol,
		disease:   NewDiseaseModel(cfg.Disease, vision, rng),
		roster:    NewClinicianRoster(cfg.Clinicians, rng),
		manager:   NewDiscontinuationManager(cfg.Discontinuation, cfg.Retreatment, cfg.Vision, protocol, rng, stats),
		stats:     stats,
	}
}

// Run executes the simulation and returns the result. The caller
// assigns the run id.
func (e *Engine) Run() (ports.RunResult, error) {
	e.enroll()

	var err error
	switch e.cfg.Mode {
	case config.ModeDES:
		err = e.runEventQueue()
	default:
		err = e.runAgentStepped()
	}
	if err != nil {
		return ports.RunResult{}, err
	}

	// Every enrolled patient must land in exactly one cohort bucket.
	counts := Cohort(e.patients)
	if counts.Total() != e.cfg.Population {
		return ports.RunResult{}, fmt.Errorf("%w: cohort partition sums to %d, population is %d", domain.ErrInvariantViolated, counts.Total(), e.cfg.Population)
	}

	return ports.RunResult{
		Seed:       e.cfg.Seed,
		Mode:       e.cfg.Mode,
		Population: e.cfg.Population,
		HorizonDay: e.cfg.HorizonDays,
		Patients:   e.patients,
		Stats:      e.stats.Finalize(e.patients),
	}, nil
}

// enroll creates the cohort. Enrollment days are spread evenly over the
// configured span (zero span enrolls everyone on day 0).
func (e *Engine) enroll() {
	e.patients = make([]*domain.Patient, 0, e.cfg.Population)
	for i := 0; i < e.cfg.Population; i++ {
		enrollDay := 0
		if e.cfg.EnrollmentSpanDays > 0 {
			enrollDay = i * e.cfg.EnrollmentSpanDays / e.cfg.Population
		}
		baseline := clampVision(
			e.rng.NormFloat64()*e.cfg.Vision.BaselineStd+e.cfg.Vision.BaselineMean,
			e.cfg.Vision,
		)
		id := domain.PatientID(fmt.Sprintf("patient-%04d", i+1))
		p := domain.NewPatient(id, baseline, enrollDay, e.roster.Assign())
		p.HasPED = e.rng.Float64() < e.cfg.Retreatment.PEDProbability
		e.protocol.StartLoading(p)
		e.patients = append(e.patients, p)
	}
}

func (e *Engine) runAgentStepped() error {
	for _, p := range e.patients {
		day, ok := e.bookFirstVisit(p)
		for ok {
			next, _, cont, err := e.processVisit(p, day)
			if err != nil {
				return err
			}
			day, ok = next, cont
		}
	}
	return nil
}

func (e *Engine) runEventQueue() error {
	clock := NewClock()
	for i, p := range e.patients {
		if day, ok := e.bookFirstVisit(p); ok {
			clock.Schedule(day, EventVisit, i)
		}
	}
	for {
		ev, ok := clock.Next()
		if !ok {
			return nil
		}
		p := e.patients[ev.Patient]
		next, kind, cont, err := e.processVisit(p, ev.Day)
		if err != nil {
			return err
		}
		if cont {
			clock.Schedule(next, kind, ev.Patient)
		}
	}
}

func (e *Engine) bookFirstVisit(p *domain.Patient) (int, bool) {
	granted, ok := e.scheduler.BookOrReschedule(p.EnrollmentDay, e.cfg.HorizonDays)
	if !ok {
		if p.EnrollmentDay < e.cfg.HorizonDays {
			p.DroppedFromScheduling = true
			e.stats.CountDropped()
		}
		return 0, false
	}
	return granted, true
}

// processVisit dispatches one clinic contact and returns the patient's
// next booked visit, if any.
func (e *Engine) processVisit(p *domain.Patient, day int) (int, EventKind, bool, error) {
	if p.Phase == domain.PhaseMonitoring {
		return e.monitoringVisit(p, day)
	}
	return e.treatmentVisit(p, day)
}

func (e *Engine) treatmentVisit(p *domain.Patient, day int) (int, EventKind, bool, error) {
	clin := e.roster.ForVisit(p)
	phase := p.Phase

	var fluid bool
	if e.cfg.Disease.CalendarMode {
		// The disease evolved on its own grid; the visit only measures.
		e.applyTicks(p, day)
		p.Vision = clampVision(p.ActualVision+e.disease.MeasurementNoise(e.cfg.Vision.MeasurementNoiseStd), e.cfg.Vision)
		fluid = e.disease.FluidDraw(p.DiseaseState)
	} else {
		out := e.disease.Advance(p.DiseaseState, true, p.WeeksSinceTreatment(day), phase)
		p.DiseaseState = out.NewState
		p.ActualVision = applyVisionDelta(p.ActualVision, out.VisionDelta, e.cfg.Vision)
		p.Vision = p.ActualVision
		fluid = out.FluidDetected
	}

	visit := domain.Visit{
		Day:           day,
		Type:          e.protocol.VisitTypeFor(phase),
		State:         p.DiseaseState,
		Vision:        p.Vision,
		FluidDetected: fluid,
		Phase:         phase,
		IntervalDays:  p.IntervalDays,
		Injected:      true,
	}
	if p.PendingRetreatment {
		visit.IsRetreatmentVisit = true
		p.PendingRetreatment = false
		p.EverRetreated = true
	}

	e.protocol.RecordInjection(p, day)
	if e.cfg.Disease.CalendarMode {
		// Immediate acuity response to the injection on the ground
		// truth; transitions stay on the tick grid.
		p.ActualVision = applyVisionDelta(p.ActualVision, e.disease.TreatmentResponse(p.DiseaseState, phase), e.cfg.Vision)
	}

	if phase == domain.PhaseMaintenance {
		if clin.AdherenceRate >= 1 || e.rng.Float64() < clin.AdherenceRate {
			e.protocol.AdjustInterval(p, fluid)
		} else {
			e.stats.CountModification(ModIntervalSkipped)
		}
	}

	// The visit that resumes treatment cannot also stop it; the stop
	// criteria wait for the following visit.
	if !visit.IsRetreatmentVisit {
		if event := e.manager.Evaluate(p, day, clin); event != nil {
			e.manager.Apply(p, &visit, event)
		}
	}

	if err := p.AppendVisit(visit); err != nil {
		return 0, 0, false, err
	}
	e.stats.CountVisit()
	e.stats.CountInjection()

	if !p.TreatmentActive {
		return e.scheduleMonitoring(p, day)
	}

	next, err := e.protocol.NextVisitDay(p, day)
	if err != nil {
		return 0, 0, false, err
	}
	granted, ok := e.scheduler.BookOrReschedule(next, e.cfg.HorizonDays)
	if !ok {
		if next < e.cfg.HorizonDays {
			p.DroppedFromScheduling = true
			e.stats.CountDropped()
		}
		return 0, 0, false, nil
	}
	return granted, EventVisit, true, nil
}

func (e *Engine) monitoringVisit(p *domain.Patient, day int) (int, EventKind, bool, error) {
	clin := e.roster.ForVisit(p)

	var fluid bool
	if e.cfg.Disease.CalendarMode {
		e.applyTicks(p, day)
		p.Vision = clampVision(p.ActualVision+e.disease.MeasurementNoise(e.cfg.Vision.MeasurementNoiseStd), e.cfg.Vision)
		fluid = e.disease.FluidDraw(p.DiseaseState)
	} else {
		out := e.disease.Advance(p.DiseaseState, false, p.WeeksSinceTreatment(day), domain.PhaseMonitoring)
		p.DiseaseState = out.NewState
		p.ActualVision = applyVisionDelta(p.ActualVision, out.VisionDelta, e.cfg.Vision)
		p.Vision = p.ActualVision
		fluid = out.FluidDetected
	}

	visit := domain.Visit{
		Day:           day,
		Type:          domain.VisitMonitoring,
		State:         p.DiseaseState,
		Vision:        p.Vision,
		FluidDetected: fluid,
		Phase:         domain.PhaseMonitoring,
		Injected:      false,
	}

	retreat := e.manager.EvaluateMonitoring(p, &visit, day, clin)
	p.MonitoringIndex++

	if err := p.AppendVisit(visit); err != nil {
		return 0, 0, false, err
	}
	e.stats.CountVisit()

	if retreat {
		e.stats.CountRetreatment(p.Discontinuation)
		e.protocol.StartLoading(p)
		p.PendingRetreatment = true
		granted, ok := e.scheduler.Reschedule(day, e.cfg.HorizonDays, true)
		if !ok {
			if day+1 < e.cfg.HorizonDays {
				p.DroppedFromScheduling = true
				e.stats.CountDropped()
			}
			return 0, 0, false, nil
		}
		return granted, EventVisit, true, nil
	}

	return e.scheduleMonitoring(p, day)
}

// scheduleMonitoring books the next scheduled check after a stop. A
// rescheduled check overwrites its planned day so recurrence windows
// use the days the patient was actually seen.
func (e *Engine) scheduleMonitoring(p *domain.Patient, day int) (int, EventKind, bool, error) {
	if p.MonitoringIndex >= len(p.MonitoringDays) {
		return 0, 0, false, nil
	}
	next, err := e.protocol.NextVisitDay(p, day)
	if err != nil {
		return 0, 0, false, err
	}
	// A heavily rescheduled check can overtake the next planned one;
	// time never runs backwards.
	if next <= day {
		next = day + 1
	}
	granted, ok := e.scheduler.BookOrReschedule(next, e.cfg.HorizonDays)
	if !ok {
		if next < e.cfg.HorizonDays {
			p.DroppedFromScheduling = true
			e.stats.CountDropped()
		}
		return 0, 0, false, nil
	}
	p.MonitoringDays[p.MonitoringIndex] = granted
	return granted, EventMonitoring, true, nil
}

// applyTicks advances the calendar-mode disease process up to the
// visit day. A tick falling within one update interval of an injection
// uses the treated table; later ticks revert to untreated dynamics
// modulated by time since treatment.
func (e *Engine) applyTicks(p *domain.Patient, day int) {
	interval := e.cfg.Disease.UpdateIntervalDays
	for p.LastDiseaseTick+interval <= day {
		tickDay := p.LastDiseaseTick + interval
		treated := p.LastTreatmentDay >= 0 && tickDay-p.LastTreatmentDay <= interval
		out := e.disease.Advance(p.DiseaseState, treated, p.WeeksSinceTreatment(tickDay), p.Phase)
		p.DiseaseState = out.NewState
		p.ActualVision = applyVisionDelta(p.ActualVision, out.VisionDelta, e.cfg.Vision)
		p.LastDiseaseTick = tickDay
	}
}
