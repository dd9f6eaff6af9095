package domain

import "fmt"

type PatientID string

type Phase string

const (
	PhaseLoading     Phase = "loading"
	PhaseMaintenance Phase = "maintenance"
	PhaseMonitoring  Phase = "monitoring"
)

type VisitType string

const (
	VisitMonitoring       VisitType = "monitoring"
	VisitInjection        VisitType = "injection"
	VisitInjectionImaging VisitType = "injection_imaging"
)

// Visit is one clinic contact. Records are immutable once appended to a
// patient's history. The discontinuation and retreatment flags are the
// only authoritative record of those transitions; downstream consumers
// must not re-derive them from phase changes.
type Visit struct {
	Day           int          `json:"day"`
	Type          VisitType    `json:"type"`
	State         DiseaseState `json:"disease_state"`
	Vision        float64      `json:"vision"`
	FluidDetected bool         `json:"fluid_detected"`
	Phase         Phase        `json:"phase"`
	IntervalDays  int          `json:"interval_days"`
	Injected      bool         `json:"injected"`

	IsDiscontinuationVisit bool                `json:"is_discontinuation_visit"`
	DiscontinuationType    DiscontinuationType `json:"discontinuation_type,omitempty"`
	IsRetreatmentVisit     bool                `json:"is_retreatment_visit"`
}

// ValidateFlags enforces flag exclusivity: a visit cannot be both a
// discontinuation and a retreatment visit, and a discontinuation flag
// always carries its type.
func (v Visit) ValidateFlags() error {
	if v.IsDiscontinuationVisit && v.IsRetreatmentVisit {
		return fmt.Errorf("%w: visit on day %d flagged as both discontinuation and retreatment", ErrInvariantViolated, v.Day)
	}
	if v.IsDiscontinuationVisit && !v.DiscontinuationType.Valid() {
		return fmt.Errorf("%w: discontinuation visit on day %d has no type", ErrInvariantViolated, v.Day)
	}
	if !v.IsDiscontinuationVisit && v.DiscontinuationType != DiscontinuationNone {
		return fmt.Errorf("%w: visit on day %d carries type %q without the discontinuation flag", ErrInvariantViolated, v.Day, v.DiscontinuationType)
	}
	return nil
}

// Patient is the per-agent simulation state. It is owned by the
// orchestrator and mutated only by the protocol state machine and the
// discontinuation manager during event processing.
type Patient struct {
	ID             PatientID
	BaselineVision float64
	EnrollmentDay  int

	DiseaseState      DiseaseState
	ActualVision      float64 // underlying acuity (calendar-mode ground truth)
	Vision            float64 // last recorded (measured) acuity
	Phase             Phase
	IntervalDays      int
	ConsecutiveStable int
	TreatmentActive   bool
	Discontinuation   DiscontinuationType
	Clinician         ClinicianID
	HasPED            bool

	LoadingInjections int // injections administered in the current loading series
	TotalInjections   int
	FirstTreatmentDay int // -1 until the first injection ever
	CourseStartDay    int // -1 until the current course's first injection; retreatment starts a new course
	LastTreatmentDay  int // -1 until the first injection
	LastDiseaseTick   int // last calendar-mode update day

	DiscontinuationDay    int // -1 while on treatment
	VisionAtStop          float64
	MonitoringDays        []int // remaining scheduled monitoring days
	MonitoringIndex       int
	EverRetreated         bool
	PendingRetreatment    bool // recurrence confirmed, next visit re-enters loading
	DroppedFromScheduling bool

	Visits []Visit
}

// NewPatient returns an enrolled treatment-naive patient.
func NewPatient(id PatientID, baselineVision float64, enrollmentDay int, clinician ClinicianID) *Patient {
	return &Patient{
		ID:                 id,
		BaselineVision:     baselineVision,
		EnrollmentDay:      enrollmentDay,
		DiseaseState:       StateNaive,
		ActualVision:       baselineVision,
		Vision:             baselineVision,
		Phase:              PhaseLoading,
		TreatmentActive:    true,
		Clinician:          clinician,
		FirstTreatmentDay:  -1,
		CourseStartDay:     -1,
		LastTreatmentDay:   -1,
		LastDiseaseTick:    enrollmentDay,
		DiscontinuationDay: -1,
	}
}

// WeeksSinceTreatment returns elapsed whole weeks since the last
// injection, or 0 for treatment-naive patients.
func (p *Patient) WeeksSinceTreatment(day int) int {
	if p.LastTreatmentDay < 0 {
		return 0
	}
	weeks := (day - p.LastTreatmentDay) / 7
	if weeks < 0 {
		return 0
	}
	return weeks
}

// TreatmentDurationDays returns days since the first injection of the
// current treatment course, or 0 before any injection was given. A
// retreated patient's duration counts from the course restart, not the
// first-ever injection.
func (p *Patient) TreatmentDurationDays(day int) int {
	if p.CourseStartDay < 0 {
		return 0
	}
	return day - p.CourseStartDay
}

// AppendVisit validates flag invariants and appends the record.
func (p *Patient) AppendVisit(v Visit) error {
	if err := v.ValidateFlags(); err != nil {
		return fmt.Errorf("patient %s visit %d: %w", p.ID, len(p.Visits), err)
	}
	p.Visits = append(p.Visits, v)
	return nil
}
