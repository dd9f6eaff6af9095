package domain

type DiscontinuationType string

const (
	DiscontinuationNone           DiscontinuationType = ""
	DiscontinuationStableMax      DiscontinuationType = "stable_max_interval"
	DiscontinuationAdministrative DiscontinuationType = "random_administrative"
	DiscontinuationCourseComplete DiscontinuationType = "course_complete"
	DiscontinuationPremature      DiscontinuationType = "premature"
)

// DiscontinuationTypes lists the four causes in their fixed evaluation
// order: planned causes first, then stochastic ones. Only the first
// cause that fires at a decision point applies.
var DiscontinuationTypes = []DiscontinuationType{
	DiscontinuationStableMax,
	DiscontinuationCourseComplete,
	DiscontinuationPremature,
	DiscontinuationAdministrative,
}

func (t DiscontinuationType) Valid() bool {
	switch t {
	case DiscontinuationStableMax, DiscontinuationAdministrative,
		DiscontinuationCourseComplete, DiscontinuationPremature:
		return true
	}
	return false
}

// Planned reports whether the stop was a deliberate protocol outcome.
// Unplanned stops get a shorter monitoring follow-up schedule.
func (t DiscontinuationType) Planned() bool {
	return t == DiscontinuationStableMax
}

// DiscontinuationEvent records a treatment stop. It is created by the
// discontinuation manager and consumed by the orchestrator to schedule
// follow-up monitoring; it is never mutated afterwards.
type DiscontinuationEvent struct {
	Type DiscontinuationType
	Day  int
	// VisionDelta is the immediate letter change applied at the stop.
	// Non-zero only for premature stops, and never positive.
	VisionDelta float64
	// MonitoringDays are absolute simulation days for follow-up
	// monitoring visits, derived from the type-specific schedule.
	MonitoringDays []int
}
