package sim

import (
	"fmt"

	"github.com/maculab/amdsim/internal/domain"
)

// ClinicScheduler books appointments against a finite daily capacity
// and a working-day pattern. It is an owned component instance, never a
// package-level singleton, so independent simulations cannot
// cross-contaminate each other's slot tables.
type ClinicScheduler struct {
	dailyCapacity int
	daysPerWeek   int
	// booked maps simulation day to the number of appointments already
	// granted that day. It grows monotonically in a forward simulation.
	booked map[int]int
}

func NewClinicScheduler(dailyCapacity, daysPerWeek int) *ClinicScheduler {
	return &ClinicScheduler{
		dailyCapacity: dailyCapacity,
		daysPerWeek:   daysPerWeek,
		booked:        make(map[int]int),
	}
}

// WorkingDay reports whether the clinic is open on the given day.
// Day 0 is a Monday; weekday indices at or above days_per_week are
// closed.
func (s *ClinicScheduler) WorkingDay(day int) bool {
	weekday := day % 7
	if weekday < 0 {
		weekday += 7
	}
	return weekday < s.daysPerWeek
}

// BookedOn returns the appointment count for a day.
func (s *ClinicScheduler) BookedOn(day int) int {
	return s.booked[day]
}

// RequestSlot books the requested day if the clinic is open and has
// capacity. Requests at or after the horizon never book.
func (s *ClinicScheduler) RequestSlot(day, horizonEnd int) bool {
	if day >= horizonEnd {
		return false
	}
	if !s.WorkingDay(day) {
		return false
	}
	if s.booked[day] >= s.dailyCapacity {
		return false
	}
	s.booked[day]++
	if s.booked[day] > s.dailyCapacity {
		// unreachable given the check above; guards the capacity
		// invariant against future edits
		panic(fmt.Sprintf("%v: day %d booked %d over capacity %d", domain.ErrInvariantViolated, day, s.booked[day], s.dailyCapacity))
	}
	return true
}

// Reschedule finds the next bookable day after a rejected request and
// books it. The probe always moves forward and is bounded by the
// horizon, so it terminates; when no day before horizonEnd has
// capacity the visit is dropped (ok=false), never retried forever.
// Only the time changes: the visit's clinical content is the caller's
// to preserve.
func (s *ClinicScheduler) Reschedule(day, horizonEnd int, forceNextClinicDay bool) (int, bool) {
	if day >= horizonEnd {
		return 0, false
	}

	// A request landing on a closed day slides to the next clinic day;
	// a rejected request on an open day moves at least one day forward.
	var candidate int
	if !s.WorkingDay(day) && !forceNextClinicDay {
		candidate = s.nextWorkingDay(day)
	} else {
		candidate = s.nextWorkingDay(day + 1)
	}

	for candidate < horizonEnd {
		if s.RequestSlot(candidate, horizonEnd) {
			return candidate, true
		}
		candidate = s.nextWorkingDay(candidate + 1)
	}
	return 0, false
}

func (s *ClinicScheduler) nextWorkingDay(day int) int {
	for !s.WorkingDay(day) {
		day++
	}
	return day
}

// BookOrReschedule grants the requested day when possible, otherwise
// probes forward. Returns the granted day and whether any slot was
// found before the horizon.
func (s *ClinicScheduler) BookOrReschedule(day, horizonEnd int) (int, bool) {
	if s.RequestSlot(day, horizonEnd) {
		return day, true
	}
	return s.Reschedule(day, horizonEnd, false)
}
