package config

import (
	"fmt"
	"math"

	"github.com/maculab/amdsim/internal/domain"
)

const DaysPerWeek = 7

// Compiled is the engine-ready parameter set: every duration in days,
// every table keyed by parsed domain types, every derived rate (such as
// the per-visit administrative probability) computed exactly once.
type Compiled struct {
	Mode               string
	Population         int
	HorizonDays        int
	EnrollmentSpanDays int
	Seed               int64

	Vision          VisionParams
	Disease         DiseaseParams
	Regimen         RegimenParams
	Clinic          ClinicParams
	Discontinuation DiscontinuationParams
	Retreatment     RetreatmentParams
	Clinicians      ClinicianParams
}

type VisionParams struct {
	BaselineMean        float64
	BaselineStd         float64
	MinLetters          float64
	MaxLetters          float64
	CeilingHeadroom     float64
	MeasurementNoiseStd float64
	Model               string
}

type DiseaseParams struct {
	CalendarMode       bool
	UpdateIntervalDays int
	TimeFactorPerWeek  float64
	Treated            domain.TransitionTable
	Untreated          domain.TransitionTable
	VisionTreated      map[domain.DiseaseState]Dist
	VisionUntreated    map[domain.DiseaseState]Dist
	Fluid              map[domain.DiseaseState]float64
}

// Table returns the transition table conditioned on whether an
// injection was given this visit.
func (d DiseaseParams) Table(injected bool) domain.TransitionTable {
	if injected {
		return d.Treated
	}
	return d.Untreated
}

type RegimenParams struct {
	LoadingInjections    int
	LoadingIntervalDays  int
	InitialIntervalDays  int
	MinIntervalDays      int
	MaxIntervalDays      int
	ExtendDays           int
	ShortenDays          int
	StableVisitThreshold int
}

type ClinicParams struct {
	DailyCapacity int
	DaysPerWeek   int
}

type DiscontinuationParams struct {
	StableMax      StableMaxParams
	Administrative AdministrativeParams
	CourseComplete CourseCompleteParams
	Premature      PrematureParams
}

type StableMaxParams struct {
	Probability    float64
	MonitoringDays []int
}

type AdministrativeParams struct {
	AnnualProbability float64
	MeanVisitsPerYear float64
	// PerVisitProbability is annual_probability / mean_visits_per_year,
	// computed once here so a miscalibrated visit frequency cannot be
	// silently re-derived downstream.
	PerVisitProbability float64
	MonitoringDays      []int
}

type CourseCompleteParams struct {
	Probability    float64
	ThresholdDays  int
	MonitoringDays []int
}

type PrematureParams struct {
	Probability          float64
	MinIntervalDays      int
	IntervalSlopePerWeek float64
	IntervalFactorCap    float64
	FirstSixMonthsFactor float64
	SixToTwelveFactor    float64
	AfterYearFactor      float64
	VisionLoss           Dist
	MonitoringDays       []int
}

type RetreatmentParams struct {
	Probability    float64
	MinVisionLoss  float64
	PEDProbability float64
	PEDMultiplier  float64
	Recurrence     map[domain.DiscontinuationType]Curve
}

type ClinicianParams struct {
	Assignment            string
	ContinuityProbability float64
	Profiles              []domain.ClinicianProfile
}

// Curve is a piecewise-linear cumulative probability curve over days
// since discontinuation.
type Curve struct {
	Days       []float64
	Cumulative []float64
}

// At returns the cumulative probability at the given day, interpolating
// linearly between points and clamping outside the curve's range.
func (c Curve) At(day int) float64 {
	x := float64(day)
	if len(c.Days) == 0 {
		return 0
	}
	if x <= c.Days[0] {
		return c.Cumulative[0]
	}
	last := len(c.Days) - 1
	if x >= c.Days[last] {
		return c.Cumulative[last]
	}
	for i := 1; i <= last; i++ {
		if x <= c.Days[i] {
			span := c.Days[i] - c.Days[i-1]
			if span == 0 {
				return c.Cumulative[i]
			}
			frac := (x - c.Days[i-1]) / span
			return c.Cumulative[i-1] + frac*(c.Cumulative[i]-c.Cumulative[i-1])
		}
	}
	return c.Cumulative[last]
}

func weeksToDays(weeks []int) []int {
	days := make([]int, len(weeks))
	for i, w := range weeks {
		days[i] = w * DaysPerWeek
	}
	return days
}

// Compile validates the configuration and converts it into engine
// parameters. Any missing required parameter or structural
// inconsistency is fatal here.
func (c *Config) Compile() (*Compiled, error) {
	if err := c.validateSimulation(); err != nil {
		return nil, err
	}
	if err := c.validateVision(); err != nil {
		return nil, err
	}
	if err := c.validateRegimen(); err != nil {
		return nil, err
	}
	if err := c.validateClinic(); err != nil {
		return nil, err
	}
	if err := c.validateDiscontinuation(); err != nil {
		return nil, err
	}
	if err := c.validateRetreatment(); err != nil {
		return nil, err
	}

	disease, err := c.compileDisease()
	if err != nil {
		return nil, err
	}
	recurrence, err := c.compileRecurrence()
	if err != nil {
		return nil, err
	}
	profiles, err := c.compileProfiles()
	if err != nil {
		return nil, err
	}

	d := c.Discontinuation
	return &Compiled{
		Mode:               c.Simulation.Mode,
		Population:         c.Simulation.Population,
		HorizonDays:        c.Simulation.HorizonWeeks * DaysPerWeek,
		EnrollmentSpanDays: c.Simulation.EnrollmentSpanWeeks * DaysPerWeek,
		Seed:               c.Simulation.Seed,
		Vision: VisionParams{
			BaselineMean:        c.Vision.BaselineMean,
			BaselineStd:         c.Vision.BaselineStd,
			MinLetters:          c.Vision.MinLetters,
			MaxLetters:          c.Vision.MaxLetters,
			CeilingHeadroom:     c.Vision.CeilingHeadroom,
			MeasurementNoiseStd: c.Vision.MeasurementNoiseStd,
			Model:               c.Vision.Model,
		},
		Disease: *disease,
		Regimen: RegimenParams{
			LoadingInjections:    c.Regimen.LoadingInjections,
			LoadingIntervalDays:  c.Regimen.LoadingIntervalWeeks * DaysPerWeek,
			InitialIntervalDays:  c.Regimen.InitialIntervalWeeks * DaysPerWeek,
			MinIntervalDays:      c.Regimen.MinIntervalWeeks * DaysPerWeek,
			MaxIntervalDays:      c.Regimen.MaxIntervalWeeks * DaysPerWeek,
			ExtendDays:           c.Regimen.ExtendWeeks * DaysPerWeek,
			ShortenDays:          c.Regimen.ShortenWeeks * DaysPerWeek,
			StableVisitThreshold: c.Regimen.StableVisitThreshold,
		},
		Clinic: ClinicParams{
			DailyCapacity: c.Clinic.DailyCapacity,
			DaysPerWeek:   c.Clinic.DaysPerWeek,
		},
		Discontinuation: DiscontinuationParams{
			StableMax: StableMaxParams{
				Probability:    d.StableMaxInterval.Probability,
				MonitoringDays: weeksToDays(d.StableMaxInterval.MonitoringWeeks),
			},
			Administrative: AdministrativeParams{
				AnnualProbability:   d.RandomAdministrative.AnnualProbability,
				MeanVisitsPerYear:   d.RandomAdministrative.MeanVisitsPerYear,
				PerVisitProbability: d.RandomAdministrative.AnnualProbability / d.RandomAdministrative.MeanVisitsPerYear,
				MonitoringDays:      weeksToDays(d.RandomAdministrative.MonitoringWeeks),
			},
			CourseComplete: CourseCompleteParams{
				Probability:    d.CourseComplete.Probability,
				ThresholdDays:  d.CourseComplete.ThresholdWeeks * DaysPerWeek,
				MonitoringDays: weeksToDays(d.CourseComplete.MonitoringWeeks),
			},
			Premature: PrematureParams{
				Probability:          d.Premature.Probability,
				MinIntervalDays:      d.Premature.MinIntervalWeeks * DaysPerWeek,
				IntervalSlopePerWeek: d.Premature.IntervalSlopePerWeek,
				IntervalFactorCap:    d.Premature.IntervalFactorCap,
				FirstSixMonthsFactor: d.Premature.FirstSixMonthsFactor,
				SixToTwelveFactor:    d.Premature.SixToTwelveFactor,
				AfterYearFactor:      d.Premature.AfterYearFactor,
				VisionLoss:           d.Premature.VisionLoss,
				MonitoringDays:       weeksToDays(d.Premature.MonitoringWeeks),
			},
		},
		Retreatment: RetreatmentParams{
			Probability:    c.Retreatment.Probability,
			MinVisionLoss:  c.Retreatment.MinVisionLoss,
			PEDProbability: c.Retreatment.PEDProbability,
			PEDMultiplier:  c.Retreatment.PEDMultiplier,
			Recurrence:     recurrence,
		},
		Clinicians: ClinicianParams{
			Assignment:            c.Clinicians.Assignment,
			ContinuityProbability: c.Clinicians.ContinuityProbability,
			Profiles:              profiles,
		},
	}, nil
}

func (c *Config) validateSimulation() error {
	s := c.Simulation
	if s.Mode != ModeABS && s.Mode != ModeDES {
		return fmt.Errorf("simulation.mode: must be %q or %q, got %q", ModeABS, ModeDES, s.Mode)
	}
	if s.Population <= 0 {
		return fmt.Errorf("simulation.population: must be > 0, got %d", s.Population)
	}
	if s.HorizonWeeks <= 0 {
		return fmt.Errorf("simulation.horizon_weeks: must be > 0, got %d", s.HorizonWeeks)
	}
	if s.EnrollmentSpanWeeks < 0 {
		return fmt.Errorf("simulation.enrollment_span_weeks: must be >= 0, got %d", s.EnrollmentSpanWeeks)
	}
	return nil
}

func (c *Config) validateVision() error {
	v := c.Vision
	if v.MaxLetters <= v.MinLetters {
		return fmt.Errorf("vision.max_letters: %v must be > vision.min_letters %v", v.MaxLetters, v.MinLetters)
	}
	if v.BaselineMean < v.MinLetters || v.BaselineMean > v.MaxLetters {
		return fmt.Errorf("vision.baseline_mean: %v outside [%v, %v]", v.BaselineMean, v.MinLetters, v.MaxLetters)
	}
	if v.BaselineStd < 0 {
		return fmt.Errorf("vision.baseline_std: must be >= 0, got %v", v.BaselineStd)
	}
	if v.CeilingHeadroom <= 0 {
		return fmt.Errorf("vision.ceiling_headroom: must be > 0, got %v", v.CeilingHeadroom)
	}
	if v.MeasurementNoiseStd < 0 {
		return fmt.Errorf("vision.measurement_noise_std: must be >= 0, got %v", v.MeasurementNoiseStd)
	}
	if v.Model != "simplified" && v.Model != "literature" {
		return fmt.Errorf("vision.model: must be \"simplified\" or \"literature\", got %q", v.Model)
	}
	return nil
}

func (c *Config) validateRegimen() error {
	r := c.Regimen
	if r.LoadingInjections <= 0 {
		return fmt.Errorf("regimen.loading_injections: must be > 0, got %d", r.LoadingInjections)
	}
	if r.LoadingIntervalWeeks <= 0 {
		return fmt.Errorf("regimen.loading_interval_weeks: must be > 0, got %d", r.LoadingIntervalWeeks)
	}
	if r.MinIntervalWeeks <= 0 {
		return fmt.Errorf("regimen.min_interval_weeks: must be > 0, got %d", r.MinIntervalWeeks)
	}
	if r.MinIntervalWeeks > r.MaxIntervalWeeks {
		return fmt.Errorf("regimen.min_interval_weeks: %d exceeds regimen.max_interval_weeks %d", r.MinIntervalWeeks, r.MaxIntervalWeeks)
	}
	if r.InitialIntervalWeeks < r.MinIntervalWeeks || r.InitialIntervalWeeks > r.MaxIntervalWeeks {
		return fmt.Errorf("regimen.initial_interval_weeks: %d outside [%d, %d]", r.InitialIntervalWeeks, r.MinIntervalWeeks, r.MaxIntervalWeeks)
	}
	if r.ExtendWeeks <= 0 {
		return fmt.Errorf("regimen.extend_weeks: must be > 0, got %d", r.ExtendWeeks)
	}
	if r.ShortenWeeks <= 0 {
		return fmt.Errorf("regimen.shorten_weeks: must be > 0, got %d", r.ShortenWeeks)
	}
	if r.StableVisitThreshold <= 0 {
		return fmt.Errorf("regimen.stable_visit_threshold: must be > 0, got %d", r.StableVisitThreshold)
	}
	return nil
}

func (c *Config) validateClinic() error {
	cl := c.Clinic
	if cl.DailyCapacity <= 0 {
		return fmt.Errorf("clinic.daily_capacity: must be > 0, got %d", cl.DailyCapacity)
	}
	if cl.DaysPerWeek <= 0 || cl.DaysPerWeek > 7 {
		return fmt.Errorf("clinic.days_per_week: must be in [1,7], got %d", cl.DaysPerWeek)
	}
	return nil
}

func (c *Config) validateDiscontinuation() error {
	d := c.Discontinuation
	if err := validateProbability("discontinuation.stable_max_interval.probability", d.StableMaxInterval.Probability); err != nil {
		return err
	}
	if err := validateProbability("discontinuation.random_administrative.annual_probability", d.RandomAdministrative.AnnualProbability); err != nil {
		return err
	}
	if d.RandomAdministrative.MeanVisitsPerYear <= 0 {
		return fmt.Errorf("discontinuation.random_administrative.mean_visits_per_year: must be > 0, got %v", d.RandomAdministrative.MeanVisitsPerYear)
	}
	if err := validateProbability("discontinuation.course_complete.probability", d.CourseComplete.Probability); err != nil {
		return err
	}
	if d.CourseComplete.ThresholdWeeks <= 0 {
		return fmt.Errorf("discontinuation.course_complete.threshold_weeks: must be > 0, got %d", d.CourseComplete.ThresholdWeeks)
	}
	p := d.Premature
	if err := validateProbability("discontinuation.premature.probability", p.Probability); err != nil {
		return err
	}
	if p.MinIntervalWeeks <= 0 {
		return fmt.Errorf("discontinuation.premature.min_interval_weeks: must be > 0, got %d", p.MinIntervalWeeks)
	}
	if p.IntervalSlopePerWeek < 0 {
		return fmt.Errorf("discontinuation.premature.interval_slope_per_week: must be >= 0, got %v", p.IntervalSlopePerWeek)
	}
	if p.IntervalFactorCap < 1 {
		return fmt.Errorf("discontinuation.premature.interval_factor_cap: must be >= 1, got %v", p.IntervalFactorCap)
	}
	if p.FirstSixMonthsFactor <= 0 || p.SixToTwelveFactor <= 0 || p.AfterYearFactor <= 0 {
		return fmt.Errorf("discontinuation.premature: duration factors must all be > 0")
	}
	if p.VisionLoss.Mean > 0 {
		return fmt.Errorf("discontinuation.premature.vision_loss.mean: must be <= 0, got %v", p.VisionLoss.Mean)
	}
	if p.VisionLoss.Std < 0 {
		return fmt.Errorf("discontinuation.premature.vision_loss.std: must be >= 0, got %v", p.VisionLoss.Std)
	}
	for _, w := range [][]int{d.StableMaxInterval.MonitoringWeeks, d.RandomAdministrative.MonitoringWeeks, d.CourseComplete.MonitoringWeeks, d.Premature.MonitoringWeeks} {
		for i := range w {
			if w[i] <= 0 {
				return fmt.Errorf("discontinuation: monitoring_weeks entries must be > 0, got %d", w[i])
			}
			if i > 0 && w[i] <= w[i-1] {
				return fmt.Errorf("discontinuation: monitoring_weeks must be strictly increasing")
			}
		}
	}
	return nil
}

func (c *Config) validateRetreatment() error {
	r := c.Retreatment
	if err := validateProbability("retreatment.probability", r.Probability); err != nil {
		return err
	}
	if r.MinVisionLoss < 0 {
		return fmt.Errorf("retreatment.min_vision_loss_letters: must be >= 0, got %v", r.MinVisionLoss)
	}
	if err := validateProbability("retreatment.ped_probability", r.PEDProbability); err != nil {
		return err
	}
	if r.PEDMultiplier < 1 {
		return fmt.Errorf("retreatment.ped_multiplier: must be >= 1, got %v", r.PEDMultiplier)
	}
	return nil
}

func validateProbability(path string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%s: %v out of [0,1]", path, p)
	}
	return nil
}

func (c *Config) compileDisease() (*DiseaseParams, error) {
	d := c.Disease
	if d.UpdateMode != UpdateModeVisit && d.UpdateMode != UpdateModeCalendar {
		return nil, fmt.Errorf("disease.update_mode: must be %q or %q, got %q", UpdateModeVisit, UpdateModeCalendar, d.UpdateMode)
	}
	calendar := d.UpdateMode == UpdateModeCalendar
	if calendar && d.UpdateIntervalDays <= 0 {
		return nil, fmt.Errorf("disease.update_interval_days: must be > 0 in calendar mode, got %d", d.UpdateIntervalDays)
	}
	if d.TimeFactorPerWeek < 0 {
		return nil, fmt.Errorf("disease.time_factor_per_week: must be >= 0, got %v", d.TimeFactorPerWeek)
	}

	treated, err := parseTransitionTable(d.Transitions.Treated, "disease.transitions.treated")
	if err != nil {
		return nil, err
	}
	untreated, err := parseTransitionTable(d.Transitions.Untreated, "disease.transitions.untreated")
	if err != nil {
		return nil, err
	}

	visionTreated, err := parseDistMap(d.VisionChange.Treated, "disease.vision_change.treated")
	if err != nil {
		return nil, err
	}
	visionUntreated, err := parseDistMap(d.VisionChange.Untreated, "disease.vision_change.untreated")
	if err != nil {
		return nil, err
	}

	fluid := make(map[domain.DiseaseState]float64, len(domain.DiseaseStates))
	for _, state := range domain.DiseaseStates {
		p, ok := lookupState(d.FluidProbability, state)
		if !ok {
			return nil, fmt.Errorf("disease.fluid_probability.%s: missing", state)
		}
		if err := validateProbability(fmt.Sprintf("disease.fluid_probability.%s", state), p); err != nil {
			return nil, err
		}
		fluid[state] = p
	}

	return &DiseaseParams{
		CalendarMode:       calendar,
		UpdateIntervalDays: d.UpdateIntervalDays,
		TimeFactorPerWeek:  d.TimeFactorPerWeek,
		Treated:            treated,
		Untreated:          untreated,
		VisionTreated:      visionTreated,
		VisionUntreated:    visionUntreated,
		Fluid:              fluid,
	}, nil
}

func parseTransitionTable(raw map[string]map[string]float64, path string) (domain.TransitionTable, error) {
	table := make(domain.TransitionTable, len(domain.DiseaseStates))
	for from, rawRow := range raw {
		state, err := domain.ParseDiseaseState(from)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		row := make(domain.TransitionRow, len(rawRow))
		for to, p := range rawRow {
			toState, err := domain.ParseDiseaseState(to)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", path, state, err)
			}
			row[toState] = p
		}
		table[state] = row
	}
	if err := table.Validate(path); err != nil {
		return nil, err
	}
	return table, nil
}

func parseDistMap(raw map[string]Dist, path string) (map[domain.DiseaseState]Dist, error) {
	out := make(map[domain.DiseaseState]Dist, len(domain.DiseaseStates))
	for _, state := range domain.DiseaseStates {
		dist, ok := lookupState(raw, state)
		if !ok {
			return nil, fmt.Errorf("%s.%s: missing", path, state)
		}
		if dist.Std < 0 {
			return nil, fmt.Errorf("%s.%s.std: must be >= 0, got %v", path, state, dist.Std)
		}
		out[state] = dist
	}
	return out, nil
}

// lookupState finds a state-keyed entry regardless of key casing
// (viper lowercases TOML table keys).
func lookupState[T any](m map[string]T, state domain.DiseaseState) (T, bool) {
	for k, v := range m {
		if parsed, err := domain.ParseDiseaseState(k); err == nil && parsed == state {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (c *Config) compileRecurrence() (map[domain.DiscontinuationType]Curve, error) {
	out := make(map[domain.DiscontinuationType]Curve, len(domain.DiscontinuationTypes))
	for _, typ := range domain.DiscontinuationTypes {
		section, ok := c.Retreatment.Recurrence[string(typ)]
		if !ok {
			return nil, fmt.Errorf("retreatment.recurrence.%s: missing", typ)
		}
		curve, err := compileCurve(section, fmt.Sprintf("retreatment.recurrence.%s", typ))
		if err != nil {
			return nil, err
		}
		out[typ] = curve
	}
	return out, nil
}

func compileCurve(section CurveSection, path string) (Curve, error) {
	if len(section.Weeks) == 0 {
		return Curve{}, fmt.Errorf("%s.weeks: missing", path)
	}
	if len(section.Weeks) != len(section.Cumulative) {
		return Curve{}, fmt.Errorf("%s: weeks has %d points, cumulative has %d", path, len(section.Weeks), len(section.Cumulative))
	}
	days := make([]float64, len(section.Weeks))
	for i, w := range section.Weeks {
		if w < 0 {
			return Curve{}, fmt.Errorf("%s.weeks[%d]: must be >= 0, got %v", path, i, w)
		}
		if i > 0 && w <= section.Weeks[i-1] {
			return Curve{}, fmt.Errorf("%s.weeks: must be strictly increasing", path)
		}
		days[i] = w * DaysPerWeek
	}
	for i, p := range section.Cumulative {
		if p < 0 || p > 1 {
			return Curve{}, fmt.Errorf("%s.cumulative[%d]: %v out of [0,1]", path, i, p)
		}
		if i > 0 && p < section.Cumulative[i-1] {
			return Curve{}, fmt.Errorf("%s.cumulative: must be non-decreasing", path)
		}
	}
	return Curve{Days: days, Cumulative: section.Cumulative}, nil
}

func (c *Config) compileProfiles() ([]domain.ClinicianProfile, error) {
	cl := c.Clinicians
	if cl.Assignment != AssignmentFixed && cl.Assignment != AssignmentPerVisit {
		return nil, fmt.Errorf("clinicians.assignment: must be %q or %q, got %q", AssignmentFixed, AssignmentPerVisit, cl.Assignment)
	}
	if cl.Assignment == AssignmentPerVisit {
		if err := validateProbability("clinicians.continuity_probability", cl.ContinuityProbability); err != nil {
			return nil, err
		}
	}
	if len(cl.Profiles) == 0 {
		return nil, fmt.Errorf("clinicians.profiles: at least one profile is required")
	}

	profiles := make([]domain.ClinicianProfile, 0, len(cl.Profiles))
	shareSum := 0.0
	for i, section := range cl.Profiles {
		profile := domain.ClinicianProfile{
			ID:                  domain.ClinicianID(fmt.Sprintf("clinician-%d", i+1)),
			Kind:                domain.ProfileKind(section.Kind),
			Share:               section.Share,
			AdherenceRate:       section.AdherenceRate,
			StabilityThreshold:  section.StabilityThreshold,
			PrematureMultiplier: section.PrematureMultiplier,
			RetreatmentScale:    section.RetreatmentScale,
		}
		if err := profile.Validate(fmt.Sprintf("clinicians.profiles[%d]", i)); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
		shareSum += section.Share
	}
	if math.Abs(shareSum-1.0) > 1e-6 {
		return nil, fmt.Errorf("clinicians.profiles: shares sum to %v, want 1.0", shareSum)
	}
	return profiles, nil
}
