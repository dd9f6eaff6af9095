// Package config loads and validates protocol configuration files.
// Every week- or month-denominated value is converted to days exactly
// once, at compile time; the engine deals only in days since simulation
// start. Missing or structurally invalid configuration is a load-time
// error reported with the offending field path -- required parameters
// are never defaulted.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	ModeABS = "abs"
	ModeDES = "des"

	UpdateModeVisit    = "visit"
	UpdateModeCalendar = "calendar"

	AssignmentFixed    = "fixed"
	AssignmentPerVisit = "per_visit"
)

type Config struct {
	Simulation      SimulationSection      `mapstructure:"simulation"`
	Vision          VisionSection          `mapstructure:"vision"`
	Disease         DiseaseSection         `mapstructure:"disease"`
	Regimen         RegimenSection         `mapstructure:"regimen"`
	Clinic          ClinicSection          `mapstructure:"clinic"`
	Discontinuation DiscontinuationSection `mapstructure:"discontinuation"`
	Retreatment     RetreatmentSection     `mapstructure:"retreatment"`
	Clinicians      CliniciansSection      `mapstructure:"clinicians"`
}

type SimulationSection struct {
	Mode                string `mapstructure:"mode"`
	Population          int    `mapstructure:"population"`
	HorizonWeeks        int    `mapstructure:"horizon_weeks"`
	EnrollmentSpanWeeks int    `mapstructure:"enrollment_span_weeks"`
	Seed                int64  `mapstructure:"seed"`
}

type VisionSection struct {
	BaselineMean        float64 `mapstructure:"baseline_mean"`
	BaselineStd         float64 `mapstructure:"baseline_std"`
	MinLetters          float64 `mapstructure:"min_letters"`
	MaxLetters          float64 `mapstructure:"max_letters"`
	CeilingHeadroom     float64 `mapstructure:"ceiling_headroom"`
	MeasurementNoiseStd float64 `mapstructure:"measurement_noise_std"`
	Model               string  `mapstructure:"model"`
}

type Dist struct {
	Mean float64 `mapstructure:"mean"`
	Std  float64 `mapstructure:"std"`
}

type DiseaseSection struct {
	UpdateMode         string                        `mapstructure:"update_mode"`
	UpdateIntervalDays int                           `mapstructure:"update_interval_days"`
	TimeFactorPerWeek  float64                       `mapstructure:"time_factor_per_week"`
	Transitions        TransitionSection             `mapstructure:"transitions"`
	VisionChange       TreatedUntreated[Dist]        `mapstructure:"vision_change"`
	FluidProbability   map[string]float64            `mapstructure:"fluid_probability"`
}

type TransitionSection struct {
	Treated   map[string]map[string]float64 `mapstructure:"treated"`
	Untreated map[string]map[string]float64 `mapstructure:"untreated"`
}

type TreatedUntreated[T any] struct {
	Treated   map[string]T `mapstructure:"treated"`
	Untreated map[string]T `mapstructure:"untreated"`
}

type RegimenSection struct {
	LoadingInjections    int `mapstructure:"loading_injections"`
	LoadingIntervalWeeks int `mapstructure:"loading_interval_weeks"`
	InitialIntervalWeeks int `mapstructure:"initial_interval_weeks"`
	MinIntervalWeeks     int `mapstructure:"min_interval_weeks"`
	MaxIntervalWeeks     int `mapstructure:"max_interval_weeks"`
	ExtendWeeks          int `mapstructure:"extend_weeks"`
	ShortenWeeks         int `mapstructure:"shorten_weeks"`
	StableVisitThreshold int `mapstructure:"stable_visit_threshold"`
}

type ClinicSection struct {
	DailyCapacity int `mapstructure:"daily_capacity"`
	DaysPerWeek   int `mapstructure:"days_per_week"`
}

type DiscontinuationSection struct {
	StableMaxInterval    StableMaxSection      `mapstructure:"stable_max_interval"`
	RandomAdministrative AdministrativeSection `mapstructure:"random_administrative"`
	CourseComplete       CourseCompleteSection `mapstructure:"course_complete"`
	Premature            PrematureSection      `mapstructure:"premature"`
}

type StableMaxSection struct {
	Probability     float64 `mapstructure:"probability"`
	MonitoringWeeks []int   `mapstructure:"monitoring_weeks"`
}

type AdministrativeSection struct {
	AnnualProbability float64 `mapstructure:"annual_probability"`
	MeanVisitsPerYear float64 `mapstructure:"mean_visits_per_year"`
	MonitoringWeeks   []int   `mapstructure:"monitoring_weeks"`
}

type CourseCompleteSection struct {
	Probability     float64 `mapstructure:"probability"`
	ThresholdWeeks  int     `mapstructure:"threshold_weeks"`
	MonitoringWeeks []int   `mapstructure:"monitoring_weeks"`
}

type PrematureSection struct {
	Probability          float64 `mapstructure:"probability"`
	MinIntervalWeeks     int     `mapstructure:"min_interval_weeks"`
	IntervalSlopePerWeek float64 `mapstructure:"interval_slope_per_week"`
	IntervalFactorCap    float64 `mapstructure:"interval_factor_cap"`
	FirstSixMonthsFactor float64 `mapstructure:"first_six_months_factor"`
	SixToTwelveFactor    float64 `mapstructure:"six_to_twelve_months_factor"`
	AfterYearFactor      float64 `mapstructure:"after_year_factor"`
	VisionLoss           Dist    `mapstructure:"vision_loss"`
	MonitoringWeeks      []int   `mapstructure:"monitoring_weeks"`
}

type RetreatmentSection struct {
	Probability    float64                 `mapstructure:"probability"`
	MinVisionLoss  float64                 `mapstructure:"min_vision_loss_letters"`
	PEDProbability float64                 `mapstructure:"ped_probability"`
	PEDMultiplier  float64                 `mapstructure:"ped_multiplier"`
	Recurrence     map[string]CurveSection `mapstructure:"recurrence"`
}

type CurveSection struct {
	Weeks      []float64 `mapstructure:"weeks"`
	Cumulative []float64 `mapstructure:"cumulative"`
}

type CliniciansSection struct {
	Assignment            string           `mapstructure:"assignment"`
	ContinuityProbability float64          `mapstructure:"continuity_probability"`
	Profiles              []ProfileSection `mapstructure:"profiles"`
}

type ProfileSection struct {
	Kind                string  `mapstructure:"kind"`
	Share               float64 `mapstructure:"share"`
	AdherenceRate       float64 `mapstructure:"adherence_rate"`
	StabilityThreshold  int     `mapstructure:"stability_threshold"`
	PrematureMultiplier float64 `mapstructure:"premature_multiplier"`
	RetreatmentScale    float64 `mapstructure:"retreatment_scale"`
}

// Load reads a protocol configuration file (TOML).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read protocol config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode protocol config: %w", err)
	}

	return cfg, nil
}
