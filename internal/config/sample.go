package config

// SampleTOML is a complete, valid protocol configuration. Transition
// probabilities and vision-change distributions follow commonly cited
// treat-and-extend literature values; they are a starting point for
// calibration, not a clinical recommendation.
const SampleTOML = `[simulation]
mode = "abs"                # "abs" (agent-stepped) or "des" (event queue)
population = 500
horizon_weeks = 104
enrollment_span_weeks = 12  # 0 enrols everyone on day 0
seed = 42

[vision]
model = "simplified"        # "simplified" or "literature"
baseline_mean = 62.0
baseline_std = 10.0
min_letters = 0.0
max_letters = 85.0
ceiling_headroom = 20.0     # letters of headroom over which gains taper
measurement_noise_std = 2.0 # calendar mode only

[disease]
update_mode = "visit"       # "visit" or "calendar"
update_interval_days = 14   # calendar mode tick cadence
time_factor_per_week = 0.02 # calendar mode worsening per untreated week

[disease.fluid_probability]
naive = 0.45
stable = 0.12
active = 0.70
highly_active = 0.90

[disease.transitions.treated.naive]
naive = 0.0
stable = 0.60
active = 0.33
highly_active = 0.07

[disease.transitions.treated.stable]
naive = 0.0
stable = 0.83
active = 0.15
highly_active = 0.02

[disease.transitions.treated.active]
naive = 0.0
stable = 0.35
active = 0.57
highly_active = 0.08

[disease.transitions.treated.highly_active]
naive = 0.0
stable = 0.10
active = 0.45
highly_active = 0.45

[disease.transitions.untreated.naive]
naive = 0.0
stable = 0.30
active = 0.55
highly_active = 0.15

[disease.transitions.untreated.stable]
naive = 0.0
stable = 0.70
active = 0.25
highly_active = 0.05

[disease.transitions.untreated.active]
naive = 0.0
stable = 0.12
active = 0.63
highly_active = 0.25

[disease.transitions.untreated.highly_active]
naive = 0.0
stable = 0.03
active = 0.32
highly_active = 0.65

[disease.vision_change.treated.naive]
mean = 4.0
std = 2.5

[disease.vision_change.treated.stable]
mean = 1.5
std = 1.5

[disease.vision_change.treated.active]
mean = 0.5
std = 2.0

[disease.vision_change.treated.highly_active]
mean = -1.0
std = 2.5

[disease.vision_change.untreated.naive]
mean = -1.5
std = 2.0

[disease.vision_change.untreated.stable]
mean = 0.0
std = 1.0

[disease.vision_change.untreated.active]
mean = -2.0
std = 2.5

[disease.vision_change.untreated.highly_active]
mean = -4.0
std = 3.0

[regimen]
loading_injections = 3
loading_interval_weeks = 4
initial_interval_weeks = 8
min_interval_weeks = 4
max_interval_weeks = 16
extend_weeks = 2
shorten_weeks = 2
stable_visit_threshold = 3

[clinic]
daily_capacity = 20
days_per_week = 5

[discontinuation.stable_max_interval]
probability = 0.2
monitoring_weeks = [12, 24, 36, 48]

[discontinuation.random_administrative]
annual_probability = 0.05
mean_visits_per_year = 7.5  # calibrated mean visit frequency
monitoring_weeks = [8, 16, 24]

[discontinuation.course_complete]
probability = 1.0
threshold_weeks = 52
monitoring_weeks = [8, 16, 24]

[discontinuation.premature]
probability = 0.08
min_interval_weeks = 8
interval_slope_per_week = 0.05
interval_factor_cap = 2.0
first_six_months_factor = 1.5
six_to_twelve_months_factor = 1.0
after_year_factor = 0.6
monitoring_weeks = [8, 16, 24]

[discontinuation.premature.vision_loss]
mean = -9.0
std = 5.0

[retreatment]
probability = 0.95
min_vision_loss_letters = 5.0
ped_probability = 0.3
ped_multiplier = 1.54

[retreatment.recurrence.stable_max_interval]
weeks = [0.0, 26.0, 52.0, 104.0]
cumulative = [0.0, 0.21, 0.41, 0.74]

[retreatment.recurrence.course_complete]
weeks = [0.0, 26.0, 52.0, 104.0]
cumulative = [0.0, 0.30, 0.55, 0.85]

[retreatment.recurrence.premature]
weeks = [0.0, 26.0, 52.0, 104.0]
cumulative = [0.0, 0.35, 0.62, 0.90]

[retreatment.recurrence.random_administrative]
weeks = [0.0, 26.0, 52.0, 104.0]
cumulative = [0.0, 0.30, 0.55, 0.85]

[clinicians]
assignment = "fixed"        # "fixed" or "per_visit"
continuity_probability = 0.9

[[clinicians.profiles]]
kind = "adherent"
share = 0.25
adherence_rate = 0.95
stability_threshold = 0     # 0 keeps the protocol threshold
premature_multiplier = 0.4
retreatment_scale = 1.2

[[clinicians.profiles]]
kind = "average"
share = 0.50
adherence_rate = 0.80
stability_threshold = 0
premature_multiplier = 1.0
retreatment_scale = 1.0

[[clinicians.profiles]]
kind = "non_adherent"
share = 0.25
adherence_rate = 0.50
stability_threshold = 2
premature_multiplier = 3.0
retreatment_scale = 0.8
`
