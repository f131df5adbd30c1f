package planner

const (
	// AutoHoursPerDay is the study budget assumed in auto mode.
	AutoHoursPerDay = 4

	// MaxHoursPerDay bounds the manual budget to one calendar day.
	MaxHoursPerDay = 24

	// MaxModuleMinutes bounds a single module's estimate. Keeping every
	// module under it keeps day totals far from int overflow.
	MaxModuleMinutes = 1_000_000

	minutesPerHour = 60
)

// Mode selects how the daily budget is determined.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// Capacity is the resolved daily budget plus an advisory day count.
// EstimatedDays never constrains allocation.
type Capacity struct {
	MinutesPerDay int
	EstimatedDays int
}

// ResolveCapacity computes the per-day minute budget for a plan.
//
// In manual mode both numDays and hoursPerDay must be present and positive,
// and hoursPerDay may not exceed MaxHoursPerDay; numDays is passed through
// as the estimate. In auto mode the budget is
// AutoHoursPerDay and the estimate is ceil(totalMinutes/budget), at least 1.
func ResolveCapacity(mode Mode, numDays, hoursPerDay *int, totalMinutes int) (Capacity, error) {
	switch mode {
	case ModeAuto:
		perDay := AutoHoursPerDay * minutesPerHour
		days := (totalMinutes + perDay - 1) / perDay
		if days < 1 {
			days = 1
		}
		return Capacity{MinutesPerDay: perDay, EstimatedDays: days}, nil
	case ModeManual:
		if numDays == nil || hoursPerDay == nil {
			return Capacity{}, invalid(ErrMissingManualParameters, "num_days and hours_per_day are required")
		}
		if *numDays <= 0 {
			return Capacity{}, invalid(ErrMissingManualParameters, "num_days must be positive, got %d", *numDays)
		}
		if *hoursPerDay <= 0 {
			return Capacity{}, invalid(ErrMissingManualParameters, "hours_per_day must be positive, got %d", *hoursPerDay)
		}
		if *hoursPerDay > MaxHoursPerDay {
			return Capacity{}, invalid(ErrMissingManualParameters, "hours_per_day must be at most %d, got %d", MaxHoursPerDay, *hoursPerDay)
		}
		return Capacity{MinutesPerDay: *hoursPerDay * minutesPerHour, EstimatedDays: *numDays}, nil
	default:
		return Capacity{}, invalid(ErrInvalidMode, "got %q", string(mode))
	}
}
