// Package planner distributes training modules across a study schedule.
//
// Build validates a Request, resolves the daily capacity and packs the
// modules into days. It performs no I/O and is safe to call concurrently.
package planner

import (
	"strings"

	"github.com/unalkalkan/la5asni/pkg/types"
)

// Request is a validated-on-build plan request.
type Request struct {
	Modules     []types.TrainingModule
	Mode        Mode
	NumDays     *int
	HoursPerDay *int
}

// Plan is the day-by-day schedule plus the capacity it was built against.
type Plan struct {
	Days     []Day
	Capacity Capacity
}

// Build validates req and returns its schedule. Every failure is a
// *ValidationError and is reported before any allocation happens.
func Build(req Request) (*Plan, error) {
	if len(req.Modules) == 0 {
		return nil, invalid(ErrEmptyInput, "")
	}

	// Out-of-range modules are rejected below; clamping them here only keeps
	// the sum from wrapping before that check runs.
	total := 0
	for _, m := range req.Modules {
		total += min(max(m.EstimatedMinutes, 0), MaxModuleMinutes)
	}

	capacity, err := ResolveCapacity(req.Mode, req.NumDays, req.HoursPerDay, total)
	if err != nil {
		return nil, err
	}

	if err := validateModules(req.Modules); err != nil {
		return nil, err
	}

	return &Plan{
		Days:     Allocate(req.Modules, capacity.MinutesPerDay),
		Capacity: capacity,
	}, nil
}

func validateModules(modules []types.TrainingModule) error {
	for i, m := range modules {
		if strings.TrimSpace(m.Title) == "" {
			return invalid(ErrInvalidModule, "module %d has an empty title", i+1)
		}
		if m.EstimatedMinutes <= 0 {
			return invalid(ErrInvalidModule, "module %d (%s) must have estimated_minutes > 0, got %d", i+1, m.Title, m.EstimatedMinutes)
		}
		if m.EstimatedMinutes > MaxModuleMinutes {
			return invalid(ErrInvalidModule, "module %d (%s) must have estimated_minutes <= %d, got %d", i+1, m.Title, MaxModuleMinutes, m.EstimatedMinutes)
		}
	}
	return nil
}
