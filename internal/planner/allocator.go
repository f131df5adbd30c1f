package planner

import "github.com/unalkalkan/la5asni/pkg/types"

// Session is a module placed on a specific day.
type Session struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
}

// Day is one bucket of the schedule.
type Day struct {
	Number       int       `json:"day"`
	TotalMinutes int       `json:"total_minutes"`
	Sessions     []Session `json:"sessions"`
}

// Allocate packs modules into days first-fit, in input order, without
// splitting. A module that does not fit closes the current day and opens
// the next one. The first module of a day is always accepted, so a module
// longer than minutesPerDay sits alone on its own day.
func Allocate(modules []types.TrainingModule, minutesPerDay int) []Day {
	var days []Day
	current := Day{Number: 1}

	for _, m := range modules {
		if len(current.Sessions) == 0 || current.TotalMinutes+m.EstimatedMinutes <= minutesPerDay {
			current.Sessions = append(current.Sessions, sessionFor(m))
			current.TotalMinutes += m.EstimatedMinutes
			continue
		}

		days = append(days, current)
		current = Day{
			Number:       current.Number + 1,
			TotalMinutes: m.EstimatedMinutes,
			Sessions:     []Session{sessionFor(m)},
		}
	}

	if len(current.Sessions) > 0 {
		days = append(days, current)
	}
	return days
}

func sessionFor(m types.TrainingModule) Session {
	return Session{
		Title:       m.Title,
		Description: m.Description,
		Duration:    m.EstimatedMinutes,
	}
}
