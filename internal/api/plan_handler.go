package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/unalkalkan/la5asni/internal/planner"
	"github.com/unalkalkan/la5asni/pkg/types"
)

type planRequest struct {
	TrainingModules []types.TrainingModule `json:"training_modules"`
	PlanMode        string                 `json:"plan_mode"`
	NumDays         *int                   `json:"num_days"`
	HoursPerDay     *int                   `json:"hours_per_day"`
}

type planResponse struct {
	Plan          []planner.Day `json:"plan"`
	MinutesPerDay int           `json:"minutes_per_day"`
	EstimatedDays int           `json:"estimated_days"`
}

// Plan answers POST /api/v1/plan/
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.loggerFor(r), err)
		return
	}

	plan, err := h.buildPlan(r, planner.Request{
		Modules:     req.TrainingModules,
		Mode:        planner.Mode(req.PlanMode),
		NumDays:     req.NumDays,
		HoursPerDay: req.HoursPerDay,
	})
	if err != nil {
		writeError(w, h.loggerFor(r), err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{
		Plan:          plan.Days,
		MinutesPerDay: plan.Capacity.MinutesPerDay,
		EstimatedDays: plan.Capacity.EstimatedDays,
	})
}

// buildPlan runs the scheduler and records its outcome
func (h *Handler) buildPlan(r *http.Request, req planner.Request) (*planner.Plan, error) {
	logger := h.loggerFor(r)

	plan, err := planner.Build(req)
	if err != nil {
		var validation *planner.ValidationError
		if errors.As(err, &validation) && h.metrics != nil {
			h.metrics.PlanRejections.WithLabelValues(validation.Code()).Inc()
		}
		logger.Info("plan rejected", "mode", req.Mode, "error", err)
		return nil, err
	}

	if h.metrics != nil {
		h.metrics.PlansBuilt.WithLabelValues(string(req.Mode)).Inc()
		h.metrics.PlanDays.Observe(float64(len(plan.Days)))
	}
	if req.Mode == planner.ModeManual && len(plan.Days) > plan.Capacity.EstimatedDays {
		logger.Warn("plan needs more days than requested",
			"requested_days", plan.Capacity.EstimatedDays,
			"planned_days", len(plan.Days))
	}
	return plan, nil
}

// planFromQuery builds the optional plan attached to an export. It returns
// nil when plan_mode is absent.
func (h *Handler) planFromQuery(r *http.Request, modules []types.TrainingModule) (*planner.Plan, error) {
	q := r.URL.Query()
	mode := q.Get("plan_mode")
	if mode == "" {
		return nil, nil
	}

	numDays, err := optionalInt(q.Get("num_days"))
	if err != nil {
		return nil, badInput("num_days must be an integer")
	}
	hours, err := optionalInt(q.Get("hours_per_day"))
	if err != nil {
		return nil, badInput("hours_per_day must be an integer")
	}

	return h.buildPlan(r, planner.Request{
		Modules:     modules,
		Mode:        planner.Mode(mode),
		NumDays:     numDays,
		HoursPerDay: hours,
	})
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// inputError is a client mistake reported as 400 BAD_REQUEST
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func badInput(msg string) error { return &inputError{msg: msg} }

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badInput("invalid JSON body: " + err.Error())
	}
	return nil
}
