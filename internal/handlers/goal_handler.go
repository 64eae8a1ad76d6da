package handlers

import (
	"net/http"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/service"
)

// GoalHandler serves the weekly goal endpoints
type GoalHandler struct {
	goals *service.GoalService
	loc   *time.Location
}

// NewGoalHandler creates a new goal handler. Dates in paths are read in loc.
func NewGoalHandler(goals *service.GoalService, loc *time.Location) *GoalHandler {
	return &GoalHandler{goals: goals, loc: loc}
}

// Current returns this week's goals keyed by group
func (h *GoalHandler) Current(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	goals, err := h.goals.CurrentGoals(r.Context(), teacher.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get current goals")
		return
	}
	respondWithJSON(w, http.StatusOK, newGoalsView(goals))
}

// SetCurrent upserts this week's goals
func (h *GoalHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	var req setGoalsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	written, err := h.goals.SetCurrentGoals(r.Context(), teacher.ID, goalInputs(req.Goals))
	if err != nil {
		respondWithServiceError(w, err, "Failed to save goals")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Goals updated successfully",
		"goalsUpdated": written,
	})
}

// ForWeek returns the goals of the week containing the date in the path
func (h *GoalHandler) ForWeek(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	date, err := calendar.ParseDate(r.PathValue("date"), h.loc)
	if err != nil {
		respondWithMessage(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}

	week, goals, err := h.goals.GoalsForWeek(r.Context(), teacher.ID, date)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get goals for week")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"weekOf": calendar.Key(week, h.loc),
		"goals":  newGoalsView(goals),
	})
}

// Weeks lists the most recent weeks that have goals
func (h *GoalHandler) Weeks(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	weeks, err := h.goals.ListWeeks(r.Context(), teacher.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list goal weeks")
		return
	}
	respondWithJSON(w, http.StatusOK, newGoalWeeksView(weeks, h.loc))
}
