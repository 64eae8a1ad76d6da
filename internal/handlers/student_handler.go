package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"resourceroom/internal/models"
	"resourceroom/internal/service"
)

// StudentHandler serves the roster, attendance and token endpoints
type StudentHandler struct {
	students   *service.StudentService
	attendance *service.AttendanceService
	tokens     *service.TokenService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(students *service.StudentService, attendance *service.AttendanceService, tokens *service.TokenService) *StudentHandler {
	return &StudentHandler{
		students:   students,
		attendance: attendance,
		tokens:     tokens,
	}
}

func respondWithStudentError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, service.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, ErrStudentNotFound, "", nil)
		return
	}
	respondWithServiceError(w, err, logMsg)
}

// List returns every active student with today's attendance
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	rows, err := h.attendance.ListWithToday(r.Context(), teacher.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list students")
		return
	}

	out := make([]studentView, 0, len(rows))
	for i := range rows {
		out = append(out, newStudentWithTodayView(&rows[i]))
	}
	respondWithJSON(w, http.StatusOK, out)
}

// Add enrolls a new student
func (h *StudentHandler) Add(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	var req addStudentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	groups := req.Groups
	if len(groups) == 0 {
		// Older clients send a single group
		for _, g := range []string{req.PrimaryGroup, req.Group} {
			if strings.TrimSpace(g) != "" {
				groups = []string{g}
				break
			}
		}
	}

	student, err := h.students.AddStudent(r.Context(), teacher.ID, service.AddStudentInput{
		Name:            req.Name,
		Groups:          groups,
		PrimaryGroup:    req.PrimaryGroup,
		SkillsCompleted: req.SkillsCompleted,
		TotalSkills:     req.TotalSkills,
	})
	if err != nil {
		respondWithStudentError(w, err, "Failed to add student")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Student added successfully",
		"student": newStudentView(student),
	})
}

// UpdateGroups replaces a student's groups and primary group
func (h *StudentHandler) UpdateGroups(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	var req updateGroupsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	student, err := h.students.UpdateGroups(r.Context(), teacher.ID, r.PathValue("id"), req.Groups, req.PrimaryGroup)
	if err != nil {
		respondWithStudentError(w, err, "Failed to update student groups")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Student groups updated successfully",
		"student": newStudentView(student),
	})
}

// Update changes a student's name or skill counters
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	var req updateStudentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	student, err := h.students.UpdateStudent(r.Context(), teacher.ID, r.PathValue("id"), models.StudentUpdate{
		Name:            req.Name,
		SkillsCompleted: req.SkillsCompleted,
		TotalSkills:     req.TotalSkills,
	})
	if err != nil {
		respondWithStudentError(w, err, "Failed to update student")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Student updated successfully",
		"student": newStudentView(student),
	})
}

// Delete soft-deletes a student
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	if err := h.students.DeactivateStudent(r.Context(), teacher.ID, r.PathValue("id")); err != nil {
		respondWithStudentError(w, err, "Failed to delete student")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Student deleted successfully"})
}

// CheckIn records attendance for one group and awards a token
func (h *StudentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	var req checkInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.attendance.CheckIn(r.Context(), teacher.ID, r.PathValue("id"), req.Group)
	if err != nil {
		respondWithStudentError(w, err, "Failed to check in student")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Check-in successful",
		"tokensEarned": result.TokensEarned,
		"totalTokens":  result.TotalTokens,
	})
}

// Bonus awards extra tokens
func (h *StudentHandler) Bonus(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	var req bonusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.tokens.AwardBonus(r.Context(), teacher.ID, r.PathValue("id"), req.Amount, req.Reason)
	if err != nil {
		respondWithStudentError(w, err, "Failed to award bonus tokens")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("Awarded %d bonus tokens", result.Amount),
		"tokensAwarded": result.Amount,
		"totalTokens":   result.TotalTokens,
		"reason":        result.Reason,
	})
}

// Purchase spends tokens on a prize
func (h *StudentHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.tokens.Purchase(r.Context(), teacher.ID, r.PathValue("id"), req.Item, req.Cost)
	if errors.Is(err, service.ErrInsufficientTokens) {
		respondWithMessage(w, http.StatusBadRequest, "Insufficient tokens", "Student does not have enough tokens for this purchase")
		return
	}
	if err != nil {
		respondWithStudentError(w, err, "Failed to process purchase")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Purchase successful",
		"item":            result.Item,
		"cost":            result.Cost,
		"remainingTokens": result.RemainingTokens,
	})
}

// Migrate rewrites every student still stored in an older group shape
func (h *StudentHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())

	migrated, err := h.students.MigrateLegacyGroups(r.Context(), teacher.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to migrate students")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("Migration completed. Updated %d students.", migrated),
		"migratedCount": migrated,
	})
}
