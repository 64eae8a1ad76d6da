package handlers

import (
	"net/http"

	"resourceroom/internal/service"
)

// AuthHandler handles teacher registration, login and the current account
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a teacher account guarded by the registration code
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		School:           req.School,
		RegistrationCode: req.RegistrationCode,
	})
	if err != nil {
		respondWithServiceError(w, err, "Registration failed")
		return
	}

	respondWithJSON(w, http.StatusCreated, authResponse{
		Message: "Teacher registered successfully",
		Token:   result.Token,
		Teacher: newTeacherView(result.Teacher),
	})
}

// Login signs a teacher in by username or email
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Login failed")
		return
	}

	respondWithJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   result.Token,
		Teacher: newTeacherView(result.Teacher),
	})
}

// Me returns the authenticated teacher
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	teacher := GetTeacherFromContext(r.Context())
	if teacher == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"teacher": newTeacherView(teacher)})
}
