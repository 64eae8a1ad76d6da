package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"resourceroom/internal/service"
	"resourceroom/internal/validation"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

func respondWithMessage(w http.ResponseWriter, status int, userMsg, message string) {
	respondWithJSON(w, status, errorResponse{Error: userMsg, Message: message})
}

// respondWithServiceError maps the service error taxonomy onto HTTP statuses.
// Only persistence failures are logged; their cause never reaches the client.
func respondWithServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondWithMessage(w, http.StatusBadRequest, "Validation failed", validationMessage(err))
	case errors.Is(err, service.ErrNotFound):
		respondWithMessage(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, service.ErrNotEnrolled):
		respondWithMessage(w, http.StatusBadRequest, "Student is not enrolled in this group", "")
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		respondWithMessage(w, http.StatusBadRequest, "Already checked in to this group today", "")
	case errors.Is(err, service.ErrInsufficientTokens):
		respondWithMessage(w, http.StatusBadRequest, "Not enough tokens", "")
	case errors.Is(err, service.ErrDuplicateEntity):
		respondWithMessage(w, http.StatusConflict, "Already exists", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithMessage(w, http.StatusUnauthorized, ErrInvalidCredentialsMsg, "")
	case errors.Is(err, service.ErrInvalidRegistrationCode):
		respondWithMessage(w, http.StatusBadRequest, ErrInvalidRegistration,
			"Please contact your administrator for the correct registration code")
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

func validationMessage(err error) string {
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
