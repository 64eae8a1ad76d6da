package service

import (
	"errors"
	"fmt"

	"resourceroom/internal/repository"
	"resourceroom/internal/validation"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrValidation              = validation.ErrInvalid
	ErrNotEnrolled             = errors.New("student is not enrolled in this group")
	ErrAlreadyCheckedIn        = errors.New("already checked in to this group today")
	ErrInsufficientTokens      = errors.New("not enough tokens")
	ErrDuplicateEntity         = errors.New("already exists")
	ErrPersistence             = errors.New("persistence failure")
	ErrInvalidCredentials      = errors.New("invalid username/email or password")
	ErrInvalidRegistrationCode = errors.New("invalid registration code")
)

// translate maps store errors onto the service taxonomy. Anything the store did not
// classify is a persistence failure.
func translate(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w", action, ErrDuplicateEntity)
	case errors.Is(err, repository.ErrAlreadyAttended):
		return fmt.Errorf("%s: %w", action, ErrAlreadyCheckedIn)
	case errors.Is(err, repository.ErrInsufficientTokens):
		return fmt.Errorf("%s: %w", action, ErrInsufficientTokens)
	default:
		return fmt.Errorf("failed to %s: %w: %w", action, ErrPersistence, err)
	}
}
