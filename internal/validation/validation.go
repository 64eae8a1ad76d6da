package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest accepted teacher password
const MinPasswordLength = 6

// ErrInvalid is matched by every ValidationError via errors.Is
var ErrInvalid = errors.New("validation failed")

// ValidationError describes a single rejected field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets callers test for ErrInvalid without knowing the field
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// New builds a ValidationError for field
func New(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates a request DTO using its `validate` tags and returns the first
// failure as a ValidationError
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: messageFor(fe)}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// ValidateEmail checks that email is a bare address
func ValidateEmail(email string) error {
	if email == "" {
		return New("email", "is required")
	}
	if strings.ContainsAny(email, " \t") {
		return New("email", "must not contain spaces")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return New("email", "must be a valid email address")
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return New("email", "must be a valid email address")
	}
	return nil
}

// ValidatePassword enforces the minimum password length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return New("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// ValidateName checks a person's name
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return New("name", "is required")
	}
	if len(trimmed) < 2 {
		return New("name", "must be at least 2 characters")
	}
	if len(trimmed) > 100 {
		return New("name", "must be at most 100 characters")
	}
	return nil
}
