package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"

	"resourceroom/internal/models"
	"resourceroom/internal/security"
	"resourceroom/internal/validation"
)

// WelcomeMailer sends the greeting for a new account
type WelcomeMailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
}

// RegisterInput is a teacher sign-up request
type RegisterInput struct {
	Username         string
	Email            string
	Password         string
	FirstName        string
	LastName         string
	School           string
	RegistrationCode string
}

// AuthResult is a signed-in teacher and their bearer token
type AuthResult struct {
	Teacher *models.Teacher
	Token   string
}

// AuthService handles teacher accounts and bearer tokens
type AuthService struct {
	teachers         TeacherStore
	goals            *GoalService
	tokens           *security.TokenManager
	mailer           WelcomeMailer
	registrationCode string
}

// NewAuthService creates a new auth service. Registration is closed while
// registrationCode is empty. mailer may be nil.
func NewAuthService(teachers TeacherStore, goals *GoalService, tokens *security.TokenManager, mailer WelcomeMailer, registrationCode string) *AuthService {
	return &AuthService{
		teachers:         teachers,
		goals:            goals,
		tokens:           tokens,
		mailer:           mailer,
		registrationCode: registrationCode,
	}
}

// Register creates a teacher account, seeds this week's default goals and signs the
// teacher in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if s.registrationCode == "" || subtle.ConstantTimeCompare([]byte(in.RegistrationCode), []byte(s.registrationCode)) != 1 {
		return nil, ErrInvalidRegistrationCode
	}

	username := strings.TrimSpace(in.Username)
	if len(username) < 3 || len(username) > 30 {
		return nil, validation.New("username", "must be between 3 and 30 characters")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, validation.New("firstName", "is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return nil, validation.New("lastName", "is required")
	}

	passwordHash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	teacher := &models.Teacher{
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		School:       strings.TrimSpace(in.School),
		IsActive:     true,
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, translate(err, "create teacher")
	}

	if err := s.goals.SeedDefaults(ctx, teacher.ID); err != nil {
		log.Printf("Failed to seed default goals for teacher %s: %v", teacher.ID, err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(ctx, teacher.Email, teacher.FirstName); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", teacher.Email, err)
		}
	}

	return s.signIn(teacher)
}

// Login authenticates by username or email
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	teacher, err := s.teachers.GetByLogin(ctx, login)
	if err = translate(err, "find teacher"); errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}
	if !teacher.IsActive || !security.CheckPassword(password, teacher.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.signIn(teacher)
}

// Authenticate resolves a bearer token to an active teacher
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Teacher, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	teacher, err := s.GetTeacher(ctx, claims.TeacherID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !teacher.IsActive {
		return nil, ErrInvalidCredentials
	}
	return teacher, nil
}

// GetTeacher loads a teacher by ID
func (s *AuthService) GetTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		return nil, translate(err, "get teacher")
	}
	return teacher, nil
}

func (s *AuthService) signIn(teacher *models.Teacher) (*AuthResult, error) {
	token, err := s.tokens.Issue(teacher.ID, teacher.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Teacher: teacher, Token: token}, nil
}
