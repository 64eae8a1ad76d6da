package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resourceroom/internal/database"
	"resourceroom/internal/models"

	"github.com/google/uuid"
)

// TeacherRepository handles database operations for teacher accounts
type TeacherRepository struct {
	db *database.DB
}

// NewTeacherRepository creates a new teacher repository
func NewTeacherRepository(db *database.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = "id, username, email, password_hash, first_name, last_name, school, is_active, created_at, updated_at"

// Create inserts a new teacher, filling in the ID and timestamps
func (r *TeacherRepository) Create(ctx context.Context, t *models.Teacher) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Email = strings.ToLower(t.Email)

	query := "INSERT INTO teachers (" + teacherColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Username, t.Email, t.PasswordHash, t.FirstName, t.LastName, t.School, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create teacher: %w", err)
	}
	return nil
}

// GetByID retrieves a teacher by ID
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByLogin retrieves a teacher by username or email
func (r *TeacherRepository) GetByLogin(ctx context.Context, login string) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE username = ? OR email = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, login, strings.ToLower(login)))
}

// ListActive retrieves every active teacher, used by the maintenance tool
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE is_active = " +
		r.db.Dialect.BoolValue(true) + " ORDER BY username ASC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	defer rows.Close()

	var teachers []models.Teacher
	for rows.Next() {
		var t models.Teacher
		if err := rows.Scan(
			&t.ID,
			&t.Username,
			&t.Email,
			&t.PasswordHash,
			&t.FirstName,
			&t.LastName,
			&t.School,
			&t.IsActive,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teachers: %w", err)
	}
	return teachers, nil
}

func (r *TeacherRepository) scanOne(row *sql.Row) (*models.Teacher, error) {
	t := &models.Teacher{}
	err := row.Scan(
		&t.ID,
		&t.Username,
		&t.Email,
		&t.PasswordHash,
		&t.FirstName,
		&t.LastName,
		&t.School,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	return t, nil
}
