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

// StudentRepository handles database operations for students and their purchases
type StudentRepository struct {
	db *database.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, teacher_id, name, legacy_group, group_tags, primary_group, skills_completed, total_skills, tokens, is_active, created_at, updated_at"

func (r *StudentRepository) activeClause() string {
	return "is_active = " + r.db.Dialect.BoolValue(true)
}

// Create inserts a new student. A clash with another active student of the same
// name for the same teacher returns ErrDuplicate.
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.IsActive = true

	var legacy sql.NullString
	if s.LegacyGroup != "" {
		legacy = sql.NullString{String: s.LegacyGroup, Valid: true}
	}

	query := "INSERT INTO students (" + studentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.TeacherID, s.Name, legacy, joinGroups(s.Groups), s.PrimaryGroup,
		s.SkillsCompleted, s.TotalSkills, s.Tokens, s.IsActive, s.CreatedAt, s.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// GetActive retrieves an active student owned by teacherID, including purchase history
func (r *StudentRepository) GetActive(ctx context.Context, teacherID, studentID string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = ? AND teacher_id = ? AND " + r.activeClause()
	s, err := scanStudent(r.db.QueryRowContext(ctx, query, studentID, teacherID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	purchases, err := r.purchases(ctx, "p.student_id = ?", studentID)
	if err != nil {
		return nil, err
	}
	s.Purchases = purchases[s.ID]
	return s, nil
}

// ListActive retrieves every active student of a teacher ordered by name
func (r *StudentRepository) ListActive(ctx context.Context, teacherID string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE teacher_id = ? AND " + r.activeClause() + " ORDER BY name ASC"
	rows, err := r.db.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	purchases, err := r.purchases(ctx, "s.teacher_id = ? AND s."+r.activeClause(), teacherID)
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].Purchases = purchases[students[i].ID]
	}
	return students, nil
}

// SetGroups stores a canonical group set and primary group
func (r *StudentRepository) SetGroups(ctx context.Context, teacherID, studentID string, groups []string, primary string) error {
	query := "UPDATE students SET group_tags = ?, primary_group = ?, updated_at = ? WHERE id = ? AND teacher_id = ? AND " + r.activeClause()
	result, err := r.db.ExecContext(ctx, query, joinGroups(groups), primary, time.Now().UTC(), studentID, teacherID)
	if err != nil {
		return fmt.Errorf("failed to update student groups: %w", err)
	}
	return requireRow(result)
}

// ReplaceGroups writes to only while the stored groups and primary group still equal from.
// It reports false when the row changed since it was read, or is gone.
func (r *StudentRepository) ReplaceGroups(ctx context.Context, teacherID, studentID string, from, to models.GroupAssignment) (bool, error) {
	query := "UPDATE students SET group_tags = ?, primary_group = ?, updated_at = ? WHERE id = ? AND teacher_id = ? AND group_tags = ? AND primary_group = ? AND " + r.activeClause()
	result, err := r.db.ExecContext(ctx, query,
		joinGroups(to.Groups), to.Primary, time.Now().UTC(), studentID, teacherID, joinGroups(from.Groups), from.Primary)
	if err != nil {
		return false, fmt.Errorf("failed to replace student groups: %w", err)
	}
	if err := requireRow(result); errors.Is(err, ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// Update applies the non-nil fields of upd
func (r *StudentRepository) Update(ctx context.Context, teacherID, studentID string, upd models.StudentUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.SkillsCompleted != nil {
		sets = append(sets, "skills_completed = ?")
		args = append(args, *upd.SkillsCompleted)
	}
	if upd.TotalSkills != nil {
		sets = append(sets, "total_skills = ?")
		args = append(args, *upd.TotalSkills)
	}
	args = append(args, studentID, teacherID)

	query := "UPDATE students SET " + strings.Join(sets, ", ") + " WHERE id = ? AND teacher_id = ? AND " + r.activeClause()
	result, err := r.db.ExecContext(ctx, query, args...)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return requireRow(result)
}

// Deactivate soft-deletes a student
func (r *StudentRepository) Deactivate(ctx context.Context, teacherID, studentID string) error {
	query := "UPDATE students SET is_active = ?, updated_at = ? WHERE id = ? AND teacher_id = ? AND " + r.activeClause()
	result, err := r.db.ExecContext(ctx, query, false, time.Now().UTC(), studentID, teacherID)
	if err != nil {
		return fmt.Errorf("failed to deactivate student: %w", err)
	}
	return requireRow(result)
}

// AddTokens atomically increments the balance and returns the new value
func (r *StudentRepository) AddTokens(ctx context.Context, teacherID, studentID string, amount int) (int, error) {
	var balance int
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := "UPDATE students SET tokens = tokens + ?, updated_at = ? WHERE id = ? AND teacher_id = ? AND " + r.activeClause()
		result, err := tx.ExecContext(ctx, query, amount, time.Now().UTC(), studentID, teacherID)
		if err != nil {
			return fmt.Errorf("failed to add tokens: %w", err)
		}
		if err := requireRow(result); err != nil {
			return err
		}
		return r.balance(ctx, tx, studentID, &balance)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Purchase spends cost tokens and records the purchase. The decrement only applies
// while the balance covers the cost; otherwise ErrInsufficientTokens and nothing changes.
func (r *StudentRepository) Purchase(ctx context.Context, teacherID, studentID string, p models.Purchase) (int, error) {
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now().UTC()
	}

	var balance int
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := "UPDATE students SET tokens = tokens - ?, updated_at = ? WHERE id = ? AND teacher_id = ? AND tokens >= ? AND " + r.activeClause()
		result, err := tx.ExecContext(ctx, query, p.Cost, time.Now().UTC(), studentID, teacherID, p.Cost)
		if err != nil {
			return fmt.Errorf("failed to spend tokens: %w", err)
		}
		if err := requireRow(result); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			var count int
			existsQuery := "SELECT COUNT(*) FROM students WHERE id = ? AND teacher_id = ? AND " + r.activeClause()
			if err := tx.QueryRowContext(ctx, existsQuery, studentID, teacherID).Scan(&count); err != nil {
				return fmt.Errorf("failed to check student: %w", err)
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrInsufficientTokens
		}

		insert := "INSERT INTO purchases (student_id, item, cost, purchased_at) VALUES (?, ?, ?, ?)"
		if _, err := tx.ExecContext(ctx, insert, studentID, p.Item, p.Cost, p.PurchasedAt); err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}
		return r.balance(ctx, tx, studentID, &balance)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *StudentRepository) balance(ctx context.Context, tx *database.Tx, studentID string, out *int) error {
	if err := tx.QueryRowContext(ctx, "SELECT tokens FROM students WHERE id = ?", studentID).Scan(out); err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}
	return nil
}

// purchases loads purchase history keyed by student ID for the students matching where
func (r *StudentRepository) purchases(ctx context.Context, where string, args ...interface{}) (map[string][]models.Purchase, error) {
	query := `
		SELECT p.student_id, p.item, p.cost, p.purchased_at
		FROM purchases p
		JOIN students s ON s.id = p.student_id
		WHERE ` + where + `
		ORDER BY p.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Purchase)
	for rows.Next() {
		var (
			studentID string
			p         models.Purchase
		)
		if err := rows.Scan(&studentID, &p.Item, &p.Cost, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		out[studentID] = append(out[studentID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(row scanner) (*models.Student, error) {
	var (
		s      models.Student
		legacy sql.NullString
		tags   string
	)
	if err := row.Scan(
		&s.ID,
		&s.TeacherID,
		&s.Name,
		&legacy,
		&tags,
		&s.PrimaryGroup,
		&s.SkillsCompleted,
		&s.TotalSkills,
		&s.Tokens,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.LegacyGroup = legacy.String
	s.Groups = splitGroups(tags)
	return &s, nil
}

func joinGroups(groups []string) string {
	return strings.Join(groups, ",")
}

func splitGroups(tags string) []string {
	if tags == "" {
		return nil
	}
	return strings.Split(tags, ",")
}

// requireRow maps an update that matched nothing to ErrNotFound
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
