package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/database"
	"resourceroom/internal/models"

	"github.com/google/uuid"
)

// SessionRepository handles the per-day attendance records
type SessionRepository struct {
	db  *database.DB
	loc *time.Location
}

// NewSessionRepository creates a new session repository. Day keys are interpreted in loc.
func NewSessionRepository(db *database.DB, loc *time.Location) *SessionRepository {
	return &SessionRepository{db: db, loc: loc}
}

const sessionColumns = "id, student_id, teacher_id, day, tokens_earned, present, created_at, updated_at"

// GetForDay retrieves a student's session for day
func (r *SessionRepository) GetForDay(ctx context.Context, teacherID, studentID string, day time.Time) (*models.DailySession, error) {
	return r.getForDay(ctx, r.db, teacherID, studentID, calendar.Key(day, r.loc))
}

// ListForDay retrieves every session of a teacher's students for day
func (r *SessionRepository) ListForDay(ctx context.Context, teacherID string, day time.Time) ([]models.DailySession, error) {
	key := calendar.Key(day, r.loc)
	query := "SELECT " + sessionColumns + " FROM daily_sessions WHERE teacher_id = ? AND day = ?"
	rows, err := r.db.QueryContext(ctx, query, teacherID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.DailySession
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	subjects, err := r.subjects(ctx, r.db,
		"SELECT ss.session_id, ss.subject FROM session_subjects ss JOIN daily_sessions ds ON ds.id = ss.session_id WHERE ds.teacher_id = ? AND ds.day = ? ORDER BY ss.attended_at ASC",
		teacherID, key)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].SubjectsAttended = subjects[sessions[i].ID]
	}
	return sessions, nil
}

// RecordCheckIn creates the day's session if needed and adds group to it with one
// token. A subject already attended that day returns ErrAlreadyAttended and changes nothing.
func (r *SessionRepository) RecordCheckIn(ctx context.Context, teacherID, studentID string, day time.Time, group string) (*models.DailySession, error) {
	key := calendar.Key(day, r.loc)
	now := time.Now().UTC()

	var session *models.DailySession
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		insertSession := r.db.Dialect.InsertIgnore("daily_sessions",
			"id", "student_id", "teacher_id", "day", "tokens_earned", "present", "created_at", "updated_at")
		if _, err := tx.ExecContext(ctx, insertSession, uuid.NewString(), studentID, teacherID, key, 0, false, now, now); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		var sessionID string
		if err := tx.QueryRowContext(ctx, "SELECT id FROM daily_sessions WHERE student_id = ? AND day = ?", studentID, key).Scan(&sessionID); err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		insertSubject := r.db.Dialect.InsertIgnore("session_subjects", "session_id", "subject", "attended_at")
		result, err := tx.ExecContext(ctx, insertSubject, sessionID, group, now)
		if err != nil {
			return fmt.Errorf("failed to record subject: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		} else if n == 0 {
			return ErrAlreadyAttended
		}

		update := "UPDATE daily_sessions SET tokens_earned = tokens_earned + 1, present = ?, updated_at = ? WHERE id = ?"
		if _, err := tx.ExecContext(ctx, update, true, now, sessionID); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		s, err := r.getForDay(ctx, tx, teacherID, studentID, key)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AddBonus adds amount to the day's session when one exists and reports whether it did
func (r *SessionRepository) AddBonus(ctx context.Context, teacherID, studentID string, day time.Time, amount int) (bool, error) {
	query := "UPDATE daily_sessions SET tokens_earned = tokens_earned + ?, updated_at = ? WHERE student_id = ? AND teacher_id = ? AND day = ?"
	result, err := r.db.ExecContext(ctx, query, amount, time.Now().UTC(), studentID, teacherID, calendar.Key(day, r.loc))
	if err != nil {
		return false, fmt.Errorf("failed to add bonus to session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *SessionRepository) getForDay(ctx context.Context, q database.DBTX, teacherID, studentID, key string) (*models.DailySession, error) {
	query := "SELECT " + sessionColumns + " FROM daily_sessions WHERE student_id = ? AND teacher_id = ? AND day = ?"
	s, err := r.scanSession(q.QueryRowContext(ctx, query, studentID, teacherID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	subjects, err := r.subjects(ctx, q,
		"SELECT session_id, subject FROM session_subjects WHERE session_id = ? ORDER BY attended_at ASC", s.ID)
	if err != nil {
		return nil, err
	}
	s.SubjectsAttended = subjects[s.ID]
	return s, nil
}

func (r *SessionRepository) subjects(ctx context.Context, q database.DBTX, query string, args ...interface{}) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session subjects: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var sessionID, subject string
		if err := rows.Scan(&sessionID, &subject); err != nil {
			return nil, fmt.Errorf("failed to scan session subject: %w", err)
		}
		out[sessionID] = append(out[sessionID], subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session subjects: %w", err)
	}
	return out, nil
}

func (r *SessionRepository) scanSession(row scanner) (*models.DailySession, error) {
	var (
		s   models.DailySession
		key string
	)
	if err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.TeacherID,
		&key,
		&s.TokensEarned,
		&s.Present,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	day, err := calendar.ParseKey(key, r.loc)
	if err != nil {
		return nil, err
	}
	s.Day = day
	return &s, nil
}
