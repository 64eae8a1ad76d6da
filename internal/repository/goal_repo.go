package repository

import (
	"context"
	"fmt"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/database"
	"resourceroom/internal/models"

	"github.com/google/uuid"
)

// GoalRepository handles database operations for weekly goals
type GoalRepository struct {
	db  *database.DB
	loc *time.Location
}

// NewGoalRepository creates a new goal repository. Week keys are interpreted in loc.
func NewGoalRepository(db *database.DB, loc *time.Location) *GoalRepository {
	return &GoalRepository{db: db, loc: loc}
}

// ListActive retrieves the active goals of a teacher for the week starting at weekOf
func (r *GoalRepository) ListActive(ctx context.Context, teacherID string, weekOf time.Time) ([]models.WeeklyGoal, error) {
	query := `
		SELECT id, teacher_id, grp, topic, goal, icon, week_of, is_active, created_at, updated_at
		FROM weekly_goals
		WHERE teacher_id = ? AND week_of = ? AND is_active = ` + r.db.Dialect.BoolValue(true) + `
		ORDER BY grp ASC
	`
	rows, err := r.db.QueryContext(ctx, query, teacherID, calendar.Key(weekOf, r.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.WeeklyGoal
	for rows.Next() {
		var (
			g   models.WeeklyGoal
			key string
		)
		if err := rows.Scan(
			&g.ID,
			&g.TeacherID,
			&g.Group,
			&g.Topic,
			&g.Goal,
			&g.Icon,
			&key,
			&g.IsActive,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		if g.WeekOf, err = calendar.ParseKey(key, r.loc); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

// Upsert writes the single active goal for (teacher, group, week), updating it in place
// when one already exists
func (r *GoalRepository) Upsert(ctx context.Context, g *models.WeeklyGoal) error {
	if err := r.upsert(ctx, r.db, g); err != nil {
		return fmt.Errorf("failed to upsert goal: %w", err)
	}
	return nil
}

// InsertBatch upserts all goals in one transaction
func (r *GoalRepository) InsertBatch(ctx context.Context, goals []models.WeeklyGoal) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		for i := range goals {
			if err := r.upsert(ctx, tx, &goals[i]); err != nil {
				return fmt.Errorf("failed to insert goal batch: %w", err)
			}
		}
		return nil
	})
}

// ListWeeks returns up to limit distinct weeks with active goals, most recent first
func (r *GoalRepository) ListWeeks(ctx context.Context, teacherID string, limit int) ([]models.GoalWeek, error) {
	query := `
		SELECT week_of, COUNT(*)
		FROM weekly_goals
		WHERE teacher_id = ? AND is_active = ` + r.db.Dialect.BoolValue(true) + `
		GROUP BY week_of
		ORDER BY week_of DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, teacherID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query goal weeks: %w", err)
	}
	defer rows.Close()

	var weeks []models.GoalWeek
	for rows.Next() {
		var (
			w   models.GoalWeek
			key string
		)
		if err := rows.Scan(&key, &w.GoalCount); err != nil {
			return nil, fmt.Errorf("failed to scan goal week: %w", err)
		}
		if w.WeekOf, err = calendar.ParseKey(key, r.loc); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goal weeks: %w", err)
	}
	return weeks, nil
}

func (r *GoalRepository) upsert(ctx context.Context, q database.DBTX, g *models.WeeklyGoal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	g.IsActive = true

	_, err := q.ExecContext(ctx, q.GetDialect().UpsertGoal(),
		g.ID, g.TeacherID, g.Group, g.Topic, g.Goal, g.Icon, calendar.Key(g.WeekOf, r.loc), g.CreatedAt, g.UpdatedAt)
	return err
}
