package service

import (
	"context"
	"time"

	"resourceroom/internal/models"
)

// TeacherStore persists teacher accounts
type TeacherStore interface {
	Create(ctx context.Context, t *models.Teacher) error
	GetByID(ctx context.Context, id string) (*models.Teacher, error)
	GetByLogin(ctx context.Context, login string) (*models.Teacher, error)
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

// StudentStore persists students. Balance changes are atomic in the store.
type StudentStore interface {
	Create(ctx context.Context, s *models.Student) error
	GetActive(ctx context.Context, teacherID, studentID string) (*models.Student, error)
	ListActive(ctx context.Context, teacherID string) ([]models.Student, error)
	SetGroups(ctx context.Context, teacherID, studentID string, groups []string, primary string) error
	ReplaceGroups(ctx context.Context, teacherID, studentID string, from, to models.GroupAssignment) (bool, error)
	Update(ctx context.Context, teacherID, studentID string, upd models.StudentUpdate) error
	Deactivate(ctx context.Context, teacherID, studentID string) error
	AddTokens(ctx context.Context, teacherID, studentID string, amount int) (int, error)
	Purchase(ctx context.Context, teacherID, studentID string, p models.Purchase) (int, error)
}

// SessionStore persists daily attendance sessions
type SessionStore interface {
	GetForDay(ctx context.Context, teacherID, studentID string, day time.Time) (*models.DailySession, error)
	ListForDay(ctx context.Context, teacherID string, day time.Time) ([]models.DailySession, error)
	RecordCheckIn(ctx context.Context, teacherID, studentID string, day time.Time, group string) (*models.DailySession, error)
	AddBonus(ctx context.Context, teacherID, studentID string, day time.Time, amount int) (bool, error)
}

// GoalStore persists weekly goals
type GoalStore interface {
	ListActive(ctx context.Context, teacherID string, weekOf time.Time) ([]models.WeeklyGoal, error)
	Upsert(ctx context.Context, g *models.WeeklyGoal) error
	InsertBatch(ctx context.Context, goals []models.WeeklyGoal) error
	ListWeeks(ctx context.Context, teacherID string, limit int) ([]models.GoalWeek, error)
}

// GoalCache is an optional read-through cache for a teacher's goals of one week.
// Entries are kept per version; Invalidate advances the version.
type GoalCache interface {
	Version(ctx context.Context, teacherID, weekKey string) (int64, error)
	Get(ctx context.Context, teacherID, weekKey string, version int64) ([]models.WeeklyGoal, error)
	Set(ctx context.Context, teacherID, weekKey string, version int64, goals []models.WeeklyGoal) error
	Invalidate(ctx context.Context, teacherID, weekKey string) error
}
