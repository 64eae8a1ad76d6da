package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"resourceroom/internal/cache"
	"resourceroom/internal/calendar"
	"resourceroom/internal/models"
)

// MaxGoalWeeks caps the goal history listing
const MaxGoalWeeks = 10

// maxGoalGroupLength matches the width of the stored group column
const maxGoalGroupLength = 32

// GoalService schedules one goal per subject group per week
type GoalService struct {
	goals GoalStore
	cache GoalCache
	clock calendar.Clock
	loc   *time.Location
}

// NewGoalService creates a new goal service. cache may be nil.
func NewGoalService(goals GoalStore, cache GoalCache, clock calendar.Clock, loc *time.Location) *GoalService {
	return &GoalService{
		goals: goals,
		cache: cache,
		clock: clock,
		loc:   loc,
	}
}

// CurrentWeek returns the Monday starting the current week
func (s *GoalService) CurrentWeek() time.Time {
	return calendar.WeekStart(s.clock.Now(), s.loc)
}

// CurrentGoals returns this week's goals keyed by group. Groups without a goal are absent.
func (s *GoalService) CurrentGoals(ctx context.Context, teacherID string) (map[string]models.WeeklyGoal, error) {
	return s.goalsFor(ctx, teacherID, s.CurrentWeek())
}

// GoalsForWeek returns the Monday of the week containing date and that week's goals
func (s *GoalService) GoalsForWeek(ctx context.Context, teacherID string, date time.Time) (time.Time, map[string]models.WeeklyGoal, error) {
	week := calendar.WeekStart(date, s.loc)
	goals, err := s.goalsFor(ctx, teacherID, week)
	if err != nil {
		return time.Time{}, nil, err
	}
	return week, goals, nil
}

// SetCurrentGoals upserts this week's goals. Known groups are written first, in display order,
// then any other keys sorted. Entries missing a topic or goal are skipped. It returns how many
// goals were written.
func (s *GoalService) SetCurrentGoals(ctx context.Context, teacherID string, input map[string]models.GoalInput) (int, error) {
	byGroup := make(map[string]models.GoalInput, len(input))
	var extra []string
	for group, in := range input {
		g := models.NormalizeGroup(group)
		if g == "" || len(g) > maxGoalGroupLength {
			continue
		}
		if _, seen := byGroup[g]; !seen && !models.IsValidGroup(g) {
			extra = append(extra, g)
		}
		byGroup[g] = in
	}
	sort.Strings(extra)

	week := s.CurrentWeek()
	written := 0
	for _, group := range append(append([]string(nil), models.AllGroups...), extra...) {
		in, ok := byGroup[group]
		if !ok {
			continue
		}
		topic, goal := strings.TrimSpace(in.Topic), strings.TrimSpace(in.Goal)
		if topic == "" || goal == "" {
			continue
		}
		icon := strings.TrimSpace(in.Icon)
		if icon == "" {
			icon = models.DefaultIcon(group)
		}

		err := s.goals.Upsert(ctx, &models.WeeklyGoal{
			TeacherID: teacherID,
			Group:     group,
			Topic:     topic,
			Goal:      goal,
			Icon:      icon,
			WeekOf:    week,
		})
		if err != nil {
			s.invalidate(ctx, teacherID, week)
			return written, translate(err, "save goal")
		}
		written++
	}

	s.invalidate(ctx, teacherID, week)
	return written, nil
}

// ListWeeks returns the most recent weeks that have goals, newest first
func (s *GoalService) ListWeeks(ctx context.Context, teacherID string) ([]models.GoalWeek, error) {
	weeks, err := s.goals.ListWeeks(ctx, teacherID, MaxGoalWeeks)
	if err != nil {
		return nil, translate(err, "list goal weeks")
	}
	return weeks, nil
}

// SeedDefaults writes the starter goal of every group for the current week in one batch
func (s *GoalService) SeedDefaults(ctx context.Context, teacherID string) error {
	week := s.CurrentWeek()
	batch := make([]models.WeeklyGoal, 0, len(models.AllGroups))
	for _, group := range models.AllGroups {
		def := models.DefaultGoals[group]
		batch = append(batch, models.WeeklyGoal{
			TeacherID: teacherID,
			Group:     group,
			Topic:     def.Topic,
			Goal:      def.Goal,
			Icon:      models.DefaultIcon(group),
			WeekOf:    week,
		})
	}

	if err := s.goals.InsertBatch(ctx, batch); err != nil {
		return translate(err, "seed default goals")
	}
	s.invalidate(ctx, teacherID, week)
	return nil
}

func (s *GoalService) goalsFor(ctx context.Context, teacherID string, week time.Time) (map[string]models.WeeklyGoal, error) {
	key := calendar.Key(week, s.loc)

	// The version is read before the store so a fill racing a write lands on a
	// generation the write has already retired.
	version, cached := int64(0), false
	if s.cache != nil {
		v, err := s.cache.Version(ctx, teacherID, key)
		if err != nil {
			log.Printf("Goal cache version read failed for %s: %v", cache.GoalKey(teacherID, key), err)
		} else {
			version, cached = v, true
			goals, err := s.cache.Get(ctx, teacherID, key, version)
			if err == nil {
				return byGroup(goals), nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				log.Printf("Goal cache read failed for %s: %v", cache.GoalKey(teacherID, key), err)
			}
		}
	}

	goals, err := s.goals.ListActive(ctx, teacherID, week)
	if err != nil {
		return nil, translate(err, "list goals")
	}

	if cached {
		if err := s.cache.Set(ctx, teacherID, key, version, goals); err != nil {
			log.Printf("Goal cache write failed for %s: %v", cache.GoalKey(teacherID, key), err)
		}
	}
	return byGroup(goals), nil
}

func (s *GoalService) invalidate(ctx context.Context, teacherID string, week time.Time) {
	if s.cache == nil {
		return
	}
	key := calendar.Key(week, s.loc)
	if err := s.cache.Invalidate(ctx, teacherID, key); err != nil {
		log.Printf("Goal cache invalidation failed for %s: %v", cache.GoalKey(teacherID, key), err)
	}
}

func byGroup(goals []models.WeeklyGoal) map[string]models.WeeklyGoal {
	out := make(map[string]models.WeeklyGoal, len(goals))
	for _, g := range goals {
		out[g.Group] = g
	}
	return out
}
