package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/models"
)

// ExportVersion identifies the roster export format
const ExportVersion = "1.0"

// RosterExport is a read-only snapshot of every active teacher's classroom
type RosterExport struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Teachers   []TeacherExport `json:"teachers"`
}

// TeacherExport holds one teacher's roster and recent goals. Password hashes are omitted.
type TeacherExport struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	School   string          `json:"school,omitempty"`
	Students []StudentExport `json:"students"`
	Goals    []GoalExport    `json:"goals"`
}

// StudentExport is a student record with canonical groups and purchase history
type StudentExport struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Groups          []string         `json:"groups"`
	PrimaryGroup    string           `json:"primaryGroup"`
	SkillsCompleted int              `json:"skillsCompleted"`
	TotalSkills     int              `json:"totalSkills"`
	Tokens          int              `json:"tokens"`
	Purchases       []PurchaseExport `json:"purchases"`
}

// PurchaseExport is one purchase
type PurchaseExport struct {
	Item        string    `json:"item"`
	Cost        int       `json:"cost"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

// GoalExport is one weekly goal
type GoalExport struct {
	WeekOf string `json:"weekOf"`
	Group  string `json:"group"`
	Topic  string `json:"topic"`
	Goal   string `json:"goal"`
	Icon   string `json:"icon"`
}

// ExportService writes roster snapshots for the maintenance tool
type ExportService struct {
	teachers TeacherStore
	students StudentStore
	goals    GoalStore
	loc      *time.Location
}

// NewExportService creates a new export service
func NewExportService(teachers TeacherStore, students StudentStore, goals GoalStore, loc *time.Location) *ExportService {
	return &ExportService{
		teachers: teachers,
		students: students,
		goals:    goals,
		loc:      loc,
	}
}

// Export builds the snapshot of all active teachers
func (s *ExportService) Export(ctx context.Context) (*RosterExport, error) {
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, translate(err, "list teachers")
	}

	out := &RosterExport{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Teachers:   make([]TeacherExport, 0, len(teachers)),
	}
	for i := range teachers {
		te, err := s.exportTeacher(ctx, &teachers[i])
		if err != nil {
			return nil, fmt.Errorf("failed to export teacher %s: %w", teachers[i].Username, err)
		}
		out.Teachers = append(out.Teachers, *te)
	}
	return out, nil
}

// ExportToWriter writes the snapshot as indented JSON
func (s *ExportService) ExportToWriter(ctx context.Context, w io.Writer) error {
	export, err := s.Export(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	students := 0
	for _, t := range export.Teachers {
		students += len(t.Students)
	}
	log.Printf("Exported %d teachers, %d students", len(export.Teachers), students)
	return nil
}

func (s *ExportService) exportTeacher(ctx context.Context, t *models.Teacher) (*TeacherExport, error) {
	te := &TeacherExport{
		ID:       t.ID,
		Username: t.Username,
		Email:    t.Email,
		Name:     t.FullName(),
		School:   t.School,
		Students: []StudentExport{},
		Goals:    []GoalExport{},
	}

	students, err := s.students.ListActive(ctx, t.ID)
	if err != nil {
		return nil, translate(err, "list students")
	}
	for i := range students {
		st := &students[i]
		models.ApplyCanonicalGroups(st)
		se := StudentExport{
			ID:              st.ID,
			Name:            st.Name,
			Groups:          st.Groups,
			PrimaryGroup:    st.PrimaryGroup,
			SkillsCompleted: st.SkillsCompleted,
			TotalSkills:     st.TotalSkills,
			Tokens:          st.Tokens,
			Purchases:       make([]PurchaseExport, 0, len(st.Purchases)),
		}
		for _, p := range st.Purchases {
			se.Purchases = append(se.Purchases, PurchaseExport{Item: p.Item, Cost: p.Cost, PurchasedAt: p.PurchasedAt})
		}
		te.Students = append(te.Students, se)
	}

	weeks, err := s.goals.ListWeeks(ctx, t.ID, MaxGoalWeeks)
	if err != nil {
		return nil, translate(err, "list goal weeks")
	}
	for _, w := range weeks {
		goals, err := s.goals.ListActive(ctx, t.ID, w.WeekOf)
		if err != nil {
			return nil, translate(err, "list goals")
		}
		for _, g := range goals {
			te.Goals = append(te.Goals, GoalExport{
				WeekOf: calendar.Key(g.WeekOf, s.loc),
				Group:  g.Group,
				Topic:  g.Topic,
				Goal:   g.Goal,
				Icon:   g.Icon,
			})
		}
	}
	return te, nil
}
