package service

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"resourceroom/internal/models"
	"resourceroom/internal/validation"
)

// normalizeTimeout bounds a background group write, which outlives its request
const normalizeTimeout = 10 * time.Second

// AddStudentInput describes a new enrollment
type AddStudentInput struct {
	Name            string
	Groups          []string
	PrimaryGroup    string
	SkillsCompleted *int
	TotalSkills     *int
}

// StudentService handles the roster: enrollment, group membership and soft deletion
type StudentService struct {
	students StudentStore
	wg       sync.WaitGroup
}

// NewStudentService creates a new student service
func NewStudentService(students StudentStore) *StudentService {
	return &StudentService{students: students}
}

// ListStudents returns the teacher's active students with canonical groups, sorted by name
func (s *StudentService) ListStudents(ctx context.Context, teacherID string) ([]models.Student, error) {
	students, err := s.students.ListActive(ctx, teacherID)
	if err != nil {
		return nil, translate(err, "list students")
	}
	for i := range students {
		s.resolve(&students[i])
	}
	return students, nil
}

// GetStudent returns one active student with canonical groups
func (s *StudentService) GetStudent(ctx context.Context, teacherID, studentID string) (*models.Student, error) {
	student, err := s.students.GetActive(ctx, teacherID, studentID)
	if err != nil {
		return nil, translate(err, "get student")
	}
	s.resolve(student)
	return student, nil
}

// resolve canonicalizes the student's groups in place and, when they changed, writes
// them back in the background. The write only applies if the stored groups are still
// the ones that were read, so it never overwrites a concurrent UpdateGroups.
func (s *StudentService) resolve(student *models.Student) {
	from := student.Assignment()
	if !models.ApplyCanonicalGroups(student) {
		return
	}

	teacherID, studentID := student.TeacherID, student.ID
	to := student.Assignment()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), normalizeTimeout)
		defer cancel()
		applied, err := s.students.ReplaceGroups(ctx, teacherID, studentID, from, to)
		if err != nil {
			log.Printf("Group normalization failed for student %s: %v", studentID, err)
			return
		}
		if !applied {
			log.Printf("[DEBUG] Group normalization skipped for student %s: record changed since read", studentID)
		}
	}()
}

// Wait blocks until background group writes have finished
func (s *StudentService) Wait() {
	s.wg.Wait()
}

// AddStudent enrolls a new student. The name is stored uppercased and must be unique
// among the teacher's active students.
func (s *StudentService) AddStudent(ctx context.Context, teacherID string, in AddStudentInput) (*models.Student, error) {
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, err
	}
	name := normalizeName(in.Name)

	groups, primary, err := validateGroups(in.Groups, in.PrimaryGroup)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		TeacherID:    teacherID,
		Name:         name,
		Groups:       groups,
		PrimaryGroup: primary,
		TotalSkills:  10,
	}
	if in.SkillsCompleted != nil {
		if *in.SkillsCompleted < 0 {
			return nil, validation.New("skillsCompleted", "must be 0 or more")
		}
		student.SkillsCompleted = *in.SkillsCompleted
	}
	if in.TotalSkills != nil {
		if *in.TotalSkills < 1 {
			return nil, validation.New("totalSkills", "must be at least 1")
		}
		student.TotalSkills = *in.TotalSkills
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, translate(err, "add student")
	}
	return student, nil
}

// UpdateGroups replaces a student's group set. The primary group defaults to the first
// group and must be one of them.
func (s *StudentService) UpdateGroups(ctx context.Context, teacherID, studentID string, groups []string, primary string) (*models.Student, error) {
	canonical, canonicalPrimary, err := validateGroups(groups, primary)
	if err != nil {
		return nil, err
	}
	if err := s.students.SetGroups(ctx, teacherID, studentID, canonical, canonicalPrimary); err != nil {
		return nil, translate(err, "update student groups")
	}
	return s.GetStudent(ctx, teacherID, studentID)
}

// UpdateStudent changes the name or skill counters. Balances only move through
// check-ins, bonuses and purchases.
func (s *StudentService) UpdateStudent(ctx context.Context, teacherID, studentID string, upd models.StudentUpdate) (*models.Student, error) {
	if upd.Name != nil {
		if err := validation.ValidateName(*upd.Name); err != nil {
			return nil, err
		}
		name := normalizeName(*upd.Name)
		upd.Name = &name
	}
	if upd.SkillsCompleted != nil && *upd.SkillsCompleted < 0 {
		return nil, validation.New("skillsCompleted", "must be 0 or more")
	}
	if upd.TotalSkills != nil && *upd.TotalSkills < 1 {
		return nil, validation.New("totalSkills", "must be at least 1")
	}

	if !upd.IsEmpty() {
		if err := s.students.Update(ctx, teacherID, studentID, upd); err != nil {
			return nil, translate(err, "update student")
		}
	}
	return s.GetStudent(ctx, teacherID, studentID)
}

// DeactivateStudent soft-deletes a student
func (s *StudentService) DeactivateStudent(ctx context.Context, teacherID, studentID string) error {
	return translate(s.students.Deactivate(ctx, teacherID, studentID), "deactivate student")
}

// MigrateLegacyGroups rewrites every active student whose stored groups are not
// canonical and returns how many were rewritten
func (s *StudentService) MigrateLegacyGroups(ctx context.Context, teacherID string) (int, error) {
	students, err := s.students.ListActive(ctx, teacherID)
	if err != nil {
		return 0, translate(err, "list students")
	}

	migrated := 0
	for i := range students {
		groups, primary, changed := models.ResolveGroups(&students[i])
		if !changed {
			continue
		}
		to := models.GroupAssignment{Groups: groups, Primary: primary}
		applied, err := s.students.ReplaceGroups(ctx, teacherID, students[i].ID, students[i].Assignment(), to)
		if err != nil {
			return migrated, translate(err, "migrate student groups")
		}
		if applied {
			migrated++
		}
	}

	log.Printf("Group migration for teacher %s: %d of %d students updated", teacherID, migrated, len(students))
	return migrated, nil
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// validateGroups normalizes a requested group set and primary group
func validateGroups(groups []string, primary string) ([]string, string, error) {
	canonical := models.NormalizeGroups(groups)
	if len(canonical) == 0 {
		return nil, "", validation.New("groups", "at least one group is required")
	}
	for _, g := range canonical {
		if !models.IsValidGroup(g) {
			return nil, "", validation.New("groups", "unknown group: "+g)
		}
	}

	p := models.NormalizeGroup(primary)
	if p == "" {
		return canonical, canonical[0], nil
	}
	for _, g := range canonical {
		if g == p {
			return canonical, p, nil
		}
	}
	return nil, "", validation.New("primaryGroup", "must be one of the selected groups")
}
