package service

import (
	"context"
	"log"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/models"
	"resourceroom/internal/validation"
)

// CheckInResult is the outcome of an accepted check-in
type CheckInResult struct {
	TokensEarned int
	TotalTokens  int
}

// AttendanceService records daily attendance and the token each new subject earns
type AttendanceService struct {
	students *StudentService
	store    StudentStore
	sessions SessionStore
	clock    calendar.Clock
	loc      *time.Location
}

// NewAttendanceService creates a new attendance service. Days are computed from clock in loc.
func NewAttendanceService(students *StudentService, store StudentStore, sessions SessionStore, clock calendar.Clock, loc *time.Location) *AttendanceService {
	return &AttendanceService{
		students: students,
		store:    store,
		sessions: sessions,
		clock:    clock,
		loc:      loc,
	}
}

func (s *AttendanceService) today() time.Time {
	return calendar.DayStart(s.clock.Now(), s.loc)
}

// CheckIn marks the student present in group for today and awards one token. A second
// check-in to the same group on the same day returns ErrAlreadyCheckedIn and awards nothing.
func (s *AttendanceService) CheckIn(ctx context.Context, teacherID, studentID, group string) (*CheckInResult, error) {
	group = models.NormalizeGroup(group)
	if group == "" {
		return nil, validation.New("group", "is required")
	}
	if !models.IsValidGroup(group) {
		return nil, validation.New("group", "unknown group: "+group)
	}

	student, err := s.students.GetStudent(ctx, teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if !student.IsEnrolled(group) {
		return nil, ErrNotEnrolled
	}

	if _, err := s.sessions.RecordCheckIn(ctx, teacherID, studentID, s.today(), group); err != nil {
		return nil, translate(err, "record check-in")
	}

	total, err := s.store.AddTokens(ctx, teacherID, studentID, 1)
	if err != nil {
		log.Printf("Check-in recorded but token credit failed (teacher=%s student=%s group=%s): %v", teacherID, studentID, group, err)
		return nil, translate(err, "credit check-in token")
	}

	return &CheckInResult{TokensEarned: 1, TotalTokens: total}, nil
}

// ListWithToday returns every active student joined with today's attendance
func (s *AttendanceService) ListWithToday(ctx context.Context, teacherID string) ([]models.StudentWithToday, error) {
	students, err := s.students.ListStudents(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListForDay(ctx, teacherID, s.today())
	if err != nil {
		return nil, translate(err, "list today's sessions")
	}
	byStudent := make(map[string]models.DailySession, len(sessions))
	for _, session := range sessions {
		byStudent[session.StudentID] = session
	}

	out := make([]models.StudentWithToday, 0, len(students))
	for _, student := range students {
		row := models.StudentWithToday{Student: student, TodaySubjects: []string{}}
		if session, ok := byStudent[student.ID]; ok {
			row.TodayTokens = session.TokensEarned
			row.Present = session.Present
			if session.SubjectsAttended != nil {
				row.TodaySubjects = session.SubjectsAttended
			}
		}
		out = append(out, row)
	}
	return out, nil
}
