package models

import "time"

// DailySession is the single attendance record of a student for one calendar day
type DailySession struct {
	ID               string
	StudentID        string
	TeacherID        string
	Day              time.Time
	SubjectsAttended []string
	TokensEarned     int
	Present          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasAttended reports whether the subject was already checked in this day
func (s *DailySession) HasAttended(group string) bool {
	return contains(s.SubjectsAttended, group)
}
