package models

import "time"

// Student represents a student enrolled with a teacher
type Student struct {
	ID              string
	TeacherID       string
	Name            string
	Groups          []string
	PrimaryGroup    string
	LegacyGroup     string // single "group" field from the first schema, read-only
	SkillsCompleted int
	TotalSkills     int
	Tokens          int
	Purchases       []Purchase
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GroupAssignment is a student's group set and primary group as stored
type GroupAssignment struct {
	Groups  []string
	Primary string
}

// Assignment returns the stored group set and primary group
func (s *Student) Assignment() GroupAssignment {
	return GroupAssignment{
		Groups:  append([]string(nil), s.Groups...),
		Primary: s.PrimaryGroup,
	}
}

// Purchase is an append-only record of tokens spent by a student
type Purchase struct {
	Item        string
	Cost        int
	PurchasedAt time.Time
}

// StudentUpdate carries the optional fields of an update; nil means unchanged.
// Token balances change only through AddTokens and Purchase.
type StudentUpdate struct {
	Name            *string
	SkillsCompleted *int
	TotalSkills     *int
}

// IsEmpty reports whether the update changes nothing
func (u StudentUpdate) IsEmpty() bool {
	return u.Name == nil && u.SkillsCompleted == nil && u.TotalSkills == nil
}

// IsEnrolled reports whether the student may check in for group.
// It expects canonical groups (see ResolveGroups).
func (s *Student) IsEnrolled(group string) bool {
	if group == "" {
		return false
	}
	if s.PrimaryGroup == group {
		return true
	}
	for _, g := range s.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// StudentWithToday joins a student with today's attendance
type StudentWithToday struct {
	Student       Student
	TodayTokens   int
	TodaySubjects []string
	Present       bool
}
