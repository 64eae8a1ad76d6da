package handlers

import (
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/models"
)

// Requests

type registerRequest struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	School           string `json:"school"`
	RegistrationCode string `json:"registrationCode"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type addStudentRequest struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Groups          []string `json:"groups" validate:"omitempty,dive,required"`
	PrimaryGroup    string   `json:"primaryGroup"`
	Group           string   `json:"group"`
	SkillsCompleted *int     `json:"skillsCompleted" validate:"omitempty,min=0"`
	TotalSkills     *int     `json:"totalSkills" validate:"omitempty,min=1"`
}

type updateGroupsRequest struct {
	Groups       []string `json:"groups" validate:"required,min=1,dive,required"`
	PrimaryGroup string   `json:"primaryGroup"`
}

type updateStudentRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	SkillsCompleted *int    `json:"skillsCompleted" validate:"omitempty,min=0"`
	TotalSkills     *int    `json:"totalSkills" validate:"omitempty,min=1"`
}

type checkInRequest struct {
	Group string `json:"group" validate:"required"`
}

type bonusRequest struct {
	Amount int    `json:"amount" validate:"gt=0"`
	Reason string `json:"reason"`
}

type purchaseRequest struct {
	Item string `json:"item" validate:"required"`
	Cost int    `json:"cost" validate:"gt=0"`
}

type goalInputView struct {
	Topic string `json:"topic"`
	Goal  string `json:"goal"`
	Icon  string `json:"icon,omitempty"`
}

type setGoalsRequest struct {
	Goals map[string]goalInputView `json:"goals" validate:"required"`
}

// Responses

type teacherView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	School    string `json:"school,omitempty"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	Teacher teacherView `json:"teacher"`
}

type purchaseView struct {
	Item        string    `json:"item"`
	Cost        int       `json:"cost"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

type studentView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Groups          []string       `json:"groups"`
	PrimaryGroup    string         `json:"primaryGroup"`
	Group           string         `json:"group"` // older clients read a single group
	SkillsCompleted int            `json:"skillsCompleted"`
	TotalSkills     int            `json:"totalSkills"`
	Tokens          int            `json:"tokens"`
	Purchases       []purchaseView `json:"purchases"`
	TodayTokens     int            `json:"todayTokens"`
	TodaySubjects   []string       `json:"todaySubjects"`
	Present         bool           `json:"present"`
	CreatedAt       time.Time      `json:"createdAt"`
}

type goalView struct {
	Topic string `json:"topic"`
	Goal  string `json:"goal"`
	Icon  string `json:"icon"`
}

type goalWeekView struct {
	WeekOf    string `json:"weekOf"`
	GoalCount int    `json:"goalCount"`
}

func newTeacherView(t *models.Teacher) teacherView {
	return teacherView{
		ID:        t.ID,
		Username:  t.Username,
		Email:     t.Email,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		School:    t.School,
	}
}

func newStudentView(s *models.Student) studentView {
	v := studentView{
		ID:              s.ID,
		Name:            s.Name,
		Groups:          s.Groups,
		PrimaryGroup:    s.PrimaryGroup,
		Group:           s.PrimaryGroup,
		SkillsCompleted: s.SkillsCompleted,
		TotalSkills:     s.TotalSkills,
		Tokens:          s.Tokens,
		Purchases:       make([]purchaseView, 0, len(s.Purchases)),
		TodaySubjects:   []string{},
		CreatedAt:       s.CreatedAt,
	}
	if v.Groups == nil {
		v.Groups = []string{}
	}
	for _, p := range s.Purchases {
		v.Purchases = append(v.Purchases, purchaseView{Item: p.Item, Cost: p.Cost, PurchasedAt: p.PurchasedAt})
	}
	return v
}

func newStudentWithTodayView(row *models.StudentWithToday) studentView {
	v := newStudentView(&row.Student)
	v.TodayTokens = row.TodayTokens
	v.Present = row.Present
	if row.TodaySubjects != nil {
		v.TodaySubjects = row.TodaySubjects
	}
	return v
}

func newGoalsView(goals map[string]models.WeeklyGoal) map[string]goalView {
	out := make(map[string]goalView, len(goals))
	for group, g := range goals {
		out[group] = goalView{Topic: g.Topic, Goal: g.Goal, Icon: g.Icon}
	}
	return out
}

func newGoalWeeksView(weeks []models.GoalWeek, loc *time.Location) []goalWeekView {
	out := make([]goalWeekView, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, goalWeekView{WeekOf: calendar.Key(w.WeekOf, loc), GoalCount: w.GoalCount})
	}
	return out
}

func goalInputs(in map[string]goalInputView) map[string]models.GoalInput {
	out := make(map[string]models.GoalInput, len(in))
	for group, g := range in {
		out[group] = models.GoalInput{Topic: g.Topic, Goal: g.Goal, Icon: g.Icon}
	}
	return out
}
