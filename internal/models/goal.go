package models

import "time"

// WeeklyGoal is a teacher's goal for one subject group during one week
type WeeklyGoal struct {
	ID        string
	TeacherID string
	Group     string
	Topic     string
	Goal      string
	Icon      string
	WeekOf    time.Time // Monday at local midnight
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GoalInput is the caller supplied content of a weekly goal
type GoalInput struct {
	Topic string
	Goal  string
	Icon  string
}

// GoalWeek summarises one week of goal history
type GoalWeek struct {
	WeekOf    time.Time
	GoalCount int
}

// GenericIcon is used for groups without a dedicated icon
const GenericIcon = "📚"

var groupIcons = map[string]string{
	GroupReading:  "📖",
	GroupMath:     "🔢",
	GroupWriting:  "✏️",
	GroupBehavior: "🤝",
}

// DefaultIcon returns the icon of a subject group
func DefaultIcon(group string) string {
	if icon, ok := groupIcons[group]; ok {
		return icon
	}
	return GenericIcon
}

// DefaultGoals are the starter goals seeded for a new teacher, one per group
var DefaultGoals = map[string]GoalInput{
	GroupReading:  {Topic: "2-syllable words", Goal: "Read 8 words correctly"},
	GroupMath:     {Topic: "Addition with regrouping", Goal: "Solve 10 problems correctly"},
	GroupWriting:  {Topic: "Complete sentences", Goal: "Write 5 complete sentences"},
	GroupBehavior: {Topic: "Asking for help politely", Goal: `Remember: "Excuse me, can you help me please?"`},
}
