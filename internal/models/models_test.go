package models

import (
	"reflect"
	"testing"
)

func TestResolveGroups(t *testing.T) {
	tests := []struct {
		name        string
		student     Student
		wantGroups  []string
		wantPrimary string
		wantChanged bool
	}{
		{
			name:        "canonical record is left alone",
			student:     Student{Groups: []string{"math", "reading"}, PrimaryGroup: "reading"},
			wantGroups:  []string{"math", "reading"},
			wantPrimary: "reading",
			wantChanged: false,
		},
		{
			name:        "primary outside groups falls back to first group",
			student:     Student{Groups: []string{"writing", "math"}, PrimaryGroup: "behavior"},
			wantGroups:  []string{"writing", "math"},
			wantPrimary: "writing",
			wantChanged: true,
		},
		{
			name:        "missing primary takes first group",
			student:     Student{Groups: []string{"behavior"}},
			wantGroups:  []string{"behavior"},
			wantPrimary: "behavior",
			wantChanged: true,
		},
		{
			name:        "groups win over legacy group",
			student:     Student{Groups: []string{"reading"}, PrimaryGroup: "reading", LegacyGroup: "math"},
			wantGroups:  []string{"reading"},
			wantPrimary: "reading",
			wantChanged: false,
		},
		{
			name:        "legacy single group",
			student:     Student{LegacyGroup: "math"},
			wantGroups:  []string{"math"},
			wantPrimary: "math",
			wantChanged: true,
		},
		{
			name:        "bare primary group",
			student:     Student{PrimaryGroup: "writing"},
			wantGroups:  []string{"writing"},
			wantPrimary: "writing",
			wantChanged: true,
		},
		{
			name:        "no group data defaults to reading",
			student:     Student{},
			wantGroups:  []string{"reading"},
			wantPrimary: "reading",
			wantChanged: true,
		},
		{
			name:        "mixed case and duplicates are cleaned",
			student:     Student{Groups: []string{" Math", "math", "READING"}, PrimaryGroup: "math"},
			wantGroups:  []string{"math", "reading"},
			wantPrimary: "math",
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, primary, changed := ResolveGroups(&tt.student)
			if !reflect.DeepEqual(groups, tt.wantGroups) {
				t.Errorf("groups = %v, want %v", groups, tt.wantGroups)
			}
			if primary != tt.wantPrimary {
				t.Errorf("primary = %q, want %q", primary, tt.wantPrimary)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestResolveGroupsIsIdempotent(t *testing.T) {
	s := Student{LegacyGroup: "math"}

	if !ApplyCanonicalGroups(&s) {
		t.Fatal("first resolution should report a change")
	}
	if ApplyCanonicalGroups(&s) {
		t.Error("second resolution should be a no-op")
	}
	if !reflect.DeepEqual(s.Groups, []string{"math"}) || s.PrimaryGroup != "math" {
		t.Errorf("got groups=%v primary=%q", s.Groups, s.PrimaryGroup)
	}
}

func TestStudentIsEnrolled(t *testing.T) {
	s := Student{Groups: []string{"math", "writing"}, PrimaryGroup: "math"}

	tests := []struct {
		group string
		want  bool
	}{
		{"math", true},
		{"writing", true},
		{"reading", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := s.IsEnrolled(tt.group); got != tt.want {
			t.Errorf("IsEnrolled(%q) = %v, want %v", tt.group, got, tt.want)
		}
	}
}

func TestDefaultIcon(t *testing.T) {
	for _, g := range AllGroups {
		if DefaultIcon(g) == GenericIcon {
			t.Errorf("group %q should have its own icon", g)
		}
	}
	if DefaultIcon("science") != GenericIcon {
		t.Error("unknown group should fall back to the generic icon")
	}
}

func TestDefaultGoalsCoverEveryGroup(t *testing.T) {
	for _, g := range AllGroups {
		goal, ok := DefaultGoals[g]
		if !ok {
			t.Errorf("no default goal for %q", g)
			continue
		}
		if goal.Topic == "" || goal.Goal == "" {
			t.Errorf("default goal for %q is incomplete", g)
		}
	}
}

func TestDailySessionHasAttended(t *testing.T) {
	s := DailySession{SubjectsAttended: []string{"reading"}}
	if !s.HasAttended("reading") {
		t.Error("expected reading to be attended")
	}
	if s.HasAttended("math") {
		t.Error("math was not attended")
	}
}

func TestStudentUpdateIsEmpty(t *testing.T) {
	if !(StudentUpdate{}).IsEmpty() {
		t.Error("zero update should be empty")
	}
	name := "ANA"
	if (StudentUpdate{Name: &name}).IsEmpty() {
		t.Error("update with a name is not empty")
	}
}
