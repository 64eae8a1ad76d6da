package models

import "strings"

// Subject groups
const (
	GroupReading  = "reading"
	GroupMath     = "math"
	GroupWriting  = "writing"
	GroupBehavior = "behavior"
)

// AllGroups lists the subject groups in display order
var AllGroups = []string{GroupReading, GroupMath, GroupWriting, GroupBehavior}

// DefaultGroup is assigned to students that carry no group data at all
const DefaultGroup = GroupReading

// IsValidGroup reports whether g is a known subject group
func IsValidGroup(g string) bool {
	switch g {
	case GroupReading, GroupMath, GroupWriting, GroupBehavior:
		return true
	}
	return false
}

// NormalizeGroup trims and lowercases a group tag
func NormalizeGroup(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}

// NormalizeGroups lowercases, trims and de-duplicates tags, keeping first occurrence order
func NormalizeGroups(groups []string) []string {
	out := make([]string, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		g = NormalizeGroup(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

// ResolveGroups computes the canonical (groups, primary) pair for a student stored in any
// of the historical shapes: a groups set, a legacy single group, a bare primary group, or
// nothing at all. changed reports whether the canonical pair differs from what is stored,
// so callers persist only when needed and re-running on a canonical record is a no-op.
func ResolveGroups(s *Student) (groups []string, primary string, changed bool) {
	stored := NormalizeGroups(s.Groups)
	storedPrimary := NormalizeGroup(s.PrimaryGroup)

	switch {
	case len(stored) > 0:
		groups = stored
		primary = storedPrimary
		if !contains(groups, primary) {
			primary = groups[0]
		}
	case NormalizeGroup(s.LegacyGroup) != "":
		legacy := NormalizeGroup(s.LegacyGroup)
		groups = []string{legacy}
		primary = legacy
	case storedPrimary != "":
		groups = []string{storedPrimary}
		primary = storedPrimary
	default:
		groups = []string{DefaultGroup}
		primary = DefaultGroup
	}

	changed = primary != s.PrimaryGroup || !equalStrings(groups, s.Groups)
	return groups, primary, changed
}

// ApplyCanonicalGroups resolves the student's groups in place and reports whether they changed
func ApplyCanonicalGroups(s *Student) bool {
	groups, primary, changed := ResolveGroups(s)
	s.Groups = groups
	s.PrimaryGroup = primary
	return changed
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
