package models

import "math"

// DefaultXpBase is the base constant of the quadratic level curve.
const DefaultXpBase = 100

// ComputeLevel returns floor(sqrt(totalXp / base)) for base > 0.
func ComputeLevel(totalXp int64, base int) int {
	if base <= 0 || totalXp <= 0 {
		return 0
	}
	return int(math.Floor(math.Sqrt(float64(totalXp) / float64(base))))
}

// XpForLevel returns the total XP required to reach level n: base * n².
func XpForLevel(n, base int) int64 {
	if n <= 0 || base <= 0 {
		return 0
	}
	return int64(base) * int64(n) * int64(n)
}

// LevelTitle maps an inclusive level range to a display title.
type LevelTitle struct {
	MinLevel int
	MaxLevel int
	Title    string
}

// levelTitles is ordered most specific first; the open-ended catch-all is
// last so it never shadows a narrower range.
var levelTitles = []LevelTitle{
	{MinLevel: 0, MaxLevel: 2, Title: "Newcomer"},
	{MinLevel: 3, MaxLevel: 5, Title: "Apprentice"},
	{MinLevel: 6, MaxLevel: 9, Title: "Journeyman"},
	{MinLevel: 10, MaxLevel: 14, Title: "Artisan"},
	{MinLevel: 15, MaxLevel: math.MaxInt32, Title: "Master"},
}

// TitleForLevel resolves the display title for a level. The first range
// whose [MinLevel, MaxLevel] contains the level wins.
func TitleForLevel(level int) string {
	for _, t := range levelTitles {
		if level >= t.MinLevel && level <= t.MaxLevel {
			return t.Title
		}
	}
	return ""
}

// LevelInfo is the derived leveling view of a user's XP total.
type LevelInfo struct {
	UserID         uint   `json:"user_id"`
	TotalXp        int64  `json:"total_xp"`
	Level          int    `json:"level"`
	Title          string `json:"title"`
	CurrentXp      int64  `json:"current_xp"`
	XpForNextLevel int64  `json:"xp_for_next_level"`
}

// NewLevelInfo derives the leveling view from a cached total.
func NewLevelInfo(userID uint, totalXp int64, base int) LevelInfo {
	level := ComputeLevel(totalXp, base)
	floor := XpForLevel(level, base)
	ceil := XpForLevel(level+1, base)
	return LevelInfo{
		UserID:         userID,
		TotalXp:        totalXp,
		Level:          level,
		Title:          TitleForLevel(level),
		CurrentXp:      totalXp - floor,
		XpForNextLevel: ceil - floor,
	}
}
