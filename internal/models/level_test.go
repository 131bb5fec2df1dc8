package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLevel(t *testing.T) {
	cases := []struct {
		totalXp int64
		want    int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{399, 1},
		{400, 2},
		{899, 2},
		{900, 3},
		{10000, 10},
		{22500, 15},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ComputeLevel(tc.totalXp, DefaultXpBase), "totalXp=%d", tc.totalXp)
	}

	assert.Equal(t, 0, ComputeLevel(-50, DefaultXpBase), "negative totals clamp to level 0")
	assert.Equal(t, 0, ComputeLevel(1000, 0), "a zero base never divides")
}

func TestXpForLevelRoundTrips(t *testing.T) {
	for level := 0; level <= 20; level++ {
		threshold := XpForLevel(level, DefaultXpBase)
		assert.Equal(t, level, ComputeLevel(threshold, DefaultXpBase), "level %d threshold", level)
		if level > 0 {
			assert.Equal(t, level-1, ComputeLevel(threshold-1, DefaultXpBase), "just below level %d", level)
		}
	}
}

func TestTitleForLevel(t *testing.T) {
	cases := []struct {
		level int
		want  string
	}{
		{0, "Newcomer"},
		{2, "Newcomer"},
		{3, "Apprentice"},
		{5, "Apprentice"},
		{6, "Journeyman"},
		{9, "Journeyman"},
		{10, "Artisan"},
		{14, "Artisan"},
		{15, "Master"},
		{40, "Master"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TitleForLevel(tc.level), "level %d", tc.level)
	}
}

func TestNewLevelInfo(t *testing.T) {
	info := NewLevelInfo(7, 450, DefaultXpBase)
	assert.Equal(t, 2, info.Level)
	assert.Equal(t, "Newcomer", info.Title)
	assert.EqualValues(t, 50, info.CurrentXp)
	assert.EqualValues(t, 500, info.XpForNextLevel)
}
