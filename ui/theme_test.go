package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kasuganosora/gjtracker/tracker"
)

func TestNew_FallsBackToLight(t *testing.T) {
	assert.Equal(t, "light", New(tracker.Settings{Theme: "neon"}).Name)
	for _, name := range tracker.Themes {
		assert.Equal(t, name, New(tracker.Settings{Theme: name}).Name)
	}
}

func TestGrade(t *testing.T) {
	th := New(tracker.Settings{Theme: "dark"})
	for lvl, want := range []string{"F", "D", "C", "B", "A-", "A", "S", "Z"} {
		assert.Contains(t, th.Grade(lvl), want)
	}
}

func TestItemLine(t *testing.T) {
	it := &tracker.Item{ID: "skill_fox_trot", Name: "Fox Trot", Type: tracker.TypeSkill, Level: 6, Tier: 2, Enhanced: true}

	plain := New(tracker.Settings{Theme: "light"}).ItemLine(it)
	assert.Contains(t, plain, "Fox Trot")
	assert.Contains(t, plain, "(skill_fox_trot)")
	assert.Contains(t, plain, "tier 2")
	assert.Contains(t, plain, "enhanced")
	assert.NotContains(t, plain, "🦊")

	fancy := New(tracker.Settings{Theme: "orange", Emojis: true}).ItemLine(it)
	assert.True(t, strings.HasPrefix(fancy, IconSkill))
	assert.Contains(t, fancy, "🦊")
}

func TestOutcome(t *testing.T) {
	th := New(tracker.Settings{})
	assert.Contains(t, th.Outcome("A", tracker.LevelUpResult{From: 1, To: 2, Outcome: tracker.OutcomeLeveledUp}), "level 1 → 2")
	assert.Contains(t, th.Outcome("A", tracker.LevelUpResult{To: 6, Outcome: tracker.OutcomeCapped}), "held at level 6")
	assert.Contains(t, th.Outcome("A", tracker.LevelUpResult{Outcome: tracker.OutcomeBlocked}), "prerequisites not met")
}
