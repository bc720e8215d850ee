package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

func TestApplyDecayStaysInBounds(t *testing.T) {
	n := pet.DefaultNeeds()

	// A week of neglect in one step: everything bottoms out at zero,
	// nothing goes negative.
	out := ApplyDecay(n, 7*24*time.Hour, DecayFlags{Sick: true, Dirty: true})

	require.Equal(t, 0.0, out.Hunger)
	require.Equal(t, 0.0, out.Health)
	require.Equal(t, 0.0, out.Happiness)
	require.Equal(t, 0.0, out.Cleanliness)
}

func TestApplyDecayNegativeDeltaIsNoop(t *testing.T) {
	n := pet.DefaultNeeds()
	out := ApplyDecay(n, -time.Hour, DecayFlags{})
	require.Equal(t, n, out)
}

func TestApplyDecayHungerRate(t *testing.T) {
	n := pet.Needs{Hunger: 1.0, Health: 1.0, Happiness: 1.0, Cleanliness: 1.0}

	// Full hunger drains in 90 minutes under normal conditions.
	out := ApplyDecay(n, 45*time.Minute, DecayFlags{})
	require.InDelta(t, 0.5, out.Hunger, 1e-9)

	// Under an active catastrophe it drains in one minute.
	out = ApplyDecay(n, 30*time.Second, DecayFlags{CatastropheActive: true})
	require.InDelta(t, 0.5, out.Hunger, 1e-9)
}

func TestApplyDecaySickAcceleratesHealthAndHappiness(t *testing.T) {
	n := pet.Needs{Hunger: 1.0, Health: 1.0, Happiness: 1.0, Cleanliness: 1.0}

	healthy := ApplyDecay(n, time.Minute, DecayFlags{})
	sick := ApplyDecay(n, time.Minute, DecayFlags{Sick: true})

	require.Less(t, sick.Health, healthy.Health)
	require.Less(t, sick.Happiness, healthy.Happiness)
	// Hunger is unaffected by sickness.
	require.Equal(t, healthy.Hunger, sick.Hunger)
}

func TestDeathCheckPriority(t *testing.T) {
	tests := []struct {
		name   string
		needs  pet.Needs
		flags  DecayFlags
		cause  string
		dead   bool
		reason pet.DeathReason
	}{
		{
			name:  "alive",
			needs: pet.Needs{Hunger: 0.1, Health: 0.1},
			dead:  false,
		},
		{
			name:   "starvation beats catastrophe",
			needs:  pet.Needs{Hunger: 0, Health: 0},
			flags:  DecayFlags{CatastropheActive: true, Sick: true},
			cause:  "quake",
			dead:   true,
			reason: pet.DeathStarvation,
		},
		{
			name:   "catastrophe beats illness",
			needs:  pet.Needs{Hunger: 0.2, Health: 0},
			flags:  DecayFlags{CatastropheActive: true, Sick: true},
			cause:  "blizzard",
			dead:   true,
			reason: pet.CatastropheDeath("blizzard"),
		},
		{
			name:   "illness beats collapse",
			needs:  pet.Needs{Hunger: 0.2, Health: 0},
			flags:  DecayFlags{Sick: true},
			dead:   true,
			reason: pet.DeathIllness,
		},
		{
			name:   "generic collapse",
			needs:  pet.Needs{Hunger: 0.2, Health: 0},
			dead:   true,
			reason: pet.DeathCollapse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dead, reason := DeathCheck(tt.needs, tt.flags, tt.cause)
			require.Equal(t, tt.dead, dead)
			require.Equal(t, tt.reason, reason)
		})
	}
}

func TestApplyFeed(t *testing.T) {
	def, ok := pet.GetFood(pet.FoodMeal)
	require.True(t, ok)

	n := pet.Needs{Hunger: 0.5, Happiness: 0.5, Health: 0.5, Cleanliness: 0.5}
	out := ApplyFeed(n, def)

	require.InDelta(t, 0.5+def.Nutrition, out.Hunger, 1e-9)
	require.InDelta(t, 0.5+def.Cheer, out.Happiness, 1e-9)

	// Feeding near-full clamps at 1, never overflows.
	out = ApplyFeed(pet.Needs{Hunger: 0.95, Happiness: 0.99}, def)
	require.Equal(t, 1.0, out.Hunger)
	require.Equal(t, 1.0, out.Happiness)
}

func TestApplyCleanFloorsButNeverLowers(t *testing.T) {
	out := ApplyClean(pet.Needs{Cleanliness: 0.1})
	require.Equal(t, CleanFloor, out.Cleanliness)

	out = ApplyClean(pet.Needs{Cleanliness: 0.97})
	require.Equal(t, 0.97, out.Cleanliness)
}

func TestApplyHealFloorsButNeverLowers(t *testing.T) {
	out := ApplyHeal(pet.Needs{Health: 0.2})
	require.Equal(t, HealFloor, out.Health)

	out = ApplyHeal(pet.Needs{Health: 0.95})
	require.Equal(t, 0.95, out.Health)
}
