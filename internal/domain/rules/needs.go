// Package rules contains the pure calculation logic for the simulation.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

// Decay rates, expressed as fraction lost per millisecond. Each constant is
// the reciprocal of the full-to-empty time under that condition.
const (
	msPerMinute = 60_000.0
	msPerHour   = 3_600_000.0

	// Hunger empties in ~90 minutes normally, ~1 minute under an active
	// catastrophe.
	hungerRate            = 1.0 / (90 * msPerMinute)
	hungerRateCatastrophe = 1.0 / (1 * msPerMinute)

	// Health empties in ~10 hours normally, ~7 minutes while sick.
	healthRate     = 1.0 / (10 * msPerHour)
	healthRateSick = 1.0 / (7 * msPerMinute)

	// Happiness empties in ~12 hours normally, ~8 minutes while sick.
	happinessRate     = 1.0 / (12 * msPerHour)
	happinessRateSick = 1.0 / (8 * msPerMinute)

	// Cleanliness empties in ~12 hours, ~5 hours while poop is present.
	cleanlinessRate      = 1.0 / (12 * msPerHour)
	cleanlinessRateDirty = 1.0 / (5 * msPerHour)
)

// DecayFlags parameterize a decay step.
type DecayFlags struct {
	Sick              bool
	CatastropheActive bool
	Dirty             bool // at least one poop on the field
}

// ApplyDecay subtracts one interval's worth of decay from each need and
// returns the clamped result. Pure function of (needs, dt, flags); negative
// or non-finite dt is treated as zero.
func ApplyDecay(n pet.Needs, dt time.Duration, f DecayFlags) pet.Needs {
	ms := float64(dt.Milliseconds())
	if ms < 0 || ms != ms {
		ms = 0
	}

	hr := hungerRate
	if f.CatastropheActive {
		hr = hungerRateCatastrophe
	}
	her := healthRate
	hap := happinessRate
	if f.Sick {
		her = healthRateSick
		hap = happinessRateSick
	}
	cr := cleanlinessRate
	if f.Dirty {
		cr = cleanlinessRateDirty
	}

	n.Hunger -= hr * ms
	n.Health -= her * ms
	n.Happiness -= hap * ms
	n.Cleanliness -= cr * ms
	n.Clamp()
	return n
}

// DeathCheck reports whether the needs after a decay step are fatal and,
// if so, the reason. Reason priority: starvation > active-catastrophe cause
// > illness > generic collapse.
func DeathCheck(n pet.Needs, f DecayFlags, catastropheCause string) (bool, pet.DeathReason) {
	starving := n.Hunger <= 0
	collapsed := n.Health <= 0
	if !starving && !collapsed {
		return false, pet.DeathNone
	}
	switch {
	case starving:
		return true, pet.DeathStarvation
	case f.CatastropheActive:
		return true, pet.CatastropheDeath(catastropheCause)
	case f.Sick:
		return true, pet.DeathIllness
	default:
		return true, pet.DeathCollapse
	}
}

// Boost floors and bonuses for the care actions.
const (
	PlayHappinessBoost = 0.20
	PlayHealthBoost    = 0.05

	CleanFloor          = 0.90
	CleanHappinessBoost = 0.02

	HealFloor    = 0.80
	HealCooldown = 5 * time.Minute
)

// ApplyFeed restores hunger and happiness per the food definition.
func ApplyFeed(n pet.Needs, def pet.FoodDefinition) pet.Needs {
	n.Hunger += def.Nutrition
	n.Happiness += def.Cheer
	n.Clamp()
	return n
}

// ApplyPlay lifts happiness and a little health.
func ApplyPlay(n pet.Needs) pet.Needs {
	n.Happiness += PlayHappinessBoost
	n.Health += PlayHealthBoost
	n.Clamp()
	return n
}

// ApplyClean raises cleanliness to at least the clean floor.
func ApplyClean(n pet.Needs) pet.Needs {
	if n.Cleanliness < CleanFloor {
		n.Cleanliness = CleanFloor
	}
	n.Happiness += CleanHappinessBoost
	n.Clamp()
	return n
}

// ApplyHeal raises health to at least the heal floor. Sickness clearing and
// the cooldown gate are the controller's job.
func ApplyHeal(n pet.Needs) pet.Needs {
	if n.Health < HealFloor {
		n.Health = HealFloor
	}
	n.Clamp()
	return n
}
