package rules

import (
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

// Illness transition probabilities, per simulated minute. A step of a
// different duration scales these linearly so one-second online ticks and
// one-minute offline steps produce statistically comparable outcomes.
const (
	sickenBasePerMinute = 0.0005
	sickenPerPoopMinute = 0.002
	sickenDirtPerMinute = 0.003
	recoverPerMinute    = 0.002
)

// SickenChance returns the probability of becoming sick over dt, driven by
// poop count and low cleanliness.
func SickenChance(n pet.Needs, poops int, dt time.Duration) float64 {
	perMinute := sickenBasePerMinute +
		sickenPerPoopMinute*float64(poops) +
		sickenDirtPerMinute*(1-n.Cleanliness)
	return clampChance(perMinute * dt.Minutes())
}

// RecoverChance returns the probability of shaking the sickness over dt.
func RecoverChance(dt time.Duration) float64 {
	return clampChance(recoverPerMinute * dt.Minutes())
}

func clampChance(p float64) float64 {
	if p < 0 || p != p {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
