package engine

import (
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

// Evolution thresholds on cumulative age.
const (
	TChild = 60 * time.Second
	TAdult = 48 * time.Hour
)

// Stager advances the discrete life stage from cumulative age. Transitions
// are one-directional and idempotent.
type Stager struct {
	rng Rand
}

// NewStager creates an evolution stager.
func NewStager(rng Rand) *Stager {
	return &Stager{rng: rng}
}

// Advance checks the record against the thresholds and applies at most one
// transition per call. It returns whether anything changed.
func (s *Stager) Advance(rec *pet.Record) bool {
	switch rec.Stage {
	case pet.StageEgg:
		if rec.AgeElapsed >= TChild {
			rec.Stage = pet.StageJuvenile
			rec.Variant = pet.JuvenileVariants[s.rng.Intn(len(pet.JuvenileVariants))]
			return true
		}
	case pet.StageJuvenile:
		if rec.AgeElapsed >= TAdult {
			rec.Stage = pet.StageAdult
			rec.Variant = adultFormOf(rec.Variant)
			return true
		}
	}
	return false
}

// Hatch performs the egg transition with a caller-chosen variant instead of
// a random roll. No-op unless the threshold is reached and the variant is a
// known juvenile form.
func (s *Stager) Hatch(rec *pet.Record, v pet.Variant) bool {
	if rec.Stage != pet.StageEgg || rec.AgeElapsed < TChild {
		return false
	}
	if _, ok := pet.AdultForm[v]; !ok {
		return false
	}
	rec.Stage = pet.StageJuvenile
	rec.Variant = v
	return true
}

// Force re-rolls a juvenile's variant. This is the only path that changes a
// variant after the egg transition.
func (s *Stager) Force(rec *pet.Record) bool {
	if rec.Stage != pet.StageJuvenile {
		return false
	}
	rec.Variant = pet.JuvenileVariants[s.rng.Intn(len(pet.JuvenileVariants))]
	return true
}

func adultFormOf(v pet.Variant) pet.Variant {
	if adult, ok := pet.AdultForm[v]; ok {
		return adult
	}
	// Unknown juvenile variant from an old record: fall back to the first
	// mapping instead of failing the transition.
	return pet.AdultForm[pet.JuvenileVariants[0]]
}
