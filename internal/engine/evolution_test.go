package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

func TestAdvanceHoldsBelowThreshold(t *testing.T) {
	rec := pet.NewRecord("0xTEST", time.Now())
	rec.AgeElapsed = TChild - time.Millisecond

	s := NewStager(NewSeededRand(1))
	require.False(t, s.Advance(rec))
	require.Equal(t, pet.StageEgg, rec.Stage)
	require.Equal(t, pet.VariantNone, rec.Variant)
}

func TestAdvanceHatchesAtThreshold(t *testing.T) {
	rec := pet.NewRecord("0xTEST", time.Now())
	rec.AgeElapsed = TChild

	s := NewStager(NewSeededRand(1))
	require.True(t, s.Advance(rec))
	require.Equal(t, pet.StageJuvenile, rec.Stage)
	require.Contains(t, pet.JuvenileVariants, rec.Variant)

	// One transition per call: still juvenile until the adult threshold.
	require.False(t, s.Advance(rec))
	require.Equal(t, pet.StageJuvenile, rec.Stage)
}

func TestAdvanceToAdultIsDeterministic(t *testing.T) {
	rec := pet.NewRecord("0xTEST", time.Now())
	rec.Stage = pet.StageJuvenile
	rec.Variant = pet.JuvenileSpry
	rec.AgeElapsed = TAdult

	s := NewStager(NewSeededRand(1))
	require.True(t, s.Advance(rec))
	require.Equal(t, pet.StageAdult, rec.Stage)
	require.Equal(t, pet.AdultSwift, rec.Variant)

	// Adults never transition again.
	rec.AgeElapsed = 10 * TAdult
	require.False(t, s.Advance(rec))
	require.Equal(t, pet.StageAdult, rec.Stage)
	require.Equal(t, pet.AdultSwift, rec.Variant)
}

func TestHatchWithChosenVariant(t *testing.T) {
	rec := pet.NewRecord("0xTEST", time.Now())
	s := NewStager(NewSeededRand(1))

	require.False(t, s.Hatch(rec, pet.JuvenileGrub), "threshold not reached")

	rec.AgeElapsed = TChild
	require.False(t, s.Hatch(rec, pet.AdultBeast), "only juvenile forms hatch")
	require.True(t, s.Hatch(rec, pet.JuvenileGrub))
	require.Equal(t, pet.JuvenileGrub, rec.Variant)

	require.False(t, s.Hatch(rec, pet.JuvenileFuzz), "hatch fires once")
}

func TestForceReRollsJuvenileOnly(t *testing.T) {
	rec := pet.NewRecord("0xTEST", time.Now())
	s := NewStager(NewSeededRand(1))

	require.False(t, s.Force(rec), "eggs cannot be forced")

	rec.Stage = pet.StageJuvenile
	rec.Variant = pet.JuvenileFuzz
	require.True(t, s.Force(rec))
	require.Contains(t, pet.JuvenileVariants, rec.Variant)

	rec.Stage = pet.StageAdult
	require.False(t, s.Force(rec), "adults cannot be forced")
}
