package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestIsAsleepAutoWindow(t *testing.T) {
	cfg := pet.SleepConfig{Mode: pet.SleepAuto}

	require.True(t, IsAsleep(cfg, at(23, 0)))
	require.True(t, IsAsleep(cfg, at(3, 0)))
	require.True(t, IsAsleep(cfg, at(22, 0)), "window start is inclusive")
	require.True(t, IsAsleep(cfg, at(8, 29)))

	require.False(t, IsAsleep(cfg, at(12, 0)))
	require.False(t, IsAsleep(cfg, at(8, 30)), "window end is exclusive")
	require.False(t, IsAsleep(cfg, at(21, 59)))
}

func TestIsAsleepCustomWrapsMidnight(t *testing.T) {
	cfg := pet.SleepConfig{
		Mode:        pet.SleepCustom,
		CustomStart: 23*60 + 30,
		CustomEnd:   6 * 60,
	}

	require.True(t, IsAsleep(cfg, at(0, 15)))
	require.True(t, IsAsleep(cfg, at(23, 45)))
	require.False(t, IsAsleep(cfg, at(12, 0)))
	require.False(t, IsAsleep(cfg, at(6, 0)))
}

func TestIsAsleepCustomNonWrapping(t *testing.T) {
	cfg := pet.SleepConfig{
		Mode:        pet.SleepCustom,
		CustomStart: 13 * 60,
		CustomEnd:   15 * 60,
	}

	require.True(t, IsAsleep(cfg, at(14, 0)))
	require.False(t, IsAsleep(cfg, at(12, 59)))
	require.False(t, IsAsleep(cfg, at(15, 0)))
}

func TestIsAsleepDegenerateWindowNeverSleeps(t *testing.T) {
	cfg := pet.SleepConfig{Mode: pet.SleepCustom, CustomStart: 300, CustomEnd: 300}

	for hour := 0; hour < 24; hour++ {
		require.False(t, IsAsleep(cfg, at(hour, 0)))
	}
}
