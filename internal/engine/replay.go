package engine

import (
	"time"

	"github.com/tamaverse/petgotchi/internal/clock"
	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/domain/rules"
)

// ReplayStep is the fixed granularity of offline reconstruction: one
// simulated minute per step.
const ReplayStep = time.Minute

// ReplayResult is the outcome of catching up absent time.
type ReplayResult struct {
	Needs    pet.Needs
	Sick     bool
	Consumed []time.Time // schedule entries fired along the way

	Died   bool
	Reason pet.DeathReason

	// Elapsed is the duration to add to the record's age: the full clamped
	// gap, or up to the fatal minute when replay stops early.
	Elapsed time.Duration
	Steps   int
}

// Replayer deterministically replays elapsed absent time through the decay,
// illness, and catastrophe rules. It never mutates the record; the caller
// applies the result.
type Replayer struct {
	sched *Scheduler
	rng   Rand
}

// NewReplayer creates an offline replay engine sharing the controller's
// scheduler and randomness source.
func NewReplayer(sched *Scheduler, rng Rand) *Replayer {
	return &Replayer{sched: sched, rng: rng}
}

// Run reconstructs the gap between the record's last observation and now.
// Elapsed time is computed against max(now, maxSeenWall) so a rewound clock
// yields zero, and clamped so one catch-up never simulates more than the
// cap. Replay stops early on death and reports the terminal state.
func (r *Replayer) Run(rec *pet.Record, now time.Time) ReplayResult {
	elapsed := clock.Elapsed(rec.LastSeenWall, now, rec.MaxSeenWall)
	steps := int(elapsed / ReplayStep)

	res := ReplayResult{
		Needs:   rec.Needs,
		Sick:    rec.Sick,
		Elapsed: elapsed,
		Steps:   steps,
	}

	consumed := func(trigger time.Time) bool {
		if rec.IsConsumed(trigger) {
			return true
		}
		for _, c := range res.Consumed {
			if c.Equal(trigger) {
				return true
			}
		}
		return false
	}

	age := rec.AgeElapsed
	for i := 0; i < steps; i++ {
		at := rec.LastSeenWall.Add(time.Duration(i) * ReplayStep)
		age += ReplayStep

		if rules.IsAsleep(rec.Sleep, at) {
			// Simulation pauses during sleep; only age accumulates.
			continue
		}

		catastrophic := false
		cause := ""
		for _, trigger := range rec.CatastropheSchedule {
			if consumed(trigger) {
				continue
			}
			if !at.Before(trigger) && at.Before(trigger.Add(CatastropheDuration)) {
				res.Consumed = append(res.Consumed, trigger)
				catastrophic = true
				cause = CauseFor(trigger)
				break
			}
		}
		if !catastrophic && r.sched.mode == ModeUncapped && age >= catastropheWindowSpan {
			if r.rng.Float64() < adHocChancePerMinute {
				catastrophic = true
				cause = CauseFor(at)
			}
		}

		flags := rules.DecayFlags{
			Sick:              res.Sick,
			CatastropheActive: catastrophic,
			Dirty:             len(rec.Poops) > 0,
		}
		res.Needs = rules.ApplyDecay(res.Needs, ReplayStep, flags)

		// One illness transition roll per replayed minute.
		if res.Sick {
			if r.rng.Float64() < rules.RecoverChance(ReplayStep) {
				res.Sick = false
			}
		} else if r.rng.Float64() < rules.SickenChance(res.Needs, len(rec.Poops), ReplayStep) {
			res.Sick = true
		}

		if died, reason := rules.DeathCheck(res.Needs, flags, cause); died {
			res.Died = true
			res.Reason = reason
			res.Elapsed = time.Duration(i+1) * ReplayStep
			res.Steps = i + 1
			return res
		}
	}

	return res
}

// Apply writes a replay result into the record: final needs and sickness,
// consumed schedule entries, age growth, wall-clock bookkeeping, and the
// death verdict.
func Apply(rec *pet.Record, res ReplayResult, now time.Time) {
	rec.Needs = res.Needs
	rec.Needs.Clamp()
	rec.Sick = res.Sick
	for _, trigger := range res.Consumed {
		rec.Consume(trigger)
	}
	rec.AdvanceAge(res.Elapsed)
	rec.ObserveWall(now)
	if res.Died {
		rec.Kill(res.Reason, now)
	}
}
