package engine

import (
	"sort"
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/domain/rules"
)

// CatastropheDuration is how long a scheduled adverse window stays open.
const CatastropheDuration = 60 * time.Second

// Scheduling constants for the pet's early lifetime.
const (
	firstCatastropheDelay = time.Minute
	sleepShiftSearchLimit = 3 * time.Hour // bounded minute-by-minute shift out of sleep
	catastropheWindowSpan = 48 * time.Hour
	scheduledCatastrophes = 4 // total, first one included
	adHocChancePerMinute  = 0.90
)

// SchedulerMode selects what happens after the seeded schedule is exhausted.
type SchedulerMode string

const (
	// ModeCapped fires only the seeded entries and nothing afterwards.
	ModeCapped SchedulerMode = "capped"
	// ModeUncapped additionally rolls a flat per-minute chance for ad-hoc
	// windows once the pet is past the seeded span.
	ModeUncapped SchedulerMode = "uncapped"
)

var catastropheCauses = []string{"quake", "blizzard", "heatwave", "swarm"}

// CauseFor derives a stable cause name from a trigger instant, so replays
// attribute the same cause without storing it.
func CauseFor(trigger time.Time) string {
	idx := trigger.Unix() % int64(len(catastropheCauses))
	if idx < 0 {
		idx += int64(len(catastropheCauses))
	}
	return catastropheCauses[idx]
}

// Scheduler produces and consumes the schedule of time-boxed adverse events.
type Scheduler struct {
	mode SchedulerMode
	rng  Rand
}

// NewScheduler creates a catastrophe scheduler.
func NewScheduler(mode SchedulerMode, rng Rand) *Scheduler {
	if mode != ModeUncapped {
		mode = ModeCapped
	}
	return &Scheduler{mode: mode, rng: rng}
}

// Seed populates the record's schedule at birth: a first event roughly one
// minute in, then random instants within the first two days, all shifted
// out of sleep and deduplicated. Only a record that has never lived is
// seeded: revival wipes the schedule without resetting age, and that
// emptiness must survive later session starts.
func (s *Scheduler) Seed(rec *pet.Record) {
	if len(rec.CatastropheSchedule) > 0 || rec.AgeElapsed > 0 {
		return
	}

	first := s.shiftOutOfSleep(rec.Sleep, rec.BornAt.Add(firstCatastropheDelay))
	schedule := []time.Time{first}

	for len(schedule) < scheduledCatastrophes {
		offset := time.Duration(s.rng.Int63n(int64(catastropheWindowSpan)))
		at := s.shiftOutOfSleep(rec.Sleep, rec.BornAt.Add(offset).Truncate(time.Minute))
		if containsTime(schedule, at) {
			continue
		}
		schedule = append(schedule, at)
	}

	sort.Slice(schedule, func(i, j int) bool { return schedule[i].Before(schedule[j]) })
	rec.CatastropheSchedule = schedule
}

// shiftOutOfSleep moves an instant forward minute-by-minute until it falls
// outside the sleep window, giving up after the bounded search.
func (s *Scheduler) shiftOutOfSleep(cfg pet.SleepConfig, at time.Time) time.Time {
	for shifted := time.Duration(0); shifted <= sleepShiftSearchLimit; shifted += time.Minute {
		candidate := at.Add(shifted)
		if !rules.IsAsleep(cfg, candidate) {
			return candidate
		}
	}
	return at
}

// Active returns the unconsumed schedule entry whose window covers now, if
// any. The pet being asleep suppresses activation entirely.
func (s *Scheduler) Active(rec *pet.Record, now time.Time, asleep bool) (time.Time, string, bool) {
	if asleep {
		return time.Time{}, "", false
	}
	for _, trigger := range rec.CatastropheSchedule {
		if rec.IsConsumed(trigger) {
			continue
		}
		if !now.Before(trigger) && now.Before(trigger.Add(CatastropheDuration)) {
			return trigger, CauseFor(trigger), true
		}
	}
	return time.Time{}, "", false
}

// Sweep marks as consumed every unconsumed entry whose window has fully
// passed, or whose whole window sat inside sleep. Returns the entries
// consumed by this call. A consumed timestamp never re-fires.
func (s *Scheduler) Sweep(rec *pet.Record, now time.Time) []time.Time {
	var ended []time.Time
	for _, trigger := range rec.CatastropheSchedule {
		if rec.IsConsumed(trigger) {
			continue
		}
		windowEnd := trigger.Add(CatastropheDuration)
		expired := !now.Before(windowEnd)
		sleptThrough := rules.IsAsleep(rec.Sleep, trigger) && rules.IsAsleep(rec.Sleep, windowEnd)
		if expired || sleptThrough {
			rec.Consume(trigger)
			ended = append(ended, trigger)
		}
	}
	return ended
}

// RollAdHoc decides whether an uncapped-mode minute turns catastrophic once
// the seeded schedule is behind the pet. dt scales the flat per-minute
// chance so online sub-minute ticks stay comparable to replay steps.
func (s *Scheduler) RollAdHoc(rec *pet.Record, now time.Time, asleep bool, dt time.Duration) bool {
	if s.mode != ModeUncapped || asleep {
		return false
	}
	if rec.AgeElapsed < catastropheWindowSpan {
		return false
	}
	p := adHocChancePerMinute * dt.Minutes()
	if p > 1 {
		p = 1
	}
	return s.rng.Float64() < p
}

func containsTime(ts []time.Time, at time.Time) bool {
	for _, t := range ts {
		if t.Equal(at) {
			return true
		}
	}
	return false
}
