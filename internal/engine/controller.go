package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/tamaverse/petgotchi/internal/clock"
	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/domain/rules"
	"github.com/tamaverse/petgotchi/internal/events"
	"github.com/tamaverse/petgotchi/internal/ledger"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
	"github.com/tamaverse/petgotchi/internal/platform/metrics"
)

// Poop spawn chance per simulated minute while awake and hatched.
const poopChancePerMinute = 1.0 / 45

// Action errors. These are results for the caller, never faults: the engine
// keeps running whatever comes back.
var (
	ErrDead        = errors.New("pet is dead")
	ErrNotDead     = errors.New("pet is not dead")
	ErrCooldown    = errors.New("action is on cooldown")
	ErrUnknownFood = errors.New("unknown food kind")
	ErrSleepLocked = errors.New("sleep window is locked")
	ErrBadWindow   = errors.New("invalid sleep window")
)

// Controller orchestrates actions, death and revival, poop bookkeeping, and
// new-game resets. It is the single entry point the network and persistence
// layers call into, and it owns the record exclusively: every entry point
// serializes through one mutex, so ticks and action requests never overlap.
type Controller struct {
	mu  sync.Mutex
	rec *pet.Record

	eventLog *events.Log
	logger   *logger.Logger
	metrics  *metrics.Collector
	ledger   ledger.Ledger
	clk      clock.Clock
	rng      Rand

	sched    *Scheduler
	stager   *Stager
	replayer *Replayer

	sessionStats *clock.Session
	sessionAge   *clock.Session

	// Online catastrophe bookkeeping: the window currently being announced,
	// plus the end of an uncapped-mode ad-hoc window.
	activeTrigger time.Time
	activeCause   string
	adHocUntil    time.Time

	wasAsleep bool
}

// NewController wires the simulation systems around one pet record.
func NewController(rec *pet.Record, eventLog *events.Log, log *logger.Logger, lgr ledger.Ledger, clk clock.Clock, rng Rand, mode SchedulerMode) *Controller {
	rec.Normalize()
	sched := NewScheduler(mode, rng)
	return &Controller{
		rec:      rec,
		eventLog: eventLog,
		logger:   log,
		metrics:  metrics.Get(),
		ledger:   lgr,
		clk:      clk,
		rng:      rng,
		sched:    sched,
		stager:   NewStager(rng),
		replayer: NewReplayer(sched, rng),
	}
}

// ReplayPayload summarizes an offline catch-up for the event log.
type ReplayPayload struct {
	Steps    int           `json:"steps"`
	Elapsed  time.Duration `json:"elapsed"`
	Consumed int           `json:"consumed"`
	Died     bool          `json:"died"`
}

// DeathPayload carries the verdict of a fatal step.
type DeathPayload struct {
	Reason pet.DeathReason `json:"reason"`
}

// EvolvedPayload announces a stage transition.
type EvolvedPayload struct {
	Stage   pet.Stage   `json:"stage"`
	Variant pet.Variant `json:"variant"`
}

// CatastrophePayload identifies an adverse window.
type CatastrophePayload struct {
	Cause   string    `json:"cause"`
	Trigger time.Time `json:"trigger"`
}

// StartSession reconstructs absent time and prepares the online clocks.
// It must complete before the first online tick; the loop guarantees that
// by calling it synchronously before starting its tickers.
func (c *Controller) StartSession() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	c.sched.Seed(c.rec)

	if !c.rec.Dead {
		res := c.replayer.Run(c.rec, now)
		Apply(c.rec, res, now)
		c.metrics.RecordReplay(res.Steps, res.Died)

		c.emit(events.EventTypeReplayCompleted, ReplayPayload{
			Steps:    res.Steps,
			Elapsed:  res.Elapsed,
			Consumed: len(res.Consumed),
			Died:     res.Died,
		})
		if res.Died {
			c.logger.Warn("Pet died while away: %s", res.Reason)
			c.emit(events.EventTypePetDied, DeathPayload{Reason: res.Reason})
		}
		c.advanceStage()
	} else {
		c.rec.ObserveWall(now)
	}

	c.sessionStats = clock.NewSession(now)
	c.sessionAge = clock.NewSession(now)
	c.wasAsleep = rules.IsAsleep(c.rec.Sleep, now)
	c.logger.Info("Session started for %s: stage=%s age=%s dead=%v", c.rec.Owner, c.rec.Stage, c.rec.AgeElapsed, c.rec.Dead)
}

// Tick applies one online stat step. Called by the loop about once per
// second with the current wall time; the session clock turns that into a
// clamped delta so suspend/resume spikes cannot dump decay in one step.
func (c *Controller) Tick(now time.Time) {
	started := time.Now()
	c.mu.Lock()
	defer func() {
		c.mu.Unlock()
		c.metrics.RecordTick(time.Since(started))
	}()

	if c.sessionStats == nil || c.rec.Dead {
		return
	}

	dt := c.sessionStats.Delta(now)
	c.rec.ObserveWall(now)
	if dt <= 0 {
		return
	}

	asleep := rules.IsAsleep(c.rec.Sleep, now)
	if asleep != c.wasAsleep {
		c.wasAsleep = asleep
		if asleep {
			c.emit(events.EventTypePetAsleep, nil)
		} else {
			c.emit(events.EventTypePetAwake, nil)
		}
	}
	if asleep {
		// Simulation pauses: no decay, no rolls, no catastrophes.
		return
	}

	cause := c.tickCatastrophe(now, asleep, dt)

	flags := rules.DecayFlags{
		Sick:              c.rec.Sick,
		CatastropheActive: cause != "",
		Dirty:             len(c.rec.Poops) > 0,
	}
	c.rec.Needs = rules.ApplyDecay(c.rec.Needs, dt, flags)

	c.tickIllness(dt)
	c.tickPoop(dt)

	if died, reason := rules.DeathCheck(c.rec.Needs, flags, cause); died {
		c.rec.Kill(reason, now)
		c.logger.Warn("Pet %s died: %s", c.rec.Owner, reason)
		c.emit(events.EventTypePetDied, DeathPayload{Reason: reason})
		return
	}

	c.advanceStage()
}

// TickAge runs on its own higher-frequency ticker so the pet visibly ages
// even between stat ticks. Age grows only by monotonic session deltas.
func (c *Controller) TickAge(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionAge == nil || c.rec.Dead {
		return
	}
	c.rec.AdvanceAge(c.sessionAge.Delta(now))
}

// tickCatastrophe sweeps expired windows, announces newly active ones, and
// rolls uncapped-mode ad-hoc windows. Returns the active cause, if any.
func (c *Controller) tickCatastrophe(now time.Time, asleep bool, dt time.Duration) string {
	for _, trigger := range c.sched.Sweep(c.rec, now) {
		if trigger.Equal(c.activeTrigger) {
			c.emit(events.EventTypeCatastropheEnded, CatastrophePayload{Cause: c.activeCause, Trigger: trigger})
			c.activeTrigger = time.Time{}
			c.activeCause = ""
		}
	}

	if trigger, cause, ok := c.sched.Active(c.rec, now, asleep); ok {
		if !trigger.Equal(c.activeTrigger) {
			c.activeTrigger = trigger
			c.activeCause = cause
			c.logger.Warn("Catastrophe %s active for %s", cause, c.rec.Owner)
			c.emit(events.EventTypeCatastropheStarted, CatastrophePayload{Cause: cause, Trigger: trigger})
		}
		return cause
	}

	// Uncapped mode: once past the seeded span, any minute can turn bad.
	if now.Before(c.adHocUntil) {
		return c.activeCause
	}
	if c.activeCause != "" && !c.adHocUntil.IsZero() {
		c.emit(events.EventTypeCatastropheEnded, CatastrophePayload{Cause: c.activeCause, Trigger: c.adHocUntil.Add(-CatastropheDuration)})
		c.activeCause = ""
		c.adHocUntil = time.Time{}
	}
	if c.sched.RollAdHoc(c.rec, now, asleep, dt) {
		c.adHocUntil = now.Add(CatastropheDuration)
		c.activeCause = CauseFor(now)
		c.emit(events.EventTypeCatastropheStarted, CatastrophePayload{Cause: c.activeCause, Trigger: now})
		return c.activeCause
	}
	return ""
}

func (c *Controller) tickIllness(dt time.Duration) {
	if c.rec.Sick {
		if c.rng.Float64() < rules.RecoverChance(dt) {
			c.rec.Sick = false
			c.emit(events.EventTypePetRecovered, nil)
		}
		return
	}
	if c.rng.Float64() < rules.SickenChance(c.rec.Needs, len(c.rec.Poops), dt) {
		c.rec.Sick = true
		c.logger.Info("Pet %s got sick", c.rec.Owner)
		c.emit(events.EventTypePetSick, nil)
	}
}

func (c *Controller) tickPoop(dt time.Duration) {
	if c.rec.Stage == pet.StageEgg {
		return
	}
	if c.rng.Float64() < poopChancePerMinute*dt.Minutes() {
		c.spawnPoop()
	}
}

func (c *Controller) spawnPoop() {
	p := pet.Poop{
		Position:      c.rng.Intn(101),
		VisualVariant: c.rng.Intn(4),
	}
	c.rec.AddPoop(p)
	c.emit(events.EventTypePoopSpawned, p)
}

// advanceStage applies every pending evolution transition. A 48h catch-up
// can take an egg through juvenile straight to adult.
func (c *Controller) advanceStage() {
	for c.stager.Advance(c.rec) {
		c.logger.Info("Pet %s evolved to %s/%s", c.rec.Owner, c.rec.Stage, c.rec.Variant)
		c.emit(events.EventTypeEvolved, EvolvedPayload{Stage: c.rec.Stage, Variant: c.rec.Variant})
	}
}

// Feed restores hunger per the food definition, subject to the per-kind
// cooldown. Meals can drop a poop.
func (c *Controller) Feed(kind pet.FoodKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rec.Dead {
		return ErrDead
	}
	def, ok := pet.GetFood(kind)
	if !ok {
		return ErrUnknownFood
	}
	now := c.clk.Now()
	if last, ok := c.rec.LastFeedAt[kind]; ok && now.Sub(last) < def.Cooldown {
		return ErrCooldown
	}

	c.rec.Needs = rules.ApplyFeed(c.rec.Needs, def)
	c.rec.LastFeedAt[kind] = now
	if c.rng.Float64() < def.PoopChance {
		c.spawnPoop()
	}
	c.emit(events.EventTypeActionApplied, map[string]string{"action": "feed", "kind": string(kind)})
	return nil
}

// Play lifts happiness and a little health.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rec.Dead {
		return ErrDead
	}
	c.rec.Needs = rules.ApplyPlay(c.rec.Needs)
	c.emit(events.EventTypeActionApplied, map[string]string{"action": "play"})
	return nil
}

// Clean removes every poop and restores cleanliness to its floor.
func (c *Controller) Clean() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rec.Dead {
		return ErrDead
	}
	c.rec.ClearPoops()
	c.rec.Needs = rules.ApplyClean(c.rec.Needs)
	c.emit(events.EventTypeActionApplied, map[string]string{"action": "clean"})
	return nil
}

// Heal cures sickness and raises health to its floor, on a fixed cooldown.
func (c *Controller) Heal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rec.Dead {
		return ErrDead
	}
	now := c.clk.Now()
	if !c.rec.LastHealAt.IsZero() && now.Sub(c.rec.LastHealAt) < rules.HealCooldown {
		return ErrCooldown
	}
	c.rec.Needs = rules.ApplyHeal(c.rec.Needs)
	wasSick := c.rec.Sick
	c.rec.Sick = false
	c.rec.LastHealAt = now
	if wasSick {
		c.emit(events.EventTypePetRecovered, nil)
	}
	c.emit(events.EventTypeActionApplied, map[string]string{"action": "heal"})
	return nil
}

// Revive spends one life token for the current death and brings the pet
// back at the revival floors. The spend is idempotent per death instant, so
// duplicate wallet notifications cannot consume two tokens. Failures come
// back as explicit outcomes, never panics or fatal errors.
func (c *Controller) Revive() (bool, ledger.SpendOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.rec.Dead {
		return false, ledger.SpendUnavailable
	}

	ok, outcome := c.ledger.SpendLife(c.rec.Owner, c.rec.DiedAt)
	if !ok {
		c.logger.Warn("Revive refused for %s: %s", c.rec.Owner, outcome)
		return false, outcome
	}

	// Revival is not a rebirth: stage and age survive, needs come back at
	// their floors, and the slate of sickness/poops/catastrophes is wiped.
	c.rec.Dead = false
	c.rec.DeathReason = pet.DeathNone
	c.rec.DiedAt = time.Time{}
	c.rec.Needs = pet.RevivalNeeds()
	c.rec.Sick = false
	c.rec.ClearPoops()
	c.rec.CatastropheSchedule = []time.Time{}
	c.rec.CatastropheConsumed = []time.Time{}
	c.activeTrigger = time.Time{}
	c.activeCause = ""
	c.adHocUntil = time.Time{}

	now := c.clk.Now()
	c.rec.ObserveWall(now)
	c.sessionStats = clock.NewSession(now)
	c.sessionAge = clock.NewSession(now)

	c.logger.Info("Pet %s revived (outcome=%s)", c.rec.Owner, outcome)
	c.emit(events.EventTypeRevived, nil)
	return true, outcome
}

// CanRevive reports whether the ledger holds at least one life token.
func (c *Controller) CanRevive() bool {
	return c.ledger.CanRevive(c.Owner())
}

// NewGame fully resets the record to birth defaults. From the dead state
// this is the terminal recovery path when no life token is available.
func (c *Controller) NewGame() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	fresh := pet.NewRecord(c.rec.Owner, now)
	fresh.Sleep = c.rec.Sleep // the configured window outlives the pet
	*c.rec = *fresh

	c.sched.Seed(c.rec)
	c.sessionStats = clock.NewSession(now)
	c.sessionAge = clock.NewSession(now)
	c.activeTrigger = time.Time{}
	c.activeCause = ""
	c.adHocUntil = time.Time{}
	c.wasAsleep = rules.IsAsleep(c.rec.Sleep, now)

	c.logger.Info("New game for %s", c.rec.Owner)
	c.emit(events.EventTypeNewGame, nil)
}

// HandleLifeRedeemed credits a token redeemed by the wallet layer.
func (c *Controller) HandleLifeRedeemed(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if owner != c.rec.Owner {
		return
	}
	c.ledger.Credit(owner, 1)
	c.emit(events.EventTypeLifeRedeemed, map[string]string{"owner": owner})
}

// SetSleepWindow configures the custom sleep window. Once locked the
// configuration is immutable for the life of the record.
func (c *Controller) SetSleepWindow(start, end int, lock bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rec.Sleep.Locked {
		return ErrSleepLocked
	}
	if start < 0 || start >= 24*60 || end < 0 || end >= 24*60 {
		return ErrBadWindow
	}
	c.rec.Sleep = pet.SleepConfig{
		Mode:        pet.SleepCustom,
		CustomStart: start,
		CustomEnd:   end,
		Locked:      lock,
	}
	return nil
}

// Hatch performs the egg transition with a caller-chosen variant instead of
// the random roll. Subject to the same age threshold as the automatic path.
func (c *Controller) Hatch(v pet.Variant) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rec.Dead || !c.stager.Hatch(c.rec, v) {
		return false
	}
	c.logger.Info("Pet %s hatched as chosen variant %s", c.rec.Owner, c.rec.Variant)
	c.emit(events.EventTypeEvolved, EvolvedPayload{Stage: c.rec.Stage, Variant: c.rec.Variant})
	return true
}

// ForceEvolve re-rolls a juvenile's variant.
func (c *Controller) ForceEvolve() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rec.Dead || !c.stager.Force(c.rec) {
		return false
	}
	c.emit(events.EventTypeEvolved, EvolvedPayload{Stage: c.rec.Stage, Variant: c.rec.Variant})
	return true
}

// Owner returns the record's owner key.
func (c *Controller) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec.Owner
}

// Snapshot hands out a deep copy of the record for persistence and the
// view layer. Nobody mutates the live record but the controller.
func (c *Controller) Snapshot() pet.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRecord(c.rec)
}

func cloneRecord(rec *pet.Record) pet.Record {
	out := *rec
	out.Poops = append([]pet.Poop(nil), rec.Poops...)
	out.CatastropheSchedule = append([]time.Time(nil), rec.CatastropheSchedule...)
	out.CatastropheConsumed = append([]time.Time(nil), rec.CatastropheConsumed...)
	out.LastFeedAt = make(map[pet.FoodKind]time.Time, len(rec.LastFeedAt))
	for k, v := range rec.LastFeedAt {
		out.LastFeedAt[k] = v
	}
	return out
}

func (c *Controller) emit(t events.EventType, payload interface{}) {
	c.eventLog.Append(events.Event{
		Type:    t,
		Owner:   c.rec.Owner,
		Payload: payload,
	})
}
