// Package pet defines the core domain entities for the virtual pet.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package pet

import "time"

// Stage represents the discrete growth phase of the pet.
type Stage string

const (
	StageEgg      Stage = "egg"
	StageJuvenile Stage = "juvenile"
	StageAdult    Stage = "adult"
)

// Variant identifies the visual/behavioral form inside a stage.
// Chosen at the egg->juvenile transition and fixed thereafter,
// except for forced evolution.
type Variant string

const (
	VariantNone Variant = ""

	JuvenileFuzz Variant = "fuzz"
	JuvenileSpry Variant = "spry"
	JuvenileGrub Variant = "grub"

	AdultBeast Variant = "beast"
	AdultSwift Variant = "swift"
	AdultMoth  Variant = "moth"
)

// JuvenileVariants lists the forms an egg can hatch into.
var JuvenileVariants = []Variant{JuvenileFuzz, JuvenileSpry, JuvenileGrub}

// AdultForm maps each juvenile variant deterministically to its adult form.
var AdultForm = map[Variant]Variant{
	JuvenileFuzz: AdultBeast,
	JuvenileSpry: AdultSwift,
	JuvenileGrub: AdultMoth,
}

// DeathReason records why the pet died.
type DeathReason string

const (
	DeathNone       DeathReason = ""
	DeathStarvation DeathReason = "starvation"
	DeathCollapse   DeathReason = "collapse"
	DeathIllness    DeathReason = "illness"
)

// CatastropheDeath builds the reason string for a death attributed to an
// active scheduled event, e.g. "catastrophe:meteor".
func CatastropheDeath(cause string) DeathReason {
	return DeathReason("catastrophe:" + cause)
}

// FoodKind identifies what the pet is being fed.
type FoodKind string

const (
	FoodMeal  FoodKind = "meal"
	FoodSnack FoodKind = "snack"
)

// MaxPoops bounds the poop list; inserting beyond it evicts the oldest.
const MaxPoops = 12

// Poop is a single dropping on the play field.
type Poop struct {
	Position      int `json:"position"`       // horizontal slot, 0-100
	VisualVariant int `json:"visual_variant"` // sprite index
}

// Needs holds the four bounded vitals. All values live in [0,1] and are
// clamped on every write via Clamp.
type Needs struct {
	Cleanliness float64 `json:"cleanliness"`
	Hunger      float64 `json:"hunger"`
	Happiness   float64 `json:"happiness"`
	Health      float64 `json:"health"`
}

// Clamp forces every need back into [0,1].
func (n *Needs) Clamp() {
	n.Cleanliness = clamp01(n.Cleanliness)
	n.Hunger = clamp01(n.Hunger)
	n.Happiness = clamp01(n.Happiness)
	n.Health = clamp01(n.Health)
}

func clamp01(v float64) float64 {
	if v != v { // NaN guard, out-of-range inputs are clamped not propagated
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SleepMode selects how the sleep window is determined.
type SleepMode string

const (
	SleepAuto   SleepMode = "auto"
	SleepCustom SleepMode = "custom"
)

// SleepConfig holds the sleep-window configuration. Custom settings become
// immutable once Locked is set.
type SleepConfig struct {
	Mode        SleepMode `json:"mode"`
	CustomStart int       `json:"custom_start"` // minutes after midnight
	CustomEnd   int       `json:"custom_end"`   // minutes after midnight
	Locked      bool      `json:"locked"`
}

// Record is the persisted aggregate for one pet. It is owned exclusively by
// one LifecycleController per session; no concurrent writers are assumed.
type Record struct {
	Owner   string  `json:"owner"`
	Stage   Stage   `json:"stage"`
	Variant Variant `json:"variant"`

	Needs Needs `json:"needs"`
	Sick  bool  `json:"sick"`

	Dead        bool        `json:"dead"`
	DeathReason DeathReason `json:"death_reason,omitempty"`
	DiedAt      time.Time   `json:"died_at,omitempty"`

	Poops []Poop `json:"poops"`

	// AgeElapsed advances only by TimeSource-derived deltas, never by raw
	// wall-clock subtraction, so a manipulated clock cannot rewind it.
	AgeElapsed time.Duration `json:"age_elapsed"`
	BornAt     time.Time     `json:"born_at"`

	LastSeenWall time.Time `json:"last_seen_wall"`
	MaxSeenWall  time.Time `json:"max_seen_wall"`

	CatastropheSchedule []time.Time `json:"catastrophe_schedule"`
	CatastropheConsumed []time.Time `json:"catastrophe_consumed"`

	Sleep SleepConfig `json:"sleep_config"`

	LastHealAt time.Time              `json:"last_heal_at,omitempty"`
	LastFeedAt map[FoodKind]time.Time `json:"last_feed_at,omitempty"`
}

// NewRecord creates a fresh record at birth: egg stage, default needs,
// empty poop and catastrophe lists.
func NewRecord(owner string, bornAt time.Time) *Record {
	return &Record{
		Owner:  owner,
		Stage:  StageEgg,
		Needs:  DefaultNeeds(),
		BornAt: bornAt,

		LastSeenWall: bornAt,
		MaxSeenWall:  bornAt,

		Poops:               []Poop{},
		CatastropheSchedule: []time.Time{},
		CatastropheConsumed: []time.Time{},

		Sleep:      SleepConfig{Mode: SleepAuto},
		LastFeedAt: make(map[FoodKind]time.Time),
	}
}

// DefaultNeeds are the birth vitals and the fallback for malformed
// persisted records.
func DefaultNeeds() Needs {
	return Needs{
		Cleanliness: 1.0,
		Hunger:      0.8,
		Happiness:   0.8,
		Health:      1.0,
	}
}

// RevivalNeeds are the safe floors applied when a life token brings the pet
// back. Revival is not a rebirth: needs come back partial, not full.
func RevivalNeeds() Needs {
	return Needs{
		Cleanliness: 0.6,
		Hunger:      0.5,
		Happiness:   0.3,
		Health:      0.5,
	}
}

// AddPoop appends a dropping, evicting the oldest beyond MaxPoops.
func (r *Record) AddPoop(p Poop) {
	r.Poops = append(r.Poops, p)
	if len(r.Poops) > MaxPoops {
		r.Poops = r.Poops[len(r.Poops)-MaxPoops:]
	}
}

// ClearPoops removes all droppings.
func (r *Record) ClearPoops() {
	r.Poops = r.Poops[:0]
}

// AdvanceAge grows AgeElapsed by d. Negative deltas are ignored so the age
// invariant (never decreases) holds under any caller.
func (r *Record) AdvanceAge(d time.Duration) {
	if d > 0 {
		r.AgeElapsed += d
	}
}

// ObserveWall updates the wall-clock bookkeeping with a new observation.
// MaxSeenWall is a high-water mark: backward clock jumps never lower it.
func (r *Record) ObserveWall(now time.Time) {
	r.LastSeenWall = now
	if now.After(r.MaxSeenWall) {
		r.MaxSeenWall = now
	}
}

// IsConsumed reports whether a schedule entry has already fired or expired.
func (r *Record) IsConsumed(trigger time.Time) bool {
	for _, c := range r.CatastropheConsumed {
		if c.Equal(trigger) {
			return true
		}
	}
	return false
}

// Consume marks a schedule entry as spent. A consumed timestamp never
// re-fires.
func (r *Record) Consume(trigger time.Time) {
	if !r.IsConsumed(trigger) {
		r.CatastropheConsumed = append(r.CatastropheConsumed, trigger)
	}
}

// Kill marks the death transition. It fires exactly once per life; later
// calls with a different reason do not overwrite the first.
func (r *Record) Kill(reason DeathReason, at time.Time) {
	if r.Dead {
		return
	}
	r.Dead = true
	r.DeathReason = reason
	r.DiedAt = at
}

// Normalize repairs a record loaded from storage: malformed or missing
// fields fall back to documented defaults rather than failing startup.
func (r *Record) Normalize() {
	if r.Stage != StageEgg && r.Stage != StageJuvenile && r.Stage != StageAdult {
		r.Stage = StageEgg
	}
	r.Needs.Clamp()
	if r.Poops == nil {
		r.Poops = []Poop{}
	}
	if len(r.Poops) > MaxPoops {
		r.Poops = r.Poops[len(r.Poops)-MaxPoops:]
	}
	if r.CatastropheSchedule == nil {
		r.CatastropheSchedule = []time.Time{}
	}
	if r.CatastropheConsumed == nil {
		r.CatastropheConsumed = []time.Time{}
	}
	if r.Sleep.Mode != SleepCustom {
		r.Sleep.Mode = SleepAuto
	}
	if r.LastFeedAt == nil {
		r.LastFeedAt = make(map[FoodKind]time.Time)
	}
	if r.AgeElapsed < 0 {
		r.AgeElapsed = 0
	}
	if r.MaxSeenWall.Before(r.LastSeenWall) {
		r.MaxSeenWall = r.LastSeenWall
	}
}
