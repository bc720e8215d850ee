package engine

import (
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/domain/rules"
)

// Animation categories the rendering layer switches on.
const (
	AnimEgg         = "egg"
	AnimIdle        = "idle"
	AnimSleeping    = "sleeping"
	AnimSick        = "sick"
	AnimCatastrophe = "catastrophe"
	AnimDead        = "dead"
)

// ViewState is the derived, read-only state the UI layer renders from.
// It never exposes the record itself.
type ViewState struct {
	Stage   pet.Stage   `json:"stage"`
	Variant pet.Variant `json:"variant"`

	Animation string `json:"animation"`

	// Bar percentages, 0-100.
	Cleanliness int `json:"cleanliness"`
	Hunger      int `json:"hunger"`
	Happiness   int `json:"happiness"`
	Health      int `json:"health"`

	Asleep      bool            `json:"asleep"`
	Sick        bool            `json:"sick"`
	Catastrophe bool            `json:"catastrophe"`
	Dead        bool            `json:"dead"`
	DeathReason pet.DeathReason `json:"death_reason,omitempty"`

	Poops []pet.Poop `json:"poops"`

	AgeSeconds int64 `json:"age_seconds"`
	Lives      int   `json:"lives"`
	CanRevive  bool  `json:"can_revive"`
}

// View derives the current render state.
func (c *Controller) View() ViewState {
	c.mu.Lock()
	rec := cloneRecord(c.rec)
	now := c.clk.Now()
	catastrophe := c.activeCause != "" || now.Before(c.adHocUntil)
	c.mu.Unlock()

	asleep := rules.IsAsleep(rec.Sleep, now)
	lives := c.ledger.Lives(rec.Owner)

	v := ViewState{
		Stage:   rec.Stage,
		Variant: rec.Variant,

		Cleanliness: barPercent(rec.Needs.Cleanliness),
		Hunger:      barPercent(rec.Needs.Hunger),
		Happiness:   barPercent(rec.Needs.Happiness),
		Health:      barPercent(rec.Needs.Health),

		Asleep:      asleep && !rec.Dead,
		Sick:        rec.Sick,
		Catastrophe: catastrophe && !rec.Dead && !asleep,
		Dead:        rec.Dead,
		DeathReason: rec.DeathReason,

		Poops:      rec.Poops,
		AgeSeconds: int64(rec.AgeElapsed / time.Second),
		Lives:      lives,
		CanRevive:  rec.Dead && lives > 0,
	}
	v.Animation = animationFor(v)
	return v
}

func animationFor(v ViewState) string {
	switch {
	case v.Dead:
		return AnimDead
	case v.Stage == pet.StageEgg:
		return AnimEgg
	case v.Asleep:
		return AnimSleeping
	case v.Catastrophe:
		return AnimCatastrophe
	case v.Sick:
		return AnimSick
	default:
		return AnimIdle
	}
}

func barPercent(f float64) int {
	p := int(f*100 + 0.5)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
