// Package ledger tracks life tokens: the scarce external credit required to
// revive a dead pet. The engine only sees this interface; the wallet layer
// behind it is somebody else's problem.
package ledger

import "time"

// SpendOutcome explains a SpendLife result. Failures are reported as values,
// never as control-flow errors across the simulation boundary.
type SpendOutcome string

const (
	SpendOK           SpendOutcome = "ok"
	SpendAlreadySpent SpendOutcome = "already_spent" // idempotent replay of the same death
	SpendNoLives      SpendOutcome = "no_lives"
	SpendUnavailable  SpendOutcome = "unavailable"
)

// Ledger is the engine-side view of the life-token wallet.
type Ledger interface {
	// Lives returns the tokens remaining for an owner.
	Lives(owner string) int

	// CanRevive reports whether at least one life token is available.
	CanRevive(owner string) bool

	// SpendLife consumes one token for a specific death, idempotently keyed
	// by (owner, death instant): duplicate notifications for the same death
	// decrement at most once and report SpendAlreadySpent.
	SpendLife(owner string, diedAt time.Time) (bool, SpendOutcome)

	// Credit adds redeemed tokens for an owner.
	Credit(owner string, n int)
}
