package rules

import (
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

// Auto sleep window: [22:00, 08:30), wrapping midnight.
const (
	autoSleepStart = 22 * 60
	autoSleepEnd   = 8*60 + 30
)

// IsAsleep reports whether the pet is asleep at the given local instant
// under the supplied sleep configuration.
//
// In custom mode a start later than the end wraps midnight: asleep if after
// start OR before end. Otherwise asleep if after start AND before end.
func IsAsleep(cfg pet.SleepConfig, at time.Time) bool {
	minute := at.Hour()*60 + at.Minute()

	start, end := autoSleepStart, autoSleepEnd
	if cfg.Mode == pet.SleepCustom {
		start, end = cfg.CustomStart, cfg.CustomEnd
	}

	if start == end {
		return false
	}
	if start > end { // wraps midnight
		return minute >= start || minute < end
	}
	return minute >= start && minute < end
}
