// Package clock isolates time acquisition from the simulation so decay
// logic never reads the wall clock directly. Production code uses the
// system clock; tests drive a virtual one.
package clock

import (
	"sync"
	"time"
)

// MaxCatchUp caps how much absent real time a single offline replay may
// reconstruct. A clock jumped years ahead costs at most this much simulation.
const MaxCatchUp = 48 * time.Hour

// MaxTickDelta caps a single online tick's delta so suspend/resume spikes
// cannot apply minutes of decay in one step.
const MaxTickDelta = 5 * time.Second

// Clock supplies the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// System is the production Clock backed by time.Now.
type System struct{}

// NewSystem returns the system wall clock.
func NewSystem() System { return System{} }

func (System) Now() time.Time { return time.Now() }

// Virtual is a manually advanced Clock for deterministic tests.
type Virtual struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtual creates a virtual clock frozen at the given instant.
func NewVirtual(at time.Time) *Virtual {
	return &Virtual{now: at}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Advance moves the virtual clock forward by d.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	v.now = v.now.Add(d)
	v.mu.Unlock()
}

// Set jumps the virtual clock to an absolute instant, forward or backward.
func (v *Virtual) Set(at time.Time) {
	v.mu.Lock()
	v.now = at
	v.mu.Unlock()
}

// Elapsed computes the absent time to replay for a session start. The
// high-water mark neutralizes backward clock movement: elapsed time is
// measured against max(now, maxSeen), so a rewound clock yields zero rather
// than negative decay. The result is clamped to [0, MaxCatchUp].
func Elapsed(lastSeen, now, maxSeen time.Time) time.Duration {
	ref := now
	if maxSeen.After(ref) {
		ref = maxSeen
	}
	d := ref.Sub(lastSeen)
	if d < 0 {
		return 0
	}
	if d > MaxCatchUp {
		return MaxCatchUp
	}
	return d
}

// ClampDelta bounds a single tick delta to [0, max].
func ClampDelta(d, max time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}

// Session is a monotonic session clock. Deltas come from successive Delta
// calls, each clamped to MaxTickDelta, so wall-clock changes mid-session
// never feed the simulation.
type Session struct {
	mu   sync.Mutex
	last time.Time
}

// NewSession starts a monotonic session clock at the given instant.
func NewSession(start time.Time) *Session {
	return &Session{last: start}
}

// Delta returns the clamped time advanced since the previous call.
func (s *Session) Delta(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := ClampDelta(now.Sub(s.last), MaxTickDelta)
	s.last = now
	return d
}
