// Package events provides the append-only event log for the pet engine.
// Subsystems publish typed events here; the hub, the persister, and any
// other consumer subscribe instead of listening to ambient broadcasts.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of an engine event.
type EventType string

const (
	EventTypePetDied            EventType = "PET_DIED"
	EventTypeLifeRedeemed       EventType = "LIFE_REDEEMED"
	EventTypeNewGame            EventType = "NEW_GAME"
	EventTypeRevived            EventType = "REVIVED"
	EventTypeEvolved            EventType = "EVOLVED"
	EventTypeCatastropheStarted EventType = "CATASTROPHE_STARTED"
	EventTypeCatastropheEnded   EventType = "CATASTROPHE_ENDED"
	EventTypePetSick            EventType = "PET_SICK"
	EventTypePetRecovered       EventType = "PET_RECOVERED"
	EventTypePoopSpawned        EventType = "POOP_SPAWNED"
	EventTypePetAsleep          EventType = "PET_ASLEEP"
	EventTypePetAwake           EventType = "PET_AWAKE"
	EventTypeActionApplied      EventType = "ACTION_APPLIED"
	EventTypeReplayCompleted    EventType = "REPLAY_COMPLETED"
	EventTypeStateSaved         EventType = "STATE_SAVED"
)

// Event is an immutable record of something that happened to a pet.
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	Owner     string      `json:"owner"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Persister defines how an event is durably stored.
type Persister interface {
	Append(event Event) error
}

// Log is the in-memory append-only log of engine events with typed
// subscriptions. Appends fan out to subscribers without blocking the
// simulation: a slow subscriber drops events rather than stalling a tick.
type Log struct {
	mu          sync.RWMutex
	events      []Event
	persister   Persister
	subscribers []subscription
}

type subscription struct {
	types map[EventType]bool // nil means all types
	ch    chan Event
}

// NewLog creates a new event log with an optional persister.
func NewLog(persister Persister) *Log {
	return &Log{
		events:    make([]Event, 0),
		persister: persister,
	}
}

// Append adds a new event to the log, persists it, and notifies
// subscribers. Events are immutable once appended.
func (l *Log) Append(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	subs := make([]subscription, len(l.subscribers))
	copy(subs, l.subscribers)
	l.mu.Unlock()

	if l.persister != nil {
		go func(e Event) {
			_ = l.persister.Append(e)
		}(event)
	}

	for _, sub := range subs {
		if sub.types != nil && !sub.types[event.Type] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel receiving future events of the given types.
// With no types, the subscription receives everything.
func (l *Log) Subscribe(types ...EventType) <-chan Event {
	sub := subscription{ch: make(chan Event, 64)}
	if len(types) > 0 {
		sub.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	l.mu.Lock()
	l.subscribers = append(l.subscribers, sub)
	l.mu.Unlock()
	return sub.ch
}

// Replay returns the full in-memory history for state reconstruction.
func (l *Log) Replay() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// ByType returns all logged events of a single type.
func (l *Log) ByType(t EventType) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Event
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}
