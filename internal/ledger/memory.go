package ledger

import (
	"sync"
	"time"
)

// Memory is an in-memory Ledger. It is the default when no durable wallet
// store is wired, and the workhorse for tests.
type Memory struct {
	mu    sync.Mutex
	lives map[string]int
	spent map[string]map[int64]bool // owner -> death instant (unix ns) -> spent
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		lives: make(map[string]int),
		spent: make(map[string]map[int64]bool),
	}
}

func (m *Memory) Lives(owner string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lives[owner]
}

func (m *Memory) CanRevive(owner string) bool {
	return m.Lives(owner) > 0
}

func (m *Memory) SpendLife(owner string, diedAt time.Time) (bool, SpendOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := diedAt.UnixNano()
	if m.spent[owner][key] {
		return true, SpendAlreadySpent
	}
	if m.lives[owner] <= 0 {
		return false, SpendNoLives
	}

	m.lives[owner]--
	if m.spent[owner] == nil {
		m.spent[owner] = make(map[int64]bool)
	}
	m.spent[owner][key] = true
	return true, SpendOK
}

func (m *Memory) Credit(owner string, n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.lives[owner] += n
	m.mu.Unlock()
}
