package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager hands out one state machine per user. A machine's timestamps
// are owned exclusively by that instance; there is no cross-tab
// coordination, so two tabs on the same document race last-write-wins.
type Manager struct {
	mu       sync.Mutex
	now      func() time.Time
	machines map[uuid.UUID]*Machine
}

func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		now:      now,
		machines: make(map[uuid.UUID]*Machine),
	}
}

// ForUser returns the user's machine, creating it on first use.
func (g *Manager) ForUser(userID uuid.UUID) *Machine {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.machines[userID]
	if !ok {
		m = NewMachine(g.now)
		g.machines[userID] = m
	}
	return m
}

// Release drops the user's machine, e.g. on logout.
func (g *Manager) Release(userID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.machines, userID)
}
