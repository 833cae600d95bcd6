// Package cache keeps the active calculator configurations of each type close
// to the calculation path.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/atinyakov/loancalc/internal/models"
)

type memoryEntry struct {
	calculators []models.Calculator
	expires     time.Time
}

// Memory is an in-process cache used when no Redis address is configured.
// Entries expire after ttl; a zero ttl keeps them until invalidated.
type Memory struct {
	mu      sync.RWMutex
	entries map[models.CalculatorType]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[models.CalculatorType]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached active configurations for t.
func (m *Memory) Get(_ context.Context, t models.CalculatorType) ([]models.Calculator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[t]
	if !ok || (!e.expires.IsZero() && !m.now().Before(e.expires)) {
		return nil, false
	}
	out := make([]models.Calculator, len(e.calculators))
	copy(out, e.calculators)
	return out, true
}

// Set stores a copy of cs under t.
func (m *Memory) Set(_ context.Context, t models.CalculatorType, cs []models.Calculator) error {
	e := memoryEntry{calculators: make([]models.Calculator, len(cs))}
	copy(e.calculators, cs)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[t] = e
	return nil
}

// Invalidate drops the entries of the given types.
func (m *Memory) Invalidate(_ context.Context, types ...models.CalculatorType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range types {
		delete(m.entries, t)
	}
	return nil
}
