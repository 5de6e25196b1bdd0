package service

import (
	"sync"
	"time"

	"github.com/Ado-go/farmly-sub001/internal/domain"
)

const (
	defaultFallbackCarts = 10000
	defaultFallbackTTL   = 30 * 24 * time.Hour
)

// memoryCarts holds carts whose last save could not reach the durable slot.
// An entry is newer than whatever the slot holds and is dropped once a save
// to the slot succeeds, once it is older than ttl, or when the oldest entry
// makes room for a new session at capacity.
type memoryCarts struct {
	mu       sync.Mutex
	carts    map[string]memoryCart
	capacity int
	ttl      time.Duration
}

type memoryCart struct {
	state   domain.CartState
	savedAt time.Time
}

func newMemoryCarts(capacity int, ttl time.Duration) *memoryCarts {
	if capacity <= 0 {
		capacity = defaultFallbackCarts
	}
	if ttl <= 0 {
		ttl = defaultFallbackTTL
	}
	return &memoryCarts{
		carts:    make(map[string]memoryCart),
		capacity: capacity,
		ttl:      ttl,
	}
}

func (m *memoryCarts) load(sessionID string, now time.Time) (domain.CartState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.carts[sessionID]
	if !ok {
		return domain.CartState{}, false
	}
	if m.expired(entry, now) {
		delete(m.carts, sessionID)
		return domain.CartState{}, false
	}
	return entry.state, true
}

func (m *memoryCarts) save(sessionID string, state domain.CartState, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[sessionID]; !ok && len(m.carts) >= m.capacity {
		m.evict(now)
	}
	m.carts[sessionID] = memoryCart{state: state, savedAt: now}
}

func (m *memoryCarts) delete(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
}

func (m *memoryCarts) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts)
}

// evict drops expired entries, then the oldest one if still at capacity.
// Callers hold mu.
func (m *memoryCarts) evict(now time.Time) {
	var oldestID string
	var oldest time.Time
	for id, entry := range m.carts {
		if m.expired(entry, now) {
			delete(m.carts, id)
			continue
		}
		if oldestID == "" || entry.savedAt.Before(oldest) {
			oldestID, oldest = id, entry.savedAt
		}
	}
	if len(m.carts) >= m.capacity && oldestID != "" {
		delete(m.carts, oldestID)
	}
}

func (m *memoryCarts) expired(entry memoryCart, now time.Time) bool {
	return now.Sub(entry.savedAt) >= m.ttl
}
