package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/cart"
)

type cartSlot struct {
	entries   []cart.Entry
	expiresAt time.Time
}

// InMemoryCartStore implements cart.Store using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryCartStore struct {
	mu        sync.RWMutex
	carts     map[string]cartSlot
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCartStore creates a new in-memory cart store. A positive ttl
// starts a background goroutine that evicts idle carts.
func NewInMemoryCartStore(ttl time.Duration) *InMemoryCartStore {
	store := &InMemoryCartStore{
		carts:    make(map[string]cartSlot),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	if ttl > 0 {
		store.wg.Add(1)
		go store.cleanupLoop()
	}

	return store
}

// Get returns a copy of the session's entries
func (s *InMemoryCartStore) Get(ctx context.Context, sessionID string) ([]cart.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.carts[sessionID]
	if !ok || s.expired(slot, time.Now()) {
		return []cart.Entry{}, nil
	}
	out := make([]cart.Entry, len(slot.entries))
	copy(out, slot.entries)
	return out, nil
}

// Put stores a copy of the entries. An empty log deletes the session.
func (s *InMemoryCartStore) Put(ctx context.Context, sessionID string, entries []cart.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		delete(s.carts, sessionID)
		return nil
	}
	stored := make([]cart.Entry, len(entries))
	copy(stored, entries)

	slot := cartSlot{entries: stored}
	if s.ttl > 0 {
		slot.expiresAt = time.Now().Add(s.ttl)
	}
	s.carts[sessionID] = slot
	return nil
}

// Delete drops a session's cart
func (s *InMemoryCartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

// ReferencesProduct reports whether any live cart holds the product
func (s *InMemoryCartStore) ReferencesProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	for _, slot := range s.carts {
		if !s.expired(slot, now) && containsProduct(slot.entries, productID) {
			return true, nil
		}
	}
	return false, nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryCartStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored carts (for testing/monitoring)
func (s *InMemoryCartStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}

func (s *InMemoryCartStore) expired(slot cartSlot, now time.Time) bool {
	return !slot.expiresAt.IsZero() && now.After(slot.expiresAt)
}

// cleanupLoop periodically removes expired carts
func (s *InMemoryCartStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryCartStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, slot := range s.carts {
		if s.expired(slot, now) {
			delete(s.carts, id)
		}
	}
}

var (
	_ cart.Store     = (*InMemoryCartStore)(nil)
	_ cart.Inspector = (*InMemoryCartStore)(nil)
)
