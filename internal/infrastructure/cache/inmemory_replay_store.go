package cache

import (
	"context"
	"sync"
	"time"
)

type replayEntry struct {
	reply     *Reply
	expiresAt time.Time
}

// InMemoryReplayStore implements ReplayStore using an in-memory map.
// This is suitable for a single till and for testing.
type InMemoryReplayStore struct {
	mu        sync.Mutex
	entries   map[string]replayEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryReplayStore creates a new in-memory replay store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryReplayStore() *InMemoryReplayStore {
	store := &InMemoryReplayStore{
		entries:  make(map[string]replayEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop(5 * time.Minute)

	return store
}

// Claim reserves key unless a live entry already holds it
func (s *InMemoryReplayStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, exists := s.entries[key]; exists && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = replayEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Complete stores the reply and restarts the TTL
func (s *InMemoryReplayStore) Complete(ctx context.Context, key string, reply Reply, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := make([]byte, len(reply.Body))
	copy(body, reply.Body)
	reply.Body = body

	s.entries[key] = replayEntry{reply: &reply, expiresAt: s.now().Add(ttl)}
	return nil
}

// Lookup returns a copy of the completed reply for key
func (s *InMemoryReplayStore) Lookup(ctx context.Context, key string) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists || e.reply == nil || !s.now().Before(e.expiresAt) {
		return nil, nil
	}
	out := *e.reply
	return &out, nil
}

// Release forgets key
func (s *InMemoryReplayStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (s *InMemoryReplayStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryReplayStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
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

// cleanup removes expired entries from the store
func (s *InMemoryReplayStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryReplayStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ ReplayStore = (*InMemoryReplayStore)(nil)
