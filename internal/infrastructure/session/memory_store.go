// Package session keeps server-side login sessions and the signed cookie
// that points at them.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"go.uber.org/zap"
)

type memoryEntry struct {
	userID    uint
	expiresAt time.Time
}

// MemoryStore is a process-local session store. Expired entries are
// rejected on read and removed by a background sweeper.
type MemoryStore struct {
	sessions map[string]memoryEntry
	mu       sync.RWMutex
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewMemoryStore creates a store whose sweeper runs every interval once
// Start is called.
func NewMemoryStore(interval time.Duration, logger *zap.Logger) *MemoryStore {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		interval: interval,
		logger:   logger.Named("session-memory"),
		now:      time.Now,
	}
}

var _ outbound.SessionStore = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, userID uint, ttl time.Duration) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = memoryEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()

	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (uint, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return 0, outbound.ErrSessionNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return 0, outbound.ErrSessionNotFound
	}
	return entry.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start launches the sweeper. Calling Start twice is a no-op.
func (s *MemoryStore) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.sweepLoop(s.stop, s.done)
}

// Stop halts the sweeper and waits for it to exit
func (s *MemoryStore) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *MemoryStore) sweepLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Swept expired sessions", zap.Int("count", n))
			}
		}
	}
}

// Sweep removes every expired session and returns how many were dropped
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
