package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

var (
	// ErrNotFound is returned when no location has been stored yet.
	ErrNotFound = errors.New("no location stored")
)

// Entry is a stored location with the time it was set.
type Entry struct {
	ID        int64              `json:"id" db:"id"`
	Location  planetary.Location `json:"location"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// MemoryStore is a concurrency-safe in-memory location repository.
type MemoryStore struct {
	mu sync.RWMutex

	// time-ordered, latest last
	history []Entry
	nextID  int64

	// max number of entries kept (0 = unlimited)
	maxHistory int
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

// Set appends loc as the current location and enforces retention.
func (s *MemoryStore) Set(_ context.Context, loc planetary.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.history = append(s.history, Entry{
		ID:        s.nextID,
		Location:  loc,
		UpdatedAt: s.now().UTC(),
	})

	if s.maxHistory > 0 && len(s.history) > s.maxHistory {
		over := len(s.history) - s.maxHistory
		s.history = append([]Entry(nil), s.history[over:]...)
	}
	return nil
}

// Get returns the most recently stored location.
func (s *MemoryStore) Get(_ context.Context) (planetary.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return planetary.Location{}, ErrNotFound
	}
	return s.history[len(s.history)-1].Location, nil
}

// History returns up to limit entries, newest first. limit <= 0 returns all.
func (s *MemoryStore) History(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(s.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.history[i])
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
