// Package storage provides the in-memory key-value store shared by the storage tools.
package storage

import (
	"sort"
	"sync"
	"time"
)

// Item is a single stored key-value pair.
type Item struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a process-wide key-value map safe for concurrent access.
// Each operation is atomic on its own; nothing spans multiple calls.
type Store struct {
	mu    sync.RWMutex
	items map[string]Item
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for item timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New constructs an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		items: make(map[string]Item),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set inserts or replaces the value for key and returns the stored item.
// CreatedAt is kept from the first insertion of the key.
func (s *Store) Set(key, value string) Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	it, ok := s.items[key]
	if !ok {
		it = Item{Key: key, CreatedAt: now}
	} else if now.Before(it.UpdatedAt) {
		now = it.UpdatedAt
	}
	it.Value = value
	it.UpdatedAt = now
	s.items[key] = it
	return it
}

// Get returns the item stored under key.
func (s *Store) Get(key string) (Item, bool) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	return it, ok
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	return true
}

// List returns a snapshot of every item, ordered by key.
func (s *Store) List() []Item {
	s.mu.RLock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Clear removes every item.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = make(map[string]Item)
	s.mu.Unlock()
}

// Size returns the number of stored items.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
