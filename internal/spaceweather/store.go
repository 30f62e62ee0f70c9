package spaceweather

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the current dataset.
type Store struct {
	dataset atomic.Pointer[Dataset]
	mu      sync.Mutex // serializes fetch operations
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil if none has been loaded.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Set atomically replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// Loaded reports whether a dataset is available.
func (s *Store) Loaded() bool {
	return s.dataset.Load() != nil
}

// AgeSeconds returns the age of the current dataset in seconds, or -1 if
// none is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.FetchedAt).Seconds()
}

// Indices derives model indices for t from the current dataset.
func (s *Store) Indices(t time.Time) (Indices, error) {
	ds := s.dataset.Load()
	if ds == nil {
		return Indices{}, ErrNoDataset
	}
	return ds.Indices(t)
}

// Lock acquires the fetch mutex.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the fetch mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
