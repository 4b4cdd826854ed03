package dataset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storelens/storelens/config"
)

// Handle pairs a resident table with metadata for TTL eviction.
type Handle struct {
	ID       string
	Kind     Kind
	Table    *Table
	LoadedAt time.Time

	mu        sync.RWMutex
	expiresAt time.Time
}

// Gate coordinates capacity for resident datasets (backed by runtime.Controller).
type Gate interface {
	AcquireDataset(ctx context.Context) error
	ReleaseDataset()
}

// ErrNotLoaded indicates no dataset of the requested kind is resident.
var ErrNotLoaded = errors.New("dataset: not loaded")

// Store keeps the current table per dataset kind, with idle-TTL eviction.
// Replacing a kind's table evicts the previous one. Tables handed out are
// immutable snapshots; no lock is held while an analysis runs.
type Store struct {
	mu           sync.RWMutex
	byKind       map[Kind]*Handle
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         Gate
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
}

// NewStore constructs a dataset store. Pass ttl or cleanupEvery <= 0 to use
// defaults from config. Gate can be nil for tests; clock defaults to time.Now.
func NewStore(ttl, cleanupEvery time.Duration, gate Gate, clock func() time.Time) *Store {
	if ttl <= 0 {
		ttl = config.DefaultDatasetIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultDatasetCleanupPeriod
	}
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		byKind:       make(map[Kind]*Handle),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        clock,
		gate:         gate,
		stopCh:       make(chan struct{}),
	}
}

// Start launches periodic eviction of expired handles.
func (s *Store) Start() {
	s.cleanupWG.Add(1)
	ticker := time.NewTicker(s.cleanupEvery)
	go func() {
		defer s.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and drops all resident datasets.
func (s *Store) Close(ctx context.Context) error {
	close(s.stopCh)
	done := make(chan struct{})
	go func() { s.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for kind := range s.byKind {
		delete(s.byKind, kind)
		s.release()
	}
	return nil
}

// Put registers a table under the given kind and returns its handle ID.
// An existing table of the same kind is replaced and its capacity reused.
func (s *Store) Put(ctx context.Context, kind Kind, t *Table) (string, error) {
	if t == nil {
		return "", errors.New("dataset: nil table")
	}
	s.mu.Lock()
	replaced := s.byKind[kind] != nil
	s.mu.Unlock()

	if !replaced {
		if err := s.acquire(ctx); err != nil {
			return "", err
		}
	}

	now := s.clock()
	h := &Handle{
		ID:        uuid.NewString(),
		Kind:      kind,
		Table:     t,
		LoadedAt:  now,
		expiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	s.byKind[kind] = h
	s.mu.Unlock()
	return h.ID, nil
}

// Get returns the resident table for a kind, refreshing its idle TTL.
func (s *Store) Get(kind Kind) (*Table, error) {
	s.mu.RLock()
	h, ok := s.byKind[kind]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotLoaded
	}
	now := s.clock()
	h.mu.Lock()
	h.expiresAt = now.Add(s.ttl)
	h.mu.Unlock()
	return h.Table, nil
}

// GetHandle returns the resident handle for a kind, refreshing its idle TTL.
// Handlers use the handle ID to detect when a pagination cursor outlives the
// dataset it was issued against.
func (s *Store) GetHandle(kind Kind) (*Handle, error) {
	s.mu.RLock()
	h, ok := s.byKind[kind]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotLoaded
	}
	now := s.clock()
	h.mu.Lock()
	h.expiresAt = now.Add(s.ttl)
	h.mu.Unlock()
	return h, nil
}

// Snapshot returns every resident table keyed by kind. Used by the insight
// synthesizer, which consumes whatever subset has been uploaded.
func (s *Store) Snapshot() map[Kind]*Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Kind]*Table, len(s.byKind))
	for kind, h := range s.byKind {
		out[kind] = h.Table
	}
	return out
}

// Drop removes a kind's table, releasing its capacity.
func (s *Store) Drop(kind Kind) error {
	s.mu.Lock()
	_, ok := s.byKind[kind]
	if ok {
		delete(s.byKind, kind)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotLoaded
	}
	s.release()
	return nil
}

// EvictExpired removes datasets idle past their TTL.
func (s *Store) EvictExpired() {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for kind, h := range s.byKind {
		h.mu.RLock()
		expired := now.After(h.expiresAt)
		h.mu.RUnlock()
		if expired {
			delete(s.byKind, kind)
			s.release()
		}
	}
}

// Count returns the number of resident datasets.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKind)
}

func (s *Store) acquire(ctx context.Context) error {
	if s.gate == nil {
		return nil
	}
	return s.gate.AcquireDataset(ctx)
}

func (s *Store) release() {
	if s.gate == nil {
		return
	}
	s.gate.ReleaseDataset()
}
