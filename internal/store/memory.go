package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sells-group/where2work/internal/model"
)

// MemoryStore keeps shortlists in process memory. Shortlists are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]time.Time
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]time.Time),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) AddShortlist(_ context.Context, sessionID, companyName string) error {
	if err := validateEntry(sessionID, companyName); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.sessions[sessionID]
	if !ok {
		entries = make(map[string]time.Time)
		s.sessions[sessionID] = entries
	}
	if _, exists := entries[companyName]; !exists {
		entries[companyName] = s.now()
	}
	return nil
}

func (s *MemoryStore) RemoveShortlist(_ context.Context, sessionID, companyName string) error {
	if err := validateEntry(sessionID, companyName); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions[sessionID], companyName)
	if len(s.sessions[sessionID]) == 0 {
		delete(s.sessions, sessionID)
	}
	return nil
}

func (s *MemoryStore) ListShortlist(_ context.Context, sessionID string) ([]model.ShortlistEntry, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]model.ShortlistEntry, 0, len(s.sessions[sessionID]))
	for name, at := range s.sessions[sessionID] {
		entries = append(entries, model.ShortlistEntry{SessionID: sessionID, CompanyName: name, AddedAt: at})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].AddedAt.Before(entries[j].AddedAt)
		}
		return entries[i].CompanyName < entries[j].CompanyName
	})
	return entries, nil
}

func (s *MemoryStore) ClearShortlist(_ context.Context, sessionID string) (int, error) {
	if err := validateSession(sessionID); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sessions[sessionID])
	delete(s.sessions, sessionID)
	return n, nil
}

func (s *MemoryStore) PruneShortlists(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for sessionID, entries := range s.sessions {
		for name, at := range entries {
			if at.Before(before) {
				delete(entries, name)
				n++
			}
		}
		if len(entries) == 0 {
			delete(s.sessions, sessionID)
		}
	}
	return n, nil
}

func (s *MemoryStore) Ping(context.Context) error    { return nil }
func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }
