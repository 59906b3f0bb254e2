package study

import (
	"sync"
)

// Store persists study state per user. Writes replace the whole record:
// state is small and whole-record writes keep the memory, Postgres and sync
// paths identical.
type Store interface {
	Progress(userID string) (Progress, error)
	SaveProgress(userID string, p Progress) error
	Bookmarks(userID string) ([]Bookmark, error)
	SaveBookmarks(userID string, marks []Bookmark) error
}

// MemoryStore is an in-memory Store for tests and single-process runs.
type MemoryStore struct {
	mu        sync.RWMutex
	progress  map[string]Progress
	bookmarks map[string][]Bookmark
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		progress:  make(map[string]Progress),
		bookmarks: make(map[string][]Bookmark),
	}
}

func (s *MemoryStore) Progress(userID string) (Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress[userID].Clone(), nil
}

func (s *MemoryStore) SaveProgress(userID string, p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[userID] = p.Clone()
	return nil
}

func (s *MemoryStore) Bookmarks(userID string) ([]Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Bookmark, len(s.bookmarks[userID]))
	copy(out, s.bookmarks[userID])
	return out, nil
}

func (s *MemoryStore) SaveBookmarks(userID string, marks []Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Bookmark, len(marks))
	copy(out, marks)
	s.bookmarks[userID] = out
	return nil
}
