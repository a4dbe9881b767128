package memory

import (
	"context"
	"sync"

	"haggle/internal/app/ports"
)

// LiveStore keeps live sessions in process memory only. Each session has
// its own lock so turns on different sessions do not serialize.
type LiveStore struct {
	mu       sync.Mutex
	sessions map[string]*liveEntry
}

type liveEntry struct {
	mu      sync.Mutex
	session *ports.LiveSession
}

func NewLiveStore() *LiveStore {
	return &LiveStore{sessions: map[string]*liveEntry{}}
}

func (s *LiveStore) Create(_ context.Context, sess *ports.LiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return ports.ErrConflict
	}
	s.sessions[sess.ID] = &liveEntry{session: sess}
	return nil
}

func (s *LiveStore) Update(ctx context.Context, id string, fn func(*ports.LiveSession) error) error {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return ports.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_, still := s.sessions[id]
	s.mu.Unlock()
	if !still {
		return ports.ErrNotFound
	}
	return fn(entry.session)
}

func (s *LiveStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *LiveStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
