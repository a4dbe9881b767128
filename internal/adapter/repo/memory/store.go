package memory

import (
	"context"
	"sync"

	"haggle/internal/app/ports"
)

type Store struct {
	mu           sync.RWMutex
	negotiations map[string]ports.NegotiationRecord
	byKey        map[string]string
	order        []string
}

func NewStore() *Store {
	return &Store{
		negotiations: make(map[string]ports.NegotiationRecord),
		byKey:        make(map[string]string),
	}
}

type txKey struct{}

func withTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, true)
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// read runs fn under the read lock unless the caller already holds the
// store through TxManager.
func (s *Store) read(ctx context.Context, fn func()) {
	if !inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}
