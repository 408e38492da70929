// Package memory provides in-memory repositories for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/strogmv/siterelay/internal/port"
)

type SessionRepository struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewSessionRepository(ids ...string) *SessionRepository {
	r := &SessionRepository{ids: make(map[string]struct{})}
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
	return r
}

func (r *SessionRepository) Add(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = struct{}{}
}

func (r *SessionRepository) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, id)
}

func (r *SessionRepository) CountSessions(ctx context.Context, id string) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.ids[id]; ok {
		return 1, nil
	}
	return 0, nil
}

var _ port.SessionStore = (*SessionRepository)(nil)
