package memory

import (
	"context"
	"sync"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/port"
)

// EndpointRepository keeps registrations in insertion order.
type EndpointRepository struct {
	mu        sync.RWMutex
	endpoints []domain.PushEndpoint
}

func NewEndpointRepository(endpoints ...domain.PushEndpoint) *EndpointRepository {
	return &EndpointRepository{endpoints: append([]domain.PushEndpoint(nil), endpoints...)}
}

func (r *EndpointRepository) Add(e domain.PushEndpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints = append(r.endpoints, e)
}

func (r *EndpointRepository) ListEndpoints(ctx context.Context) ([]domain.PushEndpoint, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.PushEndpoint(nil), r.endpoints...), nil
}

var _ port.EndpointRegistry = (*EndpointRepository)(nil)
