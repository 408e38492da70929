package port

import (
	"context"

	"github.com/strogmv/siterelay/internal/domain"
)

// EndpointRegistry lists registered push endpoints ordered by insertion id.
type EndpointRegistry interface {
	ListEndpoints(ctx context.Context) ([]domain.PushEndpoint, error)
}
