package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/port"
)

const listEndpointsSQL = `SELECT url, session_id FROM push_notification_registration_endpoints ORDER BY id`

// EndpointRepository reads push endpoint registrations.
type EndpointRepository struct {
	DB Querier
}

func NewEndpointRepository(db Querier) *EndpointRepository {
	return &EndpointRepository{DB: db}
}

func (r *EndpointRepository) ListEndpoints(ctx context.Context) ([]domain.PushEndpoint, error) {
	if r.DB == nil {
		return nil, fmt.Errorf("db not configured")
	}
	rows, err := r.DB.Query(ctx, listEndpointsSQL)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	endpoints, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PushEndpoint, error) {
		var e domain.PushEndpoint
		err := row.Scan(&e.URL, &e.SessionID)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan endpoints: %w", err)
	}
	return endpoints, nil
}

var _ port.EndpointRegistry = (*EndpointRepository)(nil)
