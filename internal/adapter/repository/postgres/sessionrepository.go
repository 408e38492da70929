package postgres

import (
	"context"
	"fmt"

	"github.com/strogmv/siterelay/internal/port"
)

const countSessionsSQL = `SELECT COUNT(*) FROM sessions WHERE id = $1`

// SessionRepository answers session existence queries.
type SessionRepository struct {
	DB Querier
}

func NewSessionRepository(db Querier) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) CountSessions(ctx context.Context, id string) (int, error) {
	if r.DB == nil {
		return 0, fmt.Errorf("db not configured")
	}
	var count int
	if err := r.DB.QueryRow(ctx, countSessionsSQL, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

var _ port.SessionStore = (*SessionRepository)(nil)
