package postgres

import (
	"context"
	"fmt"

	"github.com/strogmv/siterelay/internal/port"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	DB Pinger
}

var _ port.HealthChecker = (*HealthChecker)(nil)

func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{DB: db}
}

func (h *HealthChecker) Name() string { return "postgres" }

func (h *HealthChecker) Ping(ctx context.Context) error {
	if err := h.DB.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}
