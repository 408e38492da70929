package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/pkg/metrics"
	"github.com/strogmv/siterelay/internal/port"
)

const DefaultAdmissionTimeout = 3 * time.Second

// Handshake carries the credential presented by a connecting client.
type Handshake struct {
	Credential any
}

// Gate admits connections whose credential validates within the timeout.
type Gate struct {
	validator port.SessionValidator
	timeout   time.Duration
	logger    *slog.Logger
}

func NewGate(validator port.SessionValidator, timeout time.Duration, log *slog.Logger) *Gate {
	if timeout <= 0 {
		timeout = DefaultAdmissionTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gate{validator: validator, timeout: timeout, logger: log}
}

// Admit returns nil when the handshake credential names a live session.
// Every denial wraps domain.ErrAccessDenied. A timeout is a denial and is
// not retried.
func (g *Gate) Admit(ctx context.Context, hs Handshake) error {
	err := g.admit(ctx, hs)
	metrics.Admissions.WithLabelValues(admissionResult(err)).Inc()
	if err != nil {
		g.logger.Info("connection denied", slog.String("reason", DenialReason(err)), slog.Any("error", err))
	}
	return err
}

func (g *Gate) admit(ctx context.Context, hs Handshake) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := g.validator.Validate(ctx, hs.Credential)
		done <- result{ok: ok, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: validation: %w", domain.ErrAccessDenied, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("%w: %w", domain.ErrAccessDenied, r.err)
		}
		if !r.ok {
			return fmt.Errorf("%w: unknown session", domain.ErrAccessDenied)
		}
		return nil
	}
}

// DenialReason names the cause of an admission error for close frames and logs.
func DenialReason(err error) string {
	if errors.Is(err, domain.ErrInvalidCredentialShape) {
		return "InvalidCredentialShape"
	}
	return "AccessDenied"
}

func admissionResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrInvalidCredentialShape):
		return "invalid_credential"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "denied"
	}
}
