package service

import (
	"context"
	"fmt"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/port"
)

// SessionValidator checks credentials for existence in the session store.
type SessionValidator struct {
	store port.SessionStore
}

func NewSessionValidator(store port.SessionStore) *SessionValidator {
	return &SessionValidator{store: store}
}

var _ port.SessionValidator = (*SessionValidator)(nil)

// Validate reports whether credential is the id of an existing session.
// Only string credentials are queried. Store failures are not retried.
func (v *SessionValidator) Validate(ctx context.Context, credential any) (bool, error) {
	id, ok := credential.(string)
	if !ok {
		return false, fmt.Errorf("%w: got %T", domain.ErrInvalidCredentialShape, credential)
	}
	count, err := v.store.CountSessions(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return count > 0, nil
}
