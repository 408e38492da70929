package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/siterelay/internal/domain"
)

func TestSessionValidatorRejectsNonStringWithoutQuery(t *testing.T) {
	store := &fakeSessionStore{}
	v := NewSessionValidator(store)

	for _, credential := range []any{42, float64(42), nil, true, map[string]any{"id": "x"}} {
		ok, err := v.Validate(context.Background(), credential)
		assert.False(t, ok)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentialShape)
	}
	assert.Zero(t, store.calls)
}

func TestSessionValidatorCountsSessions(t *testing.T) {
	store := &fakeSessionStore{counts: map[string]int{"s1": 1}}
	v := NewSessionValidator(store)

	ok, err := v.Validate(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Validate(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, store.calls)
}

func TestSessionValidatorStoreFailure(t *testing.T) {
	store := &fakeSessionStore{err: errBoom}
	v := NewSessionValidator(store)

	ok, err := v.Validate(context.Background(), "s1")
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, 1, store.calls, "store failures are not retried")
}
