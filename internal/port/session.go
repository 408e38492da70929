package port

import "context"

// SessionStore answers existence queries against the session table.
type SessionStore interface {
	CountSessions(ctx context.Context, id string) (int, error)
}

// SessionValidator decides whether a credential names a live session.
type SessionValidator interface {
	Validate(ctx context.Context, credential any) (bool, error)
}
