package service

import (
	"context"
	"errors"
	"sync"

	"github.com/strogmv/siterelay/internal/domain"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) Events() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.events...)
}

func (b *recordingBroadcaster) Named(id string) []domain.Event {
	var out []domain.Event
	for _, e := range b.Events() {
		if e.ID == id {
			out = append(out, e)
		}
	}
	return out
}

type fakeSessionStore struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	calls  int
}

func (s *fakeSessionStore) CountSessions(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[id], nil
}

type fakeRegistry struct {
	endpoints []domain.PushEndpoint
	err       error
}

func (r *fakeRegistry) ListEndpoints(context.Context) ([]domain.PushEndpoint, error) {
	return r.endpoints, r.err
}

type dispatchCall struct {
	Endpoint     domain.PushEndpoint
	Notification domain.Notification
	TTL          int
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	state func(domain.PushEndpoint) domain.DispatchState
}

func (d *recordingDispatcher) Dispatch(_ context.Context, endpoint domain.PushEndpoint, n domain.Notification, ttl int) domain.DispatchState {
	d.mu.Lock()
	d.calls = append(d.calls, dispatchCall{Endpoint: endpoint, Notification: n, TTL: ttl})
	d.mu.Unlock()
	if d.state != nil {
		return d.state(endpoint)
	}
	return domain.DispatchSent
}

func (d *recordingDispatcher) Calls() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchCall(nil), d.calls...)
}

type recordingPipeline struct {
	mu    sync.Mutex
	calls []string
}

func (p *recordingPipeline) Process(_ context.Context, eventID string, _ []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, eventID)
}

var errBoom = errors.New("boom")
