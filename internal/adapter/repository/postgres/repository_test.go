package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/siterelay/internal/domain"
)

type fakeRow struct {
	count int
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = r.count
	return nil
}

type fakeRows struct {
	data   [][2]string
	i      int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.i >= len(r.data) {
		r.closed = true
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	*dest[0].(*string) = row[0]
	*dest[1].(*string) = row[1]
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	row := r.data[r.i-1]
	return []any{row[0], row[1]}, nil
}

type fakeQuerier struct {
	row      fakeRow
	rows     *fakeRows
	queryErr error
	sql      []string
	args     [][]any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	return q.row
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return q.rows, nil
}

func TestCountSessions(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{count: 1}}
	r := NewSessionRepository(q)

	n, err := r.CountSessions(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, q.sql, 1)
	assert.Equal(t, countSessionsSQL, q.sql[0])
	assert.Equal(t, []any{"abc"}, q.args[0])
}

func TestCountSessionsError(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewSessionRepository(&fakeQuerier{row: fakeRow{err: boom}})

	_, err := r.CountSessions(context.Background(), "abc")
	assert.ErrorIs(t, err, boom)
}

func TestRepositoriesWithoutDB(t *testing.T) {
	_, err := NewSessionRepository(nil).CountSessions(context.Background(), "abc")
	assert.Error(t, err)
	_, err = NewEndpointRepository(nil).ListEndpoints(context.Background())
	assert.Error(t, err)
}

func TestListEndpointsKeepsQueryOrder(t *testing.T) {
	rows := &fakeRows{data: [][2]string{
		{"https://push/1", "s1"},
		{"https://android.googleapis.com/gcm/send/abc", "s2"},
	}}
	q := &fakeQuerier{rows: rows}

	endpoints, err := NewEndpointRepository(q).ListEndpoints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.PushEndpoint{
		{URL: "https://push/1", SessionID: "s1"},
		{URL: "https://android.googleapis.com/gcm/send/abc", SessionID: "s2"},
	}, endpoints)
	assert.Equal(t, listEndpointsSQL, q.sql[0])
	assert.True(t, rows.closed)
}

func TestListEndpointsErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewEndpointRepository(&fakeQuerier{queryErr: boom}).ListEndpoints(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = NewEndpointRepository(&fakeQuerier{rows: &fakeRows{err: boom}}).ListEndpoints(context.Background())
	assert.ErrorIs(t, err, boom)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker(t *testing.T) {
	hc := NewHealthChecker(pingerFunc(func(context.Context) error { return nil }))
	assert.Equal(t, "postgres", hc.Name())
	require.NoError(t, hc.Ping(context.Background()))

	boom := errors.New("dial tcp: refused")
	hc = NewHealthChecker(pingerFunc(func(context.Context) error { return boom }))
	assert.ErrorIs(t, hc.Ping(context.Background()), boom)
}
