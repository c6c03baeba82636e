package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// Mock is an in-memory Source for tests. It returns the subset of its rows
// falling in [start, stop), or a canned error.
type Mock struct {
	mu     sync.Mutex
	rows   []types.Row
	err    error
	closed bool

	// Queries records every Query call for assertions.
	Queries []MockQuery
}

// MockQuery is one recorded Query call.
type MockQuery struct {
	Start time.Time
	Stop  time.Time
}

// NewMock returns a Mock source serving the given rows.
func NewMock(rows []types.Row) *Mock {
	return &Mock{rows: rows}
}

// SetRows replaces the served rows.
func (m *Mock) SetRows(rows []types.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

// SetError makes Query fail with the given error.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Query implements Source.
func (m *Mock) Query(ctx context.Context, start, stop time.Time) ([]types.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, MockQuery{Start: start, Stop: stop})
	if m.err != nil {
		return nil, m.err
	}

	var out []types.Row
	for _, row := range m.rows {
		if row.TS.Before(start) || !row.TS.Before(stop) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// Close implements Source.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
