// internal/store/memory.go
//
// In-process Sink.  Rows are kept per table, and any row implementing
// UniqueKeyer is checked against earlier rows of the same table, failing
// with the PostgreSQL unique_violation code like the hosted store does.

package store

import (
	"context"
	"sync"
)

// UniqueKeyer marks rows with a uniqueness constraint.
type UniqueKeyer interface {
	UniqueKey() string
}

// Memory is a concurrency-safe Sink.  The zero value is ready to use.
type Memory struct {
	mu     sync.Mutex
	rows   map[string][]Row
	keys   map[string]map[string]struct{}
	failOn error
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory { return &Memory{} }

// FailWith makes every later Insert return err.  Pass nil to clear.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.failOn = err
	m.mu.Unlock()
}

// Insert stores row or reports a duplicate key.
func (m *Memory) Insert(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return &Error{Message: err.Error(), Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOn != nil {
		return m.failOn
	}
	if m.rows == nil {
		m.rows = make(map[string][]Row)
		m.keys = make(map[string]map[string]struct{})
	}

	table := row.Table()
	if uk, ok := row.(UniqueKeyer); ok {
		seen := m.keys[table]
		if seen == nil {
			seen = make(map[string]struct{})
			m.keys[table] = seen
		}
		if _, dup := seen[uk.UniqueKey()]; dup {
			return &Error{
				Code:    CodePostgresDuplicate,
				Message: "duplicate key value violates unique constraint \"" + table + "_email_key\"",
			}
		}
		seen[uk.UniqueKey()] = struct{}{}
	}
	m.rows[table] = append(m.rows[table], row)
	return nil
}

// Rows returns a copy of every row inserted into table.
func (m *Memory) Rows(table string) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Row(nil), m.rows[table]...)
}
