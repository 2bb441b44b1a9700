package database

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Operation names a RecordStore method, used to inject failures and inspect calls.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Call records one store invocation.
type Call struct {
	Op     Operation
	Table  string
	Filter Filter
}

// MemoryDatabase is an in-process RecordStore for tests and local runs.
type MemoryDatabase struct {
	mu       sync.RWMutex
	tables   map[string][]Row
	failures map[string]error
	calls    []Call
}

// NewMemoryDatabase returns an empty store.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		tables:   make(map[string][]Row),
		failures: make(map[string]error),
	}
}

func failureKey(op Operation, table string) string {
	return string(op) + ":" + table
}

// FailOn makes every op on table return err.
func (m *MemoryDatabase) FailOn(op Operation, table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[failureKey(op, table)] = err
}

// Seed inserts rows verbatim, without recording calls.
func (m *MemoryDatabase) Seed(table string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.tables[table] = append(m.tables[table], r.clone())
	}
}

// Rows returns a copy of every row in table.
func (m *MemoryDatabase) Rows(table string) []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Row, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		out = append(out, r.clone())
	}
	return out
}

// Calls returns the recorded invocations in order.
func (m *MemoryDatabase) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// record logs the call and returns the injected failure, if any. Caller holds mu.
func (m *MemoryDatabase) record(op Operation, table string, filter Filter) error {
	m.calls = append(m.calls, Call{Op: op, Table: table, Filter: filter})
	return m.failures[failureKey(op, table)]
}

func project(row Row, columns []string) Row {
	if len(columns) == 0 {
		return row.clone()
	}
	out := make(Row, len(columns))
	for _, c := range columns {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}

// SelectOne returns the first row matching filter.
func (m *MemoryDatabase) SelectOne(ctx context.Context, table string, filter Filter, columns ...string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpSelect, table, filter); err != nil {
		return nil, err
	}
	for _, r := range m.tables[table] {
		if filter.Matches(r) {
			return project(r, columns), nil
		}
	}
	return nil, ErrNotFound
}

// Select returns every row matching filter.
func (m *MemoryDatabase) Select(ctx context.Context, table string, filter Filter, columns ...string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpSelect, table, filter); err != nil {
		return nil, err
	}
	var out []Row
	for _, r := range m.tables[table] {
		if filter.Matches(r) {
			out = append(out, project(r, columns))
		}
	}
	return out, nil
}

// Insert stores row, generating an id when none is given.
func (m *MemoryDatabase) Insert(ctx context.Context, table string, row Row) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpInsert, table, nil); err != nil {
		return nil, err
	}
	stored := row.clone()
	if stored.String("id") == "" {
		stored["id"] = uuid.NewString()
	}
	m.tables[table] = append(m.tables[table], stored)
	return stored.clone(), nil
}

// Update applies patch to every row matching filter.
func (m *MemoryDatabase) Update(ctx context.Context, table string, filter Filter, patch Row) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpUpdate, table, filter); err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return nil, ErrEmptyFilter
	}
	var out []Row
	for _, r := range m.tables[table] {
		if !filter.Matches(r) {
			continue
		}
		for k, v := range patch {
			r[k] = v
		}
		out = append(out, r.clone())
	}
	return out, nil
}

// Delete removes every row matching filter.
func (m *MemoryDatabase) Delete(ctx context.Context, table string, filter Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpDelete, table, filter); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	kept := m.tables[table][:0]
	removed := 0
	for _, r := range m.tables[table] {
		if filter.Matches(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.tables[table] = kept
	return removed, nil
}

// HealthCheck always succeeds.
func (m *MemoryDatabase) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryDatabase) Close() error {
	return nil
}
