package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryTable is a mutex-guarded in-memory Store. Identities come from a monotonic
// sequence, so a newer record always has a larger id.
type MemoryTable[T any] struct {
	mu   sync.RWMutex
	seq  int64
	rows map[int64]T

	id     func(*T) int64
	setID  func(*T, int64)
	parent func(*T) int64

	// Optional hooks.
	less      func(a, b *T) bool
	clone     func(T) T
	conflicts func(existing, candidate *T) bool
	onCreate  func(v *T, now time.Time)
	onUpdate  func(v *T, now time.Time)
}

// NewMemoryTable creates a table keyed by id and grouped by parent.
func NewMemoryTable[T any](id func(*T) int64, setID func(*T, int64), parent func(*T) int64) *MemoryTable[T] {
	return &MemoryTable[T]{
		rows:   make(map[int64]T),
		id:     id,
		setID:  setID,
		parent: parent,
	}
}

func (m *MemoryTable[T]) copyOf(v T) T {
	if m.clone != nil {
		return m.clone(v)
	}
	return v
}

// GetByID returns a copy of the stored record.
func (m *MemoryTable[T]) GetByID(_ context.Context, id int64) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := m.copyOf(v)
	return &out, nil
}

// ListByParent returns copies of every child of parentID.
func (m *MemoryTable[T]) ListByParent(_ context.Context, parentID int64) ([]T, error) {
	return m.Filter(func(v *T) bool { return m.parent(v) == parentID }), nil
}

// Filter returns copies of every record matching keep, in table order.
func (m *MemoryTable[T]) Filter(keep func(*T) bool) []T {
	m.mu.RLock()
	var out []T
	for _, v := range m.rows {
		if keep(&v) {
			out = append(out, m.copyOf(v))
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if m.less != nil {
			if m.less(&out[i], &out[j]) {
				return true
			}
			if m.less(&out[j], &out[i]) {
				return false
			}
		}
		return m.id(&out[i]) < m.id(&out[j])
	})
	return out
}

// Create assigns the next identity and stores a copy of v.
func (m *MemoryTable[T]) Create(_ context.Context, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts != nil {
		for _, existing := range m.rows {
			if m.conflicts(&existing, v) {
				return ErrConflict
			}
		}
	}
	m.seq++
	m.setID(v, m.seq)
	if m.onCreate != nil {
		m.onCreate(v, time.Now())
	}
	m.rows[m.seq] = m.copyOf(*v)
	return nil
}

// Update replaces an existing record.
func (m *MemoryTable[T]) Update(_ context.Context, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id(v)
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	if m.onUpdate != nil {
		m.onUpdate(v, time.Now())
	}
	m.rows[id] = m.copyOf(*v)
	return nil
}

// Delete removes a record.
func (m *MemoryTable[T]) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// Len returns the number of stored records.
func (m *MemoryTable[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
