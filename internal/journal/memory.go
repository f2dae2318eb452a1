package journal

import (
	"context"
	"sync"
	"time"
)

// memory is a fixed-size ring of entries.
type memory struct {
	mu      sync.RWMutex // guards entries and next
	entries []Entry
	next    int
	full    bool
}

// NewMemory returns a Journal keeping the last size entries in memory.
// State is lost when the process restarts.
func NewMemory(size int) Journal {
	if size <= 0 {
		size = 1
	}
	return &memory{entries: make([]Entry, size)}
}

func (m *memory) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *memory) Recent(ctx context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.next
	if m.full {
		n = len(m.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		out = append(out, m.entries[idx])
	}
	return out, nil
}

func (m *memory) Close() error { return nil }
