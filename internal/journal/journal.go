// internal/journal/journal.go
//
// Invocation journal: an operational record of engine calls.
// Each GET /theseus produces one Entry (success or failure). The journal is
// write-mostly; it is read only by the debug route and never by request handling.
//
// Implementations:
//   - memory: bounded ring, used when no DSN is configured and in tests.
//   - sqlite: durable table applied through embedded migrations.
package journal

import (
	"context"
	"time"
)

// Status values stored with each entry.
const (
	StatusOK = "ok"
)

// Entry is one engine invocation.
type Entry struct {
	RequestID  string    `json:"requestId"`
	Token      string    `json:"token"`
	Move       string    `json:"move,omitempty"`
	Status     string    `json:"status"` // "ok" or an error code such as "engine_timeout"
	Detail     string    `json:"detail,omitempty"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Journal stores entries. Implementations must be safe for concurrent use.
type Journal interface {
	// Record appends an entry. CreatedAt is filled in when zero.
	Record(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	Close() error
}
