// Package ledger tracks previously published product identifiers. The
// ledger is mutated only after a confirmed successful publish, never
// speculatively, and answers "have we published this product already" with
// an optional recency window.
package ledger

import (
	"context"
	"sync"
	"time"
)

// PostRecord is created at successful publish and consulted by all future
// runs until it expires (cooldown) or forever (permanent dedup).
type PostRecord struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"product_id" validate:"required"`
	Channel   string    `db:"channel" json:"channel"`
	Origin    string    `db:"origin" json:"origin"`
	PostedAt  time.Time `db:"posted_at" json:"posted_at"`
}

type Ledger interface {
	Seen(ctx context.Context, productID string) (bool, error)
	Record(ctx context.Context, rec PostRecord) error
}

// Memory is the run-scoped in-memory ledger. It also backs the file and
// feed variants and layers on top of every persistent backend so that
// hash-derived identifiers dedup within a run without ever being persisted.
// Safe for concurrent use: Record is an atomic insert, so a future worker
// pool cannot double-pass the seen check.
type Memory struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

func NewMemory(cooldown time.Duration) *Memory {
	return &Memory{
		seen:     make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (m *Memory) Seen(_ context.Context, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts, ok := m.seen[productID]
	if !ok {
		return false, nil
	}
	if m.cooldown > 0 && m.now().Sub(ts) > m.cooldown {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Record(_ context.Context, rec PostRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := rec.PostedAt
	if ts.IsZero() {
		ts = m.now()
	}
	m.seen[rec.ProductID] = ts
	return nil
}

// Len reports how many identifiers are currently tracked.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
