// Package cache stores encoded audio artifacts keyed by request
// fingerprint, so an identical request never re-runs inference.
package cache

import (
	"context"
	"time"

	"github.com/tonegate/tonegate/internal/speech"
)

// Entry is one cached artifact. Immutable after insertion.
type Entry struct {
	Key       string
	Bytes     []byte
	Format    speech.AudioFormat
	CreatedAt time.Time
}

// Store is the response cache contract. Get returns a fully formed entry
// or a miss — never a partially written one. Put is idempotent:
// concurrent identical misses may both insert and last write wins, which
// is harmless because both computations are semantically identical.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Put(ctx context.Context, entry *Entry) error
	Close() error
}
