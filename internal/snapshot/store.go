// Package snapshot persists the last applied feed responses so a restart can
// serve prices before the first fetch completes.
package snapshot

import (
	"context"
	"strings"
	"time"

	"github.com/commodex/commodex/errs"
	"github.com/commodex/commodex/internal/schema"
)

// Key identifies one persisted feed response.
type Key struct {
	Country  string
	Category string
}

// Record is one persisted quotes payload together with the backend fetch time.
type Record struct {
	Key       Key
	Quotes    []schema.RawQuote
	FetchedAt time.Time
	Version   uint64
}

// Store is the snapshot persistence contract.
type Store interface {
	Get(ctx context.Context, key Key) (Record, error)
	Put(ctx context.Context, record Record) (Record, error)
	Keys(ctx context.Context) ([]Key, error)
	Close() error
}

// Validate ensures the key addresses a concrete category scope.
func (k Key) Validate() error {
	if strings.TrimSpace(k.Category) == "" {
		return errs.New("snapshot/key", errs.CodeInvalid, errs.WithMessage("category required"))
	}
	if strings.TrimSpace(k.Country) == "" {
		return errs.New("snapshot/key", errs.CodeInvalid, errs.WithMessage("country required"))
	}
	return nil
}

// Clone returns a deep copy of the record payload.
func (r Record) Clone() Record {
	clone := r
	if r.Quotes != nil {
		clone.Quotes = make([]schema.RawQuote, len(r.Quotes))
		copy(clone.Quotes, r.Quotes)
	}
	return clone
}
