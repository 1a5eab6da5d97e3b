// Package snapshot defines the contract for the external randomness value
// captured when a round closes.
package snapshot

import (
	"context"
	"errors"

	"fairdraw/internal/models"
)

// ErrUnavailable is returned when a source cannot supply a value.
var ErrUnavailable = errors.New("snapshot source unavailable")

// Source supplies exactly one value that the operator could not know when
// the round's commitment was published, such as a future block hash.
//
// Snapshot runs while the round service holds its write lock, so every
// reader waits on it. Implementations must return promptly; fetch slow
// values beforehand and pass them in as a Static.
type Source interface {
	Snapshot(ctx context.Context) (models.Hash, error)
}

// Static is a value obtained out of band and handed to the engine as is.
type Static models.Hash

func (s Static) Snapshot(ctx context.Context) (models.Hash, error) {
	if err := ctx.Err(); err != nil {
		return models.Hash{}, err
	}
	if models.Hash(s).IsZero() {
		return models.Hash{}, ErrUnavailable
	}
	return models.Hash(s), nil
}

// Func adapts a function to Source.
type Func func(ctx context.Context) (models.Hash, error)

func (f Func) Snapshot(ctx context.Context) (models.Hash, error) {
	return f(ctx)
}
