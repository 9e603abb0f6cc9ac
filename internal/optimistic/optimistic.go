// Package optimistic applies a local state change ahead of a remote
// confirmation and reverts it when the confirmation does not arrive.
package optimistic

import (
	"context"
	"errors"
)

// ErrNotAcknowledged is returned when the remote side answered without error
// but did not acknowledge the change.
var ErrNotAcknowledged = errors.New("change not acknowledged")

// Op describes one optimistic update over local state of type T.
type Op[T any] struct {
	// Snapshot captures the state to restore on failure.
	Snapshot func() T
	// Apply performs the local change.
	Apply func()
	// Confirm performs the remote change. A false acknowledgment with a nil
	// error counts as a failure.
	Confirm func(ctx context.Context) (bool, error)
	// Restore puts the snapshot back.
	Restore func(T)
}

// Apply runs op. On failure the snapshot is restored and the error returned;
// the local change is kept only when Confirm acknowledges it.
func Apply[T any](ctx context.Context, op Op[T]) error {
	snapshot := op.Snapshot()
	op.Apply()

	ok, err := op.Confirm(ctx)
	if err == nil && !ok {
		err = ErrNotAcknowledged
	}
	if err != nil {
		op.Restore(snapshot)
		return err
	}
	return nil
}
