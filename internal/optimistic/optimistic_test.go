package optimistic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/optimistic"
)

func statusOp(state map[string]string, confirm func(context.Context) (bool, error), seen *map[string]string) optimistic.Op[map[string]string] {
	return optimistic.Op[map[string]string]{
		Snapshot: func() map[string]string {
			cpy := make(map[string]string, len(state))
			for k, v := range state {
				cpy[k] = v
			}
			return cpy
		},
		Apply: func() { state["R001"] = "blocked" },
		Confirm: func(ctx context.Context) (bool, error) {
			if seen != nil {
				*seen = map[string]string{"R001": state["R001"]}
			}
			return confirm(ctx)
		},
		Restore: func(s map[string]string) {
			for k := range state {
				delete(state, k)
			}
			for k, v := range s {
				state[k] = v
			}
		},
	}
}

func TestApply_Confirmed(t *testing.T) {
	state := map[string]string{"R001": "open"}
	var seen map[string]string

	err := optimistic.Apply(context.Background(), statusOp(state, func(context.Context) (bool, error) {
		return true, nil
	}, &seen))
	require.NoError(t, err)
	assert.Equal(t, "blocked", state["R001"])
	assert.Equal(t, "blocked", seen["R001"], "local change is visible before confirmation")
}

func TestApply_RemoteError(t *testing.T) {
	state := map[string]string{"R001": "open"}
	boom := errors.New("network down")

	err := optimistic.Apply(context.Background(), statusOp(state, func(context.Context) (bool, error) {
		return false, boom
	}, nil))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "open", state["R001"])
}

func TestApply_NotAcknowledged(t *testing.T) {
	state := map[string]string{"R001": "open"}

	err := optimistic.Apply(context.Background(), statusOp(state, func(context.Context) (bool, error) {
		return false, nil
	}, nil))
	require.ErrorIs(t, err, optimistic.ErrNotAcknowledged)
	assert.Equal(t, "open", state["R001"])
}

func TestApply_CanceledContext(t *testing.T) {
	state := map[string]string{"R001": "open"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := optimistic.Apply(ctx, statusOp(state, func(ctx context.Context) (bool, error) {
		return false, ctx.Err()
	}, nil))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "open", state["R001"])
}
