package workerthread

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_settleOnce(t *testing.T) {
	f := newFuture[int](newTestRoot().child(nil))
	assert.Equal(t, FuturePending, f.State())
	assert.NoError(t, f.Err())

	require.True(t, f.settle(FutureCompleted, 42, nil))
	assert.False(t, f.settle(FutureFailed, 7, errors.New("late")))

	assert.Equal(t, FutureCompleted, f.State())
	assert.Equal(t, 42, f.Value())
	assert.NoError(t, f.Err())
	waitForDone(t, f.Done())

	v, err := f.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, f.Cancel())
}

func TestFuture_failedValueIsZero(t *testing.T) {
	f := newFuture[string](nil)
	tag := errors.New("tag")
	require.True(t, f.settle(FutureFailed, "ignored", tag))
	assert.Empty(t, f.Value())
	assert.Same(t, tag, f.Err())
}

func TestFuture_waitContext(t *testing.T) {
	f := newFuture[int](newTestRoot().child(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// waiting does not resolve the future
	assert.Equal(t, FuturePending, f.State())
}

func TestFuture_cancel(t *testing.T) {
	s := newTestRoot().child(nil)
	f := newFuture[int](s)
	require.True(t, f.Cancel())
	assert.False(t, f.Cancel())
	assert.ErrorIs(t, s.err(), ErrCancelled)
}

func TestFuture_nilSettle(t *testing.T) {
	var f *Future[int]
	assert.False(t, f.settle(FutureCompleted, 1, nil))
}

func TestFutureState_String(t *testing.T) {
	assert.Equal(t, "Pending", FuturePending.String())
	assert.Equal(t, "Completed", FutureCompleted.String())
	assert.Equal(t, "Cancelled", FutureCancelled.String())
	assert.Equal(t, "Failed", FutureFailed.String())
	assert.Equal(t, "Unknown", FutureState(99).String())
}

func TestCancelledError(t *testing.T) {
	err := newCancelledError(ErrStopped)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, "workerthread: cancelled: workerthread: thread stopped", err.Error())
	assert.Same(t, err, newCancelledError(err))
	assert.Equal(t, "workerthread: cancelled", newCancelledError(ErrCancelled).Error())
	assert.Equal(t, "workerthread: cancelled", (&CancelledError{}).Error())
}

func TestPanicError(t *testing.T) {
	inner := errors.New("inner")
	assert.ErrorIs(t, PanicError{Value: inner}, inner)
	assert.NoError(t, PanicError{Value: "str"}.Unwrap())
	assert.Equal(t, "workerthread: callback panicked: str", PanicError{Value: "str"}.Error())
}
