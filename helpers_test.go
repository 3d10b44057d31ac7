package workerthread

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

// testEvent captures the fields of a log event.
type testEvent struct {
	logiface.UnimplementedEvent
	fields map[string]any
	level  logiface.Level
}

func (e *testEvent) Level() logiface.Level { return e.level }

func (e *testEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = val
}

type testEventFactory struct{}

func (testEventFactory) NewEvent(level logiface.Level) *testEvent {
	return &testEvent{level: level}
}

// testEventWriter records every written event.
type testEventWriter struct {
	events []*testEvent
	mu     sync.Mutex
}

func (w *testEventWriter) Write(event *testEvent) error {
	w.mu.Lock()
	w.events = append(w.events, event)
	w.mu.Unlock()
	return nil
}

func (w *testEventWriter) messages(level logiface.Level) (msgs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.events {
		if e.level == level {
			msg, _ := e.fields["msg"].(string)
			msgs = append(msgs, msg)
		}
	}
	return
}

func newTestLogger() (*logiface.Logger[logiface.Event], *testEventWriter) {
	writer := &testEventWriter{}
	logger := logiface.New[*testEvent](
		logiface.WithEventFactory[*testEvent](testEventFactory{}),
		logiface.WithWriter[*testEvent](writer),
		logiface.WithLevel[*testEvent](logiface.LevelTrace),
	)
	return logger.Logger(), writer
}

func newTestThread(t *testing.T, opts ...Option) *Thread {
	t.Helper()
	thread, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, thread.Shutdown(ctx))
	})
	return thread
}

func waitForDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for done")
	}
}
