package runloop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	fn    func()
	count atomic.Int64
}

func (x *countingSource) Perform() {
	x.count.Add(1)
	if x.fn != nil {
		x.fn()
	}
}

var loopFactories = map[string]func(t *testing.T) Loop{
	`portable`: func(t *testing.T) Loop { return NewPortable() },
	`native`: func(t *testing.T) Loop {
		l, err := New()
		require.NoError(t, err)
		return l
	},
}

func forEachLoop(t *testing.T, fn func(t *testing.T, l Loop)) {
	for name, factory := range loopFactories {
		t.Run(name, func(t *testing.T) {
			l := factory(t)
			defer func() { assert.NoError(t, l.Close()) }()
			fn(t, l)
		})
	}
}

func startLoop(t *testing.T, l Loop) <-chan error {
	done := make(chan error, 1)
	go func() { done <- l.Run() }()
	return done
}

func stopLoop(t *testing.T, l Loop, done <-chan error) {
	l.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal(`loop did not stop`)
	}
}

func TestLoop_signalAndWake(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		performed := make(chan struct{}, 16)
		src := &countingSource{fn: func() { performed <- struct{}{} }}
		require.NoError(t, l.AddSource(src))
		done := startLoop(t, l)

		require.NoError(t, l.Signal(src))
		require.NoError(t, l.WakeUp())
		select {
		case <-performed:
		case <-time.After(5 * time.Second):
			t.Fatal(`source not performed`)
		}

		stopLoop(t, l, done)
		assert.Equal(t, int64(1), src.count.Load())
	})
}

func TestLoop_signalWithoutWakeIsDeferred(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		a := &countingSource{}
		performed := make(chan struct{}, 1)
		b := &countingSource{fn: func() { performed <- struct{}{} }}
		require.NoError(t, l.AddSource(a))
		require.NoError(t, l.AddSource(b))

		// signals before Run are observed at the first wake
		require.NoError(t, l.Signal(a))
		done := startLoop(t, l)
		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, a.count.Load())

		require.NoError(t, l.Signal(b))
		require.NoError(t, l.WakeUp())
		<-performed

		stopLoop(t, l, done)
		assert.Equal(t, int64(1), a.count.Load())
		assert.Equal(t, int64(1), b.count.Load())
	})
}

func TestLoop_signalsCoalesce(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		release := make(chan struct{})
		entered := make(chan struct{}, 1)
		var once sync.Once
		src := &countingSource{fn: func() {
			once.Do(func() {
				entered <- struct{}{}
				<-release
			})
		}}
		require.NoError(t, l.AddSource(src))
		done := startLoop(t, l)

		require.NoError(t, l.Signal(src))
		require.NoError(t, l.WakeUp())
		<-entered

		// the source is busy, all of these collapse into one Perform
		for range 100 {
			require.NoError(t, l.Signal(src))
			require.NoError(t, l.WakeUp())
		}
		close(release)

		require.Eventually(t, func() bool { return src.count.Load() == 2 }, 5*time.Second, time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		stopLoop(t, l, done)
		assert.Equal(t, int64(2), src.count.Load())
	})
}

func TestLoop_stopBeforeRun(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		l.Stop()
		done := startLoop(t, l)
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal(`stop before run was lost`)
		}
	})
}

func TestLoop_runTwice(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		performed := make(chan struct{}, 1)
		src := &countingSource{fn: func() { performed <- struct{}{} }}
		require.NoError(t, l.AddSource(src))
		done := startLoop(t, l)
		require.NoError(t, l.Signal(src))
		require.NoError(t, l.WakeUp())
		<-performed
		assert.ErrorIs(t, l.Run(), ErrLoopRunning)
		stopLoop(t, l, done)
	})
}

func TestLoop_sourceRegistration(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		src := &countingSource{}
		assert.ErrorIs(t, l.AddSource(nil), ErrNilSource)
		assert.ErrorIs(t, l.Signal(src), ErrSourceNotRegistered)
		assert.ErrorIs(t, l.RemoveSource(src), ErrSourceNotRegistered)
		require.NoError(t, l.AddSource(src))
		assert.ErrorIs(t, l.AddSource(src), ErrSourceRegistered)
		require.NoError(t, l.Signal(src))
		require.NoError(t, l.RemoveSource(src))
		assert.ErrorIs(t, l.Signal(src), ErrSourceNotRegistered)
	})
}

func TestLoop_removedSourceNotPerformed(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		removed := &countingSource{}
		performed := make(chan struct{}, 1)
		marker := &countingSource{fn: func() { performed <- struct{}{} }}
		require.NoError(t, l.AddSource(removed))
		require.NoError(t, l.AddSource(marker))
		require.NoError(t, l.Signal(removed))
		require.NoError(t, l.RemoveSource(removed))

		done := startLoop(t, l)
		require.NoError(t, l.Signal(marker))
		require.NoError(t, l.WakeUp())
		<-performed
		stopLoop(t, l, done)
		assert.Zero(t, removed.count.Load())
	})
}

func TestLoop_closed(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		src := &countingSource{}
		require.NoError(t, l.AddSource(src))
		require.NoError(t, l.Close())
		assert.ErrorIs(t, l.WakeUp(), ErrLoopClosed)
		assert.ErrorIs(t, l.Signal(src), ErrLoopClosed)
		assert.ErrorIs(t, l.AddSource(&countingSource{}), ErrLoopClosed)
		assert.ErrorIs(t, l.Run(), ErrLoopClosed)
		// stop after close must not panic
		l.Stop()
	})
}

func TestLoop_concurrentWakeUp(t *testing.T) {
	forEachLoop(t, func(t *testing.T, l Loop) {
		var signalled atomic.Int64
		src := &countingSource{}
		require.NoError(t, l.AddSource(src))
		done := startLoop(t, l)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 200 {
					signalled.Add(1)
					assert.NoError(t, l.Signal(src))
					assert.NoError(t, l.WakeUp())
				}
			}()
		}
		wg.Wait()

		// the last signal is always observed
		require.Eventually(t, func() bool { return src.count.Load() > 0 }, 5*time.Second, time.Millisecond)
		stopLoop(t, l, done)
		assert.LessOrEqual(t, src.count.Load(), signalled.Load())
	})
}

func TestIOEvents_String(t *testing.T) {
	for _, tc := range [...]struct {
		events IOEvents
		want   string
	}{
		{0, `none`},
		{EventRead, `read`},
		{EventRead | EventHangup, `read|hangup`},
		{EventRead | EventWrite | EventError | EventHangup, `read|write|error|hangup`},
		{1 << 10, `unknown`},
	} {
		assert.Equal(t, tc.want, tc.events.String())
	}
}
