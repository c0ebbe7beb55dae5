package countdown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTicker is driven by the test.
type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
	periods []time.Duration
}

func (fc *fakeClock) newTicker(d time.Duration) Ticker {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	fc.tickers = append(fc.tickers, t)
	fc.periods = append(fc.periods, d)
	return t
}

func (fc *fakeClock) last() *fakeTicker {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.tickers[len(fc.tickers)-1]
}

func (fc *fakeClock) count() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.tickers)
}

func TestHub_SharesOneTicker(t *testing.T) {
	fc := &fakeClock{}
	h := NewHub(WithTicker(fc.newTicker))
	defer h.Close()

	require.False(t, h.Running())

	var a, b atomic.Int32
	unsubA := h.Subscribe(func(time.Time) { a.Add(1) })
	unsubB := h.Subscribe(func(time.Time) { b.Add(1) })
	require.True(t, h.Running())
	require.Equal(t, 1, fc.count(), "second subscriber reuses the ticker")
	require.Equal(t, Period, fc.periods[0])

	fc.last().c <- time.Unix(100, 0)
	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, time.Millisecond)

	unsubA()
	require.True(t, h.Running())
	fc.last().c <- time.Unix(101, 0)
	require.Eventually(t, func() bool { return b.Load() == 2 }, time.Second, time.Millisecond)
	require.Equal(t, int32(1), a.Load())

	unsubB()
	require.False(t, h.Running())
	require.Eventually(t, func() bool { return fc.last().stopped.Load() }, time.Second, time.Millisecond)
}

func TestHub_RestartsAfterIdle(t *testing.T) {
	fc := &fakeClock{}
	h := NewHub(WithTicker(fc.newTicker), WithPeriod(250*time.Millisecond))
	defer h.Close()

	unsub := h.Subscribe(func(time.Time) {})
	unsub()
	unsub() // idempotent
	require.Equal(t, 0, h.Subscribers())
	require.False(t, h.Running())

	got := make(chan time.Time, 1)
	unsub = h.Subscribe(func(now time.Time) { got <- now })
	defer unsub()
	require.Equal(t, 2, fc.count())
	require.Equal(t, 250*time.Millisecond, fc.periods[1])

	want := time.Unix(200, 0)
	fc.last().c <- want
	require.Equal(t, want, <-got)
}

func TestHub_CloseStopsEverything(t *testing.T) {
	fc := &fakeClock{}
	h := NewHub(WithTicker(fc.newTicker))

	h.Subscribe(func(time.Time) {})
	h.Subscribe(func(time.Time) {})
	h.Close()

	require.False(t, h.Running())
	require.Equal(t, 0, h.Subscribers())
	require.True(t, fc.last().stopped.Load())

	// Subscribing after Close is a no-op.
	unsub := h.Subscribe(func(time.Time) { t.Error("handler called after Close") })
	unsub()
	require.Equal(t, 1, fc.count())
	require.False(t, h.Running())
}

func TestHub_UnsubscribeFromHandler(t *testing.T) {
	fc := &fakeClock{}
	h := NewHub(WithTicker(fc.newTicker))
	defer h.Close()

	done := make(chan struct{})
	var unsub func()
	unsub = h.Subscribe(func(time.Time) {
		unsub()
		close(done)
	})
	fc.last().c <- time.Unix(1, 0)
	<-done
	require.Eventually(t, func() bool { return !h.Running() }, time.Second, time.Millisecond)
}

func TestHub_RealTicker(t *testing.T) {
	h := NewHub(WithPeriod(5 * time.Millisecond))
	defer h.Close()

	ticks := make(chan time.Time, 8)
	unsub := h.Subscribe(func(now time.Time) {
		select {
		case ticks <- now:
		default:
		}
	})
	defer unsub()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick from real ticker")
	}
}
