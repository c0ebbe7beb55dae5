// Package countdown drives live expiry countdowns. Every visible view
// subscribes to one shared ticker; the ticker runs only while at least one
// view is subscribed.
package countdown

import (
	"sync"
	"time"
)

// Period is the default tick interval.
const Period = time.Second

// Ticker is the subset of *time.Ticker the hub needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewTickerFunc creates a ticker firing every d.
type NewTickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func newStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Handler receives the tick instant. Handlers run on the ticker goroutine and
// must not call Close.
type Handler func(now time.Time)

// Option configures a Hub.
type Option func(*Hub)

// WithPeriod overrides the tick interval.
func WithPeriod(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.period = d
		}
	}
}

// WithTicker injects the ticker constructor.
func WithTicker(fn NewTickerFunc) Option {
	return func(h *Hub) {
		if fn != nil {
			h.newTicker = fn
		}
	}
}

// Hub fans one ticker out to many subscribers.
type Hub struct {
	mu        sync.Mutex
	period    time.Duration
	newTicker NewTickerFunc
	subs      map[uint64]Handler
	nextID    uint64
	stop      chan struct{}
	closed    bool
	wg        sync.WaitGroup
}

// NewHub returns an idle hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		period:    Period,
		newTicker: newStdTicker,
		subs:      make(map[uint64]Handler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers fn and starts the ticker if it is not running. The
// returned func unsubscribes; calling it more than once is harmless. After
// Close, Subscribe registers nothing.
func (h *Hub) Subscribe(fn Handler) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || fn == nil {
		return func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	if h.stop == nil {
		h.start()
	}

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, id)
	if len(h.subs) == 0 {
		h.halt()
	}
}

// Close stops the ticker, drops every subscriber, and waits for the ticker
// goroutine to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.subs = make(map[uint64]Handler)
	h.halt()
	h.mu.Unlock()

	h.wg.Wait()
}

// Running reports whether the ticker goroutine is active.
func (h *Hub) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop != nil
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// start must be called with mu held.
func (h *Hub) start() {
	stop := make(chan struct{})
	h.stop = stop
	t := h.newTicker(h.period)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-t.C():
				h.dispatch(stop, now)
			}
		}
	}()
}

// halt must be called with mu held.
func (h *Hub) halt() {
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
}

func (h *Hub) dispatch(stop chan struct{}, now time.Time) {
	h.mu.Lock()
	select {
	case <-stop:
		// Halted between the tick and the lock
		h.mu.Unlock()
		return
	default:
	}
	handlers := make([]Handler, 0, len(h.subs))
	for _, fn := range h.subs {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(now)
	}
}
