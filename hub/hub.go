// Package hub owns the set of pressed keys and fans key events out to subscribers.
package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/tkw1536/gogokeyboard/logging"
)

var hubLogger zerolog.Logger

func init() {
	logging.ComponentLogger("hub.Hub", &hubLogger)
}

// Source is a polled provider of native input signals, usually a capture window.
type Source interface {
	// Poll returns the signals received since the previous call, oldest first.
	// Poll must not block.
	Poll() []key.Native

	// Close releases the underlying input resource.
	// It must be safe to call more than once.
	Close() error
}

// closer is implemented by sources that can end on their own, like a window that failed to open.
type closer interface {
	Done() <-chan struct{}
}

// Reason tells why Run returned.
type Reason int

const (
	// ReasonContext means the context passed to Run was done.
	ReasonContext Reason = iota

	// ReasonClosed means Close was called.
	ReasonClosed

	// ReasonWindowClosed means the Source reported that the user closed the window.
	ReasonWindowClosed

	// ReasonSourceClosed means the Source was closed while the Hub was still open.
	ReasonSourceClosed
)

func (r Reason) String() string {
	switch r {
	case ReasonContext:
		return "context done"
	case ReasonClosed:
		return "hub closed"
	case ReasonWindowClosed:
		return "window closed"
	case ReasonSourceClosed:
		return "source closed"
	default:
		return "unknown"
	}
}

// Stats holds counters describing the work done by a Hub.
type Stats struct {
	Dispatched  uint64 // events handed to subscribers
	Suppressed  uint64 // native signals that produced no event
	Delivered   uint64 // per-subscriber deliveries accepted into a buffer
	Dropped     uint64 // per-subscriber events dropped by the overflow policy
	Subscribers int
}

// Hub is the single owner of the pressed key set and the live event stream.
//
// Dispatch and Run form the producer side and must only be used from one goroutine at a time.
// All other methods may be called concurrently.
type Hub struct {
	config Config
	source Source

	dispatchMu sync.Mutex // held while an event is being delivered, Close waits for it

	m       sync.RWMutex // protects pressed, subs and closed
	pressed map[int]key.Event
	subs    map[*Subscription]struct{}
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	running   atomic.Bool
	terminate sync.Once

	dispatched atomic.Uint64
	suppressed atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64 // from subscriptions that are gone
}

// New creates a new Hub reading from source.
// source may be nil when events are only fed using Dispatch.
func New(source Source, config Config) *Hub {
	return &Hub{
		config:  config,
		source:  source,
		pressed: make(map[int]key.Event),
		subs:    make(map[*Subscription]struct{}),
		done:    make(chan struct{}),
	}
}

// Subscribe registers a new consumer.
// The returned subscription receives every event dispatched from now on.
func (hub *Hub) Subscribe() (*Subscription, error) {
	hub.m.Lock()
	defer hub.m.Unlock()

	if hub.closed {
		return nil, ErrClosed
	}
	if max := hub.config.MaxSubscribers; max > 0 && len(hub.subs) >= max {
		return nil, ErrResourceExhausted
	}

	sub := newSubscription(hub, hub.config.Buffer)
	hub.subs[sub] = struct{}{}

	hubLogger.Debug().Str("subscription", sub.id).Int("count", len(hub.subs)).Msg("subscribed")
	return sub, nil
}

// Unsubscribe cancels sub.
// It is equivalent to sub.Cancel().
func (hub *Hub) Unsubscribe(sub *Subscription) {
	sub.Cancel()
}

// remove removes sub from the registry, if it is still present.
func (hub *Hub) remove(sub *Subscription) {
	hub.m.Lock()
	defer hub.m.Unlock()

	if _, ok := hub.subs[sub]; !ok {
		return
	}
	delete(hub.subs, sub)
	hub.dropped.Add(sub.Dropped())

	hubLogger.Debug().Str("subscription", sub.id).Int("count", len(hub.subs)).Msg("unsubscribed")
}

// Snapshot returns a copy of the currently pressed keys, indexed by code.
func (hub *Hub) Snapshot() map[int]key.Event {
	hub.m.RLock()
	defer hub.m.RUnlock()

	snapshot := make(map[int]key.Event, len(hub.pressed))
	for code, event := range hub.pressed {
		snapshot[code] = event
	}
	return snapshot
}

// Dispatch normalizes a native signal, updates the pressed keys and delivers the resulting event to every live subscriber.
// Signals that do not produce an event are ignored, see key.Normalize.
//
// Dispatch never blocks on subscribers.
func (hub *Hub) Dispatch(native key.Native) {
	event, ok := key.Normalize(native)
	if !ok {
		hub.suppressed.Add(1)
		return
	}

	hub.dispatchMu.Lock()
	defer hub.dispatchMu.Unlock()

	hub.m.Lock()
	if hub.closed {
		hub.m.Unlock()
		return
	}
	if event.Pressed {
		hub.pressed[event.Code] = event
	} else {
		// a release without a press happens when focus changes during startup
		delete(hub.pressed, event.Code)
	}
	subs := make([]*Subscription, 0, len(hub.subs))
	for sub := range hub.subs {
		subs = append(subs, sub)
	}
	hub.m.Unlock()

	hub.dispatched.Add(1)
	for _, sub := range subs {
		if sub.deliver(event) {
			hub.delivered.Add(1)
		}
	}

	hubLogger.Debug().Stringer("event", event).Int("subscribers", len(subs)).Msg("dispatched")
}

// Run polls the Source at the configured rate and dispatches what it returns.
//
// Run returns when ctx is done, when the Hub is closed, or when the Source reports that the user closed the window.
// In the last case Run closes the Hub and then calls Config.OnTerminate.
//
// When the Source has a Done method, Run also notices the Source being closed by someone else.
// It then dispatches what is still pending and closes the Hub.
// OnTerminate is not called in this case.
func (hub *Hub) Run(ctx context.Context) (Reason, error) {
	if hub.source == nil {
		return ReasonClosed, ErrNoSource
	}
	if hub.isClosed() {
		return ReasonClosed, ErrClosed
	}
	if !hub.running.CompareAndSwap(false, true) {
		return ReasonClosed, ErrRunning
	}
	defer hub.running.Store(false)

	interval := hub.config.interval()
	hubLogger.Info().Dur("interval", interval).Msg("polling event source")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var sourceDone <-chan struct{} // nil blocks forever
	if c, ok := hub.source.(closer); ok {
		sourceDone = c.Done()
	}

	for {
		ended := false
		select {
		case <-ctx.Done():
			return ReasonContext, nil
		case <-hub.done:
			return ReasonClosed, nil
		case <-sourceDone:
			ended = true
		case <-ticker.C:
		}

		if reason, stop := hub.poll(); stop {
			return reason, nil
		}

		if ended {
			if hub.isClosed() {
				return ReasonClosed, nil
			}
			hubLogger.Warn().Msg("source closed unexpectedly")
			hub.Close()
			return ReasonSourceClosed, nil
		}
	}
}

// poll dispatches everything the source has pending.
// It reports true when the source reported that the window was closed.
func (hub *Hub) poll() (Reason, bool) {
	for _, native := range hub.source.Poll() {
		if native.Kind == key.KindQuit {
			hubLogger.Info().Msg("window closed by user")
			hub.windowClosed()
			return ReasonWindowClosed, true
		}
		hub.Dispatch(native)
	}
	return 0, false
}

// windowClosed closes the hub and invokes the termination callback, at most once.
func (hub *Hub) windowClosed() {
	hub.terminate.Do(func() {
		hub.Close()
		if hub.config.OnTerminate != nil {
			hub.config.OnTerminate()
		}
	})
}

// Close releases the Source and ends all subscriptions.
// Subscribers still receive the events that were buffered before Close.
// An event that is being dispatched while Close is called is delivered to every subscriber first.
//
// Close is idempotent; calls after the first return the same error.
func (hub *Hub) Close() error {
	hub.closeOnce.Do(func() {
		hub.dispatchMu.Lock()
		hub.m.Lock()
		hub.closed = true
		subs := hub.subs
		hub.subs = make(map[*Subscription]struct{})
		hub.m.Unlock()
		hub.dispatchMu.Unlock()

		close(hub.done)
		for sub := range subs {
			hub.dropped.Add(sub.Dropped())
			sub.end(false)
		}

		if hub.source != nil {
			hub.closeErr = hub.source.Close()
		}
		hubLogger.Info().Int("subscribers", len(subs)).Msg("closed")
	})
	return hub.closeErr
}

// Done is closed when the Hub is closed.
func (hub *Hub) Done() <-chan struct{} {
	return hub.done
}

func (hub *Hub) isClosed() bool {
	hub.m.RLock()
	defer hub.m.RUnlock()
	return hub.closed
}

// Stats returns a snapshot of the hub counters.
func (hub *Hub) Stats() Stats {
	hub.m.RLock()
	defer hub.m.RUnlock()

	dropped := hub.dropped.Load()
	for sub := range hub.subs {
		dropped += sub.Dropped()
	}

	return Stats{
		Dispatched:  hub.dispatched.Load(),
		Suppressed:  hub.suppressed.Load(),
		Delivered:   hub.delivered.Load(),
		Dropped:     dropped,
		Subscribers: len(hub.subs),
	}
}
