package hub

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tkw1536/gogokeyboard/key"
)

// Subscription is one consumer's view of the event stream.
// Events are buffered per subscription so that a slow consumer never holds up the Hub or other consumers.
type Subscription struct {
	id     string
	hub    *Hub
	policy BufferPolicy

	m        sync.Mutex // protects the fields below
	queue    []key.Event
	closed   bool // no more events will be queued
	canceled bool // the owner gave up; buffered events are discarded

	notify chan struct{} // has a value whenever the queue may be non-empty
	done   chan struct{} // closed once closed is set
	once   sync.Once

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func newSubscription(hub *Hub, policy BufferPolicy) *Subscription {
	return &Subscription{
		id:     uuid.NewString(),
		hub:    hub,
		policy: policy,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// ID returns a unique identifier of this subscription.
func (sub *Subscription) ID() string {
	return sub.id
}

// Dropped returns the number of events discarded by the overflow policy.
func (sub *Subscription) Dropped() uint64 {
	return sub.dropped.Load()
}

// Received returns the number of events returned by Next.
func (sub *Subscription) Received() uint64 {
	return sub.delivered.Load()
}

// Done is closed once the subscription no longer receives new events.
// Events buffered before that may still be returned by Next.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// deliver queues an event for this subscription without blocking.
// It reports whether the event was queued.
func (sub *Subscription) deliver(event key.Event) bool {
	sub.m.Lock()
	if sub.closed {
		sub.m.Unlock()
		return false
	}

	if sub.policy.Overflow != Unbounded && sub.policy.Size > 0 && len(sub.queue) >= sub.policy.Size {
		sub.dropped.Add(1)
		if sub.policy.Overflow == DropNewest {
			sub.m.Unlock()
			return false
		}
		sub.queue[0] = key.Event{}
		sub.queue = sub.queue[1:]
	}
	sub.queue = append(sub.queue, event)
	sub.m.Unlock()

	sub.wake()
	return true
}

func (sub *Subscription) wake() {
	select {
	case sub.notify <- struct{}{}:
	default:
	}
}

// end stops the subscription from accepting events.
// When discard is set, buffered events are dropped as well.
func (sub *Subscription) end(discard bool) {
	sub.m.Lock()
	sub.closed = true
	if discard {
		sub.canceled = true
		sub.queue = nil
	}
	sub.m.Unlock()

	sub.once.Do(func() { close(sub.done) })
	sub.wake()
}

// Cancel ends this subscription.
// Events that have not yet been returned by Next are discarded.
// Cancel is idempotent and does not affect other subscriptions.
func (sub *Subscription) Cancel() {
	sub.end(true)
	sub.hub.remove(sub)
}

// Next returns the next event of this subscription, waiting for one if needed.
//
// Once the subscription was cancelled, or the Hub was closed and all buffered events were returned, Next returns ErrDone.
// If ctx is done first, Next returns ctx.Err().
func (sub *Subscription) Next(ctx context.Context) (key.Event, error) {
	for {
		sub.m.Lock()
		if !sub.canceled && len(sub.queue) > 0 {
			event := sub.queue[0]
			sub.queue[0] = key.Event{}
			sub.queue = sub.queue[1:]
			if len(sub.queue) == 0 {
				sub.queue = nil // let the backing array go
			}
			sub.m.Unlock()

			sub.delivered.Add(1)
			return event, nil
		}
		finished := sub.closed
		sub.m.Unlock()

		if finished {
			return key.Event{}, ErrDone
		}

		select {
		case <-sub.notify:
		case <-ctx.Done():
			return key.Event{}, ctx.Err()
		}
	}
}

// Listen returns the events of this subscription in the order they were dispatched.
// The sequence ends when Next stops returning events, either because the subscription ended or ctx is done.
//
// The sequence can only be consumed once.
func (sub *Subscription) Listen(ctx context.Context) iter.Seq[key.Event] {
	return func(yield func(key.Event) bool) {
		for {
			event, err := sub.Next(ctx)
			if err != nil {
				return
			}
			if !yield(event) {
				return
			}
		}
	}
}

// Each calls fn for every event of this subscription until it ends.
//
// It returns nil when the subscription ended normally, ctx.Err() when ctx is done, or the first error returned by fn.
func (sub *Subscription) Each(ctx context.Context, fn func(key.Event) error) error {
	for {
		event, err := sub.Next(ctx)
		if err == ErrDone {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}
