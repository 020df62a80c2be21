// Package source implements input sources that can be polled by a hub.Hub.
package source

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/tkw1536/gogokeyboard/key"
)

// ErrClosed is returned by Push once a Queue has been closed.
var ErrClosed = errors.New("source: closed")

// Queue buffers native signals pushed by an input backend until they are polled.
// A Queue implements hub.Source and is safe for concurrent use.
// The zero value is ready to use.
type Queue struct {
	m       sync.Mutex
	pending []key.Native
	closed  bool

	// OnClose is called once, by the first call to Close.
	OnClose func() error

	closeOnce sync.Once
	closeErr  error

	doneOnce sync.Once
	done     chan struct{}
}

// Done is closed once Close has been called.
func (q *Queue) Done() <-chan struct{} {
	q.doneOnce.Do(func() { q.done = make(chan struct{}) })
	return q.done
}

// Push appends signals to the queue.
func (q *Queue) Push(natives ...key.Native) error {
	q.m.Lock()
	defer q.m.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.pending = append(q.pending, natives...)
	return nil
}

// Poll returns and removes all pending signals.
func (q *Queue) Poll() []key.Native {
	q.m.Lock()
	defer q.m.Unlock()

	natives := q.pending
	q.pending = nil
	return natives
}

// Len returns the number of pending signals.
func (q *Queue) Len() int {
	q.m.Lock()
	defer q.m.Unlock()

	return len(q.pending)
}

// Close stops the queue from accepting signals and calls OnClose.
// Signals pushed before Close can still be polled.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.m.Lock()
		q.closed = true
		q.m.Unlock()

		if q.OnClose != nil {
			q.closeErr = q.OnClose()
		}
		q.Done()
		close(q.done)
	})
	return q.closeErr
}

// Closed reports if Close has been called.
func (q *Queue) Closed() bool {
	q.m.Lock()
	defer q.m.Unlock()

	return q.closed
}
