package hub

import "github.com/pkg/errors"

var (
	// ErrClosed is returned by operations on a Hub that has been closed.
	ErrClosed = errors.New("hub: closed")

	// ErrResourceExhausted is returned by Subscribe when the subscriber limit is reached.
	ErrResourceExhausted = errors.New("hub: subscriber limit reached")

	// ErrDone is returned by Subscription.Next once the subscription has ended.
	ErrDone = errors.New("hub: subscription done")

	// ErrNoSource is returned by Run when the Hub was created without a Source.
	ErrNoSource = errors.New("hub: no event source")

	// ErrRunning is returned by Run when another call to Run is in progress.
	ErrRunning = errors.New("hub: already running")
)
