package hub

import (
	"os"
	"time"
)

// Overflow decides what happens when a bounded subscription buffer is full.
type Overflow int

const (
	// Unbounded lets buffers grow without limit.
	// A consumer that never catches up grows its buffer for as long as it stays subscribed.
	Unbounded Overflow = iota

	// DropOldest discards the oldest buffered event to make room for the new one.
	DropOldest

	// DropNewest discards the incoming event.
	DropNewest
)

func (o Overflow) String() string {
	switch o {
	case Unbounded:
		return "unbounded"
	case DropOldest:
		return "drop-oldest"
	case DropNewest:
		return "drop-newest"
	default:
		return "unknown"
	}
}

// BufferPolicy configures per-subscription buffering.
type BufferPolicy struct {
	Overflow Overflow

	// Size is the maximum number of buffered events.
	// Only used by DropOldest and DropNewest.
	// A Size of zero or less disables the bound, so the buffer behaves as Unbounded.
	Size int
}

// Config configures a Hub.
type Config struct {
	// Rate is the number of times per second Run polls the Source.
	Rate int

	// MaxSubscribers is the maximum number of live subscriptions.
	// Zero means no limit.
	MaxSubscribers int

	Buffer BufferPolicy

	// OnTerminate is called exactly once, after Close, when the Source reports that the window was closed by the user.
	// When nil, the only signal is the ReasonWindowClosed returned by Run.
	OnTerminate func()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Rate:           30,
		MaxSubscribers: 64,
		Buffer: BufferPolicy{
			Overflow: Unbounded,
			Size:     256,
		},
	}
}

// interval returns the polling interval for this config.
func (c Config) interval() time.Duration {
	rate := c.Rate
	if rate <= 0 {
		rate = DefaultConfig().Rate
	}
	return time.Second / time.Duration(rate)
}

// signalProcess is replaced in tests.
var signalProcess = (*os.Process).Signal

// InterruptProcess sends an interrupt signal to the current process.
// It can be used as Config.OnTerminate to stop a program that handles os.Interrupt.
func InterruptProcess() {
	p, err := os.FindProcess(os.Getpid())
	if err == nil {
		err = signalProcess(p, os.Interrupt)
	}
	if err != nil {
		// os.Interrupt can not be sent on windows
		hubLogger.Error().Err(err).Msg("unable to interrupt process")
	}
}
