package gui

import "github.com/tkw1536/gogokeyboard/key"

// WindowBackend represents a backend for creating and managing capture windows.
type WindowBackend interface {
	// create creates a new window that reports keyboard signals to sink.
	// create must be called on the main thread.
	create(params WindowParams, sink func(key.Native)) (interface{}, error)

	// run runs the main loop of this window until it is closed.
	// run must be called from the main thread and must be followed by a call to destroy().
	run(interface{})

	// destroy destroys the window.
	// It must be called from the main thread
	destroy(interface{})

	// requestClose requests the window to be closed.
	// may only be called while run has not returned, from any goroutine.
	requestClose(interface{})
}

// WindowParams describes a capture window
type WindowParams struct {
	Title string

	Width, Height int
}

// DefaultParams returns the parameters of the default capture window.
func DefaultParams() WindowParams {
	return WindowParams{
		Title:  "Input",
		Width:  150,
		Height: 150,
	}
}
