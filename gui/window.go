// Package gui implements capture windows that report the keys pressed while they are focused.
package gui

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/tkw1536/gogokeyboard/logging"
	"github.com/tkw1536/gogokeyboard/source"
)

var windowLogger zerolog.Logger

func init() {
	logging.ComponentLogger("gui.Window", &windowLogger)
}

// Window is a capture window.
// It implements hub.Source.
type Window struct {
	source.Queue

	backend WindowBackend
	params  WindowParams

	m       sync.Mutex // protects inst and closing
	inst    interface{}
	closing bool
}

// NewWindow creates a new window using the given backend.
// The window is not shown until Run is called.
func NewWindow(backend WindowBackend, params WindowParams) *Window {
	w := &Window{
		backend: backend,
		params:  params,
	}
	w.Queue.OnClose = w.requestClose
	return w
}

// Run shows the window and runs its main loop.
// It blocks until the window is closed, either by the user or by a call to Close.
// When the user closed the window, a key.KindQuit signal is queued.
//
// Run *must* be called from the main thread.
// This can be achieved by calling runtime.LockOSThread() in an init() function
// And then calling this function towards the end of main().
func (w *Window) Run() error {
	w.m.Lock()
	if w.closing {
		w.m.Unlock()
		return nil
	}
	inst, err := w.backend.create(w.params, w.sink)
	if err != nil {
		w.m.Unlock()
		windowLogger.Error().Err(err).Msg("Unable to create window")
		return errors.Wrap(err, "unable to create window")
	}
	w.inst = inst
	w.m.Unlock()

	windowLogger.Info().Str("title", w.params.Title).Msg("Window opened")
	w.backend.run(inst)

	w.m.Lock()
	w.inst = nil
	byUser := !w.closing
	w.m.Unlock()

	w.backend.destroy(inst)

	if byUser {
		windowLogger.Info().Msg("Window closed by user")
		w.Push(key.Quit())
	} else {
		windowLogger.Info().Msg("Window closed")
	}
	return nil
}

func (w *Window) sink(native key.Native) {
	if err := w.Push(native); err != nil {
		windowLogger.Debug().Err(err).Stringer("kind", native.Kind).Msg("dropping signal")
	}
}

func (w *Window) requestClose() error {
	w.m.Lock()
	defer w.m.Unlock()

	w.closing = true
	if w.inst != nil {
		windowLogger.Info().Msg("Closing window")
		w.backend.requestClose(w.inst)
	}
	return nil
}
