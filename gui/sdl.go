//go:build gui

package gui

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/veandco/go-sdl2/sdl"
)

// SDL is a WindowBackend that uses SDL2
var SDL WindowBackend = sdlbackend{}

// sdlFrameDelay is the delay between two iterations of the SDL event loop, in milliseconds.
const sdlFrameDelay = 1000 / 30

type sdlbackend struct{}

type sdlWindow struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	sink     func(key.Native)

	quit atomic.Bool
}

func (sdlbackend) create(params WindowParams, sink func(key.Native)) (interface{}, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "unable to initialize sdl")
	}

	window, err := sdl.CreateWindow(
		params.Title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(params.Width), int32(params.Height),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "unable to create sdl window")
	}

	renderer, err := sdl.CreateRenderer(window, -1, 0)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, errors.Wrap(err, "unable to create sdl renderer")
	}

	return &sdlWindow{window: window, renderer: renderer, sink: sink}, nil
}

func (sdlbackend) run(ww interface{}) {
	w := ww.(*sdlWindow)
	for !w.quit.Load() {
		for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
			switch ev := e.(type) {
			case *sdl.QuitEvent:
				return
			case *sdl.KeyboardEvent:
				w.sink(sdlNative(ev))
			}
		}
		w.draw()
		sdl.Delay(sdlFrameDelay)
	}
}

// sdlNative converts an sdl keyboard event into a native signal.
func sdlNative(ev *sdl.KeyboardEvent) key.Native {
	kind := key.KindKeyUp
	if ev.Type == sdl.KEYDOWN {
		kind = key.KindKeyDown
	}
	return key.Native{
		Kind:      kind,
		Symbol:    sdl.GetKeyName(ev.Keysym.Sym),
		Code:      int(ev.Keysym.Scancode),
		Modifiers: key.Modifier(ev.Keysym.Mod),
		Repeat:    ev.Repeat != 0,
		Raw:       *ev,
	}
}

func (w *sdlWindow) draw() {
	w.renderer.SetDrawColor(0x3c, 0x6e, 0x71, 0xff)
	w.renderer.Clear()
	w.renderer.Present()
}

func (sdlbackend) destroy(ww interface{}) {
	w := ww.(*sdlWindow)
	w.renderer.Destroy()
	w.window.Destroy()
	sdl.Quit()
}

func (sdlbackend) requestClose(ww interface{}) {
	ww.(*sdlWindow).quit.Store(true)
}
