package gui

import "github.com/pkg/errors"

// Names of the available window backends.
const (
	BackendSDL     = "sdl"
	BackendWebView = "webview"
)

// ErrUnavailable is returned by Open when the program was built without window support.
var ErrUnavailable = errors.New("gui: built without window support (rebuild with -tags gui)")

// ErrUnknownBackend is returned by Open for an unknown backend name.
var ErrUnknownBackend = errors.New("gui: unknown window backend")

// Open creates a capture window using the backend with the given name.
func Open(backend string, params WindowParams) (*Window, error) {
	b, err := lookup(backend)
	if err != nil {
		return nil, err
	}
	return NewWindow(b, params), nil
}
