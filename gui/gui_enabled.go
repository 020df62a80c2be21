//go:build gui

package gui

import "github.com/pkg/errors"

func lookup(name string) (WindowBackend, error) {
	switch name {
	case BackendSDL:
		return SDL, nil
	case BackendWebView:
		return WebView, nil
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", name)
	}
}
