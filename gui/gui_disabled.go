//go:build !gui

package gui

import "github.com/pkg/errors"

func lookup(name string) (WindowBackend, error) {
	switch name {
	case BackendSDL, BackendWebView:
		return nil, ErrUnavailable
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", name)
	}
}
