// Package service wires the gogokeyboard components together.
package service

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tkw1536/gogokeyboard/gui"
	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/tkw1536/gogokeyboard/logging"
	"github.com/tkw1536/gogokeyboard/publish"
	"github.com/tkw1536/gogokeyboard/record"
	"github.com/tkw1536/gogokeyboard/source/system"
	"golang.org/x/sync/errgroup"
)

var serviceLogger zerolog.Logger

func init() {
	logging.ComponentLogger("service.Service", &serviceLogger)
}

// Source is an event source that has to be run on the main thread.
type Source interface {
	hub.Source

	// Run blocks until the source is closed.
	Run() error
}

// OpenSource opens the source named in the configuration.
func (c Config) OpenSource() (Source, error) {
	switch c.Source {
	case SourceSDL, SourceWebView:
		window, err := gui.Open(c.Source, c.WindowParams())
		if err != nil {
			return nil, err
		}
		return window, nil
	case SourceHook:
		return system.Open(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownSource, "%q", c.Source)
	}
}

// Main reads events from src and hands them to all configured consumers.
// It returns once the hub was closed, either because ctx is done, the window was closed or the exit combination was pressed.
//
// Standard output is used for printing.
func (c Config) Main(ctx context.Context, src hub.Source) error {
	return c.run(ctx, src, os.Stdout)
}

func (c Config) run(ctx context.Context, src hub.Source, stdout io.Writer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	hc, err := c.HubConfig()
	if err != nil {
		return err
	}

	h := hub.New(src, hc)
	defer h.Close()

	g, ctx := errgroup.WithContext(ctx)

	// consumers subscribe before the hub starts, so that they see every event
	if format, _ := publish.ParseFormat(c.Print); format != publish.FormatNone {
		sub, err := h.Subscribe()
		if err != nil {
			return err
		}
		writer := publish.Writer{Out: stdout, Format: format}
		g.Go(func() error {
			return ignoreCanceled(writer.Print(ctx, sub))
		})
	}

	if c.RecordPath != "" {
		store, err := record.Open(c.RecordPath)
		if err != nil {
			return err
		}
		defer store.Close()

		sub, err := h.Subscribe()
		if err != nil {
			return err
		}
		serviceLogger.Info().Str("path", c.RecordPath).Msg("recording events")
		g.Go(func() error {
			return ignoreCanceled(record.Record(ctx, sub, store))
		})
	}

	if c.ExitCombo != "" {
		combo, _ := key.ParseCombination(c.ExitCombo)
		sub, err := h.Subscribe()
		if err != nil {
			return err
		}
		g.Go(func() error {
			for event := range sub.Listen(ctx) {
				if combo.Matches(event) {
					serviceLogger.Info().Stringer("combo", combo).Msg("exit combination pressed")
					return h.Close()
				}
			}
			return nil
		})
	}

	if c.Bind != "" {
		listener, err := net.Listen("tcp", c.Bind)
		if err != nil {
			return errors.Wrapf(err, "unable to listen on %q", c.Bind)
		}
		c.serve(ctx, g, h, listener)
	}

	g.Go(func() error {
		defer h.Close()

		reason, err := h.Run(ctx)
		serviceLogger.Info().Stringer("reason", reason).Msg("hub stopped")
		return err
	})

	return g.Wait()
}

// serve publishes the events of h on listener until ctx is done or h is closed.
func (c Config) serve(ctx context.Context, g *errgroup.Group, h *hub.Hub, listener net.Listener) {
	server := &publish.Server{
		Hub:   h,
		Topic: c.Topic,
	}
	if c.CORS {
		server.CORSDomains = "*"
	}

	httpServer := &http.Server{
		Handler: server,
	}

	g.Go(func() error {
		serviceLogger.Info().Str("bind", listener.Addr().String()).Str("topic", c.Topic).Msg("server listening")
		err := httpServer.Serve(listener)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-h.Done():
		}
		serviceLogger.Info().Msg("server closing")
		server.Close()
		return httpServer.Close()
	})
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
