package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
)

// Format is an output format of a Writer.
type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
	FormatNone   Format = "none"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("publish: unknown format")

// ParseFormat parses the name of a format.
func ParseFormat(value string) (Format, error) {
	switch f := Format(value); f {
	case FormatJSON, FormatPretty, FormatNone:
		return f, nil
	case "":
		return FormatNone, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", value)
	}
}

var (
	pressedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7ec4cf"))
	releasedStyle = lipgloss.NewStyle().Faint(true)
	modStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0a458"))
)

// Writer writes key events to an io.Writer.
type Writer struct {
	Out    io.Writer
	Format Format
}

// Write writes a single event.
func (w Writer) Write(event key.Event) error {
	switch w.Format {
	case FormatJSON:
		data, err := json.MarshalIndent(event, "", "    ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w.Out, "%s\n", data)
		return err
	case FormatPretty:
		_, err := fmt.Fprintln(w.Out, pretty(event))
		return err
	default:
		return nil
	}
}

func pretty(event key.Event) string {
	line := fmt.Sprintf("%-4s %-12s #%-4d", "up", event.Symbol, event.Code)
	style := releasedStyle
	if event.Pressed {
		line = fmt.Sprintf("%-4s %-12s #%-4d", "down", event.Symbol, event.Code)
		style = pressedStyle
	}
	if event.Modifiers == 0 {
		return style.Render(line)
	}
	return style.Render(line) + " " + modStyle.Render(event.Modifiers.String())
}

// Print writes every event of sub until it ends.
func (w Writer) Print(ctx context.Context, sub *hub.Subscription) error {
	return sub.Each(ctx, w.Write)
}
