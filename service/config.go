package service

import (
	"flag"
	"os"

	"github.com/pkg/errors"
	"github.com/tkw1536/gogokeyboard/gui"
	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/tkw1536/gogokeyboard/publish"
	"go.yaml.in/yaml/v3"
)

// Names of the available event sources.
const (
	SourceSDL     = gui.BackendSDL
	SourceWebView = gui.BackendWebView
	SourceHook    = "hook"
)

var (
	ErrUnknownSource   = errors.New("service: unknown source")
	ErrUnknownOverflow = errors.New("service: unknown overflow policy")
	ErrInvalidBuffer   = errors.New("service: drop policies need a buffer size of at least 1")
	ErrUnknownFormat   = publish.ErrUnknownFormat
)

// Config configures the gogokeyboard service.
type Config struct {
	Source string `yaml:"source"`

	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	Rate           int    `yaml:"rate"`
	MaxSubscribers int    `yaml:"max_subscribers"`
	BufferSize     int    `yaml:"buffer_size"`
	Overflow       string `yaml:"overflow"`

	Bind  string `yaml:"bind"`
	Topic string `yaml:"topic"`
	CORS  bool   `yaml:"cors"`

	Print      string `yaml:"print"`
	RecordPath string `yaml:"record"`
	ExitCombo  string `yaml:"exit_combo"`

	Quiet bool `yaml:"quiet"`
	Debug bool `yaml:"debug"`
}

func DefaultConfig() Config {
	params := gui.DefaultParams()
	hc := hub.DefaultConfig()

	return Config{
		Source: SourceSDL,

		Title:  params.Title,
		Width:  params.Width,
		Height: params.Height,

		Rate:           hc.Rate,
		MaxSubscribers: hc.MaxSubscribers,
		BufferSize:     hc.Buffer.Size,
		Overflow:       hc.Buffer.Overflow.String(),

		Topic: publish.DefaultTopic,

		Print:     string(publish.FormatPretty),
		ExitCombo: "ctrl+c",
	}
}

// AddFlagsTo adds flags for this Config to the provided flagset.
// When flagset is nil, uses flag.CommandLine
func (c *Config) AddFlagsTo(flagset *flag.FlagSet) {
	if flagset == nil {
		flagset = flag.CommandLine
	}

	flagset.StringVar(&c.Source, "source", c.Source, "Where to read keys from: 'sdl' or 'webview' open a capture window, 'hook' listens system-wide")

	flagset.StringVar(&c.Title, "title", c.Title, "Title of the capture window")
	flagset.IntVar(&c.Width, "width", c.Width, "Width of the capture window")
	flagset.IntVar(&c.Height, "height", c.Height, "Height of the capture window")

	flagset.IntVar(&c.Rate, "rate", c.Rate, "Number of times per second to poll for events")
	flagset.IntVar(&c.MaxSubscribers, "max-subscribers", c.MaxSubscribers, "Maximum number of concurrent listeners, 0 for no limit")
	flagset.IntVar(&c.BufferSize, "buffer", c.BufferSize, "Per-listener buffer size for the drop-oldest and drop-newest policies")
	flagset.StringVar(&c.Overflow, "overflow", c.Overflow, "What to do when a listener falls behind: 'unbounded', 'drop-oldest' or 'drop-newest'")

	flagset.StringVar(&c.Bind, "bind", c.Bind, "Address to publish events on via websocket. Empty disables publishing")
	flagset.StringVar(&c.Topic, "topic", c.Topic, "Topic (path) to publish events on")
	flagset.BoolVar(&c.CORS, "cors", c.CORS, "Serve CORS headers")

	flagset.StringVar(&c.Print, "print", c.Print, "Print events to standard output: 'json', 'pretty' or 'none'")
	flagset.StringVar(&c.RecordPath, "record", c.RecordPath, "Record events to the given file. Files ending in '.db' are sqlite databases, anything else is JSON lines")
	flagset.StringVar(&c.ExitCombo, "exit", c.ExitCombo, "Key combination to press inside the window to exit. Empty disables")

	flagset.BoolVar(&c.Quiet, "quiet", c.Quiet, "Supress all logging output")
	flagset.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
}

// LoadFile loads configuration from the yaml file at path.
// Keys missing from the file keep their current values.
//
// Flags that were explicitly set on flagset are applied again afterwards, so the command line overrides the file.
// flagset may be nil.
func (c *Config) LoadFile(path string, flagset *flag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "unable to read config file")
	}

	explicit := make(map[string]string)
	if flagset != nil {
		flagset.Visit(func(f *flag.Flag) {
			explicit[f.Name] = f.Value.String()
		})
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "unable to parse %q", path)
	}

	for name, value := range explicit {
		if err := flagset.Set(name, value); err != nil {
			return errors.Wrapf(err, "unable to re-apply flag %q", name)
		}
	}
	return nil
}

// Validate checks that c is a usable configuration.
func (c Config) Validate() error {
	switch c.Source {
	case SourceSDL, SourceWebView, SourceHook:
	default:
		return errors.Wrapf(ErrUnknownSource, "%q", c.Source)
	}
	overflow, err := parseOverflow(c.Overflow)
	if err != nil {
		return err
	}
	if overflow != hub.Unbounded && c.BufferSize <= 0 {
		return errors.Wrapf(ErrInvalidBuffer, "overflow %q with buffer %d", c.Overflow, c.BufferSize)
	}
	if _, err := publish.ParseFormat(c.Print); err != nil {
		return err
	}
	if c.ExitCombo != "" {
		if _, err := key.ParseCombination(c.ExitCombo); err != nil {
			return err
		}
	}
	if c.Rate < 0 || c.MaxSubscribers < 0 || c.BufferSize < 0 {
		return errors.New("service: rate, max-subscribers and buffer must not be negative")
	}
	return nil
}

func parseOverflow(value string) (hub.Overflow, error) {
	for _, o := range []hub.Overflow{hub.Unbounded, hub.DropOldest, hub.DropNewest} {
		if o.String() == value {
			return o, nil
		}
	}
	if value == "" {
		return hub.Unbounded, nil
	}
	return 0, errors.Wrapf(ErrUnknownOverflow, "%q", value)
}

// HubConfig returns the configuration of the hub.
func (c Config) HubConfig() (hub.Config, error) {
	overflow, err := parseOverflow(c.Overflow)
	if err != nil {
		return hub.Config{}, err
	}
	return hub.Config{
		Rate:           c.Rate,
		MaxSubscribers: c.MaxSubscribers,
		Buffer: hub.BufferPolicy{
			Overflow: overflow,
			Size:     c.BufferSize,
		},
	}, nil
}

// WindowParams returns the parameters of the capture window.
func (c Config) WindowParams() gui.WindowParams {
	return gui.WindowParams{
		Title:  c.Title,
		Width:  c.Width,
		Height: c.Height,
	}
}
