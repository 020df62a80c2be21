package service

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   error
	}{
		{"default", func(c *Config) {}, nil},
		{"hook source", func(c *Config) { c.Source = "hook" }, nil},
		{"unknown source", func(c *Config) { c.Source = "x11" }, ErrUnknownSource},
		{"unknown overflow", func(c *Config) { c.Overflow = "drop-all" }, ErrUnknownOverflow},
		{"unknown format", func(c *Config) { c.Print = "xml" }, ErrUnknownFormat},
		{"invalid combo", func(c *Config) { c.ExitCombo = "ctrl+a+b" }, key.ErrInvalidCombination},
		{"no combo", func(c *Config) { c.ExitCombo = "" }, nil},
		{"drop without buffer", func(c *Config) { c.Overflow = "drop-oldest"; c.BufferSize = 0 }, ErrInvalidBuffer},
		{"drop newest without buffer", func(c *Config) { c.Overflow = "drop-newest"; c.BufferSize = -1 }, ErrInvalidBuffer},
		{"unbounded without buffer", func(c *Config) { c.Overflow = "unbounded"; c.BufferSize = 0 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(&c)

			err := c.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_HubConfig(t *testing.T) {
	c := DefaultConfig()
	c.Overflow = "drop-oldest"
	c.BufferSize = 10
	c.MaxSubscribers = 3

	hc, err := c.HubConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := hub.Config{Rate: 30, MaxSubscribers: 3, Buffer: hub.BufferPolicy{Overflow: hub.DropOldest, Size: 10}}
	if hc.Rate != want.Rate || hc.MaxSubscribers != want.MaxSubscribers || hc.Buffer != want.Buffer || hc.OnTerminate != nil {
		t.Errorf("HubConfig() = %+v, want %+v", hc, want)
	}
}

func TestConfig_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gogokeyboard.yaml")
	err := os.WriteFile(path, []byte("source: webview\nrate: 60\nbind: 127.0.0.1:9000\nprint: json\n"), 0600)
	if err != nil {
		t.Fatal(err)
	}

	c := DefaultConfig()
	flagset := flag.NewFlagSet("test", flag.ContinueOnError)
	c.AddFlagsTo(flagset)
	if err := flagset.Parse([]string{"-rate", "10", "-cors"}); err != nil {
		t.Fatal(err)
	}

	if err := c.LoadFile(path, flagset); err != nil {
		t.Fatalf("LoadFile() = %v", err)
	}

	if c.Source != "webview" || c.Bind != "127.0.0.1:9000" || c.Print != "json" {
		t.Errorf("values from file were not loaded: %+v", c)
	}
	if c.Rate != 10 || !c.CORS {
		t.Errorf("command line did not override file: rate=%d cors=%v", c.Rate, c.CORS)
	}
	if c.Title != DefaultConfig().Title || c.ExitCombo != "ctrl+c" {
		t.Errorf("values missing from file were changed: %+v", c)
	}

	if err := c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("LoadFile() of a missing file did not fail")
	}
}
