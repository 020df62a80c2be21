package publish

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
)

func TestEncode(t *testing.T) {
	data, err := Encode(key.Event{Symbol: "C", Code: 6, Modifiers: key.LCtrl, Pressed: true})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"symbol":"C","code":6,"modifiers":64,"is_pressed":true}`
	if string(data) != want {
		t.Errorf("Encode() = %s, want %s", data, want)
	}

	if _, err := Decode([]byte("{")); err == nil {
		t.Error("Decode() of broken json did not fail")
	}
}

func TestWriter(t *testing.T) {
	event := key.Event{Symbol: "Left Shift", Code: 225, Modifiers: key.LShift, Pressed: true}

	var buffer bytes.Buffer
	if err := (Writer{Out: &buffer, Format: FormatJSON}).Write(event); err != nil {
		t.Fatal(err)
	}
	if got := buffer.String(); !strings.Contains(got, `    "symbol": "Left Shift"`) || !strings.HasSuffix(got, "}\n") {
		t.Errorf("json output = %q", got)
	}

	buffer.Reset()
	if err := (Writer{Out: &buffer, Format: FormatPretty}).Write(event); err != nil {
		t.Fatal(err)
	}
	if got := buffer.String(); !strings.Contains(got, "down") || !strings.Contains(got, "Left Shift") || !strings.Contains(got, "lshift") {
		t.Errorf("pretty output = %q", got)
	}

	buffer.Reset()
	if err := (Writer{Out: &buffer, Format: FormatNone}).Write(event); err != nil || buffer.Len() != 0 {
		t.Errorf("none format wrote %q, %v", buffer.String(), err)
	}
}

func TestWriter_Print(t *testing.T) {
	h := hub.New(nil, hub.DefaultConfig())
	sub, _ := h.Subscribe()

	h.Dispatch(key.Down("A", 4, 0))
	h.Dispatch(key.Up("A", 4, 0))
	h.Close()

	var buffer bytes.Buffer
	if err := (Writer{Out: &buffer, Format: FormatPretty}).Print(context.Background(), sub); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(buffer.String(), "\n"); lines != 2 {
		t.Errorf("printed %d lines, want 2", lines)
	}
}

func TestParseFormat(t *testing.T) {
	for _, value := range []string{"json", "pretty", "none", ""} {
		if _, err := ParseFormat(value); err != nil {
			t.Errorf("ParseFormat(%q) = %v", value, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) = %v, want ErrUnknownFormat", err)
	}
}
