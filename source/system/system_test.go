package system

import (
	"testing"

	hook "github.com/robotn/gohook"
	"github.com/tkw1536/gogokeyboard/key"
)

func TestSource_translate(t *testing.T) {
	src := &Source{held: make(map[uint16]struct{})}

	events := []hook.Event{
		{Kind: hook.KeyHold, Keycode: 30, Mask: maskCtrlL, Keychar: charUndefined},
		{Kind: hook.KeyDown, Keycode: 30, Keychar: 'a'},
		{Kind: hook.KeyHold, Keycode: 30, Mask: maskCtrlL, Keychar: charUndefined},
		{Kind: hook.KeyUp, Keycode: 30, Keychar: charUndefined},
		{Kind: hook.KeyHold, Keycode: 30, Keychar: charUndefined},
	}
	want := []struct {
		kind   key.Kind
		repeat bool
		mods   key.Modifier
	}{
		{key.KindKeyDown, false, key.LCtrl},
		{key.KindKeyDown, true, key.LCtrl},
		{key.KindKeyUp, false, 0},
		{key.KindKeyDown, false, 0},
	}

	var got []key.Native
	for _, e := range events {
		if native, ok := src.translate(e); ok {
			got = append(got, native)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("translate produced %d signals, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Kind != w.kind || got[i].Repeat != w.repeat || got[i].Modifiers != w.mods {
			t.Errorf("signal %d = %v repeat=%v mods=%v, want %v repeat=%v mods=%v", i, got[i].Kind, got[i].Repeat, got[i].Modifiers, w.kind, w.repeat, w.mods)
		}
		if got[i].Code != 30 {
			t.Errorf("signal %d has code %d, want 30", i, got[i].Code)
		}
	}
}

func TestModifiers(t *testing.T) {
	if got := modifiers(maskShiftR | maskAltL | maskCaps); got != key.RShift|key.LAlt|key.Caps {
		t.Errorf("modifiers() = %v", got)
	}
	if got := modifiers(0); got != 0 {
		t.Errorf("modifiers(0) = %v, want none", got)
	}
}
