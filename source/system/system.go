// Package system reads system-wide keyboard input using gohook.
package system

import (
	"fmt"
	"sort"
	"sync"
	"unicode"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/tkw1536/gogokeyboard/logging"
	"github.com/tkw1536/gogokeyboard/source"
)

var systemLogger zerolog.Logger

func init() {
	logging.ComponentLogger("source.System", &systemLogger)
}

// modifier bits reported in hook.Event.Mask (libuiohook MASK_*)
const (
	maskShiftL = 1 << 0
	maskCtrlL  = 1 << 1
	maskMetaL  = 1 << 2
	maskAltL   = 1 << 3
	maskShiftR = 1 << 4
	maskCtrlR  = 1 << 5
	maskMetaR  = 1 << 6
	maskAltR   = 1 << 7
	maskNum    = 1 << 13
	maskCaps   = 1 << 14
)

var maskModifiers = []struct {
	mask uint16
	mod  key.Modifier
}{
	{maskShiftL, key.LShift},
	{maskCtrlL, key.LCtrl},
	{maskMetaL, key.LGui},
	{maskAltL, key.LAlt},
	{maskShiftR, key.RShift},
	{maskCtrlR, key.RCtrl},
	{maskMetaR, key.RGui},
	{maskAltR, key.RAlt},
	{maskNum, key.Num},
	{maskCaps, key.Caps},
}

// charUndefined is the value of hook.Event.Keychar for events without a character.
const charUndefined = 0xFFFF

// symbols maps keycodes to the shortest name gohook knows for them.
var symbols = func() map[uint16]string {
	names := make([]string, 0, len(hook.Keycode))
	for name := range hook.Keycode {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})

	symbols := make(map[uint16]string, len(names))
	for _, name := range names {
		code := uint16(hook.Keycode[name])
		if _, ok := symbols[code]; !ok {
			symbols[code] = name
		}
	}
	return symbols
}()

// Source is a hub.Source reporting every key press on the system, regardless of the focused window.
//
// gohook reports auto-repeats as additional presses; Source marks them as repeats by tracking which keys are held.
// Only one Source can be active at the same time, globally.
type Source struct {
	source.Queue

	events chan hook.Event
	stop   chan struct{}
	wg     sync.WaitGroup

	held map[uint16]struct{} // only used by the pump goroutine
}

// Open starts listening for system-wide keyboard events.
func Open() *Source {
	src := &Source{
		events: hook.Start(),
		stop:   make(chan struct{}),
		held:   make(map[uint16]struct{}),
	}
	src.Queue.OnClose = src.end

	src.wg.Add(1)
	go src.pump()

	systemLogger.Info().Msg("listening for system-wide keyboard events")
	return src
}

func (src *Source) pump() {
	defer src.wg.Done()
	for {
		select {
		case <-src.stop:
			return
		case e, ok := <-src.events:
			if !ok {
				return
			}
			native, ok := src.translate(e)
			if !ok {
				continue
			}
			if err := src.Push(native); err != nil {
				return
			}
		}
	}
}

// translate turns a gohook event into a native signal.
// KeyHold is the raw press; KeyDown is the typed character and is ignored.
func (src *Source) translate(e hook.Event) (key.Native, bool) {
	native := key.Native{
		Symbol:    symbol(e),
		Code:      int(e.Keycode),
		Modifiers: modifiers(e.Mask),
		Raw:       e,
	}

	switch e.Kind {
	case hook.KeyHold:
		_, native.Repeat = src.held[e.Keycode]
		src.held[e.Keycode] = struct{}{}
		native.Kind = key.KindKeyDown
	case hook.KeyUp:
		delete(src.held, e.Keycode)
		native.Kind = key.KindKeyUp
	default:
		return key.Native{}, false
	}
	return native, true
}

func symbol(e hook.Event) string {
	if name, ok := symbols[e.Keycode]; ok {
		return name
	}
	if e.Keychar != charUndefined && unicode.IsPrint(e.Keychar) {
		return string(e.Keychar)
	}
	return fmt.Sprintf("keycode-%d", e.Keycode)
}

func modifiers(mask uint16) (mods key.Modifier) {
	for _, m := range maskModifiers {
		if mask&m.mask != 0 {
			mods |= m.mod
		}
	}
	return
}

func (src *Source) end() error {
	close(src.stop)
	hook.End()
	src.wg.Wait()

	systemLogger.Info().Msg("stopped listening")
	return nil
}

// Run blocks until the source is closed.
func (src *Source) Run() error {
	<-src.stop
	return nil
}
