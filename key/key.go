// Package key turns native keyboard signals into normalized key events.
package key

import "fmt"

// Kind is the kind of a native input signal.
type Kind uint8

const (
	// KindOther is any signal that is not relevant to keyboard capture.
	KindOther Kind = iota

	// KindKeyDown is a key transition to the pressed state, or an auto-repeat of it.
	KindKeyDown

	// KindKeyUp is a key transition to the released state.
	KindKeyUp

	// KindQuit signals that the capture window was closed by the user.
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindKeyDown:
		return "keydown"
	case KindKeyUp:
		return "keyup"
	case KindQuit:
		return "quit"
	default:
		return "other"
	}
}

// Native is a signal as reported by the host window or input layer.
type Native struct {
	Kind Kind

	Symbol    string
	Code      int
	Modifiers Modifier

	// Repeat is set for synthetic "still held" notifications.
	Repeat bool

	// Raw holds the backend-specific payload.
	// It never leaves the process.
	Raw interface{}
}

// Event is a normalized key press or release.
type Event struct {
	Symbol    string   `json:"symbol"`
	Code      int      `json:"code"`
	Modifiers Modifier `json:"modifiers"`
	Pressed   bool     `json:"is_pressed"`
}

func (e Event) String() string {
	state := "up"
	if e.Pressed {
		state = "down"
	}
	if e.Modifiers == 0 {
		return fmt.Sprintf("%s(%s #%d)", state, e.Symbol, e.Code)
	}
	return fmt.Sprintf("%s(%s #%d %s)", state, e.Symbol, e.Code, e.Modifiers)
}

// Normalize converts a native signal into an Event.
//
// The second return value is false when the signal must not produce an event:
// auto-repeats of a held key, window signals and anything that is not a key transition.
func Normalize(n Native) (Event, bool) {
	switch n.Kind {
	case KindKeyDown:
		if n.Repeat {
			return Event{}, false
		}
		return Event{Symbol: n.Symbol, Code: n.Code, Modifiers: n.Modifiers, Pressed: true}, true
	case KindKeyUp:
		return Event{Symbol: n.Symbol, Code: n.Code, Modifiers: n.Modifiers, Pressed: false}, true
	default:
		return Event{}, false
	}
}

// Down returns a native key-down signal.
func Down(symbol string, code int, mods Modifier) Native {
	return Native{Kind: KindKeyDown, Symbol: symbol, Code: code, Modifiers: mods}
}

// Repeat returns a native auto-repeat signal for a held key.
func Repeat(symbol string, code int, mods Modifier) Native {
	return Native{Kind: KindKeyDown, Symbol: symbol, Code: code, Modifiers: mods, Repeat: true}
}

// Up returns a native key-up signal.
func Up(symbol string, code int, mods Modifier) Native {
	return Native{Kind: KindKeyUp, Symbol: symbol, Code: code, Modifiers: mods}
}

// Quit returns a native window-closed signal.
func Quit() Native {
	return Native{Kind: KindQuit}
}
