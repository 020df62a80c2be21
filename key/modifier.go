package key

import "strings"

// Modifier is a bitmask of active modifier keys.
// Bit values match SDL's KMOD_* constants.
type Modifier uint16

const (
	LShift Modifier = 0x0001
	RShift Modifier = 0x0002
	LCtrl  Modifier = 0x0040
	RCtrl  Modifier = 0x0080
	LAlt   Modifier = 0x0100
	RAlt   Modifier = 0x0200
	LGui   Modifier = 0x0400
	RGui   Modifier = 0x0800
	Num    Modifier = 0x1000
	Caps   Modifier = 0x2000
	AltGr  Modifier = 0x4000

	Shift = LShift | RShift
	Ctrl  = LCtrl | RCtrl
	Alt   = LAlt | RAlt
	Gui   = LGui | RGui
)

var modifierNames = []struct {
	bit  Modifier
	name string
}{
	{LShift, "lshift"},
	{RShift, "rshift"},
	{LCtrl, "lctrl"},
	{RCtrl, "rctrl"},
	{LAlt, "lalt"},
	{RAlt, "ralt"},
	{LGui, "lgui"},
	{RGui, "rgui"},
	{Num, "num"},
	{Caps, "caps"},
	{AltGr, "altgr"},
}

// Has reports if any of the bits in other are set in m.
func (m Modifier) Has(other Modifier) bool {
	return m&other != 0
}

// String returns the active modifiers joined by "+".
func (m Modifier) String() string {
	if m == 0 {
		return "none"
	}
	var names []string
	for _, n := range modifierNames {
		if m&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}
