package key

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidCombination is returned by ParseCombination when the input does not name exactly one key.
var ErrInvalidCombination = errors.New("key: invalid combination")

// modifierGroups maps combination tokens to the modifier bits that satisfy them.
var modifierGroups = map[string]Modifier{
	"shift":  Shift,
	"lshift": LShift,
	"rshift": RShift,

	"ctrl":    Ctrl,
	"control": Ctrl,
	"lctrl":   LCtrl,
	"rctrl":   RCtrl,

	"alt":  Alt,
	"lalt": LAlt,
	"ralt": RAlt,

	"gui":   Gui,
	"cmd":   Gui,
	"super": Gui,
	"meta":  Gui,
	"lgui":  LGui,
	"rgui":  RGui,
}

var groupNames = map[Modifier]string{
	Shift: "shift",
	Ctrl:  "ctrl",
	Alt:   "alt",
	Gui:   "gui",
}

// Combination is a key together with the modifiers that must be held for it.
type Combination struct {
	// Symbol is the key symbol, compared case-insensitively.
	Symbol string

	// Modifiers holds one entry per required modifier.
	// An event satisfies an entry if any of its bits are set.
	Modifiers []Modifier
}

// ParseCombination parses a combination like "ctrl+c" or "lshift+alt+F4".
func ParseCombination(value string) (Combination, error) {
	var combo Combination
	for _, token := range strings.Split(value, "+") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if group, ok := modifierGroups[strings.ToLower(token)]; ok {
			combo.Modifiers = append(combo.Modifiers, group)
			continue
		}
		if combo.Symbol != "" {
			return Combination{}, errors.Wrapf(ErrInvalidCombination, "%q names more than one key", value)
		}
		combo.Symbol = token
	}
	if combo.Symbol == "" {
		return Combination{}, errors.Wrapf(ErrInvalidCombination, "%q names no key", value)
	}
	return combo, nil
}

// Matches reports if event is a press of this combination.
func (combo Combination) Matches(event Event) bool {
	if !event.Pressed || !strings.EqualFold(event.Symbol, combo.Symbol) {
		return false
	}
	for _, group := range combo.Modifiers {
		if !event.Modifiers.Has(group) {
			return false
		}
	}
	return true
}

func (combo Combination) String() string {
	parts := make([]string, 0, len(combo.Modifiers)+1)
	for _, group := range combo.Modifiers {
		if name, ok := groupNames[group]; ok {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, group.String())
	}
	return strings.Join(append(parts, combo.Symbol), "+")
}
