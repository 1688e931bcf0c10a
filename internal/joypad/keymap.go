package joypad

import "strings"

// KeyMap maps physical key identifiers to buttons. Keys are
// compared case-insensitively, so "Z" and "z" are the same
// key.
type KeyMap map[string]Button

// DefaultKeyMap returns the default bindings: the arrow keys
// for the directions, Z and X for A and B, A for Select and
// S for Start.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		"up":    ButtonUp,
		"down":  ButtonDown,
		"left":  ButtonLeft,
		"right": ButtonRight,
		"z":     ButtonA,
		"x":     ButtonB,
		"a":     ButtonSelect,
		"s":     ButtonStart,
	}
}

// KeyMapFromNames builds a KeyMap from key to button name
// pairs, as found in the configuration file.
func KeyMapFromNames(names map[string]string) (KeyMap, error) {
	m := make(KeyMap, len(names))
	for key, name := range names {
		b, err := ParseButton(name)
		if err != nil {
			return nil, err
		}
		m[strings.ToLower(key)] = b
	}
	return m, nil
}

// Lookup returns the button bound to key.
func (m KeyMap) Lookup(key string) (Button, bool) {
	b, ok := m[strings.ToLower(key)]
	return b, ok
}
