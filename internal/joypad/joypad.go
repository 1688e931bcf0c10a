// Package joypad provides the controller input state of the
// session. Physical key identifiers are mapped to logical
// buttons, and the pressed buttons are held in a bitmask that
// the session hands to the core on every step.
package joypad

import (
	"fmt"
	"strings"

	"github.com/thelolagemann/nesfront/pkg/bits"
)

// Button represents a logical button on the controller. The
// value is the index of the button's bit in the Bitmask.
type Button = uint8

const (
	// ButtonA is the A button.
	ButtonA Button = iota
	// ButtonB is the B button.
	ButtonB
	// ButtonSelect is the Select button.
	ButtonSelect
	// ButtonStart is the Start button.
	ButtonStart
	// ButtonUp is the Up direction.
	ButtonUp
	// ButtonDown is the Down direction.
	ButtonDown
	// ButtonLeft is the Left direction.
	ButtonLeft
	// ButtonRight is the Right direction.
	ButtonRight
)

// Bitmask holds one bit per Button, set while the button is
// held down.
//
//	Bit 7 - Right
//	Bit 6 - Left
//	Bit 5 - Down
//	Bit 4 - Up
//	Bit 3 - Start
//	Bit 2 - Select
//	Bit 1 - B
//	Bit 0 - A
type Bitmask = uint8

var buttonNames = [...]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

// ButtonName returns the name of the button.
func ButtonName(b Button) string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("Button(%d)", b)
}

// ParseButton returns the Button with the given name,
// ignoring case.
func ParseButton(name string) (Button, error) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// Mask returns the Bitmask with only the given buttons set.
func Mask(buttons ...Button) Bitmask {
	var m Bitmask
	for _, b := range buttons {
		m = bits.Set(m, b)
	}
	return m
}

// KeyEvent is a physical key transition delivered by a
// display driver.
type KeyEvent struct {
	Key     string
	Pressed bool
}

// State represents the state of the controller. It outlives
// sessions: the bitmask is kept when a ROM is closed or
// replaced, and is only changed by press and release.
type State struct {
	state Bitmask
	keys  KeyMap
}

// New returns a new controller state using the given key map.
// A nil map uses DefaultKeyMap.
func New(keys KeyMap) *State {
	if keys == nil {
		keys = DefaultKeyMap()
	}
	return &State{keys: keys}
}

// Press presses a button.
func (s *State) Press(button Button) {
	if button > ButtonRight {
		return
	}
	s.state = bits.Set(s.state, button)
}

// Release releases a button.
func (s *State) Release(button Button) {
	if button > ButtonRight {
		return
	}
	s.state = bits.Reset(s.state, button)
}

// Current returns the live bitmask.
func (s *State) Current() Bitmask {
	return s.state
}

// IsPressed reports whether the button is held.
func (s *State) IsPressed(button Button) bool {
	return bits.Test(s.state, button)
}

// PressKey presses the button mapped to key, if any.
func (s *State) PressKey(key string) {
	if b, ok := s.keys.Lookup(key); ok {
		s.Press(b)
	}
}

// ReleaseKey releases the button mapped to key, if any.
func (s *State) ReleaseKey(key string) {
	if b, ok := s.keys.Lookup(key); ok {
		s.Release(b)
	}
}

// Handle applies a key event.
func (s *State) Handle(e KeyEvent) {
	if e.Pressed {
		s.PressKey(e.Key)
	} else {
		s.ReleaseKey(e.Key)
	}
}

// Keys returns the key map of the state.
func (s *State) Keys() KeyMap {
	return s.keys
}
