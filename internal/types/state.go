package types

import (
	"errors"
	"fmt"
)

// ErrShortState is returned when a read runs past the end
// of the state data.
var ErrShortState = errors.New("state data too short")

// State is a sequential little-endian byte buffer used to
// serialize and deserialize state. Writes append to the
// buffer; reads consume it from the front. Reads never panic:
// the first out-of-range read records an error, returned by
// Err, and every later read yields zero values.
type State struct {
	raw          []byte // raw state data (for serialization)
	readPosition int    // current read position
	err          error
}

// Stater is an interface that allows an object to be saved
// and loaded from a state.
type Stater interface {
	Load(*State) // Load the state of the object
	Save(*State) // Save the state of the object
}

// NewState creates a new state.
func NewState() *State {
	return &State{
		raw: make([]byte, 0),
	}
}

// StateFromBytes creates a new state from the given bytes.
func StateFromBytes(raw []byte) *State {
	return &State{
		raw: raw,
	}
}

// ResetPosition resets the read position, allowing the
// state to be read from the beginning.
func (s *State) ResetPosition() {
	s.readPosition = 0
	s.err = nil
}

func (s *State) Write8(value uint8) {
	s.raw = append(s.raw, value)
}

func (s *State) Write16(value uint16) {
	s.raw = append(s.raw, byte(value), byte(value>>8))
}

func (s *State) Write32(value uint32) {
	s.raw = append(s.raw, byte(value), byte(value>>8), byte(value>>16), byte(value>>24))
}

func (s *State) Write64(value uint64) {
	s.Write32(uint32(value))
	s.Write32(uint32(value >> 32))
}

func (s *State) WriteBool(value bool) {
	if value {
		s.raw = append(s.raw, 1)
	} else {
		s.raw = append(s.raw, 0)
	}
}

func (s *State) WriteData(data []byte) {
	s.raw = append(s.raw, data...)
}

// take returns the next n bytes, or nil if fewer than n
// remain.
func (s *State) take(n int) []byte {
	if s.err != nil {
		return nil
	}
	if n < 0 || s.readPosition+n > len(s.raw) {
		s.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortState, n, s.readPosition, len(s.raw))
		return nil
	}
	b := s.raw[s.readPosition : s.readPosition+n]
	s.readPosition += n
	return b
}

func (s *State) Read8() uint8 {
	b := s.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (s *State) Read16() uint16 {
	b := s.take(2)
	if b == nil {
		return 0
	}
	return uint16(b[0]) | uint16(b[1])<<8
}

func (s *State) Read32() uint32 {
	b := s.take(4)
	if b == nil {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (s *State) Read64() uint64 {
	lo := s.Read32()
	hi := s.Read32()
	return uint64(lo) | uint64(hi)<<32
}

func (s *State) ReadBool() bool {
	return s.Read8() != 0
}

// ReadData fills p from the state.
func (s *State) ReadData(p []byte) {
	b := s.take(len(p))
	if b == nil {
		return
	}
	copy(p, b)
}

// Remaining returns the number of unread bytes.
func (s *State) Remaining() int {
	return len(s.raw) - s.readPosition
}

// Err returns the first read error, if any.
func (s *State) Err() error {
	return s.err
}

func (s *State) Bytes() []byte {
	return s.raw
}
