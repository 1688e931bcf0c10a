// Package refcore provides a reference emulation core. It does
// not run the cartridge's program: it validates the ROM image,
// and renders a deterministic pattern driven by its frame
// counter and controller input. It exists so that sessions,
// drivers and state files can be exercised end to end without
// a full emulator.
package refcore

import (
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/thelolagemann/nesfront/internal/types"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/utils"
)

const (
	stateMagic   uint32 = 0x45524352 // "RCRE"
	stateVersion uint8  = 1
	stateSize           = 4 + 1 + 8 + 8 + 4 + 1
)

// palette holds the colours of the pattern.
var palette = [8][3]uint8{
	{0x00, 0x00, 0x00},
	{0x1D, 0x2B, 0x53},
	{0x7E, 0x25, 0x53},
	{0x00, 0x87, 0x51},
	{0xAB, 0x52, 0x36},
	{0x5F, 0x57, 0x4F},
	{0xC2, 0xC3, 0xC7},
	{0xFF, 0xF1, 0xE8},
}

// Core is the reference core.
type Core struct {
	header      Header
	fingerprint uint64

	frame uint64
	noise uint32
	input uint8

	fb     *emulator.Framebuffer
	closed bool
}

// New loads the ROM at romPath, which may be compressed or
// archived, and returns a core bound to it. It satisfies
// emulator.Constructor.
func New(romPath string) (emulator.Core, error) {
	rom, err := utils.LoadFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", emulator.ErrRomLoad, err)
	}
	c, err := FromBytes(rom)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", emulator.ErrRomLoad, romPath, err)
	}
	return c, nil
}

// FromBytes returns a core bound to the ROM image rom.
func FromBytes(rom []byte) (*Core, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	c := &Core{
		header:      h,
		fingerprint: xxhash.Sum64(rom[:h.Size()]),
		fb:          emulator.NewFramebuffer(),
	}
	c.Reset()
	return c, nil
}

// Header returns the header of the loaded ROM.
func (c *Core) Header() Header {
	return c.header
}

// Fingerprint returns the hash identifying the loaded ROM.
func (c *Core) Fingerprint() uint64 {
	return c.fingerprint
}

// Frame returns the number of frames stepped since the last
// reset.
func (c *Core) Frame() uint64 {
	return c.frame
}

// Step advances the core by one frame.
func (c *Core) Step(input uint8) *emulator.Framebuffer {
	c.frame++
	c.input = input
	c.noise = c.noise*1664525 + 1013904223 + uint32(input)
	c.render()
	return c.fb
}

// Reset returns the core to its power on state.
func (c *Core) Reset() {
	c.frame = 0
	c.input = 0
	c.noise = uint32(c.fingerprint) ^ uint32(c.fingerprint>>32)
	c.render()
}

// Save serializes the state of the core.
func (c *Core) Save() ([]byte, error) {
	s := types.NewState()
	s.Write32(stateMagic)
	s.Write8(stateVersion)
	s.Write64(c.fingerprint)
	s.Write64(c.frame)
	s.Write32(c.noise)
	s.Write8(c.input)
	return s.Bytes(), nil
}

// Load restores a state produced by Save. States made with a
// different ROM are rejected, and the core is left untouched.
func (c *Core) Load(blob []byte) error {
	if len(blob) != stateSize {
		return fmt.Errorf("%w: state is %d bytes, want %d", emulator.ErrIncompatibleState, len(blob), stateSize)
	}
	s := types.StateFromBytes(blob)
	if m := s.Read32(); m != stateMagic {
		return fmt.Errorf("%w: not a reference core state", emulator.ErrIncompatibleState)
	}
	if v := s.Read8(); v != stateVersion {
		return fmt.Errorf("%w: state version %d", emulator.ErrIncompatibleState, v)
	}
	if f := s.Read64(); f != c.fingerprint {
		return fmt.Errorf("%w: state belongs to rom %016x, loaded rom is %016x", emulator.ErrIncompatibleState, f, c.fingerprint)
	}
	frame, noise, input := s.Read64(), s.Read32(), s.Read8()
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: %w", emulator.ErrIncompatibleState, err)
	}

	c.frame, c.noise, c.input = frame, noise, input
	c.render()
	return nil
}

// Close releases the core.
func (c *Core) Close() {
	c.closed = true
}

// Closed reports whether Close has been called.
func (c *Core) Closed() bool {
	return c.closed
}

// render draws diagonal bands scrolling with the frame counter,
// a row of noise, and one lit block per held button.
func (c *Core) render() {
	shift := int(c.frame)
	for y := 0; y < emulator.ScreenHeight; y++ {
		for x := 0; x < emulator.ScreenWidth; x++ {
			col := palette[((x+shift)^y)>>4&7]
			c.fb.Set(x, y, col[0], col[1], col[2])
		}
	}

	n := c.noise
	for x := 0; x < emulator.ScreenWidth; x++ {
		v := uint8(n >> 24)
		c.fb.Set(x, emulator.ScreenHeight-1, v, v, v)
		n = n*1103515245 + 12345
	}

	for b := 0; b < 8; b++ {
		if c.input&(1<<b) == 0 {
			continue
		}
		for y := 8; y < 16; y++ {
			for x := 8 + b*12; x < 16+b*12; x++ {
				c.fb.Set(x, y, 0xFF, 0x00, 0x4D)
			}
		}
	}
}
