package emulator

// Core defines the interface contract for an emulation core
// to implement in order for a session to drive it. The core is
// treated as opaque: the session never looks inside a
// framebuffer beyond its dimensions, nor inside a state blob.
type Core interface {
	// Step advances the core by one frame using the given
	// controller bitmask, and returns the rendered frame.
	Step(input uint8) *Framebuffer
	// Reset resets the internal state of the core without
	// reparsing the ROM.
	Reset()
	// Save serializes the complete state of the core.
	Save() ([]byte, error)
	// Load restores a state previously produced by Save. A blob
	// the core cannot accept should be reported by wrapping
	// ErrIncompatibleState.
	Load(blob []byte) error
	// Close releases the resources held by the core. It must be
	// safe to call more than once.
	Close()
}

// Constructor creates a Core bound to the ROM at romPath.
type Constructor func(romPath string) (Core, error)
