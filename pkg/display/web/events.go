package web

// Type is the first byte of a message sent to a client.
type Type = uint8

const (
	// Frame carries a full frame: cache index (uint16) then
	// the pixel data.
	Frame Type = iota
	// FramePatch carries the changed pixels of a frame, with
	// every unchanged pixel zeroed: cache index then data.
	FramePatch
	// FrameSkip carries the number of unchanged frames skipped
	// (uint32) since the last frame sent.
	FrameSkip
	// ClientInfo carries the stream settings byte, followed by
	// the compression level and patch ratio.
	ClientInfo
	// PatchCache repeats the cached patch at the given index.
	PatchCache
	// FrameCache repeats the cached frame at the given index.
	FrameCache
	// FrameSync carries the current frame, always compressed,
	// for newly connected clients.
	FrameSync
	// Title carries the window title of the session.
	Title
	// ServerInfo carries the ID and round trip time in
	// milliseconds (uint16) of every connected client.
	ServerInfo
	// Response carries the command, resulting status and
	// error text of a command sent by the client.
	Response
)

// Event is the first byte of a message sent by a client.
type Event = uint8

const (
	_ Event = iota
	// KeyDown is followed by the name of the pressed key.
	KeyDown
	// KeyUp is followed by the name of the released key.
	KeyUp
	// Command is followed by an emulator.Command byte, and
	// its argument.
	Command
	// Compression toggles brotli compression of frames.
	Compression
	// CompressionLevel sets the brotli quality.
	CompressionLevel
	// FramePatching toggles sending only changed pixels.
	FramePatching
	// FrameSkipping toggles skipping unchanged frames.
	FrameSkipping
	// FramePatchRatio sets the percentage of changed pixels
	// under which a patch is sent instead of a frame.
	FramePatchRatio
	KeepAlive = 254
	Closing   = 255
)
