package web

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/cespare/xxhash"
	"github.com/thelolagemann/nesfront/pkg/emulator"
)

const (
	framePixels = emulator.ScreenWidth * emulator.ScreenHeight
	frameBytes  = framePixels * 4
	cacheSize   = 64
)

// stream turns the frames of a session into messages, sending
// only what changed since the previous frame where that is
// cheaper, and a cache index where the result was sent recently.
type stream struct {
	mu sync.Mutex

	compression      bool
	compressionLevel int
	framePatching    bool
	framePatchRatio  int // percent of pixels
	frameSkipping    bool

	current    []byte
	patch      []byte
	skipped    uint32
	patchCache *cache
	frameCache *cache
}

func newStream() *stream {
	s := &stream{
		compression:      true,
		compressionLevel: 5,
		framePatching:    true,
		framePatchRatio:  25,
		frameSkipping:    true,
		current:          make([]byte, frameBytes),
		patch:            make([]byte, frameBytes),
		patchCache:       newCache(cacheSize),
		frameCache:       newCache(cacheSize),
	}
	copy(s.current, emulator.NewFramebuffer().Pix[:])
	return s
}

// encode returns the messages that bring a client up to date
// with fb. Nothing is returned for an unchanged frame when frame
// skipping is enabled.
func (s *stream) encode(fb *emulator.Framebuffer) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// track dirty pixel count to determine appropriate update (patch vs full frame)
	clear(s.patch)
	dirtied := 0
	for i := 0; i < frameBytes; i += 4 {
		if s.current[i] != fb.Pix[i] || s.current[i+1] != fb.Pix[i+1] || s.current[i+2] != fb.Pix[i+2] {
			copy(s.patch[i:i+3], fb.Pix[i:i+3])
			s.patch[i+3] = 0xFF
			dirtied++
		}
	}
	copy(s.current, fb.Pix[:])

	if dirtied == 0 && s.frameSkipping {
		s.skipped++
		return nil, nil
	}

	var msgs [][]byte
	if s.skipped > 0 {
		skip := make([]byte, 5)
		skip[0] = FrameSkip
		binary.LittleEndian.PutUint32(skip[1:], s.skipped)
		msgs = append(msgs, skip)
		s.skipped = 0
	}

	// determine if we should patch the framebuffer
	typ, cached, c, buffer := Frame, FrameCache, s.frameCache, s.current
	if s.framePatching && dirtied*100 < s.framePatchRatio*framePixels {
		typ, cached, c, buffer = FramePatch, PatchCache, s.patchCache, s.patch
	}

	output := append([]byte(nil), buffer...)
	if s.compression {
		var err error
		if output, err = compress(buffer, s.compressionLevel); err != nil {
			return nil, err
		}
	}

	// does this data exist in the cache?
	hash := xxhash.Sum64(output)
	c.Lock()
	defer c.Unlock()
	if idx := c.index(hash); idx != -1 {
		return append(msgs, message(cached, uint16(idx), nil)), nil
	}
	idx := c.add(hash, output)
	return append(msgs, message(typ, uint16(idx), output)), nil
}

// sync returns the message bringing a new client up to date.
func (s *stream) sync() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := compress(s.current, 9)
	if err != nil {
		return nil, err
	}
	return append([]byte{FrameSync}, data...), nil
}

// info returns a byte of information containing the various
// stream settings. The byte is constructed as follows:
//
//	Bit 0: Compression enabled
//	Bit 1: Frame patching enabled
//	Bit 2: Frame skipping enabled
func (s *stream) info() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var info uint8
	if s.compression {
		info |= 1 << 0
	}
	if s.framePatching {
		info |= 1 << 1
	}
	if s.frameSkipping {
		info |= 1 << 2
	}
	return []byte{ClientInfo, info, uint8(s.compressionLevel), uint8(s.framePatchRatio)}
}

// set applies a setting sent by a client, reporting whether it
// was one.
func (s *stream) set(setting Event, value byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch setting {
	case Compression:
		s.compression = value == 1
	case CompressionLevel:
		s.compressionLevel = int(min(value, brotli.BestCompression))
	case FramePatching:
		s.framePatching = value == 1
	case FrameSkipping:
		s.frameSkipping = value == 1
	case FramePatchRatio:
		s.framePatchRatio = int(min(value, 100))
	default:
		return false
	}
	return true
}

func message(typ Type, idx uint16, data []byte) []byte {
	msg := make([]byte, 3, 3+len(data))
	msg[0] = typ
	binary.LittleEndian.PutUint16(msg[1:], idx)
	return append(msg, data...)
}

func compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, level)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
