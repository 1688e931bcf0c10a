package states

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/cespare/xxhash"
	"github.com/thelolagemann/nesfront/internal/types"
	"github.com/thelolagemann/nesfront/pkg/emulator"
)

const (
	// Magic identifies a state file.
	Magic = "NFST"
	// Version is the envelope version written by Encode.
	Version uint16 = 1
	// HeaderSize is the size of the envelope header in bytes.
	HeaderSize = 20
)

// Envelope flags.
const (
	// FlagBrotli marks a brotli compressed payload.
	FlagBrotli uint16 = 1 << iota
)

// Header describes an encoded state. The layout is, little
// endian:
//
//	0x00 [4]byte magic "NFST"
//	0x04 uint16  version
//	0x06 uint16  flags
//	0x08 uint32  length of the stored payload
//	0x0C uint64  xxhash64 of the stored payload
//	0x14 ...     payload
type Header struct {
	Version  uint16
	Flags    uint16
	Length   uint32
	Checksum uint64
}

// Compressed reports whether the payload is compressed.
func (h Header) Compressed() bool {
	return h.Flags&FlagBrotli != 0
}

func (h Header) String() string {
	return fmt.Sprintf("%s v%d flags=%#04x length=%d checksum=%016x", Magic, h.Version, h.Flags, h.Length, h.Checksum)
}

// Encode wraps blob in an envelope, compressing the payload
// with brotli when compress is set.
func Encode(blob []byte, compress bool) ([]byte, error) {
	payload := blob
	var flags uint16
	if compress {
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
		if _, err := w.Write(blob); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		payload = buf.Bytes()
		flags |= FlagBrotli
	}

	s := types.NewState()
	s.WriteData([]byte(Magic))
	s.Write16(Version)
	s.Write16(flags)
	s.Write32(uint32(len(payload)))
	s.Write64(xxhash.Sum64(payload))
	s.WriteData(payload)
	return s.Bytes(), nil
}

// ReadHeader parses and verifies the envelope in data, returning
// its header and the stored payload.
func ReadHeader(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, nil, fmt.Errorf("%w: %d bytes is shorter than the header", emulator.ErrCorruptBlob, len(data))
	}

	s := types.StateFromBytes(data)
	magic := make([]byte, len(Magic))
	s.ReadData(magic)
	if string(magic) != Magic {
		return h, nil, fmt.Errorf("%w: bad magic %q", emulator.ErrCorruptBlob, magic)
	}
	h.Version = s.Read16()
	h.Flags = s.Read16()
	h.Length = s.Read32()
	h.Checksum = s.Read64()
	if err := s.Err(); err != nil {
		return h, nil, fmt.Errorf("%w: %w", emulator.ErrCorruptBlob, err)
	}

	if h.Version != Version {
		return h, nil, fmt.Errorf("%w: unsupported version %d", emulator.ErrCorruptBlob, h.Version)
	}
	if h.Flags&^FlagBrotli != 0 {
		return h, nil, fmt.Errorf("%w: unknown flags %#04x", emulator.ErrCorruptBlob, h.Flags)
	}
	if uint64(s.Remaining()) != uint64(h.Length) {
		return h, nil, fmt.Errorf("%w: payload is %d bytes, header says %d", emulator.ErrCorruptBlob, s.Remaining(), h.Length)
	}

	payload := data[HeaderSize:]
	if sum := xxhash.Sum64(payload); sum != h.Checksum {
		return h, nil, fmt.Errorf("%w: checksum %016x does not match %016x", emulator.ErrCorruptBlob, sum, h.Checksum)
	}
	return h, payload, nil
}

// Decode verifies the envelope in data and returns the core
// blob it carries.
func Decode(data []byte) ([]byte, error) {
	h, payload, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if !h.Compressed() {
		return append([]byte(nil), payload...), nil
	}

	blob, err := io.ReadAll(brotli.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", emulator.ErrCorruptBlob, err)
	}
	return blob, nil
}
