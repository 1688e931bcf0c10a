package refcore

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the size of an iNES header.
	HeaderSize = 16
	// PRGBankSize is the size of a PRG ROM bank.
	PRGBankSize = 16 * 1024
	// CHRBankSize is the size of a CHR ROM bank.
	CHRBankSize = 8 * 1024
	// TrainerSize is the size of the optional trainer.
	TrainerSize = 512
)

var magic = []byte("NES\x1a")

var (
	errBadMagic = errors.New("not an iNES image")
	errNoPRG    = errors.New("PRG ROM size cannot be zero")
)

// Mirroring is the nametable arrangement of the cartridge.
type Mirroring uint8

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorFourScreen
)

func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorFourScreen:
		return "four-screen"
	}
	return "unknown"
}

// Header represents the iNES header at the start of a ROM
// image, which describes the size of the ROM banks that follow
// it and the hardware the cartridge expects.
type Header struct {
	// 0x04 - PRGBanks is the number of 16KB PRG ROM banks.
	PRGBanks uint8
	// 0x05 - CHRBanks is the number of 8KB CHR ROM banks.
	// Zero means the cartridge uses CHR RAM.
	CHRBanks uint8
	// 0x06 high nibble, 0x07 high nibble - Mapper number.
	Mapper    uint8
	Mirroring Mirroring
	Battery   bool
	Trainer   bool
}

// ParseHeader parses and validates the header of rom, checking
// that the image is long enough to hold the banks it declares.
func ParseHeader(rom []byte) (Header, error) {
	var h Header
	if len(rom) < HeaderSize {
		return h, fmt.Errorf("%w: %d bytes", errBadMagic, len(rom))
	}
	if string(rom[:4]) != string(magic) {
		return h, errBadMagic
	}

	flags6, flags7 := rom[6], rom[7]
	h.PRGBanks = rom[4]
	h.CHRBanks = rom[5]
	h.Mapper = flags6>>4 | flags7&0xF0
	h.Battery = flags6&0x02 != 0
	h.Trainer = flags6&0x04 != 0
	switch {
	case flags6&0x08 != 0:
		h.Mirroring = MirrorFourScreen
	case flags6&0x01 != 0:
		h.Mirroring = MirrorVertical
	default:
		h.Mirroring = MirrorHorizontal
	}

	if h.PRGBanks == 0 {
		return h, errNoPRG
	}
	if want := h.Size(); len(rom) < want {
		return h, fmt.Errorf("image is %d bytes, header declares %d", len(rom), want)
	}
	return h, nil
}

// Size returns the number of bytes the header declares,
// including itself.
func (h Header) Size() int {
	size := HeaderSize + int(h.PRGBanks)*PRGBankSize + int(h.CHRBanks)*CHRBankSize
	if h.Trainer {
		size += TrainerSize
	}
	return size
}

func (h Header) String() string {
	return fmt.Sprintf("mapper %d, %dx16KB PRG, %dx8KB CHR, %s mirroring", h.Mapper, h.PRGBanks, h.CHRBanks, h.Mirroring)
}

// BlankROM returns a valid image with the given number of
// banks, all zero.
func BlankROM(prgBanks, chrBanks uint8) []byte {
	h := Header{PRGBanks: prgBanks, CHRBanks: chrBanks}
	rom := make([]byte, h.Size())
	copy(rom, magic)
	rom[4] = prgBanks
	rom[5] = chrBanks
	return rom
}
