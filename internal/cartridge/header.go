// Package cartridge parses the ROM header and dispatches reads/writes to
// the correct memory bank controller. Direct bank-indexed array addressing
// (rom.banks[n][offset]) is used throughout, rather than copying the
// active bank into a shared buffer, since it maps onto the header's ROM
// size field with no extra bookkeeping.
package cartridge

import "fmt"

// Type identifies the memory bank controller (and attached hardware, such
// as battery-backed RAM or a timer) a cartridge declares in its header
// byte at 0x0147.
type Type uint8

const (
	ROM               Type = 0x00
	MBC1              Type = 0x01
	MBC1RAM           Type = 0x02
	MBC1RAMBATT       Type = 0x03
	MBC2              Type = 0x05
	MBC2BATT          Type = 0x06
	ROMRAM            Type = 0x08
	ROMRAMBATT        Type = 0x09
	MBC3TIMERBATT     Type = 0x0F
	MBC3TIMERRAMBATT  Type = 0x10
	MBC3              Type = 0x11
	MBC3RAM           Type = 0x12
	MBC3RAMBATT       Type = 0x13
	MBC5              Type = 0x19
	MBC5RAM           Type = 0x1A
	MBC5RAMBATT       Type = 0x1B
	MBC5RUMBLE        Type = 0x1C
	MBC5RUMBLERAM     Type = 0x1D
	MBC5RUMBLERAMBATT Type = 0x1E
	HUDSONHUC1        Type = 0xFF
)

// HasBattery reports whether writes to external RAM must be mirrored to
// a .sav file.
func (t Type) HasBattery() bool {
	switch t {
	case MBC1RAMBATT, MBC2BATT, ROMRAMBATT, MBC3TIMERBATT, MBC3TIMERRAMBATT,
		MBC3RAMBATT, MBC5RAMBATT, MBC5RUMBLERAMBATT, HUDSONHUC1:
		return true
	}
	return false
}

// HasRAM reports whether the cartridge type has any external RAM at all,
// battery-backed or not.
func (t Type) HasRAM() bool {
	switch t {
	case MBC1RAM, MBC1RAMBATT, MBC2, MBC2BATT, ROMRAM, ROMRAMBATT,
		MBC3RAM, MBC3RAMBATT, MBC3TIMERRAMBATT, MBC5RAM, MBC5RAMBATT,
		MBC5RUMBLERAM, MBC5RUMBLERAMBATT, HUDSONHUC1:
		return true
	}
	return false
}

var romSizeBanks = map[uint8]int{
	0x00: 2, 0x01: 4, 0x02: 8, 0x03: 16, 0x04: 32,
	0x05: 64, 0x06: 128, 0x07: 256, 0x08: 512,
}

var ramSizeBytes = map[uint8]int{
	0x00: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Header is the parsed form of the cartridge's 0x0100-0x014F header block.
type Header struct {
	Title     string
	Type      Type
	ROMBanks  int
	RAMBytes  int
	HeaderSum uint8
}

// ParseHeader reads the fixed-offset header fields out of the first ROM
// bank. It does not validate the checksum; callers that care can compare
// HeaderSum against a recomputed value themselves.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < 0x150 {
		return Header{}, fmt.Errorf("cartridge: ROM too small to contain a header (%d bytes)", len(rom))
	}
	title := make([]byte, 0, 16)
	for i := 0x134; i < 0x144; i++ {
		if rom[i] == 0 {
			break
		}
		title = append(title, rom[i])
	}

	romSizeCode := rom[0x148]
	banks, ok := romSizeBanks[romSizeCode]
	if !ok {
		return Header{}, fmt.Errorf("cartridge: unknown ROM size code %#02x", romSizeCode)
	}

	ramSizeCode := rom[0x149]
	ramBytes, ok := ramSizeBytes[ramSizeCode]
	if !ok {
		return Header{}, fmt.Errorf("cartridge: unknown RAM size code %#02x", ramSizeCode)
	}

	return Header{
		Title:     string(title),
		Type:      Type(rom[0x147]),
		ROMBanks:  banks,
		RAMBytes:  ramBytes,
		HeaderSum: rom[0x14D],
	}, nil
}
