// Package savestate serializes a complete Machine snapshot - CPU
// registers, Bus RAM, VRAM/OAM, PPU mode state, timer, joypad, and MBC
// banking state - so emulation can be paused and resumed (snapshotOf lists
// what is left out). This is
// not named in spec.md's module list, but nothing in its Non-goals
// excludes it either; the teacher's types.Stater (Save/Load on CPU, MBCs,
// etc.) is generalized here into one gob-encoded, brotli-compressed blob
// checksummed with xxhash so a corrupted save is detected before it is
// ever applied.
package savestate

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/google/brotli/go/cbrotli"

	"github.com/dmgcore/retroboy/internal/machine"
	"github.com/dmgcore/retroboy/internal/ppu"
)

// magic identifies a save-state file before the checksum and payload, so
// a stray file of the wrong shape is rejected immediately instead of
// corrupting a running Machine.
const magic = "RBSAVE01"

// snapshot is the gob-encoded payload. Every field is plain data (no
// pointers, no interfaces) so gob round-trips it without a registered
// type for each concrete peripheral.
type snapshot struct {
	Registers cpuState
	WRAM      []byte
	HRAM      []byte
	VRAM      []byte
	OAM       []byte
	PPU       ppuState
	Timer     timerState
	Joypad    joypadState
	IRQ       irqState
	MBC       mbcState
}

type cpuState struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
	IME                    bool
}

type ppuState struct {
	LCDC, STAT, SCY, SCX, LY, LYC, WY, WX, BGP, OBP0, OBP1 uint8
	ModeCycles                                             int
}

type timerState struct {
	Div16           uint16
	TIMA, TMA, TAC  uint8
}

type joypadState struct {
	Register, Action, Direction uint8
}

type irqState struct {
	Enable, Flag uint8
}

type mbcState struct {
	ROMBank    uint16
	RAMBank    uint8
	RAMEnabled bool
	BankMode   bool
	RAM        []byte
}

// Encode builds a save-state blob from m. The blob is brotli-compressed
// and prefixed with a magic marker and an xxhash-64 checksum of the
// compressed payload, mirroring the hash-then-cache pattern the teacher's
// web display player uses for framebuffer diffing.
func Encode(m *machine.Machine) ([]byte, error) {
	snap := snapshotOf(m)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("savestate: encode: %w", err)
	}

	compressed, err := cbrotli.Encode(buf.Bytes(), cbrotli.WriterOptions{Quality: 9})
	if err != nil {
		return nil, fmt.Errorf("savestate: compress: %w", err)
	}

	sum := xxhash.Sum64(compressed)

	out := make([]byte, 0, len(magic)+8+len(compressed))
	out = append(out, []byte(magic)...)
	sumBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(sumBytes, sum)
	out = append(out, sumBytes...)
	out = append(out, compressed...)
	return out, nil
}

// Decode validates and decompresses a save-state blob and restores m in
// place.
func Decode(data []byte, m *machine.Machine) error {
	if len(data) < len(magic)+8 || string(data[:len(magic)]) != magic {
		return fmt.Errorf("savestate: not a valid save-state file")
	}
	sum := binary.LittleEndian.Uint64(data[len(magic) : len(magic)+8])
	compressed := data[len(magic)+8:]
	if xxhash.Sum64(compressed) != sum {
		return fmt.Errorf("savestate: checksum mismatch, file is corrupt")
	}

	raw, err := cbrotli.Decode(compressed)
	if err != nil {
		return fmt.Errorf("savestate: decompress: %w", err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return fmt.Errorf("savestate: decode: %w", err)
	}
	applySnapshot(snap, m)
	return nil
}

// snapshotOf captures the CPU registers and IME, WRAM, HRAM, VRAM, OAM,
// the PPU registers and mode-cycle counter, the timer, joypad and
// interrupt registers, and the MBC banking state with cartridge RAM. It
// does not capture the CPU's HALT/STOP state, an in-progress OAM DMA
// transfer, a pending TIMA overflow reload, the serial and sound
// registers, or the framebuffer.
func snapshotOf(m *machine.Machine) snapshot {
	romBank, ramBank, ramEnabled, bankMode := m.Cart.BankState()
	register, action, direction := m.Joypad.RegisterState()

	wram := make([]byte, len(m.Bus.WRAM()))
	copy(wram, m.Bus.WRAM())
	hram := make([]byte, len(m.Bus.HRAM()))
	copy(hram, m.Bus.HRAM())
	vram := make([]byte, len(m.PPU.VRAM()))
	copy(vram, m.PPU.VRAM())
	oam := make([]byte, len(m.PPU.OAM()))
	copy(oam, m.PPU.OAM())
	ram := make([]byte, len(m.Cart.RAM()))
	copy(ram, m.Cart.RAM())

	return snapshot{
		Registers: cpuState{
			A: m.CPU.A, F: m.CPU.F, B: m.CPU.B, C: m.CPU.C,
			D: m.CPU.D, E: m.CPU.E, H: m.CPU.H, L: m.CPU.L,
			SP: m.CPU.SP, PC: m.CPU.PC, IME: m.IRQ.IME,
		},
		WRAM: wram,
		HRAM: hram,
		VRAM: vram,
		OAM:  oam,
		PPU: ppuState{
			LCDC: m.PPU.ReadReg(0xFF40),
			STAT: m.PPU.ReadReg(0xFF41),
			SCY:  m.PPU.ReadReg(0xFF42),
			SCX:  m.PPU.ReadReg(0xFF43),
			LY:   m.PPU.LY(),
			LYC:  m.PPU.ReadReg(0xFF45),
			WY:   m.PPU.ReadReg(0xFF4A),
			WX:   m.PPU.ReadReg(0xFF4B),
			BGP:  m.PPU.ReadReg(0xFF47),
			OBP0: m.PPU.ReadReg(0xFF48),
			OBP1: m.PPU.ReadReg(0xFF49),
			ModeCycles: m.PPU.ModeCycles(),
		},
		Timer: timerState{
			Div16: m.Timer.Div16(),
			TIMA:  m.Timer.ReadTIMA(),
			TMA:   m.Timer.ReadTMA(),
			TAC:   m.Timer.ReadTAC(),
		},
		Joypad: joypadState{Register: register, Action: action, Direction: direction},
		IRQ:    irqState{Enable: m.IRQ.ReadEnable(), Flag: m.IRQ.ReadFlag()},
		MBC: mbcState{
			ROMBank: romBank, RAMBank: ramBank,
			RAMEnabled: ramEnabled, BankMode: bankMode,
			RAM: ram,
		},
	}
}

// applySnapshot restores m in place from snap. Register state that has a
// dedicated write path (TAC before DIV, in particular, so the timer's
// falling-edge tracker resynchronizes against the right bit) is restored
// in an order that keeps those side effects correct.
func applySnapshot(snap snapshot, m *machine.Machine) {
	m.CPU.A, m.CPU.F = snap.Registers.A, snap.Registers.F
	m.CPU.B, m.CPU.C = snap.Registers.B, snap.Registers.C
	m.CPU.D, m.CPU.E = snap.Registers.D, snap.Registers.E
	m.CPU.H, m.CPU.L = snap.Registers.H, snap.Registers.L
	m.CPU.SP, m.CPU.PC = snap.Registers.SP, snap.Registers.PC
	m.IRQ.IME = snap.Registers.IME

	copy(m.Bus.WRAM(), snap.WRAM)
	copy(m.Bus.HRAM(), snap.HRAM)
	copy(m.PPU.VRAM(), snap.VRAM)
	copy(m.PPU.OAM(), snap.OAM)
	copy(m.Cart.RAM(), snap.MBC.RAM)

	m.PPU.WriteReg(0xFF40, snap.PPU.LCDC)
	m.PPU.SetSTATRaw(snap.PPU.STAT)
	m.PPU.WriteReg(0xFF42, snap.PPU.SCY)
	m.PPU.WriteReg(0xFF43, snap.PPU.SCX)
	m.PPU.SetLY(snap.PPU.LY)
	m.PPU.WriteReg(0xFF45, snap.PPU.LYC)
	m.PPU.WriteReg(0xFF4A, snap.PPU.WY)
	m.PPU.WriteReg(0xFF4B, snap.PPU.WX)
	m.PPU.WriteReg(0xFF47, snap.PPU.BGP)
	m.PPU.WriteReg(0xFF48, snap.PPU.OBP0)
	m.PPU.WriteReg(0xFF49, snap.PPU.OBP1)
	m.PPU.SetMode(modeFromSTAT(snap.PPU.STAT))
	m.PPU.SetModeCycles(snap.PPU.ModeCycles)

	m.Timer.WriteTAC(snap.Timer.TAC)
	m.Timer.WriteTMA(snap.Timer.TMA)
	m.Timer.WriteTIMA(snap.Timer.TIMA)
	m.Timer.SetDiv16(snap.Timer.Div16)

	m.Joypad.RestoreState(snap.Joypad.Register, snap.Joypad.Action, snap.Joypad.Direction)

	m.IRQ.WriteEnable(snap.IRQ.Enable)
	m.IRQ.WriteFlag(snap.IRQ.Flag)

	m.Cart.RestoreBankState(snap.MBC.ROMBank, snap.MBC.RAMBank, snap.MBC.RAMEnabled, snap.MBC.BankMode)
}

// modeFromSTAT recovers the FSM mode encoded in STAT's low two bits, which
// the PPU keeps in step with its mode and the snapshot captures via
// PPU.ReadReg(0xFF41).
func modeFromSTAT(stat uint8) ppu.Mode {
	return ppu.Mode(stat & 0x03)
}
