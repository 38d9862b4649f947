// Package bus implements the memory-mapped address space that ties the
// CPU to every peripheral: ROM/RAM banking through the cartridge, VRAM/
// OAM through the PPU, DIV/TIMA through the timer, JOYP, the shared IE/IF
// interrupt registers, work RAM, high RAM, and the OAM DMA engine. The Bus
// owns direct references to all of it, the way the teacher's mmu.MMU owns
// its cartridge/video/serial/sound members, rather than going through a
// shared mutable cell.
package bus

import (
	"github.com/dmgcore/retroboy/internal/cartridge"
	"github.com/dmgcore/retroboy/internal/interrupts"
	"github.com/dmgcore/retroboy/internal/joypad"
	"github.com/dmgcore/retroboy/internal/ppu"
	"github.com/dmgcore/retroboy/internal/timer"
)

const (
	wramSize = 0x2000 // 0xC000-0xDFFF, DMG uses a single fixed bank
	hramSize = 0x7F   // 0xFF80-0xFFFE
	soundLen = 0x30   // 0xFF10-0xFF3F, storage only
)

// Bus is the LR35902's 16-bit address space. Every peripheral it
// addresses is owned directly, not through an interface, so the hot read/
// write path never allocates or goes through dynamic dispatch beyond the
// one switch on the address range.
type Bus struct {
	Cart   *cartridge.Cartridge
	PPU    *ppu.PPU
	Timer  *timer.Controller
	Joypad *joypad.State
	IRQ    *interrupts.Service

	wram  [wramSize]uint8
	hram  [hramSize]uint8
	serial [2]uint8 // FF01-FF02: storage only, no link cable emulated
	sound [soundLen]uint8

	dma dmaEngine
}

// New wires a Bus to its peripherals. All fields must be non-nil; the Bus
// does not construct its own peripherals so tests can swap in fakes.
func New(cart *cartridge.Cartridge, p *ppu.PPU, t *timer.Controller, j *joypad.State, irq *interrupts.Service) *Bus {
	return &Bus{Cart: cart, PPU: p, Timer: t, Joypad: j, IRQ: irq}
}

// oamVramBlocked reports whether the PPU's current mode hides OAM/VRAM
// from the CPU (modes 2 and 3). This is the documented-choice invariant
// from the data model: strict hardware behavior, kept because nothing in
// this core depends on the relaxed alternative.
func (b *Bus) oamVramBlocked() bool {
	switch b.PPU.CurrentMode() {
	case ppu.ModeOAMSearch, ppu.ModePixelTransfer:
		return true
	}
	return false
}

// Read returns the byte at addr, decoded against the memory map in the
// data model. Reads that fall in an unmapped or hidden region return
// 0xFF rather than failing - unmapped I/O is never fatal.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		return b.Cart.Read(addr)
	case addr < 0xA000:
		if b.oamVramBlocked() {
			return 0xFF
		}
		return b.PPU.ReadVRAM(addr)
	case addr < 0xC000:
		return b.Cart.Read(addr)
	case addr < 0xE000:
		return b.wram[addr-0xC000]
	case addr < 0xFE00:
		return b.wram[addr-0xE000] // echo of 0xC000-0xDDFF
	case addr < 0xFEA0:
		if b.oamVramBlocked() {
			return 0xFF
		}
		return b.PPU.ReadOAM(addr)
	case addr < 0xFF00:
		return 0xFF // unusable
	case addr == 0xFF00:
		return b.Joypad.Read()
	case addr == 0xFF01, addr == 0xFF02:
		return b.serial[addr-0xFF01]
	case addr == 0xFF04:
		return b.Timer.ReadDiv()
	case addr == 0xFF05:
		return b.Timer.ReadTIMA()
	case addr == 0xFF06:
		return b.Timer.ReadTMA()
	case addr == 0xFF07:
		return b.Timer.ReadTAC()
	case addr == 0xFF0F:
		return b.IRQ.ReadFlag()
	case addr >= 0xFF10 && addr < 0xFF40:
		return b.sound[addr-0xFF10]
	case addr == 0xFF46:
		return b.dma.lastWrite
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.PPU.ReadReg(addr)
	case addr < 0xFF80:
		return 0xFF
	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]
	default: // 0xFFFF
		return b.IRQ.ReadEnable()
	}
}

// Write stores v at addr, dropping writes to unmapped or hidden regions
// rather than failing.
func (b *Bus) Write(addr uint16, v uint8) {
	switch {
	case addr < 0x8000:
		b.Cart.Write(addr, v)
	case addr < 0xA000:
		if b.oamVramBlocked() {
			return
		}
		b.PPU.WriteVRAM(addr, v)
	case addr < 0xC000:
		b.Cart.Write(addr, v)
	case addr < 0xE000:
		b.wram[addr-0xC000] = v
	case addr < 0xFE00:
		b.wram[addr-0xE000] = v
	case addr < 0xFEA0:
		if b.oamVramBlocked() {
			return
		}
		b.PPU.WriteOAM(addr, v)
	case addr < 0xFF00:
		// unusable; dropped
	case addr == 0xFF00:
		b.Joypad.Write(v)
	case addr == 0xFF01, addr == 0xFF02:
		b.serial[addr-0xFF01] = v
	case addr == 0xFF04:
		b.Timer.WriteDiv(v)
	case addr == 0xFF05:
		b.Timer.WriteTIMA(v)
	case addr == 0xFF06:
		b.Timer.WriteTMA(v)
	case addr == 0xFF07:
		b.Timer.WriteTAC(v)
	case addr == 0xFF0F:
		b.IRQ.WriteFlag(v)
	case addr >= 0xFF10 && addr < 0xFF40:
		b.sound[addr-0xFF10] = v
	case addr == 0xFF46:
		b.dma.start(v)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.PPU.WriteReg(addr, v)
	case addr < 0xFF80:
		// unusable; dropped
	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = v
	default: // 0xFFFF
		b.IRQ.WriteEnable(v)
	}
}

// Read16 and Write16 are little-endian convenience accessors; nothing in
// this module calls them. The CPU itself reads/writes bytes directly so it
// can interleave bus cycles with its own clock.
func (b *Bus) Read16(addr uint16) uint16 {
	lo := b.Read(addr)
	hi := b.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (b *Bus) Write16(addr uint16, v uint16) {
	b.Write(addr, uint8(v))
	b.Write(addr+1, uint8(v>>8))
}

// TickDMA advances any in-progress OAM DMA transfer by one machine cycle
// (one byte). It is called once per M-cycle by the owning Machine,
// independent of CPU fetch/execute so a transfer keeps moving even while
// the CPU is halted.
func (b *Bus) TickDMA() {
	b.dma.tick(b)
}

// DMAActive reports whether an OAM DMA transfer is in progress, used by
// the debugger and tests; the core itself does not block CPU bus access
// during a transfer (a documented, hardware-accurate strictness the spec
// leaves to the implementer).
func (b *Bus) DMAActive() bool { return b.dma.active }

// WRAM exposes the raw work RAM array for save-state serialization.
func (b *Bus) WRAM() []byte { return b.wram[:] }

// HRAM exposes the raw high RAM array for save-state serialization.
func (b *Bus) HRAM() []byte { return b.hram[:] }
