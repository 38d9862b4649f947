// Package ppu implements the picture processing unit: the mode state
// machine that drives HBlank/VBlank/OAM-search/pixel-transfer timing, and
// a scanline renderer that composites background, window, and sprites
// once per HBlank exactly as the hardware's pixel FIFO would, just done
// as a single pass over the line instead of pixel-by-pixel.
package ppu

import (
	"github.com/cespare/xxhash"

	"github.com/dmgcore/retroboy/internal/bits"
	"github.com/dmgcore/retroboy/internal/interrupts"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	oamSearchCycles  = 80
	pixelTransfer    = 172
	hblankCycles     = 204
	lineCycles       = oamSearchCycles + pixelTransfer + hblankCycles // 456
	vblankLineCount  = 10
)

// Mode names the four states of the PPU's per-scanline state machine.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMSearch
	ModePixelTransfer
)

const (
	statCoincidence   = 1 << 2
	statHBlankIntr    = 1 << 3
	statVBlankIntr    = 1 << 4
	statOAMIntr       = 1 << 5
	statCoincidentIRQ = 1 << 6
)

// PPU owns VRAM, OAM, the LCD control/status registers, and the
// assembled framebuffer. Each byte of the framebuffer holds a 2-bit
// shade index (0=lightest, 3=darkest after palette mapping).
type PPU struct {
	vram [0x2000]uint8
	oam  [160]uint8

	lcdc uint8
	stat uint8
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	wy   uint8
	wx   uint8
	bgp  uint8
	obp0 uint8
	obp1 uint8

	mode       Mode
	modeCycles int

	Framebuffer [ScreenWidth * ScreenHeight]uint8
	FrameReady  bool

	irq *interrupts.Service
}

// New returns a PPU in the power-on state: LCD and BG on, sprites off,
// VBlank mode, LY=0.
func New(irq *interrupts.Service) *PPU {
	p := &PPU{irq: irq, lcdc: 0x91, stat: uint8(ModeVBlank), mode: ModeVBlank}
	return p
}

func (p *PPU) enabled() bool { return bits.Test(p.lcdc, 7) }

// Tick advances the PPU by one T-state, driving the mode FSM and
// triggering STAT/VBlank interrupts and the scanline renderer at the
// documented transition points.
func (p *PPU) Tick() {
	if !p.enabled() {
		return
	}
	p.modeCycles++
	switch p.mode {
	case ModeOAMSearch:
		if p.modeCycles >= oamSearchCycles {
			p.modeCycles -= oamSearchCycles
			p.setMode(ModePixelTransfer)
		}
	case ModePixelTransfer:
		if p.modeCycles >= pixelTransfer {
			p.modeCycles -= pixelTransfer
			p.drawLine()
			p.setMode(ModeHBlank)
			if p.stat&statHBlankIntr != 0 {
				p.requestStat()
			}
		}
	case ModeHBlank:
		if p.modeCycles >= hblankCycles {
			p.modeCycles -= hblankCycles
			p.ly++
			p.updateCoincidence()
			if p.ly >= ScreenHeight {
				p.FrameReady = true
				p.setMode(ModeVBlank)
				if p.irq != nil {
					p.irq.Request(interrupts.VBlank)
				}
				if p.stat&statVBlankIntr != 0 {
					p.requestStat()
				}
			} else {
				p.setMode(ModeOAMSearch)
				if p.stat&statOAMIntr != 0 {
					p.requestStat()
				}
			}
		}
	case ModeVBlank:
		if p.modeCycles >= lineCycles {
			p.modeCycles -= lineCycles
			p.ly = (p.ly + 1) % (ScreenHeight + vblankLineCount)
			p.updateCoincidence()
			if p.ly == 0 {
				p.setMode(ModeOAMSearch)
				if p.stat&statOAMIntr != 0 {
					p.requestStat()
				}
			}
		}
	}
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
	p.stat = p.stat&0xFC | uint8(m)
}

func (p *PPU) requestStat() {
	if p.irq != nil {
		p.irq.Request(interrupts.LCDStat)
	}
}

func (p *PPU) updateCoincidence() {
	coincident := p.ly == p.lyc
	if coincident {
		p.stat |= statCoincidence
	} else {
		p.stat &^= statCoincidence
	}
	if coincident && p.stat&statCoincidentIRQ != 0 {
		p.requestStat()
	}
}

// ReadVRAM reads a byte of video RAM. The CPU is simply given the byte at
// the stored address; the two-dimensional tile/tile-map layout used by
// drawLine is reconstructed from the same flat array.
func (p *PPU) ReadVRAM(addr uint16) uint8 { return p.vram[addr&0x1FFF] }

// WriteVRAM writes a byte of video RAM.
func (p *PPU) WriteVRAM(addr uint16, v uint8) { p.vram[addr&0x1FFF] = v }

// ReadOAM reads a byte of sprite attribute memory.
func (p *PPU) ReadOAM(addr uint16) uint8 { return p.oam[addr&0xFF] }

// WriteOAM writes a byte of sprite attribute memory.
func (p *PPU) WriteOAM(addr uint16, v uint8) { p.oam[addr&0xFF] = v }

// ReadReg reads one of the FF40-FF4B LCD registers.
func (p *PPU) ReadReg(addr uint16) uint8 {
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		return p.stat | 0x80
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.ly
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	}
	return 0xFF
}

// WriteReg writes one of the FF40-FF4B LCD registers.
func (p *PPU) WriteReg(addr uint16, v uint8) {
	switch addr {
	case 0xFF40:
		p.lcdc = v
		if !p.enabled() {
			p.ly = 0
			p.modeCycles = 0
			p.setMode(ModeHBlank)
		}
	case 0xFF41:
		p.stat = (p.stat & 0x07) | (v & 0xF8)
	case 0xFF42:
		p.scy = v
	case 0xFF43:
		p.scx = v
	case 0xFF44:
		// LY is read-only; writes are ignored.
	case 0xFF45:
		p.lyc = v
		p.updateCoincidence()
	case 0xFF47:
		p.bgp = v
	case 0xFF48:
		p.obp0 = v
	case 0xFF49:
		p.obp1 = v
	case 0xFF4A:
		p.wy = v
	case 0xFF4B:
		p.wx = v
	}
}

// LY exposes the current scanline, used by save-state capture.
func (p *PPU) LY() uint8 { return p.ly }

// CurrentMode exposes the current FSM state, used by the bus's OAM/VRAM
// access block and by tests.
func (p *PPU) CurrentMode() Mode { return p.mode }

// VRAM exposes the raw video RAM array for save-state serialization.
func (p *PPU) VRAM() []byte { return p.vram[:] }

// OAM exposes the raw sprite attribute memory for save-state
// serialization.
func (p *PPU) OAM() []byte { return p.oam[:] }

// ModeCycles exposes the in-progress mode's elapsed T-state count.
func (p *PPU) ModeCycles() int { return p.modeCycles }

// SetModeCycles restores the in-progress mode's elapsed T-state count.
func (p *PPU) SetModeCycles(c int) { p.modeCycles = c }

// SetMode restores the FSM state directly. It updates STAT's mode bits,
// but raises none of the interrupts and runs none of the rendering that a
// transition inside Tick does.
func (p *PPU) SetMode(m Mode) { p.setMode(m) }

// SetLY restores the current scanline directly. Unlike WriteReg, this is
// not gated to read-only: it exists for save-state restore only.
func (p *PPU) SetLY(v uint8) { p.ly = v }

// SetSTATRaw restores the full STAT byte directly, including the mode and
// coincidence bits WriteReg normally protects from CPU writes. Callers
// should follow it with SetMode(mode) to keep the mode field itself in
// sync with the restored bits.
func (p *PPU) SetSTATRaw(v uint8) { p.stat = v }

// FrameChecksum hashes the current framebuffer, letting a determinism
// test compare two runs' output frame-by-frame without keeping every
// frame around.
func (p *PPU) FrameChecksum() uint64 {
	return xxhash.Sum64(p.Framebuffer[:])
}
