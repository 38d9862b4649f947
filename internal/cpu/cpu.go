// Package cpu implements the Sharp LR35902 instruction fetch/decode/
// execute loop: a generic decoder (internal/decode) paired with a single
// executor that interprets any decoded Instruction against the current
// register file and bus, rather than one function per opcode.
package cpu

import (
	"github.com/dmgcore/retroboy/internal/decode"
	"github.com/dmgcore/retroboy/internal/interrupts"
)

// ClockSpeed is the DMG's fixed oscillator frequency in Hz.
const ClockSpeed = 4194304

// InterruptDispatchCycles is the number of clock cycles an interrupt
// dispatch consumes (5 M-cycles): two internal delay cycles, two PC bytes
// pushed, and the vector jump.
const InterruptDispatchCycles = 20

// Bus is the memory-mapped address space the CPU executes against. The
// concrete implementation (internal/bus) also owns OAM DMA and I/O
// register decoding; the CPU only needs byte-addressable read/write.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
}

type mode uint8

const (
	modeNormal mode = iota
	modeHalt
	modeHaltBug
	modeStop
)

// CPU is the Sharp LR35902 core: registers, flags, and the fetch/decode/
// execute loop. Every bus access and mode transition advances the shared
// clock via Tick, which the owning Machine uses to keep PPU/timer/DMA/
// serial in lockstep with instruction execution.
type CPU struct {
	Registers

	Bus  Bus
	IRQ  *interrupts.Service
	Tick func() // advances every tickable component by one T-state

	mode mode

	// Stopped reports whether the core is halted in STOP mode, which
	// only a joypad-capable reset (or, in this core, an interrupt) wakes
	// it from.
	Stopped bool

	cycleCounter uint8
}

// New returns a CPU wired to bus and irq. tick is called once per T-state
// consumed by instruction fetch, memory access, or an idle HALT/STOP
// cycle.
func New(bus Bus, irq *interrupts.Service, tick func()) *CPU {
	return &CPU{Bus: bus, IRQ: irq, Tick: tick}
}

// Reset reinitializes registers to the documented post-boot-ROM state (as
// if the DMG boot ROM had just handed off control) and clears CPU mode.
func (c *CPU) Reset() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.mode = modeNormal
	c.Stopped = false
}

func (c *CPU) tick4() {
	for i := 0; i < 4; i++ {
		c.Tick()
		c.cycleCounter++
	}
}

// Step executes the next unit of work - one instruction, one idle HALT/
// STOP cycle, or an interrupt dispatch - and returns the number of
// T-states it consumed.
func (c *CPU) Step() uint8 {
	before := c.cycleCounter
	switch c.mode {
	case modeHalt:
		c.tick4()
		if c.IRQ.Pending() {
			c.mode = modeNormal
		}
	case modeStop:
		c.tick4()
		if c.IRQ.Pending() {
			c.mode = modeNormal
			c.Stopped = false
		}
	case modeHaltBug:
		// The byte at PC is fetched and executed, but PC is not
		// advanced past it - the next fetch reads the same byte again.
		pc := c.PC
		opcode := c.fetch()
		c.PC = pc
		c.execute(opcode)
		c.mode = modeNormal
	default:
		opcode := c.fetch()
		c.execute(opcode)
	}

	if c.IRQ.IME {
		if f, ok := c.IRQ.Next(); ok {
			c.dispatchInterrupt(f)
		}
	}

	return c.cycleCounter - before
}

func (c *CPU) dispatchInterrupt(f interrupts.Flag) {
	c.IRQ.Clear(f)
	c.IRQ.IME = false

	// Two internal delay cycles before the push begins.
	c.tick4()
	c.tick4()

	c.SP--
	c.writeByte(c.SP, uint8(c.PC>>8))
	c.SP--
	c.writeByte(c.SP, uint8(c.PC))

	c.PC = c.IRQ.Vector(f)
	// Final cycle of the 5 M-cycle dispatch covers the implicit jump.
	c.tick4()
}

func (c *CPU) fetch() uint8 {
	v := c.readByte(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) readByte(addr uint16) uint8 {
	c.tick4()
	return c.Bus.Read(addr)
}

func (c *CPU) writeByte(addr uint16, v uint8) {
	c.tick4()
	c.Bus.Write(addr, v)
}

// readOperand reads the value named by op, fetching immediates from the
// instruction stream and ticking the bus for memory operands exactly
// like real fetch/read cycles.
func (c *CPU) readOperand(op decode.Operand) uint16 {
	switch op.Kind {
	case decode.Imm8:
		return uint16(c.fetch())
	case decode.Imm16:
		return c.fetch16()
	case decode.Reg8:
		if op.Reg8 == decode.RegHLMem {
			return uint16(c.readByte(c.hl()))
		}
		return uint16(*c.reg8(op.Reg8))
	case decode.Reg16:
		return c.reg16(op.Reg16)
	case decode.MemReg16:
		addr := c.reg16(op.Reg16)
		v := c.readByte(addr)
		c.applyStep(op)
		return uint16(v)
	case decode.MemImm16:
		addr := c.fetch16()
		return uint16(c.readByte(addr))
	case decode.MemIOImm8:
		addr := 0xFF00 + uint16(c.fetch())
		return uint16(c.readByte(addr))
	case decode.MemIOReg8:
		addr := 0xFF00 + uint16(c.C)
		return uint16(c.readByte(addr))
	}
	return 0
}

// writeOperand stores v into the destination named by op.
func (c *CPU) writeOperand(op decode.Operand, v uint16) {
	switch op.Kind {
	case decode.Reg8:
		if op.Reg8 == decode.RegHLMem {
			c.writeByte(c.hl(), uint8(v))
			return
		}
		*c.reg8(op.Reg8) = uint8(v)
	case decode.Reg16:
		c.setReg16(op.Reg16, v)
	case decode.MemReg16:
		addr := c.reg16(op.Reg16)
		c.writeByte(addr, uint8(v))
		c.applyStep(op)
	case decode.MemImm16:
		addr := c.fetch16()
		c.writeByte(addr, uint8(v))
	case decode.MemIOImm8:
		addr := 0xFF00 + uint16(c.fetch())
		c.writeByte(addr, uint8(v))
	case decode.MemIOReg8:
		addr := 0xFF00 + uint16(c.C)
		c.writeByte(addr, uint8(v))
	}
}

func (c *CPU) applyStep(op decode.Operand) {
	if op.Reg16 != decode.RegHL {
		return
	}
	switch op.Step {
	case decode.PostInc:
		c.setHL(c.hl() + 1)
	case decode.PostDec:
		c.setHL(c.hl() - 1)
	}
}
