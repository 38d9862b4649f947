package cpu

import (
	"testing"

	"github.com/dmgcore/retroboy/internal/interrupts"
)

type fakeBus struct {
	mem [0x10000]uint8
}

func (b *fakeBus) Read(addr uint16) uint8    { return b.mem[addr] }
func (b *fakeBus) Write(addr uint16, v uint8) { b.mem[addr] = v }

func newTestCPU() (*CPU, *fakeBus, *interrupts.Service) {
	bus := &fakeBus{}
	irq := &interrupts.Service{}
	c := New(bus, irq, func() {})
	c.Reset()
	return c, bus, irq
}

func TestResetMatchesBootValues(t *testing.T) {
	c, _, _ := newTestCPU()
	if c.A != 0x01 || c.F != 0xB0 {
		t.Fatalf("unexpected AF after reset: A=%#02x F=%#02x", c.A, c.F)
	}
	if c.PC != 0x100 || c.SP != 0xFFFE {
		t.Fatalf("unexpected PC/SP after reset: PC=%#04x SP=%#04x", c.PC, c.SP)
	}
}

func TestFlagLowNibbleAlwaysZero(t *testing.T) {
	c, _, _ := newTestCPU()
	c.F = 0xFF
	c.setFlag(FlagZero, true)
	if c.F&0x0F != 0 {
		t.Fatalf("expected low nibble of F to stay zero, got %08b", c.F)
	}
}

func TestAddSetsCarryAndHalfCarry(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.A = 0xFF
	bus.mem[c.PC] = 0x87 // ADD A,A
	c.Step()
	if c.A != 0xFE {
		t.Fatalf("expected A=0xFE, got %#02x", c.A)
	}
	if !c.flag(FlagCarry) || !c.flag(FlagHalfCarry) {
		t.Fatalf("expected carry and half-carry set, F=%08b", c.F)
	}
}

func TestIncDoesNotTouchCarry(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.setFlag(FlagCarry, true)
	c.B = 0xFF
	bus.mem[c.PC] = 0x04 // INC B
	c.Step()
	if c.B != 0 {
		t.Fatalf("expected B to wrap to 0, got %#02x", c.B)
	}
	if !c.flag(FlagZero) || !c.flag(FlagHalfCarry) {
		t.Fatalf("expected zero and half-carry set")
	}
	if !c.flag(FlagCarry) {
		t.Fatalf("expected INC to leave carry flag untouched")
	}
}

func TestJRTakenAddsExtraCycles(t *testing.T) {
	c, bus, _ := newTestCPU()
	bus.mem[c.PC] = 0x18   // JR
	bus.mem[c.PC+1] = 0x05 // +5
	start := c.PC
	cycles := c.Step()
	if c.PC != start+2+5 {
		t.Fatalf("expected PC to land at start+7, got %#04x want %#04x", c.PC, start+2+5)
	}
	if cycles != 12 {
		t.Fatalf("expected JR taken to cost 12 T-states, got %d", cycles)
	}
}

func TestHaltBugRepeatsNextByte(t *testing.T) {
	c, bus, irq := newTestCPU()
	irq.Enable = interrupts.Timer
	irq.Flag = interrupts.Timer
	irq.IME = false
	c.A = 0x00

	bus.mem[c.PC] = 0x76   // HALT
	bus.mem[c.PC+1] = 0x3C // INC A (executed twice due to the bug)
	c.Step()               // runs HALT, detects the bug
	if c.mode != modeHaltBug {
		t.Fatalf("expected HALT-bug mode to be entered")
	}
	c.Step() // executes INC A once, PC does not advance past it
	if c.A != 1 {
		t.Fatalf("expected A=1 after first INC A, got %d", c.A)
	}
	c.Step() // executes the same INC A a second time
	if c.A != 2 {
		t.Fatalf("expected A=2 after the repeated INC A, got %d", c.A)
	}
}

func TestInterruptDispatchCosts20Cycles(t *testing.T) {
	c, bus, irq := newTestCPU()
	irq.Enable = interrupts.VBlank
	irq.Flag = interrupts.VBlank
	irq.IME = true
	bus.mem[c.PC] = 0x00 // NOP
	cycles := c.Step()
	if cycles != 4+InterruptDispatchCycles {
		t.Fatalf("expected NOP (4) + dispatch (%d) = %d cycles, got %d",
			InterruptDispatchCycles, 4+InterruptDispatchCycles, cycles)
	}
	if c.PC != interruptsVBlankVector(irq) {
		t.Fatalf("expected PC at VBlank vector, got %#04x", c.PC)
	}
	if irq.IME {
		t.Fatalf("expected IME cleared after dispatch")
	}
}

func interruptsVBlankVector(irq *interrupts.Service) uint16 {
	return irq.Vector(interrupts.VBlank)
}

func TestDAAAfterBCDAddition(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.A = 0x45
	c.B = 0x38
	bus.mem[c.PC] = 0x80   // ADD A,B -> 0x7D binary
	bus.mem[c.PC+1] = 0x27 // DAA -> should read as 0x83 in BCD
	c.Step()
	c.Step()
	if c.A != 0x83 {
		t.Fatalf("expected DAA(0x45+0x38) == 0x83, got %#02x", c.A)
	}
}

func TestLDMemImm16SPWritesBothBytes(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.SP = 0xBEEF
	bus.mem[c.PC] = 0x08   // LD (nn),SP
	bus.mem[c.PC+1] = 0x00 // nn low
	bus.mem[c.PC+2] = 0xC0 // nn high -> addr 0xC000
	c.Step()
	if bus.mem[0xC000] != 0xEF || bus.mem[0xC001] != 0xBE {
		t.Fatalf("expected [0xC000]=0xEF [0xC001]=0xBE, got [%#02x %#02x]", bus.mem[0xC000], bus.mem[0xC001])
	}
}
