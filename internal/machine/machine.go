// Package machine assembles the CPU, Bus, PPU, Timer, Joypad, and shared
// interrupt registers into the single-threaded, cooperative tick loop the
// concurrency model describes: one instruction step (or idle HALT/STOP
// cycle, or interrupt dispatch) at a time, with every peripheral advanced
// through the same clock the CPU consumes.
package machine

import (
	"time"

	"github.com/dmgcore/retroboy/internal/bus"
	"github.com/dmgcore/retroboy/internal/cartridge"
	"github.com/dmgcore/retroboy/internal/cpu"
	"github.com/dmgcore/retroboy/internal/interrupts"
	"github.com/dmgcore/retroboy/internal/joypad"
	"github.com/dmgcore/retroboy/internal/ppu"
	"github.com/dmgcore/retroboy/internal/timer"
)

// tStateHundredthsNanos is one clock edge at the DMG's 4.194304 MHz
// oscillator, in hundredths of a nanosecond (23842 == 238.42ns), kept as
// an integer ratio since time.Duration cannot hold a fractional
// nanosecond directly.
const tStateHundredthsNanos = 23842

// cyclesPerFrame is the fixed 70224 T-states every frame takes (154
// scanlines * 456 clocks), used by callers that want to step a whole
// frame at once.
const cyclesPerFrame = 154 * 456

// Machine is a complete Game Boy core: every peripheral the spec's
// concurrency model allows to be mutated only from the tick thread, plus
// the cartridge it was booted from.
type Machine struct {
	CPU    *cpu.CPU
	Bus    *bus.Bus
	PPU    *ppu.PPU
	Timer  *timer.Controller
	Joypad *joypad.State
	IRQ    *interrupts.Service
	Cart   *cartridge.Cartridge

	// Turbo disables real-time pacing in Run, letting the core execute as
	// fast as the host can manage - used by headless test-ROM runs and by
	// a host's fast-forward feature.
	Turbo bool

	mCycleCounter uint8 // counts T-states 0..3 within the current M-cycle

	simulated time.Duration
	wallStart time.Time
}

// New constructs a Machine wired around cart and resets the CPU to the
// documented post-boot-ROM state.
func New(cart *cartridge.Cartridge) *Machine {
	irq := &interrupts.Service{}
	p := ppu.New(irq)
	t := timer.New(irq)
	j := joypad.New(irq)
	b := bus.New(cart, p, t, j, irq)

	m := &Machine{Bus: b, PPU: p, Timer: t, Joypad: j, IRQ: irq, Cart: cart}
	m.CPU = cpu.New(b, irq, m.tick)
	m.CPU.Reset()
	return m
}

// tick is the CPU's per-T-state callback. It drives the PPU every
// T-state (the PPU's own Tick is defined at that granularity) and the
// timer and OAM DMA engine once per machine cycle (every 4th T-state),
// since both are specified in terms of 4-clock machine cycles.
func (m *Machine) tick() {
	m.PPU.Tick()
	m.mCycleCounter++
	if m.mCycleCounter == 4 {
		m.mCycleCounter = 0
		m.Timer.Step(1)
		m.Bus.TickDMA()
	}
}

// Step executes exactly one unit of work - an instruction, an idle HALT/
// STOP cycle, or an interrupt dispatch appended to the step that made it
// pending - and returns how many T-states it consumed. This is the tick
// loop from the concurrency model, with peripheral advancement folded
// into the CPU's own per-cycle ticking rather than a separate pass.
func (m *Machine) Step() uint8 {
	return m.CPU.Step()
}

// RunFrame steps the machine until at least one full frame (70224
// T-states) of CPU activity has elapsed, returning the total T-states
// consumed. It does not itself wait on FrameReady - callers that care
// about frame pacing should check PPU.FrameReady after calling this.
func (m *Machine) RunFrame() int {
	total := 0
	for total < cyclesPerFrame {
		total += int(m.Step())
	}
	return total
}

// Run drives the tick loop indefinitely, pacing to real time unless
// Turbo is set, until stop reports true. stop is polled once per step so
// a host can request a clean break between instructions, matching the
// "no suspension points" concurrency model: the only cancellation is the
// caller declining to take another Step.
func (m *Machine) Run(stop func() bool) {
	m.wallStart = time.Now()
	m.simulated = 0
	for !stop() {
		cycles := m.Step()
		if m.Turbo {
			continue
		}
		m.simulated += time.Duration(cycles) * tStateHundredthsNanos * time.Nanosecond / 100
		elapsed := time.Since(m.wallStart)
		if m.simulated > elapsed+time.Millisecond {
			time.Sleep(m.simulated - elapsed)
		}
	}
}
