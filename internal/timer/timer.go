// Package timer implements the DIV/TIMA/TMA/TAC timer registers. TIMA
// increments are driven by a falling edge on a TAC-selected bit of a
// free-running 16-bit counter (DIV is simply its upper byte), not by a
// straightforward divide-and-compare - matching real hardware's DIV-write
// and TAC-write glitches.
package timer

import (
	"github.com/dmgcore/retroboy/internal/bits"
	"github.com/dmgcore/retroboy/internal/interrupts"
)

// selectBit maps the two bits of TAC's clock-select field onto the bit of
// the internal 16-bit counter that is monitored for a falling edge.
var selectBit = [4]uint8{9, 3, 5, 7}

// Controller owns DIV/TIMA/TMA/TAC and the hidden 16-bit counter driving
// them.
type Controller struct {
	div16   uint16
	tima    uint8
	tma     uint8
	tac     uint8
	lastBit bool

	// overflow is delayed by one M-cycle on real hardware: TIMA reads as
	// 0 for one cycle before reloading from TMA and requesting the
	// interrupt.
	overflowPending bool
	overflowDelay   uint8

	irq *interrupts.Service
}

// New returns a Controller wired to irq for TIMA-overflow interrupts.
func New(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq}
}

func (c *Controller) enabled() bool {
	return bits.Test(c.tac, 2)
}

func (c *Controller) monitoredBit() bool {
	bit := selectBit[c.tac&0x03]
	return c.div16&(1<<bit) != 0 && c.enabled()
}

// Step advances the timer by the given number of machine cycles (each
// worth 4 clocks), detecting the falling edge that increments TIMA and
// handling the delayed overflow-to-TMA reload. It returns true if, during
// this call, the delayed reload from TMA happened and the Timer interrupt
// was requested (one machine cycle after TIMA wrapped to 0).
func (c *Controller) Step(cycles uint8) bool {
	fired := false
	for i := uint8(0); i < cycles; i++ {
		if c.overflowPending {
			c.overflowDelay--
			if c.overflowDelay == 0 {
				c.tima = c.tma
				c.overflowPending = false
				if c.irq != nil {
					c.irq.Request(interrupts.Timer)
				}
				fired = true
			}
		}

		c.div16 += 4
		bit := c.monitoredBit()
		if c.lastBit && !bit {
			c.incrementTIMA()
		}
		c.lastBit = bit
	}
	return fired
}

func (c *Controller) incrementTIMA() {
	c.tima++
	if c.tima == 0 {
		c.overflowPending = true
		c.overflowDelay = 1
	}
}

// ReadDiv returns the upper byte of the internal counter, as exposed at
// FF04.
func (c *Controller) ReadDiv() uint8 {
	return uint8(c.div16 >> 8)
}

// WriteDiv resets the internal counter to zero regardless of the value
// written, which can itself trigger a spurious TIMA increment if the
// monitored bit happened to be set beforehand.
func (c *Controller) WriteDiv(uint8) {
	wasSet := c.monitoredBit()
	c.div16 = 0
	if wasSet && !c.monitoredBit() {
		c.incrementTIMA()
	}
	c.lastBit = c.monitoredBit()
}

// ReadTIMA returns FF05.
func (c *Controller) ReadTIMA() uint8 { return c.tima }

// WriteTIMA writes FF05. A write during the one-cycle overflow delay
// cancels the pending reload and interrupt.
func (c *Controller) WriteTIMA(v uint8) {
	c.tima = v
	c.overflowPending = false
}

// ReadTMA returns FF06.
func (c *Controller) ReadTMA() uint8 { return c.tma }

// WriteTMA writes FF06.
func (c *Controller) WriteTMA(v uint8) { c.tma = v }

// ReadTAC returns FF07, with unused bits reading as set.
func (c *Controller) ReadTAC() uint8 { return c.tac | 0xF8 }

// WriteTAC writes FF07. Like a DIV write, changing which bit is
// monitored (by disabling the timer or changing the select field) can
// itself cause the old bit's falling edge to be observed immediately.
func (c *Controller) WriteTAC(v uint8) {
	wasSet := c.monitoredBit()
	c.tac = v & 0x07
	if wasSet && !c.monitoredBit() {
		c.incrementTIMA()
	}
	c.lastBit = c.monitoredBit()
}

// Div16 exposes the hidden 16-bit counter for save-state serialization.
func (c *Controller) Div16() uint16 { return c.div16 }

// SetDiv16 restores the hidden 16-bit counter directly, without the
// edge-detection side effects of a real DIV write, and resynchronizes the
// falling-edge tracker against the now-current TAC setting. Callers
// restoring a snapshot should set TAC first.
func (c *Controller) SetDiv16(v uint16) {
	c.div16 = v
	c.lastBit = c.monitoredBit()
}
