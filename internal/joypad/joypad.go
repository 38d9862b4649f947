// Package joypad implements the FF00 register: button/d-pad state
// multiplexed through two select lines, with an interrupt raised on a
// pressed-to-released transition (matching the reference source, which
// only raises it on release, not on press or hold).
package joypad

import "github.com/dmgcore/retroboy/internal/interrupts"

// Button identifies a single physical input. Each value is a distinct bit;
// actionBit maps a button onto its bit within its own select group.
type Button uint8

const (
	A Button = 1 << iota
	B
	Select
	Start
	Right
	Left
	Up
	Down
)

const (
	selectAction = 1 << 5
	selectDirect = 1 << 4
)

// State models the FF00 register and the underlying button state, which
// is wider than the 4 bits exposed through either select line at once.
type State struct {
	register uint8 // last value written to FF00 (select bits + unused)
	action   uint8 // A, B, Select, Start - held state (bit set = pressed)
	direction uint8 // Right, Left, Up, Down - held state (bit set = pressed)

	irq *interrupts.Service
}

// New returns a State with every key released and the given interrupt
// sink for release-triggered Joypad interrupts.
func New(irq *interrupts.Service) *State {
	return &State{register: 0xFF, irq: irq}
}

// Read returns the current value of FF00: the low nibble reflects
// whichever select line is active (0 = pressed, matching the hardware's
// active-low wiring), and unselected bits read high.
func (s *State) Read() uint8 {
	out := s.register | 0x0F
	if s.register&selectAction == 0 {
		out &= 0xF0 | ^(s.action & 0x0F)
	}
	if s.register&selectDirect == 0 {
		out &= 0xF0 | ^(s.direction & 0x0F)
	}
	return out | 0xC0
}

// Write updates the select lines (bits 4-5); the held-key state itself is
// only ever changed via Press/Release.
func (s *State) Write(v uint8) {
	s.register = (s.register & 0x0F) | (v & 0x30)
}

func (b Button) isAction() bool {
	return b == A || b == B || b == Select || b == Start
}

// Press marks a button as held.
func (s *State) Press(b Button) {
	bit := actionBit(b)
	if b.isAction() {
		s.action |= bit
	} else {
		s.direction |= bit
	}
}

// Release marks a button as no longer held. If it transitions from
// pressed to released, a Joypad interrupt is requested - this is the
// only edge that raises it, matching the reference source
// (system/joypad.rs's set_*_pressed calls req_interrupt in its
// !pressed branch).
func (s *State) Release(b Button) {
	var group *uint8
	if b.isAction() {
		group = &s.action
	} else {
		group = &s.direction
	}
	bit := actionBit(b)
	wasPressed := *group&bit != 0
	*group &^= bit
	if wasPressed && s.irq != nil {
		s.irq.Request(interrupts.Joypad)
	}
}

// RegisterState exposes the raw select register and both held-key groups
// for save-state serialization.
func (s *State) RegisterState() (register, action, direction uint8) {
	return s.register, s.action, s.direction
}

// RestoreState restores the select register and both held-key groups from
// a snapshot, bypassing Press/Release's interrupt side effects.
func (s *State) RestoreState(register, action, direction uint8) {
	s.register = register
	s.action = action
	s.direction = direction
}

// actionBit maps a Button onto its bit within its own group (action keys
// and direction keys each occupy bits 0-3 of their respective group).
func actionBit(b Button) uint8 {
	switch b {
	case A, Right:
		return 1 << 0
	case B, Left:
		return 1 << 1
	case Select, Up:
		return 1 << 2
	case Start, Down:
		return 1 << 3
	}
	return 0
}
