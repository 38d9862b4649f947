package joypad

import (
	"testing"

	"github.com/dmgcore/retroboy/internal/interrupts"
)

func TestReadDefaultsAllReleased(t *testing.T) {
	s := New(nil)
	s.Write(0x00) // select both groups
	if got := s.Read() & 0x0F; got != 0x0F {
		t.Fatalf("expected all bits high when nothing pressed, got %04b", got)
	}
}

func TestPressSetsBitLowActiveLow(t *testing.T) {
	s := New(nil)
	s.Write(0x00)
	s.Press(A)
	if s.Read()&0x01 != 0 {
		t.Fatalf("expected bit 0 low for pressed A")
	}
}

func TestReleaseRestoresHigh(t *testing.T) {
	s := New(nil)
	s.Write(0x00)
	s.Press(A)
	s.Release(A)
	if s.Read()&0x01 == 0 {
		t.Fatalf("expected bit 0 high after release")
	}
}

func TestReleaseRequestsInterruptOnlyOnEdge(t *testing.T) {
	var irq interrupts.Service
	s := New(&irq)
	s.Press(Start)
	if irq.Flag&interrupts.Joypad != 0 {
		t.Fatalf("expected no interrupt on press")
	}
	s.Release(Start)
	if irq.Flag&interrupts.Joypad == 0 {
		t.Fatalf("expected joypad interrupt requested on release")
	}
	irq.Clear(interrupts.Joypad)
	s.Release(Start) // already released, no edge
	if irq.Flag&interrupts.Joypad != 0 {
		t.Fatalf("expected no interrupt for a key already released")
	}
}

func TestSelectLineIsolatesGroups(t *testing.T) {
	s := New(nil)
	s.Press(A)     // action
	s.Press(Right) // direction
	s.Write(0x20)  // select direction only (action select bit high = inactive)
	if s.Read()&0x01 != 0 {
		t.Fatalf("expected direction bit 0 (Right) low")
	}
	s.Write(0x10) // select action only
	if s.Read()&0x01 != 0 {
		t.Fatalf("expected action bit 0 (A) low")
	}
}
