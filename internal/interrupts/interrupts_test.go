package interrupts

import "testing"

func TestRequestAndClear(t *testing.T) {
	var s Service
	s.Request(Timer)
	if s.Flag&Timer == 0 {
		t.Fatalf("expected Timer flag set")
	}
	s.Clear(Timer)
	if s.Flag&Timer != 0 {
		t.Fatalf("expected Timer flag cleared")
	}
}

func TestPendingRequiresEnable(t *testing.T) {
	var s Service
	s.Request(VBlank)
	if s.Pending() {
		t.Fatalf("expected no pending interrupt without IE set")
	}
	s.Enable = VBlank
	if !s.Pending() {
		t.Fatalf("expected pending interrupt once IE set")
	}
}

func TestNextPriorityOrder(t *testing.T) {
	var s Service
	s.Enable = 0x1F
	s.Flag = Timer | VBlank
	f, ok := s.Next()
	if !ok || f != VBlank {
		t.Fatalf("expected VBlank to take priority, got %v ok=%v", f, ok)
	}
}

func TestReadFlagUpperBitsSet(t *testing.T) {
	var s Service
	got := s.ReadFlag()
	if got&0xE0 != 0xE0 {
		t.Fatalf("expected upper 3 bits always set, got %08b", got)
	}
}

func TestVectorAddresses(t *testing.T) {
	var s Service
	cases := map[Flag]uint16{VBlank: 0x40, LCDStat: 0x48, Timer: 0x50, Serial: 0x58, Joypad: 0x60}
	for f, want := range cases {
		if got := s.Vector(f); got != want {
			t.Errorf("Vector(%v) = %#x, want %#x", f, got, want)
		}
	}
}
