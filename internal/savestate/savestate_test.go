package savestate

import (
	"testing"

	"github.com/dmgcore/retroboy/internal/cartridge"
	"github.com/dmgcore/retroboy/internal/machine"
)

func newTestMachine(t *testing.T) *machine.Machine {
	t.Helper()
	rom := make([]byte, 32*1024)
	rom[0x148] = 0x00
	rom[0x149] = 0x00
	h, err := cartridge.ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	cart := cartridge.New(rom, h, nil)
	return machine.New(cart)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := newTestMachine(t)
	m.CPU.A = 0x42
	m.CPU.PC = 0x1234
	m.Bus.Write(0xC000, 0x99)
	m.PPU.WriteReg(0xFF47, 0x1B)
	m.Timer.WriteTAC(0x05)

	blob, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	m2 := newTestMachine(t)
	if err := Decode(blob, m2); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if m2.CPU.A != 0x42 {
		t.Fatalf("A = %#02x, want 0x42", m2.CPU.A)
	}
	if m2.CPU.PC != 0x1234 {
		t.Fatalf("PC = %#04x, want 0x1234", m2.CPU.PC)
	}
	if got := m2.Bus.Read(0xC000); got != 0x99 {
		t.Fatalf("WRAM[0xC000] = %#02x, want 0x99", got)
	}
	if got := m2.PPU.ReadReg(0xFF47); got != 0x1B {
		t.Fatalf("BGP = %#02x, want 0x1B", got)
	}
	if got := m2.Timer.ReadTAC(); got&0x07 != 0x05 {
		t.Fatalf("TAC = %#02x, want low bits 0x05", got)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	m := newTestMachine(t)
	if err := Decode([]byte("not a save file"), m); err == nil {
		t.Fatalf("expected an error decoding a non-save-state blob")
	}
}

func TestDecodeRejectsCorruptedChecksum(t *testing.T) {
	m := newTestMachine(t)
	blob, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	corrupted := append([]byte(nil), blob...)
	corrupted[len(corrupted)-1] ^= 0xFF

	if err := Decode(corrupted, m); err == nil {
		t.Fatalf("expected checksum mismatch error on corrupted payload")
	}
}
