package romutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmgcore/retroboy/internal/cartridge"
)

func TestSavePathReplacesExtension(t *testing.T) {
	if got := SavePath("/roms/Tetris.gb"); got != "/roms/Tetris.sav" {
		t.Fatalf("SavePath = %q, want /roms/Tetris.sav", got)
	}
}

func makeBatteryROM() []byte {
	rom := make([]byte, 8*16*1024)
	rom[0x147] = byte(cartridge.MBC1RAMBATT)
	rom[0x148] = 0x02 // 8 banks
	rom[0x149] = 0x02 // 8 KiB RAM
	return rom
}

func TestLoadCreatesSaveFileMatchingDeclaredSize(t *testing.T) {
	dir := t.TempDir()
	romPath := filepath.Join(dir, "game.gb")
	if err := os.WriteFile(romPath, makeBatteryROM(), 0o644); err != nil {
		t.Fatalf("write ROM: %v", err)
	}

	cart, err := Load(romPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	savePath := SavePath(romPath)
	info, err := os.Stat(savePath)
	if err != nil {
		t.Fatalf("expected save file to be preallocated: %v", err)
	}
	if info.Size() != 8*1024 {
		t.Fatalf("expected save file sized 8192 bytes, got %d", info.Size())
	}

	cart.Write(0x0000, 0x0A) // enable external RAM
	cart.Write(0xA005, 0x99)

	data, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatalf("read save file: %v", err)
	}
	if len(data) != 8*1024 {
		t.Fatalf("expected save file to stay sized 8192 bytes, got %d", len(data))
	}
	if data[5] != 0x99 {
		t.Fatalf("expected save file offset 5 == 0x99, got %#02x", data[5])
	}
}

func TestLoadRestoresExistingSave(t *testing.T) {
	dir := t.TempDir()
	romPath := filepath.Join(dir, "game.gb")
	if err := os.WriteFile(romPath, makeBatteryROM(), 0o644); err != nil {
		t.Fatalf("write ROM: %v", err)
	}
	saved := make([]byte, 8*1024)
	saved[10] = 0x7F
	if err := os.WriteFile(SavePath(romPath), saved, 0o644); err != nil {
		t.Fatalf("seed save file: %v", err)
	}

	cart, err := Load(romPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cart.Write(0x0000, 0x0A)
	if got := cart.Read(0xA00A); got != 0x7F {
		t.Fatalf("expected restored save byte 0x7F, got %#02x", got)
	}
}
