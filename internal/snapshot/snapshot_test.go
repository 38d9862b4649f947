package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/dmgcore/retroboy/internal/ppu"
)

func TestScaleUpscalesByFactor(t *testing.T) {
	fb := make([]uint8, ppu.ScreenWidth*ppu.ScreenHeight)
	img := Scale(fb, 4)
	b := img.Bounds()
	if b.Dx() != ppu.ScreenWidth*4 || b.Dy() != ppu.ScreenHeight*4 {
		t.Fatalf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), ppu.ScreenWidth*4, ppu.ScreenHeight*4)
	}
}

func TestScaleFactorOnePreservesSize(t *testing.T) {
	fb := make([]uint8, ppu.ScreenWidth*ppu.ScreenHeight)
	img := Scale(fb, 1)
	b := img.Bounds()
	if b.Dx() != ppu.ScreenWidth || b.Dy() != ppu.ScreenHeight {
		t.Fatalf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), ppu.ScreenWidth, ppu.ScreenHeight)
	}
}

func TestWritePNGCreatesFile(t *testing.T) {
	fb := make([]uint8, ppu.ScreenWidth*ppu.ScreenHeight)
	for i := range fb {
		fb[i] = uint8(i % 4)
	}
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := WritePNG(fb, 2, path); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
}
