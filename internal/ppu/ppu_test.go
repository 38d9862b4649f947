package ppu

import "testing"

func newTestPPU() *PPU {
	p := New(nil)
	p.lcdc = 0x91 // LCD+BG on, tile data at 0x8000, BG map at 0x9800
	p.bgp = 0xE4  // identity palette: 0->0,1->1,2->2,3->3
	return p
}

// writeTile writes an 8x8 tile of a single color index at the given VRAM
// tile-data offset (relative to 0x8000).
func writeTile(p *PPU, tileAddr uint16, color uint8) {
	lo, hi := uint8(0), uint8(0)
	if color&1 != 0 {
		lo = 0xFF
	}
	if color&2 != 0 {
		hi = 0xFF
	}
	for row := uint16(0); row < 8; row++ {
		p.vram[tileAddr+row*2] = lo
		p.vram[tileAddr+row*2+1] = hi
	}
}

func TestDrawLineBackgroundSolidColor(t *testing.T) {
	p := newTestPPU()
	writeTile(p, 0, 3) // tile 0, solid color index 3
	// BG map at 0x9800 is zero-initialized, so every tile reference is
	// already tile 0.
	p.ly = 0
	p.drawLine()
	want := applyPalette(p.bgp, 3)
	for x := 0; x < ScreenWidth; x++ {
		if p.Framebuffer[x] != want {
			t.Fatalf("x=%d: got %d, want %d", x, p.Framebuffer[x], want)
		}
	}
}

func TestDrawLineWindowOverridesBackground(t *testing.T) {
	p := newTestPPU()
	p.lcdc |= 0x20 // window enable
	writeTile(p, 0, 3)
	p.wx, p.wy = 7, 0
	p.ly = 0
	p.drawLine()
	want := applyPalette(p.bgp, 3)
	for x := 0; x < ScreenWidth; x++ {
		if p.Framebuffer[x] != want {
			t.Fatalf("x=%d: got %d, want %d (window should cover full row at WX=7)", x, p.Framebuffer[x], want)
		}
	}
}

func TestDrawSpritesPriorityLowerOAMIndexWins(t *testing.T) {
	p := newTestPPU()
	p.lcdc |= 0x02 // OBJ enable
	p.obp0 = 0xE4  // identity palette so sprite color indices are distinguishable

	writeTile(p, 16, 3) // tile 1: solid color 3
	writeTile(p, 32, 1) // tile 2: solid color 1

	// Sprite 0: y=24 -> top=8, covers LY 8..15.
	p.oam[0] = 24 // y
	p.oam[1] = 20 // x
	p.oam[2] = 1  // tile 1
	p.oam[3] = 0  // attr, OBP0

	// Sprite 1: same x, different tile, later OAM index.
	p.oam[4] = 24
	p.oam[5] = 20
	p.oam[6] = 2
	p.oam[7] = 0

	p.ly = 15
	p.drawLine()

	screenX := 20 - 8 // 12
	want := applyPalette(p.obp0, 3)
	for x := screenX; x < screenX+8; x++ {
		if p.Framebuffer[int(p.ly)*ScreenWidth+x] != want {
			t.Fatalf("x=%d: got %d, want sprite0's color %d (lower OAM index should win tie)", x, p.Framebuffer[int(p.ly)*ScreenWidth+x], want)
		}
	}
}

func TestDrawSpritesTransparentColorZeroShowsBackground(t *testing.T) {
	p := newTestPPU()
	p.lcdc |= 0x02
	writeTile(p, 0, 2) // BG tile solid color 2
	writeTile(p, 16, 0) // sprite tile fully transparent (color index 0)

	p.oam[0] = 24
	p.oam[1] = 20
	p.oam[2] = 1
	p.oam[3] = 0

	p.ly = 15
	p.drawLine()

	bgWant := applyPalette(p.bgp, 2)
	screenX := 12
	if p.Framebuffer[int(p.ly)*ScreenWidth+screenX] != bgWant {
		t.Fatalf("expected transparent sprite pixel to show background color %d, got %d", bgWant, p.Framebuffer[int(p.ly)*ScreenWidth+screenX])
	}
}

func TestDrawSpritesBGPriorityHidesSpriteBehindNonZeroBG(t *testing.T) {
	p := newTestPPU()
	p.lcdc |= 0x02
	writeTile(p, 0, 1)  // BG tile solid color 1 (non-zero)
	writeTile(p, 16, 3) // sprite tile solid color 3

	p.oam[0] = 24
	p.oam[1] = 20
	p.oam[2] = 1
	p.oam[3] = attrPriority // BG-priority bit set

	p.ly = 15
	p.drawLine()

	bgWant := applyPalette(p.bgp, 1)
	screenX := 12
	if p.Framebuffer[int(p.ly)*ScreenWidth+screenX] != bgWant {
		t.Fatalf("expected BG-priority sprite to stay hidden behind non-zero BG, got %d want %d", p.Framebuffer[int(p.ly)*ScreenWidth+screenX], bgWant)
	}
}

func TestTickAdvancesLYOverFullFrame(t *testing.T) {
	p := New(nil)
	seen154 := false
	for i := 0; i < lineCycles*200; i++ {
		p.Tick()
		if p.ly == 0 && p.CurrentMode() == ModeOAMSearch {
			seen154 = true
		}
	}
	if !seen154 {
		t.Fatalf("expected LY to wrap back to 0 and re-enter OAM search within 200 lines worth of ticks")
	}
}
