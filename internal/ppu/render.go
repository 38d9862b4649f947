package ppu

import "github.com/dmgcore/retroboy/internal/bits"

// Sprite attribute bits (byte 3 of each 4-byte OAM entry).
const (
	attrPriorityBit uint8 = 7
	attrYFlipBit    uint8 = 6
	attrXFlipBit    uint8 = 5
	attrPaletteBit  uint8 = 4

	attrPriority = 1 << attrPriorityBit
	attrYFlip    = 1 << attrYFlipBit
	attrXFlip    = 1 << attrXFlipBit
	attrPalette  = 1 << attrPaletteBit
)

const maxSpritesPerLine = 10

// drawLine renders the current scanline into the back buffer at row LY.
// It is a pure function of VRAM, OAM, and the LCD registers at the moment
// it runs (the VRAM->HBlank transition), composited in three passes:
// background, then window (which simply overwrites background pixels it
// covers), then sprites (which respect per-sprite priority against the
// background color actually drawn).
func (p *PPU) drawLine() {
	ly := p.ly
	if ly >= ScreenHeight {
		return
	}
	row := p.Framebuffer[int(ly)*ScreenWidth : int(ly)*ScreenWidth+ScreenWidth]

	var bgIndex [ScreenWidth]uint8
	bgEnabled := bits.Test(p.lcdc, 0)
	winEnabled := bits.Test(p.lcdc, 5) && p.wy <= ly
	unsignedTiles := bits.Test(p.lcdc, 4)
	bgMap := p.tileMapBase(bits.Test(p.lcdc, 3))
	winMap := p.tileMapBase(bits.Test(p.lcdc, 6))
	winX := int(p.wx) - 7

	for x := 0; x < ScreenWidth; x++ {
		var idx uint8
		switch {
		case winEnabled && x >= winX:
			idx = p.sampleTile(winMap, uint8(x-winX), ly-p.wy, unsignedTiles)
		case bgEnabled:
			idx = p.sampleTile(bgMap, uint8(x)+p.scx, ly+p.scy, unsignedTiles)
		}
		bgIndex[x] = idx
		row[x] = applyPalette(p.bgp, idx)
	}

	if bits.Test(p.lcdc, 1) {
		p.drawSprites(row, bgIndex[:], ly)
	}
}

// tileMapBase resolves a LCDC tile-map-select bit to its base address.
func (p *PPU) tileMapBase(hi bool) uint16 {
	if hi {
		return 0x9C00
	}
	return 0x9800
}

// sampleTile returns the 2-bit color index (pre-palette) of the pixel at
// map-space coordinates (px, py), honoring LCDC's tile-data addressing
// mode: unsigned indices based at 0x8000, or signed indices based at
// 0x9000.
func (p *PPU) sampleTile(mapBase uint16, px, py uint8, unsigned bool) uint8 {
	tileCol := uint16(px / 8)
	tileRow := uint16(py / 8)
	ti := p.vram[mapBase-0x8000+tileRow*32+tileCol]

	var tileAddr uint16
	if unsigned {
		tileAddr = 0x8000 + uint16(ti)*16
	} else {
		tileAddr = uint16(int32(0x9000) + int32(int8(ti))*16)
	}

	rowInTile := uint16(py % 8)
	lo := p.vram[tileAddr-0x8000+rowInTile*2]
	hi8 := p.vram[tileAddr-0x8000+rowInTile*2+1]
	bit := 7 - (px % 8)
	return (hi8>>bit)&1<<1 | (lo>>bit)&1
}

// applyPalette maps a 2-bit color index through a BGP/OBP0/OBP1 register
// to its assigned shade.
func applyPalette(pal, idx uint8) uint8 {
	return (pal >> (idx * 2)) & 0x03
}

// drawSprites composites up to 10 on-scanline sprites (the OAM-scan
// limit) onto row, which already holds the background/window pass.
// Sprites are drawn in increasing-x order (stable on ties, so a lower
// OAM index wins a tie) and each non-transparent sprite pixel claims its
// screen column for every later sprite regardless of whether it is itself
// hidden behind a BG-priority pixel.
func (p *PPU) drawSprites(row []uint8, bgIndex []uint8, ly uint8) {
	size := 8
	if bits.Test(p.lcdc, 2) {
		size = 16
	}

	var onLine []int
	for i := 0; i < 40 && len(onLine) < maxSpritesPerLine; i++ {
		y := p.oam[i*4]
		top := int(y) - 16
		if int(ly) >= top && int(ly) < top+size {
			onLine = append(onLine, i)
		}
	}

	// Stable sort by x ascending: equal-x ties keep OAM scan order, so a
	// lower OAM index wins.
	for i := 1; i < len(onLine); i++ {
		j := i
		xi := p.oam[onLine[i]*4+1]
		for j > 0 && p.oam[onLine[j-1]*4+1] > xi {
			onLine[j], onLine[j-1] = onLine[j-1], onLine[j]
			j--
		}
	}

	var covered [ScreenWidth]bool
	for _, i := range onLine {
		base := i * 4
		y, x, tile, attr := p.oam[base], p.oam[base+1], p.oam[base+2], p.oam[base+3]
		screenX := int(x) - 8
		top := int(y) - 16
		line := int(ly) - top
		if bits.Test(attr, attrYFlipBit) {
			line = size - 1 - line
		}
		tileNum := tile
		if size == 16 {
			tileNum &^= 1
			if line >= 8 {
				tileNum++
				line -= 8
			}
		}
		tileAddr := 0x8000 + uint16(tileNum)*16
		lo := p.vram[tileAddr-0x8000+uint16(line)*2]
		hi := p.vram[tileAddr-0x8000+uint16(line)*2+1]

		for px := 0; px < 8; px++ {
			sx := screenX + px
			if sx < 0 || sx >= ScreenWidth || covered[sx] {
				continue
			}
			bit := 7 - px
			if bits.Test(attr, attrXFlipBit) {
				bit = px
			}
			colorIdx := (hi>>uint(bit))&1<<1 | (lo>>uint(bit))&1
			if colorIdx == 0 {
				continue // transparent: does not claim the column
			}
			covered[sx] = true
			if bits.Test(attr, attrPriorityBit) && bgIndex[sx] != 0 {
				continue // background wins behind this sprite
			}
			pal := p.obp0
			if bits.Test(attr, attrPaletteBit) {
				pal = p.obp1
			}
			row[sx] = applyPalette(pal, colorIdx)
		}
	}
}
