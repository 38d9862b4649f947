// Package snapshot turns a PPU framebuffer into a PNG file, upscaled with
// nearest-neighbour resampling so a 160x144 capture stays legible at a
// larger size. The websocket debugger (internal/debugserver) has no
// screenshot operation and does not call this package.
package snapshot

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/dmgcore/retroboy/internal/ppu"
)

// shades maps a 2-bit palette-resolved color index (0=lightest) to a
// concrete greyscale value.
var shades = [4]uint8{0xFF, 0xAA, 0x55, 0x00}

// toImage converts a raw framebuffer into a grayscale image.Image.
func toImage(fb []uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight))
	for i, idx := range fb {
		img.Pix[i] = shades[idx&0x03]
	}
	return img
}

// Scale upscales fb by the given integer factor using nearest-neighbour
// resampling, preserving the Game Boy's blocky pixel look.
func Scale(fb []uint8, factor int) *image.Gray {
	if factor <= 1 {
		return toImage(fb)
	}
	src := toImage(fb)
	dst := image.NewGray(image.Rect(0, 0, ppu.ScreenWidth*factor, ppu.ScreenHeight*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG upscales fb by factor and writes it to path as a PNG.
func WritePNG(fb []uint8, factor int, path string) error {
	img := Scale(fb, factor)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}
