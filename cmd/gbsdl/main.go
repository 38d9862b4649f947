// Command gbsdl is the SDL2 host frontend: it owns the window, pumps
// keyboard events into the joypad, and blits the PPU's framebuffer every
// frame. It is an external collaborator in the sense the core's design
// describes - nothing in internal/machine depends on it.
package main

import (
	"flag"
	"fmt"
	"os"
	"unsafe"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/dmgcore/retroboy/internal/debugserver"
	"github.com/dmgcore/retroboy/internal/gblog"
	"github.com/dmgcore/retroboy/internal/joypad"
	"github.com/dmgcore/retroboy/internal/machine"
	"github.com/dmgcore/retroboy/internal/ppu"
	"github.com/dmgcore/retroboy/internal/romutil"
)

const pixelScale = 4

// keyMapping maps SDL scancodes to joypad buttons.
var keyMapping = map[sdl.Scancode]joypad.Button{
	sdl.SCANCODE_RETURN: joypad.Start,
	sdl.SCANCODE_RSHIFT: joypad.Select,
	sdl.SCANCODE_A:      joypad.A,
	sdl.SCANCODE_S:      joypad.B,
	sdl.SCANCODE_UP:     joypad.Up,
	sdl.SCANCODE_DOWN:   joypad.Down,
	sdl.SCANCODE_LEFT:   joypad.Left,
	sdl.SCANCODE_RIGHT:  joypad.Right,
}

func main() {
	romPath := flag.String("rom", "", "path to a ROM file (also accepted as the first positional argument; prompts with a file picker if neither is given)")
	interactive := flag.Bool("i", false, "start a websocket debugger on -addr instead of free-running")
	addr := flag.String("addr", "localhost:8547", "debugger listen address, used with -i")
	verbose := flag.Bool("l", false, "enable verbose logging")
	turbo := flag.Bool("t", false, "disable real-time pacing and run as fast as possible")
	flag.Parse()

	logger := gblog.Null
	if *verbose {
		logger = gblog.New(*verbose)
	}

	path := *romPath
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		chosen, err := dialog.File().Filter("Game Boy ROM", "gb", "gbc", "zip", "gz", "7z").Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "gbsdl: no ROM selected: %v\n", err)
			os.Exit(1)
		}
		path = chosen
	}

	cart, err := romutil.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gbsdl: %v\n", err)
		os.Exit(1)
	}
	logger.Infof("loaded %s", cart.Header.Title)

	m := machine.New(cart)
	m.Turbo = *turbo

	if *interactive {
		srv := debugserver.New(m, logger)
		logger.Infof("debugger listening on ws://%s", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			fmt.Fprintf(os.Stderr, "gbsdl: debugger: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runWindow(m, logger); err != nil {
		fmt.Fprintf(os.Stderr, "gbsdl: %v\n", err)
		os.Exit(1)
	}
}

func runWindow(m *machine.Machine, logger gblog.Logger) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(
		"retroboy",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		ppu.ScreenWidth*pixelScale, ppu.ScreenHeight*pixelScale,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Destroy()

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING,
		ppu.ScreenWidth, ppu.ScreenHeight,
	)
	if err != nil {
		return fmt.Errorf("create texture: %w", err)
	}
	defer texture.Destroy()

	pixels := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*4)

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				handleKey(m, e)
			}
		}

		m.RunFrame()
		if m.PPU.FrameReady {
			m.PPU.FrameReady = false
			blit(m.PPU.Framebuffer[:], pixels)
			texture.Update(nil, unsafe.Pointer(&pixels[0]), ppu.ScreenWidth*4)
			renderer.Clear()
			renderer.Copy(texture, nil, nil)
			renderer.Present()
		}
	}
	return nil
}

func handleKey(m *machine.Machine, e *sdl.KeyboardEvent) {
	btn, ok := keyMapping[e.Keysym.Scancode]
	if !ok {
		return
	}
	switch e.Type {
	case sdl.KEYDOWN:
		m.Joypad.Press(btn)
	case sdl.KEYUP:
		m.Joypad.Release(btn)
	}
}

// shades maps a 2-bit palette-resolved color index (0=lightest) to an
// RGBA8888 greyscale value, lightest to darkest.
var shades = [4][4]byte{
	{0xFF, 0xFF, 0xFF, 0xFF},
	{0xAA, 0xAA, 0xAA, 0xFF},
	{0x55, 0x55, 0x55, 0xFF},
	{0x00, 0x00, 0x00, 0xFF},
}

func blit(fb []uint8, out []byte) {
	for i, idx := range fb {
		shade := shades[idx&0x03]
		copy(out[i*4:i*4+4], shade[:])
	}
}
