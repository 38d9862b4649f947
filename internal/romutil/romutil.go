// Package romutil is the cartridge-loader external collaborator from the
// purpose section: it reads ROM bytes off disk (optionally decompressing
// a 7z-archived dump, the way the teacher's pkg/utils.LoadFile does for
// .zip/.gz/.7z), parses the fixed header, and hands back a ready-to-run
// *cartridge.Cartridge along with battery-save sidecar handling.
package romutil

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/dmgcore/retroboy/internal/cartridge"
)

// LoadBytes reads path and transparently decompresses a handful of
// archive formats ROM dumps are commonly distributed in, returning the
// raw cartridge image. Unrecognized extensions are returned unmodified.
func LoadBytes(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("romutil: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("romutil: read %s: %w", path, err)
	}

	var decoder io.Reader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		decoder, err = gzip.NewReader(bytes.NewReader(data))
	case ".zip":
		zr, zerr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if zerr != nil {
			return nil, fmt.Errorf("romutil: open zip %s: %w", path, zerr)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("romutil: %s: empty zip archive", path)
		}
		decoder, err = zr.File[0].Open()
	case ".7z":
		zr, zerr := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if zerr != nil {
			return nil, fmt.Errorf("romutil: open 7z %s: %w", path, zerr)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("romutil: %s: empty 7z archive", path)
		}
		decoder, err = zr.File[0].Open()
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("romutil: decompress %s: %w", path, err)
	}
	return io.ReadAll(decoder)
}

// SavePath derives the battery sidecar path for a ROM file: the same
// path with its extension replaced by .sav.
func SavePath(romPath string) string {
	ext := filepath.Ext(romPath)
	return strings.TrimSuffix(romPath, ext) + ".sav"
}

// Load reads romPath, parses its header, and constructs a Cartridge. If
// the header declares a battery and a sidecar .sav file exists, it is
// loaded into external RAM before returning. Every subsequent external-RAM
// write is mirrored back to that same file.
func Load(romPath string) (*cartridge.Cartridge, error) {
	data, err := LoadBytes(romPath)
	if err != nil {
		return nil, err
	}
	header, err := cartridge.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("romutil: %s: %w", romPath, err)
	}

	savePath := SavePath(romPath)
	var onWrite func(offset int, v byte)
	if header.Type.HasBattery() {
		onWrite = func(offset int, v byte) {
			if err := writeSaveByte(savePath, offset, v); err != nil {
				// Save-file I/O errors are absorbed: a failed write here
				// must never interrupt emulation.
				fmt.Fprintf(os.Stderr, "romutil: warning: save write failed: %v\n", err)
			}
		}
	}

	cart := cartridge.New(data, header, onWrite)

	if header.Type.HasBattery() {
		if saved, err := os.ReadFile(savePath); err == nil {
			cart.LoadRAM(saved)
		} else if err := preallocateSave(savePath, header.RAMBytes); err != nil {
			fmt.Fprintf(os.Stderr, "romutil: warning: could not create save file: %v\n", err)
		}
	}
	return cart, nil
}

// preallocateSave creates a zero-filled save file of exactly size bytes
// so that, from the first external-RAM write onward, the sidecar file's
// size already matches the cartridge's declared RAM size.
func preallocateSave(path string, size int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if size == 0 {
		return nil
	}
	return f.Truncate(int64(size))
}

// writeSaveByte mirrors a single external-RAM byte into the sidecar save
// file at offset, creating the file if it is missing. It does not resize
// the file to the declared RAM size; Load preallocates it at that size
// when no save file exists yet.
func writeSaveByte(path string, offset int, v byte) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteAt([]byte{v}, int64(offset))
	return err
}
