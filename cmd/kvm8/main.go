// Command kvm8 loads a ROM image and runs it against a live SDL window.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/kittycatofmagic/kvm8/internal/console"
	"github.com/kittycatofmagic/kvm8/internal/cpu"
	"github.com/kittycatofmagic/kvm8/internal/ppu"
	"github.com/kittycatofmagic/kvm8/internal/ram"
	"github.com/kittycatofmagic/kvm8/internal/render/sdl"
	sdl2 "github.com/veandco/go-sdl2/sdl"
)

// isFatal reports whether err should terminate the process non-zero: a RAM
// address-out-of-range fault, or an invalid texture format load. An
// InvalidOpcode decode fault just ends the program's tick loop and is
// reported to stderr like any other recoverable error, matching the
// documented exit-code policy.
func isFatal(err error) bool {
	var outOfRange ram.ErrAddressOutOfRange
	return errors.As(err, &outOfRange) || errors.Is(err, ppu.ErrInvalidTextureFormat)
}

func init() {
	runtime.LockOSThread()
}

const (
	logicalWidth  = 256
	logicalHeight = 240
)

// stdoutConsole writes memory-mapped console output straight to the
// process's own stdout.
type stdoutConsole struct{}

func (stdoutConsole) WriteByte(b byte) error {
	_, err := os.Stdout.Write([]byte{b})
	return err
}

// loadROM reads path fully into memory and appends the NUL terminator every
// ROM image ends with.
func loadROM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kvm8: unable to read rom: %w", err)
	}
	return append(data, 0), nil
}

// run drives the host loop: poll events, tick the program forward, present
// the frame, until the window closes or the program ends on its own.
func run(romPath string, ramSize, scale int) error {
	rom, err := loadROM(romPath)
	if err != nil {
		return err
	}

	if err := sdl2.Init(sdl2.INIT_EVERYTHING); err != nil {
		return fmt.Errorf("kvm8: unable to init sdl: %w", err)
	}
	defer sdl2.Quit()

	r, err := sdl.New(int32(logicalWidth*scale), int32(logicalHeight*scale), "kvm8")
	if err != nil {
		return fmt.Errorf("kvm8: unable to init renderer: %w", err)
	}
	defer r.Destroy()

	con := console.New(rom, ramSize, r, stdoutConsole{})
	con.PPU.SetScale(scale)

	meter := console.NewFrameMeter(0)
	lastFrame := time.Now()
	lastReport := lastFrame

	for {
		events := con.PollEvents()
		if console.HasWindowClose(events) {
			if _, err := con.WindowClosed(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				if isFatal(err) {
					return err
				}
			}
			con.Present()
			return nil
		}

		res, err := con.Frame(events)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			if isFatal(err) {
				return err
			}
		}
		if res.ProgramEnd {
			// A decode fault goes through the window-close phase; BRK
			// runs only the ending procedure.
			shutdown := con.End
			var badOpcode cpu.ErrInvalidOpcode
			if errors.As(err, &badOpcode) {
				shutdown = con.WindowClosed
			}
			if _, err := shutdown(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				if isFatal(err) {
					return err
				}
			}
			con.Present()
			return nil
		}

		con.Present()

		now := time.Now()
		meter.Record(now.Sub(lastFrame))
		lastFrame = now
		if now.Sub(lastReport) >= time.Second {
			fmt.Fprintf(os.Stderr, "fps: %d\n", meter.FPS())
			lastReport = now
		}
	}
}

func main() {
	romPath := flag.String("rom", "ROM.bin", "ROM image to load")
	ramSize := flag.Int("ramsize", ram.DefaultSize, "RAM size in bytes")
	scale := flag.Int("scale", ppu.DefaultScale, "device pixel scale")
	flag.Parse()

	if err := run(*romPath, *ramSize, *scale); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
