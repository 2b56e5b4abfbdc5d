// Package console wires the CPU, RAM, and PPU into the cooperative
// single-threaded host loop: drain events, run one tick, and drive the
// window-close/end shutdown phases once the program stops asking for more
// ticks.
package console

import (
	"github.com/kittycatofmagic/kvm8/internal/cpu"
	"github.com/kittycatofmagic/kvm8/internal/ppu"
	"github.com/kittycatofmagic/kvm8/internal/ram"
	"github.com/kittycatofmagic/kvm8/internal/render"
)

// Console owns one running program: its RAM, CPU, PPU, and the renderer the
// PPU draws through.
type Console struct {
	CPU      *cpu.CPU
	RAM      *ram.RAM
	PPU      *ppu.PPU
	Renderer render.Renderer
}

// New loads rom over a freshly allocated ramSize-byte RAM, driving r through
// a PPU, with program output written to out.
func New(rom []byte, ramSize int, r render.Renderer, out ram.Console) *Console {
	mem := ram.New(ramSize, out)
	p := ppu.New(r)
	return &Console{
		CPU:      cpu.New(rom, mem, p, out),
		RAM:      mem,
		PPU:      p,
		Renderer: r,
	}
}

// HasWindowClose reports whether events contains a window-close request.
// The host loop checks this itself, before calling Frame, so it can route
// to WindowClosed instead of running a normal tick — mirroring how the
// window-close phase pre-empts the per-frame tick rather than following it.
func HasWindowClose(events []render.Event) bool {
	for _, e := range events {
		if e.Kind == render.EventWindowClose {
			return true
		}
	}
	return false
}

// Frame runs one normal host tick: the CPU runs until it yields at SYS
// PRESENT, terminates at BRK, or decode-faults. Callers must route
// window-close events to WindowClosed instead of calling Frame.
func (c *Console) Frame(events []render.Event) (cpu.TickResult, error) {
	return c.CPU.ExecuteTick(events)
}

// WindowClosed runs the registered window-close procedure to completion,
// then the ending procedure. Call this instead of Frame once a window-close
// event has been observed.
func (c *Console) WindowClosed() (cpu.TickResult, error) {
	return c.CPU.WindowClosed()
}

// Present flips the renderer's back buffer. Call once per host frame after
// Frame returns, whether or not the program yielded cleanly.
func (c *Console) Present() {
	c.Renderer.Present()
}

// PollEvents polls the renderer for this frame's input snapshot.
func (c *Console) PollEvents() []render.Event {
	return c.Renderer.PollEvents()
}

// End runs the registered ending procedure to completion, for a shutdown
// that wasn't triggered by a window-close event or a decode fault (e.g. the
// program reaching BRK).
func (c *Console) End() (cpu.TickResult, error) {
	return c.CPU.End()
}
