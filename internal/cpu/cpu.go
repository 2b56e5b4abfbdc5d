// Package cpu implements the fantasy console's byte-code processor: its
// register set, addressing modes, instruction dispatch, and the SYS call
// table that bridges program code to RAM, the PPU, and the host renderer.
package cpu

import (
	"log"
	"os"

	"github.com/kittycatofmagic/kvm8/internal/ppu"
	"github.com/kittycatofmagic/kvm8/internal/ram"
	"github.com/kittycatofmagic/kvm8/internal/render"
)

// Zero/negative are the only two condition flags the processor status byte
// ever carries; every other bit is left as-is by arithmetic and compares.
const (
	flagNegative byte = 1 << 0
	flagZero     byte = 1 << 6
)

// noProc marks endingProc/windowProc as unset.
const noProc uint16 = 0xFFFF

// TickResult reports how a call to ExecuteTick ended.
type TickResult struct {
	// ProgramEnd is true once BRK has run or an invalid opcode was hit.
	ProgramEnd bool
	// ReturnValue is the accumulator's value at BRK, or -1 on a decode
	// fault. Meaningless when ProgramEnd is false.
	ReturnValue int
}

// CPU is the processor plus everything it needs to execute a tick: the ROM
// it's running, the RAM it reads and writes, and the PPU its SYS GFX calls
// drive.
type CPU struct {
	a, x, y, p, s byte
	pc            uint16
	abh           byte

	rom     []byte
	ram     *ram.RAM
	ppu     *ppu.PPU
	console ram.Console
	logger  *log.Logger

	endingProc uint16
	windowProc uint16

	events []render.Event
}

// New returns a CPU over rom, driving r and p, printing program output to
// console. S starts at 0xFF (top of the stack page); everything else
// starts zeroed, matching a freshly powered-on machine.
func New(rom []byte, r *ram.RAM, p *ppu.PPU, console ram.Console) *CPU {
	return &CPU{
		rom:        rom,
		ram:        r,
		ppu:        p,
		console:    console,
		s:          0xFF,
		endingProc: noProc,
		windowProc: noProc,
		logger:     log.New(os.Stderr, "", 0),
	}
}

// SetLogger overrides the destination for recoverable SYS sub-op errors.
// Defaults to stderr.
func (c *CPU) SetLogger(l *log.Logger) {
	c.logger = l
}

// A returns the accumulator, for host code that wants to inspect final
// program state without relying on TickResult (e.g. a SET_END_PROC hook).
func (c *CPU) A() byte { return c.a }

// EndingProc and WindowProc report the ROM addresses registered by
// SET_END_PROC / SET_WINDOW_PROC, or false if none was registered.
func (c *CPU) EndingProc() (uint16, bool) {
	return c.endingProc, c.endingProc != noProc
}

func (c *CPU) WindowProc() (uint16, bool) {
	return c.windowProc, c.windowProc != noProc
}

// outcome is the internal control-flow signal a single decoded instruction
// hands back to the fetch loop.
type outcome int

const (
	outcomeContinue outcome = iota
	outcomeYield
	outcomeBreak
)

// ExecuteTick runs instructions starting at the current PC until the
// program yields at SYS PRESENT, terminates at BRK, or hits a decode
// fault. events is the host input snapshot visible to SYS KEY_QUERY for
// the duration of this tick.
func (c *CPU) ExecuteTick(events []render.Event) (TickResult, error) {
	c.events = events
	for {
		opcode := c.rom[c.pc]
		out, err := c.dispatch(opcode)
		if err != nil {
			return TickResult{ProgramEnd: true, ReturnValue: -1}, err
		}
		switch out {
		case outcomeYield:
			return TickResult{}, nil
		case outcomeBreak:
			return TickResult{ProgramEnd: true, ReturnValue: int(c.a)}, nil
		default:
			c.pc++
		}
	}
}

// nextByte advances PC and returns the byte it now points at. Every operand
// read goes through this, mirroring the processor's own program counter
// advancing one byte ahead of the opcode it's decoding.
func (c *CPU) nextByte() byte {
	c.pc++
	return c.rom[c.pc]
}

// nextWord reads a big-endian 16-bit ROM operand (page, then offset within
// it) the way every absolute-addressing opcode lays its operand out.
func (c *CPU) nextWord() (page, offset byte) {
	return c.nextByte(), c.nextByte()
}

// setZN recomputes the zero/negative flags from a signed 32-bit arithmetic
// result, leaving every other status bit untouched.
func (c *CPU) setZN(result int32) {
	c.p &^= flagZero | flagNegative
	switch {
	case result < 0:
		c.p |= flagNegative
	case result == 0:
		c.p |= flagZero
	}
}

// store truncates result to a byte and writes it to dst, saturating to 0
// first if result went negative rather than wrapping through two's
// complement. Flags are not touched here; callers call setZN first.
func store(result int32, dst *byte) {
	if result < 0 {
		result = 0
	}
	*dst = byte(result)
}

// push8 writes v to the stack page at S and decrements S.
func (c *CPU) push8(v byte) error {
	if err := c.ram.WritePageOffset(ram.StackPage, c.s, v); err != nil {
		return err
	}
	c.s--
	return nil
}

// pop8 increments S and reads the stack page at S.
func (c *CPU) pop8() byte {
	c.s++
	return c.ram.ReadPageOffset(ram.StackPage, c.s)
}

// pushWord pushes a 16-bit value low byte first, so it ends up sitting at
// the higher of the two stack addresses it occupies.
func (c *CPU) pushWord(v uint16) error {
	if err := c.push8(byte(v)); err != nil {
		return err
	}
	return c.push8(byte(v >> 8))
}

// popWord is pushWord's inverse: high byte comes off first.
func (c *CPU) popWord() uint16 {
	hi := c.pop8()
	lo := c.pop8()
	return uint16(hi)<<8 | uint16(lo)
}

// writeRomString prints a NUL-terminated ROM string starting at addr.
func (c *CPU) writeRomString(addr uint16) error {
	for c.rom[addr] != 0 {
		if err := c.console.WriteByte(c.rom[addr]); err != nil {
			return err
		}
		addr++
	}
	return nil
}

// storeCrossover implements STRC/STCS: writes Y to (page, offset) through
// the RAM write policy, but when that address is the console-out sink,
// b1/b2 are printed directly on top of it, and when it is the buffered-out
// sink b1/b2 go straight into the out-buffer and Y is never written at
// all. The console-out case ends up writing twice — once here for b1/b2,
// once more for Y inside the RAM write policy itself — which is a known
// cross-wired quirk of the opcode, not a bug to fix.
func (c *CPU) storeCrossover(page, offset, b1, b2 byte) error {
	addr := uint16(page)<<8 | uint16(offset)

	if addr == ram.ConsoleOut {
		if err := c.ram.Write(ram.ConsoleOut, b1); err != nil {
			return err
		}
		if err := c.ram.Write(ram.ConsoleOut, b2); err != nil {
			return err
		}
	}

	if addr == ram.ConsoleBufferedOut {
		c.ram.PushOutBuffer(b1)
		c.ram.PushOutBuffer(b2)
		return nil
	}

	return c.ram.WritePageOffset(page, offset, c.y)
}

// printLine writes s followed by a newline to console, one byte at a time.
func (c *CPU) printLine(s string) error {
	for i := 0; i < len(s); i++ {
		if err := c.console.WriteByte(s[i]); err != nil {
			return err
		}
	}
	return c.console.WriteByte('\n')
}
