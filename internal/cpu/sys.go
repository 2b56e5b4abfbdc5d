package cpu

import (
	"fmt"
	"time"

	"github.com/kittycatofmagic/kvm8/internal/ram"
	"github.com/kittycatofmagic/kvm8/internal/render"
)

// SYS sub-opcode bytes.
const (
	sysDump           = 0x01
	sysWait           = 0x02
	sysPresent        = 0x07
	sysGfx            = 0x08
	sysSetEndProc     = 0x09
	sysPrintRomString = 0x0A
	sysKeyQuery       = 0x0B
	sysPrintStackStr  = 0x0C
	sysSetWindowProc  = 0x0D
)

// GFX sub-opcode bytes.
const (
	gfxBGColor  = 0x01
	gfxTileRGB  = 0x02
	gfxPixelRGB = 0x03
	gfxLoadTex  = 0x04
	gfxDrawTex  = 0x05
	gfxLoadPal  = 0x06
)

// ErrInvalidSystemSubOp reports an unrecognized SYS sub-byte. Recoverable:
// logged, execution continues at the next instruction.
type ErrInvalidSystemSubOp struct{ Sub byte }

func (e ErrInvalidSystemSubOp) Error() string {
	return fmt.Sprintf("invalid system call: 0x%02x", e.Sub)
}

// ErrInvalidGraphicsSubOp reports an unrecognized GFX sub-byte. Recoverable
// the same way as ErrInvalidSystemSubOp.
type ErrInvalidGraphicsSubOp struct{ Sub byte }

func (e ErrInvalidGraphicsSubOp) Error() string {
	return fmt.Sprintf("invalid graphics call: 0x%02x", e.Sub)
}

// dispatchSys handles one SYS call. Every sub-op except PRESENT consumes
// and clears the RAM out-buffer as its argument blob.
func (c *CPU) dispatchSys(sub byte) (outcome, error) {
	if sub == sysPresent {
		c.pc++
		return outcomeYield, nil
	}

	buf := c.ram.TakeOutBuffer()

	switch sub {
	case sysDump:
		for _, b := range buf {
			if err := c.ram.Write(ram.ConsoleOut, b); err != nil {
				return outcomeContinue, err
			}
		}

	case sysWait:
		if len(buf) < 4 {
			c.logger.Printf("SYS WAIT: short argument blob (%d bytes)", len(buf))
			break
		}
		ms := int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16 | int32(buf[3])<<24
		time.Sleep(time.Duration(ms) * time.Millisecond)

	case sysGfx:
		if err := c.dispatchGfx(buf); err != nil {
			return outcomeContinue, err
		}

	case sysSetEndProc:
		c.endingProc = uint16(buf[0])<<8 | uint16(buf[1])

	case sysSetWindowProc:
		c.windowProc = uint16(buf[0])<<8 | uint16(buf[1])

	case sysPrintRomString:
		addr := uint16(buf[0])<<8 | uint16(buf[1])
		if err := c.writeRomString(addr); err != nil {
			return outcomeContinue, err
		}

	case sysPrintStackStr:
		addr := uint16(buf[0])<<8 | uint16(c.s+buf[1])
		for c.ram.Read(addr) != 0 {
			if err := c.console.WriteByte(c.ram.Read(addr)); err != nil {
				return outcomeContinue, err
			}
			addr--
		}

	case sysKeyQuery:
		key := buf[0]
		switch {
		case key >= 'a' && key <= 'z':
			key -= 93
		case key >= 'A' && key <= 'Z':
			key -= 61
		}
		match := false
		for _, ev := range c.events {
			if ev.Kind == render.EventKeyDown && ev.Scancode == int(key) {
				match = true
				break
			}
		}
		if match {
			c.a = 1
		} else {
			c.a = 0
		}

	default:
		c.logger.Printf("%v", ErrInvalidSystemSubOp{Sub: sub})
	}

	return outcomeContinue, nil
}

// dispatchGfx handles one SYS GFX call, buf[0] selecting the sub-op.
func (c *CPU) dispatchGfx(buf []byte) error {
	switch buf[0] {
	case gfxBGColor:
		return c.ppu.ColorBackground(buf[1], buf[2], buf[3])

	case gfxTileRGB:
		return c.ppu.DrawTile(int(buf[1]), int(buf[2]), [3]byte{buf[3], buf[4], buf[5]})

	case gfxPixelRGB:
		return c.ppu.DrawPixel(int(buf[1]), int(buf[2]), [3]byte{buf[3], buf[4], buf[5]})

	case gfxLoadTex:
		addr := uint16(buf[1])<<8 | uint16(buf[2])
		w, h, size, colorFormat := c.rom[addr], c.rom[addr+1], c.rom[addr+2], c.rom[addr+3]
		packed := c.rom[addr+4:]
		_, err := c.ppu.LoadTexture(int(w), int(h), int(size), colorFormat, packed)
		return err

	case gfxDrawTex:
		return c.ppu.DrawTexture(int(buf[1]), int(buf[2]), int(buf[3]), int(buf[4]))

	case gfxLoadPal:
		addr := uint16(buf[1])<<8 | uint16(buf[2])
		count := c.rom[addr]
		data := c.rom[addr+1:]
		id, err := c.ppu.LoadPalette(count, data)
		if err != nil {
			return err
		}
		c.a = byte(id)
		return nil

	default:
		c.logger.Printf("%v", ErrInvalidGraphicsSubOp{Sub: buf[0]})
		return nil
	}
}
