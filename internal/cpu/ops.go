package cpu

import (
	"fmt"

	"github.com/kittycatofmagic/kvm8/internal/ram"
)

// OpcodeTable is the assembler/VM wire contract: mnemonic to a 16-bit pair
// (one-operand-word variant in the low byte, two-operand-word variant in
// the high byte), 0xFF meaning "no such variant". The assembler package
// uses this table for opcode selection; the CPU only decodes the byte
// values out of it, never the mnemonics.
var OpcodeTable = map[string]uint16{
	"SPT": 0xFF82,
	"SYS": 0xFFE2,
	"SAL": 0xFF1A,
	"DAL": 0xFF3A,

	"LDY": 0xACB4, "LDYC": 0xFFA0, "LDYS": 0xFF5C,
	"LDA": 0xADA1, "LDAC": 0xFFA9, "LDAS": 0xFF7C,
	"LDX": 0xAEA2, "LDXC": 0xFFA6, "LDXS": 0xFFDC,

	"TAX": 0xFFAA, "TXA": 0xFF8A, "TAY": 0xFFA8,
	"TYA": 0xFF98, "TSX": 0xFFBA, "TXS": 0xFF9A,

	"STRC": 0x89FF, "STCS": 0xC2FF, "STSH": 0xFF04,
	"STY": 0x8C80, "STYS": 0xFFFC,
	"STA": 0x8D81, "STAS": 0xFF1C,
	"STX": 0x8E82, "STXS": 0xFF3C,

	"ADCC": 0xFF69, "ADC": 0xFF6D, "SBCC": 0x00E9, "SBC": 0xEDE5,

	"DEC": 0xCEFF, "DEX": 0xFFCA, "DEY": 0xFF88,
	"INC": 0xEEFF, "INX": 0xFFE8, "INY": 0xFFC8,

	"ANDC": 0xFF29, "AND": 0x2D25,
	"XORC": 0xFF49, "XOR": 0x4D45,
	"ORAC": 0xFF09, "ORA": 0x0D05,

	"CMPC": 0xFFC9, "CMP": 0xCDC5,
	"CPXC": 0xFFE0, "CPX": 0xECE4,
	"CPYC": 0xFFC0, "CPY": 0xCCC4,

	"JMPA": 0x4CFF, "JMPR": 0x6CFF, "JSR": 0x20FF, "RTS": 0xFF60,

	"BPL": 0xFF10, "BMI": 0xFF30, "BVC": 0xFF50, "BVS": 0xFF70,
	"BCC": 0xFF90, "BCS": 0xFFB0, "BNE": 0xFFD0, "BEQ": 0xFFF0,

	"BRK": 0xFF04,
}

// Addressing-mode helpers. Each advances PC past exactly the operand bytes
// it consumes, the way every load/store opcode's own case body does.

func (c *CPU) loadImmediate() byte { return c.nextByte() }

func (c *CPU) loadShort() byte {
	offset := c.nextByte()
	return c.ram.ReadPageOffset(c.abh, offset)
}

func (c *CPU) loadAbsolute() byte {
	page, offset := c.nextWord()
	return c.ram.ReadPageOffset(page, offset)
}

func (c *CPU) loadStackRel() byte {
	offset := c.s + c.nextByte()
	return c.ram.ReadPageOffset(ram.StackPage, offset)
}

func (c *CPU) storeShort(v byte) error {
	offset := c.nextByte()
	return c.ram.WritePageOffset(c.abh, offset, v)
}

func (c *CPU) storeAbsolute(v byte) error {
	page, offset := c.nextWord()
	return c.ram.WritePageOffset(page, offset, v)
}

func (c *CPU) storeStackRel(v byte) error {
	offset := c.s + c.nextByte()
	return c.ram.WritePageOffset(ram.StackPage, offset, v)
}

// branch takes a signed 8-bit displacement and, if taken, adds it to PC.
// The displacement byte has already moved PC to point at itself; a taken
// branch lands PC there plus the signed displacement, and the dispatch
// loop's generic PC++ then advances one past that.
func (c *CPU) branch(taken bool) {
	disp := int8(c.nextByte())
	if taken {
		c.pc += uint16(int16(disp))
	}
}

// dispatch decodes and executes a single instruction at the current PC.
func (c *CPU) dispatch(opcode byte) (outcome, error) {
	switch opcode {

	// ---- system ----
	case 0xE2: // SYS
		sub := c.nextByte()
		return c.dispatchSys(sub)

	// ---- stack allocation ----
	case 0x1A: // SAL
		c.s -= c.nextByte()
	case 0x3A: // DAL
		c.s += c.nextByte()

	// ---- combined stores (console/out-buffer crossover preserved, see STRC/STCS doc) ----
	case 0x89: // STRC
		page, offset := c.nextWord()
		b1, b2 := c.nextByte(), c.nextByte()
		return outcomeContinue, c.storeCrossover(page, offset, b1, b2)
	case 0xC2: // STCS
		offset := c.s + c.nextByte()
		b1, b2 := c.nextByte(), c.nextByte()
		return outcomeContinue, c.storeCrossover(ram.StackPage, offset, b1, b2)

	// ---- stores ----
	case 0x80:
		return outcomeContinue, c.storeShort(c.y)
	case 0x8C:
		return outcomeContinue, c.storeAbsolute(c.y)
	case 0xFC:
		return outcomeContinue, c.storeStackRel(c.y)
	case 0x81:
		return outcomeContinue, c.storeShort(c.a)
	case 0x8D:
		return outcomeContinue, c.storeAbsolute(c.a)
	case 0x1C:
		return outcomeContinue, c.storeStackRel(c.a)
	case 0x82: // also reached via the SPT alias
		return outcomeContinue, c.storeShort(c.x)
	case 0x8E:
		return outcomeContinue, c.storeAbsolute(c.x)
	case 0x3C:
		return outcomeContinue, c.storeStackRel(c.x)

	// ---- loads ----
	case 0xB4:
		c.y = c.loadShort()
	case 0xAC:
		c.y = c.loadAbsolute()
	case 0xA0:
		c.y = c.loadImmediate()
	case 0x5C:
		c.y = c.loadStackRel()
	case 0xA1:
		c.a = c.loadShort()
	case 0xAD:
		c.a = c.loadAbsolute()
	case 0xA9:
		c.a = c.loadImmediate()
	case 0x7C:
		c.a = c.loadStackRel()
	case 0xA2:
		c.x = c.loadShort()
	case 0xAE:
		c.x = c.loadAbsolute()
	case 0xA6:
		c.x = c.loadImmediate()
	case 0xDC:
		c.x = c.loadStackRel()

	// ---- register transfers ----
	case 0xAA:
		c.x = c.a // TAX
	case 0x8A:
		c.a = c.x // TXA
	case 0xA8:
		c.y = c.a // TAY
	case 0x98:
		c.a = c.y // TYA
	case 0xBA:
		c.x = c.s // TSX
	case 0x9A:
		c.s = c.x // TXS

	// ---- arithmetic ----
	case 0x69: // ADCC
		operand := int32(c.loadImmediate())
		result := int32(c.a) + operand
		c.setZN(result)
		store(result, &c.a)
	case 0x6D: // ADC
		operand := int32(c.loadAbsolute())
		result := int32(c.a) + operand
		c.setZN(result)
		store(result, &c.a)
	case 0xE9: // SBCC
		operand := int32(c.loadImmediate())
		result := int32(c.a) - operand
		c.setZN(result)
		store(result, &c.a)

	// ---- increment/decrement: no flag changes, a preserved omission ----
	case 0xCE: // DEC
		page, offset := c.nextWord()
		v := c.ram.ReadPageOffset(page, offset)
		return outcomeContinue, c.ram.WritePageOffset(page, offset, v-1)
	case 0xCA:
		c.x--
	case 0x88:
		c.y--
	case 0xEE: // INC
		page, offset := c.nextWord()
		v := c.ram.ReadPageOffset(page, offset)
		return outcomeContinue, c.ram.WritePageOffset(page, offset, v+1)
	case 0xE8:
		c.x++
	case 0xC8:
		c.y++

	// ---- jumps ----
	case 0x4C: // JMPA
		page, offset := c.nextWord()
		addr := uint16(page)<<8 | uint16(offset)
		c.pc = addr - 1
	case 0x20: // JSR
		page, offset := c.nextWord()
		addr := uint16(page)<<8 | uint16(offset)
		if err := c.pushWord(c.pc + 1); err != nil {
			return outcomeContinue, err
		}
		c.pc = addr - 1
	case 0x60: // RTS
		c.pc = c.popWord() - 1

	// ---- compares: flags only, no write-back ----
	case 0xE0: // CPXC
		c.setZN(int32(c.x) - int32(c.loadImmediate()))
	case 0xEC: // CPX
		c.setZN(int32(c.x) - int32(c.loadAbsolute()))
	case 0xC0: // CPYC
		c.setZN(int32(c.y) - int32(c.loadImmediate()))
	case 0xCC: // CPY
		c.setZN(int32(c.y) - int32(c.loadAbsolute()))
	case 0xC9: // CMPC
		c.setZN(int32(c.a) - int32(c.loadImmediate()))
	case 0xCD: // CMP
		c.setZN(int32(c.a) - int32(c.loadAbsolute()))

	// ---- branches: signed 8-bit displacement ----
	case 0xF0: // BEQ
		c.branch(c.p&flagZero != 0)
	case 0xD0: // BNE
		c.branch(c.p&flagZero == 0)
	case 0x30: // BMI
		c.branch(c.p&flagNegative != 0)
	case 0x10: // BPL
		c.branch(c.p&flagNegative == 0)

	case 0x04: // BRK
		if err := c.printLine(fmt.Sprintf("Program returned with: %d", c.a)); err != nil {
			return outcomeContinue, err
		}
		return outcomeBreak, nil

	default:
		return outcomeContinue, ErrInvalidOpcode{Opcode: opcode}
	}
	return outcomeContinue, nil
}
