package asm

import (
	"strconv"
	"strings"

	"github.com/kittycatofmagic/kvm8/internal/cpu"
)

// defaultMainAddress is where execution starts when the source carries no
// __START_HEADER__/__END_HEADER__ block: right past the 3-byte JMPA prologue
// every program gets, header or not.
const defaultMainAddress uint16 = 0x0003

// fixup records a label reference seen before its LABEL was assembled. pos
// is always the first byte of the instruction's own operand bytes — even
// for instructions with leading non-label operands, matching how the
// position was computed in the original compiler's single fixed offset.
type fixup struct {
	label string
	pos   uint16
}

type assembler struct {
	tokens []string
	pos    int

	out    []byte
	labels map[string]uint16
	fixups []fixup

	mainAddr  uint16
	jumpStart uint16
}

// Assemble turns tokenized mnemonic source into a ROM image: a leading jump
// to the program's entry point (the default 3-byte prologue, or the one
// patched in after a __START_HEADER__/__END_HEADER__ block), the assembled
// instruction stream with every label reference resolved, and a trailing
// zero byte.
func Assemble(source string) ([]byte, error) {
	a := &assembler{
		tokens:   tokenize(source),
		labels:   make(map[string]uint16),
		mainAddr: defaultMainAddress,
	}
	return a.run()
}

func (a *assembler) run() ([]byte, error) {
	tok, ok := a.next()
	if !ok {
		return nil, nil
	}

	if tok != "__START_HEADER__" {
		a.emit(0x4C, 0x00, 0x03)
	}

	var err error
	for ok {
		switch {
		case tok == "LABEL":
			var name string
			if name, ok = a.next(); !ok {
				break
			}
			a.labels[name] = uint16(len(a.out))
			if name == "__MAIN__" {
				a.mainAddr = uint16(len(a.out))
			}
			tok, ok = a.next()

		case tok == "__START_HEADER__":
			tok, ok = a.next()

		case tok == "__END_HEADER__":
			a.jumpStart = uint16(len(a.out))
			a.emit(0x4C, 0x00, 0x03)
			tok, ok = a.next()

		case strings.HasPrefix(tok, "#"):
			for !strings.HasSuffix(tok, "#") {
				if tok, ok = a.next(); !ok {
					break
				}
			}
			tok, ok = a.next()

		case tok == "RAW":
			if err = a.assembleRaw(); err != nil {
				return nil, err
			}
			tok, ok = a.next()

		default:
			tok, ok, err = a.assembleInstruction(tok)
			if err != nil {
				return nil, err
			}
		}
	}

	a.out = append(a.out, 0)

	if a.mainAddr != defaultMainAddress {
		a.patchWord(a.jumpStart+1, a.mainAddr)
	}
	for _, f := range a.fixups {
		addr, known := a.labels[f.label]
		if !known {
			return nil, AssemblerUndefinedLabel{Label: f.label}
		}
		a.patchWord(f.pos, addr)
	}

	return a.out, nil
}

// assembleRaw consumes tokens up to the closing END: quoted runs emit their
// contents verbatim, decimal tokens emit one byte each.
func (a *assembler) assembleRaw() error {
	tok, ok := a.next()
	for ok && tok != "END" {
		switch {
		case len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"':
			a.out = append(a.out, []byte(tok[1:len(tok)-1])...)
		case isDecimal(tok):
			n, err := strconv.Atoi(tok)
			if err != nil {
				return err
			}
			a.out = append(a.out, byte(n))
		}
		tok, ok = a.next()
	}
	return nil
}

// assembleInstruction assembles one mnemonic and its operands, selecting
// the opcode byte by the number of operand words it produced (mirroring the
// CPU's own one-word/two-word addressing-mode split in cpu.OpcodeTable), and
// returns the token that follows it.
func (a *assembler) assembleInstruction(tok string) (next string, more bool, err error) {
	instrStart := uint16(len(a.out))

	mnemonic := tok
	noOperands := strings.HasSuffix(mnemonic, ";")
	if noOperands {
		mnemonic = strings.TrimSuffix(mnemonic, ";")
	}

	pair, known := cpu.OpcodeTable[mnemonic]
	if !known {
		return "", false, AssemblerUnknownMnemonic{Token: mnemonic}
	}

	argWords := 0
	if mnemonic == "STRC" || mnemonic == "STCS" || mnemonic == "STSH" {
		argWords = -2
	}

	var operands []byte

	if noOperands {
		next, more = a.next()
	} else {
		for next, more = a.next(); more; {
			t := next
			last := strings.HasSuffix(t, ";")
			if last {
				t = strings.TrimSuffix(t, ";")
			}

			switch {
			case isHexLiteral(t):
				body := t[2:]
				v, perr := strconv.ParseUint(body, 16, 32)
				if perr != nil {
					return "", false, AssemblerInvalidHexLength{Token: t}
				}
				switch len(body) {
				case 2:
					operands = append(operands, byte(v))
				case 4:
					operands = append(operands, byte(v>>8), byte(v))
					argWords++
				default:
					return "", false, AssemblerInvalidHexLength{Token: t}
				}

			case isCharLiteral(t):
				operands = append(operands, t[1])

			case isDecimal(t):
				n, _ := strconv.Atoi(t)
				if n < 256 {
					operands = append(operands, byte(n))
				} else {
					operands = append(operands, byte(n>>8), byte(n))
					argWords++
				}

			default: // label reference
				if addr, ok := a.labels[t]; ok {
					operands = append(operands, byte(addr>>8), byte(addr))
				} else {
					a.fixups = append(a.fixups, fixup{label: t, pos: instrStart + 1})
					operands = append(operands, 0, 0)
				}
				argWords++
			}

			argWords++
			next, more = a.next()
			if last {
				break
			}
		}
	}

	if argWords == 0 {
		argWords = 1
	}
	if argWords != 1 && argWords != 2 {
		return "", false, AssemblerBadOpcodeArity{Mnemonic: mnemonic, ArgWords: argWords}
	}

	opcode := byte(pair)
	if argWords == 2 {
		opcode = byte(pair >> 8)
	}
	if opcode == 0xFF {
		return "", false, AssemblerBadOpcodeArity{Mnemonic: mnemonic, ArgWords: argWords}
	}

	a.out = append(a.out, opcode)
	a.out = append(a.out, operands...)

	return next, more, nil
}

func (a *assembler) next() (string, bool) {
	if a.pos >= len(a.tokens) {
		return "", false
	}
	t := a.tokens[a.pos]
	a.pos++
	return t, true
}

func (a *assembler) emit(bytes ...byte) {
	a.out = append(a.out, bytes...)
}

func (a *assembler) patchWord(pos uint16, addr uint16) {
	a.out[pos] = byte(addr >> 8)
	a.out[pos+1] = byte(addr)
}
