package ppu

import "fmt"

// paletteKind tags a palette by its entry capacity. The wire format encodes
// these as 4, 16, and 255 respectively; 255 is a known oddity meaning 256,
// not 255, entries. Preserve the mapping rather than "fixing" it.
type paletteKind uint16

const (
	paletteKind4   paletteKind = 4
	paletteKind16  paletteKind = 16
	paletteKind256 paletteKind = 256
)

// ErrInvalidPaletteKind is returned when LoadPalette is given a kind byte
// other than 4, 16, or 255.
type ErrInvalidPaletteKind struct {
	Kind byte
}

func (e ErrInvalidPaletteKind) Error() string {
	return fmt.Sprintf("invalid palette kind: %d", e.Kind)
}

func paletteKindFromWire(wire byte) (paletteKind, error) {
	switch wire {
	case 4:
		return paletteKind4, nil
	case 16:
		return paletteKind16, nil
	case 255:
		return paletteKind256, nil
	default:
		return 0, ErrInvalidPaletteKind{Kind: wire}
	}
}

// palette is a tagged-union RGB table: the variant is carried in kind rather
// than behind a type-erased pointer, so a palette's capacity is always known
// statically from its tag.
type palette struct {
	kind    paletteKind
	entries []byte // len == int(kind)*3, one RGB triple per index
}

func newPalette(kind paletteKind, data []byte) palette {
	entries := make([]byte, int(kind)*3)
	copy(entries, data)
	return palette{kind: kind, entries: entries}
}

// rgb returns the RGB triple for palette index idx.
func (p palette) rgb(idx byte) (r, g, b byte) {
	o := int(idx) * 3
	return p.entries[o], p.entries[o+1], p.entries[o+2]
}
