package ppu

import (
	"errors"
	"fmt"

	"github.com/kittycatofmagic/kvm8/internal/render"
)

// ColorFormat2Bit packs four palette indices (0-3) per byte, high pair
// first. It is the only supported texture color format.
const ColorFormat2Bit byte = 1

// ErrInvalidTextureFormat is returned by LoadTexture for any colorFormat
// other than ColorFormat2Bit. Fatal per the error-handling contract: the
// caller should terminate the process rather than continue with a texture
// of unknown layout.
var ErrInvalidTextureFormat = errors.New("ppu: invalid texture color format")

// texture owns an indexed pixel buffer, its lazily-resolved RGB cache, and
// the streaming renderer handle it uploads to.
type texture struct {
	w, h, size     int
	colorFormat    byte
	pixels         []byte // len == w*h, each byte a palette index
	rgb            []byte // len == w*h*3, resolved cache
	handle         render.Texture
	currentPalette int // -1 == unresolved
}

// expand2Bit unpacks one packed-2-bit-per-pixel byte sequence into one
// palette index per output byte, high-to-low bit pairs within each source
// byte mapping to consecutive output pixels.
func expand2Bit(packed []byte, pixelCount int) []byte {
	out := make([]byte, 0, pixelCount)
	for _, b := range packed {
		for shift := 6; shift >= 0 && len(out) < pixelCount; shift -= 2 {
			out = append(out, (b>>uint(shift))&0x03)
		}
	}
	return out
}

func newTexture(w, h, size int, colorFormat byte, data []byte) (*texture, error) {
	if colorFormat != ColorFormat2Bit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTextureFormat, colorFormat)
	}

	pixelCount := w * h
	pixels := expand2Bit(data, pixelCount)

	return &texture{
		w:              w,
		h:              h,
		size:           size,
		colorFormat:    colorFormat,
		pixels:         pixels,
		rgb:            make([]byte, pixelCount*3),
		currentPalette: -1,
	}, nil
}
