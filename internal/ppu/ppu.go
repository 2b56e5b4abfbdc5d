// Package ppu translates picture-processing commands (background fill,
// pixel/tile draws, palette and texture loads) into calls on an abstract
// render.Renderer, applying the fantasy console's bottom-left-origin
// coordinate convention.
package ppu

import (
	"fmt"
	"log"
	"os"

	"github.com/kittycatofmagic/kvm8/internal/render"
)

// ScreenHeight is the logical screen height in pixels; real_pos flips the
// y axis against it since the console's coordinate origin is bottom-left.
const ScreenHeight = 240

// DefaultScale and DefaultTileSize are the process defaults (256x240 logical
// screen at 4x scale, 8x8 tiles).
const (
	DefaultScale    = 4
	DefaultTileSize = 8
)

// ErrInvalidTextureID is returned by Resolve when texID does not name a
// loaded texture. DrawTexture checks the id itself, logs it and treats the
// draw as a no-op; it is never fatal.
type ErrInvalidTextureID struct {
	ID int
}

func (e ErrInvalidTextureID) Error() string {
	return fmt.Sprintf("invalid texture id: %d", e.ID)
}

// PPU owns the palette and texture pools and drives a render.Renderer.
type PPU struct {
	renderer render.Renderer
	scale    int
	tileSize int
	palettes []palette
	textures []*texture
	logger   *log.Logger
}

// New returns a PPU driving r at the default scale and tile size.
func New(r render.Renderer) *PPU {
	return &PPU{
		renderer: r,
		scale:    DefaultScale,
		tileSize: DefaultTileSize,
		logger:   log.New(os.Stderr, "", 0),
	}
}

// SetLogger overrides the destination for recoverable error reports
// (InvalidTextureId and the like). Defaults to stderr.
func (p *PPU) SetLogger(l *log.Logger) {
	p.logger = l
}

// SetScale overrides the device-pixel multiplier applied to every draw.
// Must be set before any draw call; it does not retroactively resize
// anything already on the render target.
func (p *PPU) SetScale(scale int) {
	p.scale = scale
}

// realPos converts logical (x, y) — origin bottom-left — into renderer
// device coordinates, origin top-left.
func (p *PPU) realPos(x, y int) (int32, int32) {
	return int32(x * p.scale), int32((ScreenHeight - y) * p.scale)
}

// LoadPalette records a new palette of the given wire kind (4, 16, or 255
// meaning 256) and returns its stable id.
func (p *PPU) LoadPalette(kind byte, data []byte) (int, error) {
	k, err := paletteKindFromWire(kind)
	if err != nil {
		return 0, err
	}
	p.palettes = append(p.palettes, newPalette(k, data))
	return len(p.palettes) - 1, nil
}

// LoadTexture decodes a color-format-1 (2-bit packed) pixel buffer, creates
// a backing streaming renderer texture, and returns the texture's stable id.
func (p *PPU) LoadTexture(w, h, size int, colorFormat byte, data []byte) (int, error) {
	t, err := newTexture(w, h, size, colorFormat, data)
	if err != nil {
		return 0, err
	}

	handle, err := p.renderer.CreateStreamingTexture(int32(w), int32(h))
	if err != nil {
		return 0, fmt.Errorf("ppu: create streaming texture: %w", err)
	}
	t.handle = handle

	p.textures = append(p.textures, t)
	return len(p.textures) - 1, nil
}

// Resolve uploads texID's indexed pixel buffer through palID into the
// texture's RGB cache and renderer handle. A no-op if texID is already
// resolved against palID.
func (p *PPU) Resolve(texID, palID int) error {
	if texID < 0 || texID >= len(p.textures) {
		return ErrInvalidTextureID{ID: texID}
	}
	t := p.textures[texID]
	if t.currentPalette == palID {
		return nil
	}
	pal := p.palettes[palID]
	for i, idx := range t.pixels {
		r, g, b := pal.rgb(idx)
		t.rgb[i*3], t.rgb[i*3+1], t.rgb[i*3+2] = r, g, b
	}
	t.currentPalette = palID
	return t.handle.Update(t.rgb, t.w*3)
}

// ColorBackground clears the whole render target to (r, g, b).
func (p *PPU) ColorBackground(r, g, b byte) error {
	p.renderer.SetDrawColor(r, g, b)
	return p.renderer.Clear()
}

// DrawPixel fills a scale x scale rectangle at the logical pixel (x, y).
func (p *PPU) DrawPixel(x, y int, rgb [3]byte) error {
	rx, ry := p.realPos(x, y+1)
	return p.renderer.FillRect(render.Rect{X: rx, Y: ry, W: int32(p.scale), H: int32(p.scale)}, rgb)
}

// DrawTile fills a scale*tileSize square at the logical tile (tx, ty).
func (p *PPU) DrawTile(tx, ty int, rgb [3]byte) error {
	rx, ry := p.realPos(tx*p.tileSize, ty*p.tileSize+p.tileSize)
	side := int32(p.scale * p.tileSize)
	return p.renderer.FillRect(render.Rect{X: rx, Y: ry, W: side, H: side}, rgb)
}

// DrawTexture resolves texID against palID and blits it at logical (x, y).
// An out-of-range texID is logged and the draw is a no-op.
func (p *PPU) DrawTexture(x, y, texID, palID int) error {
	if texID < 0 || texID >= len(p.textures) {
		p.logger.Printf("invalid texture id: %d", texID)
		return nil
	}
	if err := p.Resolve(texID, palID); err != nil {
		return err
	}
	t := p.textures[texID]
	rx, ry := p.realPos(x, y)
	w := int32(t.w * p.scale * t.size)
	h := int32(t.h * p.scale * t.size)
	return p.renderer.Blit(t.handle, render.Rect{X: rx, Y: ry, W: w, H: h})
}
