// Package headless is a dependency-free fake of internal/render.Renderer
// that records every call instead of driving a live window, for use by
// CPU/PPU tests that need to assert on the exact renderer calls issued.
package headless

import "github.com/kittycatofmagic/kvm8/internal/render"

// ClearCall records one Clear invocation alongside the last draw color set.
type ClearCall struct {
	R, G, B byte
}

// FillRectCall records one FillRect invocation.
type FillRectCall struct {
	Rect render.Rect
	RGB  [3]byte
}

// BlitCall records one Blit invocation.
type BlitCall struct {
	Tex render.Texture
	Dst render.Rect
}

// Texture is the headless stand-in for a streaming texture handle.
type Texture struct {
	W, H     int32
	Pixels   []byte
	Stride   int
	Updates  int
	Destroyed bool
}

// Update stores the uploaded pixel buffer and stride.
func (t *Texture) Update(pixels []byte, stride int) error {
	t.Pixels = append([]byte(nil), pixels...)
	t.Stride = stride
	t.Updates++
	return nil
}

// Destroy marks the texture as released.
func (t *Texture) Destroy() error {
	t.Destroyed = true
	return nil
}

// Renderer is a recording fake implementing render.Renderer.
type Renderer struct {
	DrawColor  [3]byte
	Clears     []ClearCall
	FillRects  []FillRectCall
	Textures   []*Texture
	Blits      []BlitCall
	Presents   int
	Events     []render.Event
	Destroyed  bool
}

// New returns an empty recording renderer. Queue events for the next
// PollEvents call via the Events field before driving a tick.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SetDrawColor(rr, g, b byte) {
	r.DrawColor = [3]byte{rr, g, b}
}

func (r *Renderer) Clear() error {
	r.Clears = append(r.Clears, ClearCall{R: r.DrawColor[0], G: r.DrawColor[1], B: r.DrawColor[2]})
	return nil
}

func (r *Renderer) FillRect(rect render.Rect, rgb [3]byte) error {
	r.FillRects = append(r.FillRects, FillRectCall{Rect: rect, RGB: rgb})
	return nil
}

func (r *Renderer) CreateStreamingTexture(w, h int32) (render.Texture, error) {
	t := &Texture{W: w, H: h}
	r.Textures = append(r.Textures, t)
	return t, nil
}

func (r *Renderer) Blit(tex render.Texture, dst render.Rect) error {
	r.Blits = append(r.Blits, BlitCall{Tex: tex, Dst: dst})
	return nil
}

func (r *Renderer) Present() {
	r.Presents++
}

// PollEvents returns and clears the queued Events.
func (r *Renderer) PollEvents() []render.Event {
	events := r.Events
	r.Events = nil
	return events
}

func (r *Renderer) Destroy() error {
	r.Destroyed = true
	return nil
}
