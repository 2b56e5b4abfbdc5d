// Package sdl implements internal/render.Renderer on top of SDL2, the
// windowing/2D library the host console actually opens a window with.
package sdl

import (
	"fmt"

	"github.com/kittycatofmagic/kvm8/internal/render"
	"github.com/veandco/go-sdl2/sdl"
)

// Renderer wraps an *sdl.Window/*sdl.Renderer pair and implements
// render.Renderer.
type Renderer struct {
	window   *sdl.Window
	renderer *sdl.Renderer
}

// New opens a window of w×h pixels titled title and returns a Renderer
// driving it. The caller must call Destroy when done.
func New(w, h int32, title string) (*Renderer, error) {
	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, fmt.Errorf("unable to create sdl window: %s", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("unable to create sdl renderer: %s", err)
	}

	return &Renderer{window: window, renderer: renderer}, nil
}

func (r *Renderer) SetDrawColor(rr, g, b byte) {
	r.renderer.SetDrawColor(rr, g, b, sdl.ALPHA_OPAQUE)
}

func (r *Renderer) Clear() error {
	return r.renderer.Clear()
}

func (r *Renderer) FillRect(rect render.Rect, rgb [3]byte) error {
	if err := r.renderer.SetDrawColor(rgb[0], rgb[1], rgb[2], sdl.ALPHA_OPAQUE); err != nil {
		return fmt.Errorf("unable to set fill color: %s", err)
	}
	return r.renderer.FillRect(&sdl.Rect{X: rect.X, Y: rect.Y, W: rect.W, H: rect.H})
}

func (r *Renderer) CreateStreamingTexture(w, h int32) (render.Texture, error) {
	tex, err := r.renderer.CreateTexture(sdl.PIXELFORMAT_RGB24, sdl.TEXTUREACCESS_STREAMING, w, h)
	if err != nil {
		return nil, fmt.Errorf("unable to create streaming texture: %s", err)
	}
	return &Texture{tex: tex, w: w, h: h}, nil
}

func (r *Renderer) Blit(tex render.Texture, dst render.Rect) error {
	t, ok := tex.(*Texture)
	if !ok {
		return fmt.Errorf("sdl renderer: texture %T is not an sdl texture", tex)
	}
	return r.renderer.Copy(t.tex, nil, &sdl.Rect{X: dst.X, Y: dst.Y, W: dst.W, H: dst.H})
}

func (r *Renderer) Present() {
	r.renderer.Present()
}

// PollEvents drains the SDL event queue into the render-agnostic Event set,
// translating key-down and window-close events and dropping everything else.
func (r *Renderer) PollEvents() []render.Event {
	var events []render.Event
	for {
		e := sdl.PollEvent()
		if e == nil {
			break
		}
		switch ev := e.(type) {
		case *sdl.KeyboardEvent:
			if ev.Type == sdl.KEYDOWN {
				events = append(events, render.Event{Kind: render.EventKeyDown, Scancode: int(ev.Keysym.Scancode)})
			}
		case *sdl.QuitEvent:
			events = append(events, render.Event{Kind: render.EventWindowClose})
		}
	}
	return events
}

func (r *Renderer) Destroy() error {
	if err := r.renderer.Destroy(); err != nil {
		return fmt.Errorf("unable to destroy sdl renderer: %s", err)
	}
	if err := r.window.Destroy(); err != nil {
		return fmt.Errorf("unable to destroy sdl window: %s", err)
	}
	return nil
}

// Texture wraps an *sdl.Texture to implement render.Texture.
type Texture struct {
	tex  *sdl.Texture
	w, h int32
}

// Update copies pixels into the whole texture, row stride bytes per row.
func (t *Texture) Update(pixels []byte, stride int) error {
	return t.tex.Update(nil, pixels, stride)
}

func (t *Texture) Destroy() error {
	return t.tex.Destroy()
}
