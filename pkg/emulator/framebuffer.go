package emulator

import "image"

const (
	// ScreenWidth is the width of a frame in pixels.
	ScreenWidth = 256
	// ScreenHeight is the height of a frame in pixels.
	ScreenHeight = 240
)

// Framebuffer holds one rendered frame as RGBA pixel data,
// 4 bytes per pixel, ScreenWidth*ScreenHeight pixels.
type Framebuffer struct {
	Pix [ScreenWidth * ScreenHeight * 4]byte
}

// NewFramebuffer returns a new black, opaque framebuffer.
func NewFramebuffer() *Framebuffer {
	f := &Framebuffer{}
	for i := 3; i < len(f.Pix); i += 4 {
		f.Pix[i] = 0xFF
	}
	return f
}

// Set sets the pixel at x, y.
func (f *Framebuffer) Set(x, y int, r, g, b uint8) {
	i := (y*ScreenWidth + x) * 4
	f.Pix[i] = r
	f.Pix[i+1] = g
	f.Pix[i+2] = b
	f.Pix[i+3] = 0xFF
}

// Clone returns a copy of the framebuffer.
func (f *Framebuffer) Clone() *Framebuffer {
	c := *f
	return &c
}

// Image returns the framebuffer as an *image.RGBA sharing no
// memory with f.
func (f *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	copy(img.Pix, f.Pix[:])
	return img
}
