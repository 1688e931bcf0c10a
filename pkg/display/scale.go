package display

import (
	"image"

	"github.com/thelolagemann/nesfront/pkg/emulator"
	"golang.org/x/image/draw"
)

// Scale returns fb scaled up by factor with nearest neighbour
// sampling, so pixels stay crisp.
func Scale(fb *emulator.Framebuffer, factor int) *image.RGBA {
	if factor < 1 {
		factor = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, emulator.ScreenWidth*factor, emulator.ScreenHeight*factor))
	ScaleInto(dst, fb)
	return dst
}

// ScaleInto draws fb over the whole of dst.
func ScaleInto(dst *image.RGBA, fb *emulator.Framebuffer) {
	src := &image.RGBA{
		Pix:    fb.Pix[:],
		Stride: emulator.ScreenWidth * 4,
		Rect:   image.Rect(0, 0, emulator.ScreenWidth, emulator.ScreenHeight),
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}
