// Package views renders diagnostic views of a session.
package views

import (
	"image"
	"image/color"
	"time"

	"github.com/thelolagemann/nesfront/pkg/utils"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	// Width of a rendered plot in pixels.
	Width = 640
	// Height of a rendered plot in pixels.
	Height = 320
)

// FrameTimes plots the intervals between frames in
// milliseconds, against the target period of the pacer.
func FrameTimes(samples []time.Duration, target time.Duration) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Frame Time"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "ms"
	p.Y.Min = 0

	xys := make(plotter.XYs, len(samples))
	for i, frameTime := range samples {
		xys[i].X = float64(i)
		xys[i].Y = ms(frameTime)
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{R: 0xff, G: 0x78, A: 0xff}
	p.Add(line)

	if target > 0 {
		period := plotter.NewFunction(func(float64) float64 { return ms(target) })
		period.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		period.Color = color.Gray{Y: 0x80}
		p.Add(period)
		p.Legend.Add("target", period)
	}
	p.Legend.Add("interval", line)
	p.Legend.Top = true

	return p, nil
}

// RenderFrameTimes draws the frame time plot into an image.
func RenderFrameTimes(samples []time.Duration, target time.Duration) (*image.RGBA, error) {
	p, err := FrameTimes(samples, target)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	c := vgimg.NewWith(vgimg.UseImage(img))
	p.Draw(draw.New(c))
	return img, nil
}

// WriteFrameTimes saves the frame time plot to path as a PNG.
func WriteFrameTimes(path string, samples []time.Duration, target time.Duration) error {
	img, err := RenderFrameTimes(samples, target)
	if err != nil {
		return err
	}
	return utils.WritePNG(path, img)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
