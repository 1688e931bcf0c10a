//go:build !test

package fyne

import (
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/thelolagemann/nesfront/pkg/display/views"
)

// performance is a window plotting the recent frame times.
type performance struct {
	window fyne.Window
	raster *canvas.Raster
	target time.Duration

	mu  sync.Mutex
	img image.Image
}

func (d *Driver) openPerformance() {
	d.mu.Lock()
	open := d.perf
	d.mu.Unlock()
	if open != nil {
		open.window.RequestFocus()
		return
	}

	p := &performance{
		window: d.app.NewWindow("Performance"),
		target: time.Duration(float64(time.Second) / d.emu.TargetFPS()),
		img:    image.NewRGBA(image.Rect(0, 0, views.Width, views.Height)),
	}
	p.raster = canvas.NewRaster(func(int, int) image.Image {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.img
	})
	p.raster.SetMinSize(fyne.NewSize(views.Width, views.Height))
	p.window.SetContent(p.raster)
	p.window.SetOnClosed(func() {
		d.mu.Lock()
		d.perf = nil
		d.mu.Unlock()
	})

	d.mu.Lock()
	d.perf = p
	d.mu.Unlock()
	p.window.Show()
}

// update redraws the plot with samples.
func (p *performance) update(samples []time.Duration) {
	img, err := views.RenderFrameTimes(samples, p.target)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.img = img
	p.mu.Unlock()
	p.raster.Refresh()
}
