//go:build !test

// Package fyne provides a desktop display driver built on the
// fyne toolkit, with a main menu for controlling the session.
package fyne

import (
	"image"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/display"
	"github.com/thelolagemann/nesfront/pkg/display/event"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
)

var scale = 2

func init() {
	display.Install("fyne", &Driver{}, []display.DriverOption{
		{
			Name:        "scale",
			Default:     2,
			Value:       &scale,
			Description: "scale factor of the window",
			Type:        "int",
		},
	})
}

// hotkeys are handled before the key map, and never reach the
// joypad.
var hotkeys = map[fyne.KeyName]emulator.CommandPacket{
	fyne.KeyF5: display.QuickSave,
	fyne.KeyF9: display.QuickLoad,
}

// Driver shows the session in a fyne window.
type Driver struct {
	emu    display.Emulator
	log    log.Logger
	app    fyne.App
	window fyne.Window
	raster *canvas.Raster

	mu     sync.Mutex
	frame  *emulator.Framebuffer
	perf   *performance
	status emulator.Status
}

func (d *Driver) Initialize(emu display.Emulator) {
	d.emu = emu
	d.frame = emulator.NewFramebuffer()
	if d.log == nil {
		d.log = log.NewNullLogger()
	}
}

func (d *Driver) SetLogger(l log.Logger) {
	d.log = l
}

// Start creates the main window and runs the fyne event loop,
// blocking until the window is closed or a Quit event arrives.
// It must be called from the main goroutine.
func (d *Driver) Start(frames <-chan *emulator.Framebuffer, events <-chan event.Event, keys chan<- joypad.KeyEvent) error {
	if d.frame == nil {
		d.Initialize(d.emu)
	}
	d.app = app.NewWithID("io.github.thelolagemann.nesfront")
	d.app.Settings().SetTheme(&defaultTheme{})

	d.window = d.app.NewWindow("nesfront")
	d.window.SetMaster()
	d.window.SetPadded(false)

	d.raster = canvas.NewRaster(d.draw)
	d.raster.ScaleMode = canvas.ImageScalePixels
	d.raster.SetMinSize(fyne.NewSize(emulator.ScreenWidth, emulator.ScreenHeight))
	d.window.SetContent(d.raster)
	d.window.Resize(fyne.NewSize(float32(emulator.ScreenWidth*scale), float32(emulator.ScreenHeight*scale)))

	d.status = d.emu.Status()
	d.window.SetMainMenu(d.mainMenu())

	// handle input
	if desk, ok := d.window.Canvas().(desktop.Canvas); ok {
		desk.SetOnKeyDown(func(e *fyne.KeyEvent) {
			if cmd, ok := hotkeys[e.Name]; ok {
				d.send(cmd)
				return
			}
			keys <- joypad.KeyEvent{Key: keyName(e.Name), Pressed: true}
		})
		desk.SetOnKeyUp(func(e *fyne.KeyEvent) {
			if _, ok := hotkeys[e.Name]; ok {
				return
			}
			keys <- joypad.KeyEvent{Key: keyName(e.Name), Pressed: false}
		})
	}

	done := make(chan struct{})
	go d.pump(frames, events, done)
	defer close(done)

	d.window.ShowAndRun()
	return nil
}

// pump moves frames and events from the session into the
// window until done is closed.
func (d *Driver) pump(frames <-chan *emulator.Framebuffer, events <-chan event.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case fb := <-frames:
			d.mu.Lock()
			d.frame = fb
			d.mu.Unlock()
			d.raster.Refresh()
		case e := <-events:
			switch e.Type {
			case event.Quit:
				d.app.Quit()
				return
			case event.Title:
				if title, ok := e.Data.(string); ok {
					d.window.SetTitle(title)
				}
				d.syncMenu()
			case event.FrameTime:
				d.syncMenu()
				d.mu.Lock()
				perf := d.perf
				d.mu.Unlock()
				if samples, ok := e.Data.([]time.Duration); ok && perf != nil {
					perf.update(samples)
				}
			case event.Message:
				if msg, ok := e.Data.(string); ok {
					d.app.SendNotification(fyne.NewNotification("nesfront", msg))
				}
			}
		}
	}
}

// syncMenu rebuilds the menu when the status it gates its items
// on has changed.
func (d *Driver) syncMenu() {
	if s := d.emu.Status(); s != d.status {
		d.status = s
		d.window.SetMainMenu(d.mainMenu())
	}
}

func (d *Driver) draw(w, h int) image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame.Image()
}

// lastFrame returns a copy of the frame on screen, at the
// window's scale.
func (d *Driver) lastFrame() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return display.Scale(d.frame, scale)
}

// send issues cmd to the session, showing any error.
func (d *Driver) send(cmd emulator.CommandPacket) emulator.ResponsePacket {
	resp := d.emu.SendCommand(cmd)
	if resp.Error != nil {
		d.log.Errorf("fyne: %s: %v", cmd.Command, resp.Error)
		if d.window != nil {
			dialog.ShowError(resp.Error, d.window)
		}
	}
	return resp
}

func (d *Driver) Stop() error {
	if d.app != nil {
		d.app.Quit()
	}
	return nil
}

// keyName converts a fyne key name into the lowercase name used
// by the key map, so fyne.KeyUp becomes "up".
func keyName(k fyne.KeyName) string {
	return strings.ToLower(string(k))
}
