//go:build !test

package ebiten

import (
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/display"
	"github.com/thelolagemann/nesfront/pkg/display/event"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
)

var scale = 2

func init() {
	display.Install("ebiten", &Driver{}, []display.DriverOption{
		{
			Name:        "scale",
			Default:     2,
			Value:       &scale,
			Description: "scale factor of the window",
			Type:        "int",
		},
	})
}

// hotkeys never reach the joypad. Escape quits.
var hotkeys = map[ebiten.Key]emulator.CommandPacket{
	ebiten.KeyP:  display.TogglePause,
	ebiten.KeyR:  display.Reset,
	ebiten.KeyF5: display.QuickSave,
	ebiten.KeyF9: display.QuickLoad,
}

// Driver shows the session in an ebiten window.
type Driver struct {
	emu display.Emulator
	log log.Logger

	frames <-chan *emulator.Framebuffer
	events <-chan event.Event
	keys   chan<- joypad.KeyEvent

	frame   *emulator.Framebuffer
	pressed []ebiten.Key

	quit     chan struct{}
	quitOnce sync.Once
}

func (d *Driver) Initialize(emu display.Emulator) {
	d.emu = emu
	d.quit = make(chan struct{})
	d.quitOnce = sync.Once{}
	if d.log == nil {
		d.log = log.NewNullLogger()
	}
}

func (d *Driver) SetLogger(l log.Logger) {
	d.log = l
}

// Start runs the ebiten game loop. It must be called from the
// main goroutine.
func (d *Driver) Start(frames <-chan *emulator.Framebuffer, events <-chan event.Event, keys chan<- joypad.KeyEvent) error {
	if d.quit == nil {
		d.Initialize(d.emu)
	}
	d.frames, d.events, d.keys = frames, events, keys
	d.frame = emulator.NewFramebuffer()

	ebiten.SetWindowTitle("nesfront")
	ebiten.SetWindowSize(emulator.ScreenWidth*scale, emulator.ScreenHeight*scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// frames are paced by the session, not by ebiten
	ebiten.SetVsyncEnabled(false)

	if err := ebiten.RunGame(d); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}

func (d *Driver) Update() error {
	select {
	case <-d.quit:
		return ebiten.Termination
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		// the session is closed before the window goes
		d.send(display.Close)
		return ebiten.Termination
	}

	d.pressed = inpututil.AppendJustPressedKeys(d.pressed[:0])
	for _, k := range d.pressed {
		if cmd, ok := hotkeys[k]; ok {
			d.send(cmd)
			continue
		}
		d.keys <- joypad.KeyEvent{Key: keyName(k), Pressed: true}
	}
	d.pressed = inpututil.AppendJustReleasedKeys(d.pressed[:0])
	for _, k := range d.pressed {
		if _, ok := hotkeys[k]; ok {
			continue
		}
		d.keys <- joypad.KeyEvent{Key: keyName(k), Pressed: false}
	}

	// take the newest frame
drain:
	for {
		select {
		case fb := <-d.frames:
			d.frame = fb
		case e := <-d.events:
			switch e.Type {
			case event.Quit:
				return ebiten.Termination
			case event.Title:
				if title, ok := e.Data.(string); ok {
					ebiten.SetWindowTitle(title)
				}
			case event.Message:
				d.log.Infof("%v", e.Data)
			}
		default:
			break drain
		}
	}
	return nil
}

func (d *Driver) Draw(screen *ebiten.Image) {
	screen.WritePixels(d.frame.Pix[:])
}

func (d *Driver) Layout(_, _ int) (int, int) {
	return emulator.ScreenWidth, emulator.ScreenHeight
}

func (d *Driver) send(cmd emulator.CommandPacket) {
	if resp := d.emu.SendCommand(cmd); resp.Error != nil {
		d.log.Errorf("ebiten: %s: %v", cmd.Command, resp.Error)
	}
}

func (d *Driver) Stop() error {
	d.quitOnce.Do(func() {
		if d.quit != nil {
			close(d.quit)
		}
	})
	return nil
}

// keyName converts an ebiten key into the lowercase name used
// by the key map, so ebiten.KeyArrowUp becomes "up".
func keyName(k ebiten.Key) string {
	return strings.ToLower(strings.TrimPrefix(k.String(), "Arrow"))
}
