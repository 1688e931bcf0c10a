// Package headless provides a display driver without a window,
// for running sessions in scripts and tests.
package headless

import (
	"sync"

	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/display"
	"github.com/thelolagemann/nesfront/pkg/display/event"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
	"github.com/thelolagemann/nesfront/pkg/utils"
)

var (
	frameLimit   int
	snapshotPath string
	scale        = 2
)

func init() {
	display.Install("headless", &Driver{}, []display.DriverOption{
		{
			Name:        "frames",
			Default:     0,
			Value:       &frameLimit,
			Description: "headless: close the session after this many frames (0 runs until stopped)",
			Type:        "int",
		},
		{
			Name:        "snapshot",
			Default:     "",
			Value:       &snapshotPath,
			Description: "headless: write the last frame as a PNG to this path on exit",
			Type:        "string",
		},
		{
			Name:        "scale",
			Default:     2,
			Value:       &scale,
			Description: "scale factor of the window",
			Type:        "int",
		},
	})
}

// Driver consumes the frames of a session without showing them.
type Driver struct {
	emu display.Emulator
	log log.Logger

	// Frames closes the session once that many frames have been
	// presented. Zero uses the -headless-frames flag.
	Frames int
	// Snapshot is where the last frame is written on exit.
	// Empty uses the -headless-snapshot flag.
	Snapshot string
	// Scale is the factor the snapshot is scaled up by. Zero
	// uses the -scale flag.
	Scale int

	mu    sync.Mutex
	count int
	last  *emulator.Framebuffer
	title string

	stop     chan struct{}
	stopOnce sync.Once
}

func (d *Driver) Initialize(emu display.Emulator) {
	d.emu = emu
	d.stop = make(chan struct{})
	d.stopOnce = sync.Once{}
	if d.log == nil {
		d.log = log.NewNullLogger()
	}
}

func (d *Driver) SetLogger(l log.Logger) {
	d.log = l
}

func (d *Driver) Start(frames <-chan *emulator.Framebuffer, events <-chan event.Event, _ chan<- joypad.KeyEvent) error {
	if d.stop == nil {
		d.Initialize(d.emu)
	}
	limit := d.Frames
	if limit == 0 {
		limit = frameLimit
	}

	for {
		select {
		case fb := <-frames:
			d.mu.Lock()
			d.last = fb
			d.count++
			n := d.count
			d.mu.Unlock()

			if limit > 0 && n == limit {
				d.log.Debugf("headless: frame limit %d reached", limit)
				if resp := d.emu.SendCommand(display.Close); resp.Error != nil {
					d.log.Warnf("headless: closing session: %v", resp.Error)
				}
				return d.snapshot()
			}
		case e := <-events:
			switch e.Type {
			case event.Quit:
				return d.snapshot()
			case event.Title:
				if title, ok := e.Data.(string); ok {
					d.mu.Lock()
					d.title = title
					d.mu.Unlock()
				}
			case event.Message:
				d.log.Infof("%v", e.Data)
			}
		case <-d.stop:
			return d.snapshot()
		}
	}
}

// snapshot writes the last frame, if there was one and a path
// was given.
func (d *Driver) snapshot() error {
	path := d.Snapshot
	if path == "" {
		path = snapshotPath
	}
	d.mu.Lock()
	last := d.last
	d.mu.Unlock()
	if path == "" || last == nil {
		return nil
	}
	factor := d.Scale
	if factor == 0 {
		factor = scale
	}
	if err := utils.WritePNG(path, display.Scale(last, factor)); err != nil {
		return err
	}
	d.log.Infof("headless: wrote last frame to %s", path)
	return nil
}

// Count returns the number of frames presented so far.
func (d *Driver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Title returns the most recent title of the session.
func (d *Driver) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.title
}

func (d *Driver) Stop() error {
	d.stopOnce.Do(func() {
		if d.stop != nil {
			close(d.stop)
		}
	})
	return nil
}
