package display

import (
	"flag"
	"testing"

	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/display/event"
	"github.com/thelolagemann/nesfront/pkg/emulator"
)

func TestPipeDropsOldest(t *testing.T) {
	p := NewPipe(2)
	for i := 0; i < 5; i++ {
		fb := emulator.NewFramebuffer()
		fb.Pix[0] = byte(i)
		p.Present(fb)
		fb.Pix[0] = 0xFF // the pipe holds a copy
	}
	if p.Dropped() != 3 {
		t.Errorf("dropped %d frames, want 3", p.Dropped())
	}
	for _, want := range []byte{3, 4} {
		if got := (<-p.Frames()).Pix[0]; got != want {
			t.Errorf("frame %d, want %d", got, want)
		}
	}
}

func TestPipeEvents(t *testing.T) {
	p := NewPipe(1)
	for i := 0; i < 20; i++ {
		p.SetStatus("title")
	}
	e := <-p.Events()
	if e.Type != event.Title || e.Data.(string) != "title" {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestPipeKeepsTitle(t *testing.T) {
	p := NewPipe(1)
	for i := 0; i < 20; i++ {
		p.Send(event.Event{Type: event.Message, Data: "saved"})
	}
	p.SetStatus("nesfront | game | Paused")

	var last event.Event
	for n := 0; n < 16; n++ {
		last = <-p.Events()
	}
	if last.Type != event.Title || last.Data.(string) != "nesfront | game | Paused" {
		t.Errorf("last event = %+v, want the title", last)
	}
	select {
	case e := <-p.Events():
		t.Errorf("unexpected extra event %+v", e)
	default:
	}
}

func TestScale(t *testing.T) {
	fb := emulator.NewFramebuffer()
	fb.Set(1, 1, 0xAA, 0xBB, 0xCC)
	img := Scale(fb, 3)
	if img.Bounds().Dx() != emulator.ScreenWidth*3 || img.Bounds().Dy() != emulator.ScreenHeight*3 {
		t.Fatalf("bounds %v", img.Bounds())
	}
	for y := 3; y < 6; y++ {
		for x := 3; x < 6; x++ {
			if c := img.RGBAAt(x, y); c.R != 0xAA || c.G != 0xBB || c.B != 0xCC {
				t.Errorf("pixel %d,%d = %v", x, y, c)
			}
		}
	}
	if c := img.RGBAAt(2, 2); c.R != 0 {
		t.Errorf("pixel 2,2 = %v", c)
	}
}

type nopDriver struct{ name string }

func (nopDriver) Initialize(Emulator) {}
func (nopDriver) Start(<-chan *emulator.Framebuffer, <-chan event.Event, chan<- joypad.KeyEvent) error {
	return nil
}
func (nopDriver) Stop() error { return nil }

func TestRegistry(t *testing.T) {
	saved := InstalledDrivers
	defer func() { InstalledDrivers = saved }()
	InstalledDrivers = nil

	if GetDriver("auto") != nil {
		t.Error("auto with no drivers should be nil")
	}

	var scaleA, scaleB int
	var addr string
	var fast bool
	Install("a", nopDriver{"a"}, []DriverOption{
		{Name: "scale", Default: 2, Value: &scaleA, Type: "int"},
		{Name: "addr", Default: ":80", Value: &addr, Type: "string"},
	})
	Install("b", nopDriver{"b"}, []DriverOption{
		{Name: "scale", Default: 2, Value: &scaleB, Type: "int"},
		{Name: "fast", Default: false, Value: &fast, Type: "bool"},
	})

	if d := GetDriver("auto"); d != (nopDriver{"a"}) {
		t.Errorf("auto = %v", d)
	}
	if d := GetDriver("b"); d != (nopDriver{"b"}) {
		t.Errorf("b = %v", d)
	}
	if GetDriver("c") != nil {
		t.Error("unknown driver found")
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	if scaleA != 2 || scaleB != 2 || addr != ":80" {
		t.Errorf("defaults not applied: %d %d %q", scaleA, scaleB, addr)
	}
	if err := fs.Parse([]string{"-scale", "4", "-a-addr", ":9000", "-b-fast"}); err != nil {
		t.Fatal(err)
	}
	if scaleA != 4 || scaleB != 4 || addr != ":9000" || !fast {
		t.Errorf("flags not applied: %d %d %q %v", scaleA, scaleB, addr, fast)
	}
}
