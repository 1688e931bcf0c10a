package headless

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/display"
	"github.com/thelolagemann/nesfront/pkg/display/event"
	"github.com/thelolagemann/nesfront/pkg/emulator"
)

type fakeEmulator struct {
	commands []emulator.Command
}

func (f *fakeEmulator) SendCommand(c emulator.CommandPacket) emulator.ResponsePacket {
	f.commands = append(f.commands, c.Command)
	return emulator.ResponsePacket{Command: c.Command, Status: emulator.Empty}
}
func (f *fakeEmulator) Status() emulator.Status { return emulator.Running }
func (f *fakeEmulator) TargetFPS() float64      { return 60 }

func start(t *testing.T, d *Driver, pipe *display.Pipe) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- d.Start(pipe.Frames(), pipe.Events(), make(chan joypad.KeyEvent))
	}()
	return done
}

func wait(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not return")
	}
}

func TestFrameLimit(t *testing.T) {
	emu := &fakeEmulator{}
	path := filepath.Join(t.TempDir(), "last.png")
	d := &Driver{Frames: 3, Snapshot: path, Scale: 2}
	d.Initialize(emu)

	pipe := display.NewPipe(8)
	for i := 0; i < 3; i++ {
		fb := emulator.NewFramebuffer()
		fb.Set(0, 0, uint8(i+1), 0, 0)
		pipe.Present(fb)
	}
	wait(t, start(t, d, pipe))

	if d.Count() != 3 {
		t.Errorf("Count() = %d, want 3", d.Count())
	}
	if len(emu.commands) != 1 || emu.commands[0] != emulator.CommandClose {
		t.Errorf("commands = %v, want [close]", emu.commands)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 2*emulator.ScreenWidth || b.Dy() != 2*emulator.ScreenHeight {
		t.Errorf("snapshot is %v, want scaled by 2", b)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r>>8 != 3 {
		t.Errorf("snapshot pixel red = %d, want 3 from the last frame", r>>8)
	}
}

func TestQuitAndStop(t *testing.T) {
	t.Run("quit event", func(t *testing.T) {
		d := &Driver{}
		d.Initialize(&fakeEmulator{})
		pipe := display.NewPipe(4)
		pipe.SetStatus("nesfront | No ROM")
		pipe.Send(event.Event{Type: event.Quit})
		wait(t, start(t, d, pipe))
		if d.Title() != "nesfront | No ROM" {
			t.Errorf("Title() = %q", d.Title())
		}
	})
	t.Run("stop", func(t *testing.T) {
		d := &Driver{}
		d.Initialize(&fakeEmulator{})
		done := start(t, d, display.NewPipe(4))
		d.Stop()
		d.Stop()
		wait(t, done)
	})
	t.Run("no snapshot without frames", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "none.png")
		d := &Driver{Snapshot: path}
		d.Initialize(&fakeEmulator{})
		done := start(t, d, display.NewPipe(4))
		d.Stop()
		wait(t, done)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected no snapshot, got %v", err)
		}
	})
}
