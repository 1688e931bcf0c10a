package session

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/thelolagemann/nesfront/internal/pacer"
	"github.com/thelolagemann/nesfront/internal/scheduler"
	"github.com/thelolagemann/nesfront/pkg/emulator"
)

const period = 20 * time.Millisecond

// fakeCore records what the controller asks of it.
type fakeCore struct {
	name   string
	events *[]string

	steps  int
	input  uint8
	resets int
	closed int
	fb     *emulator.Framebuffer
}

func (f *fakeCore) Step(input uint8) *emulator.Framebuffer {
	f.steps++
	f.input = input
	return f.fb
}

func (f *fakeCore) Reset() {
	f.resets++
	f.steps = 0
	f.input = 0
}

func (f *fakeCore) Save() ([]byte, error) {
	return []byte{byte(f.steps), f.input}, nil
}

// Load applies the step count before validating the rest of the
// blob, so a rejected blob leaves the core half written.
func (f *fakeCore) Load(blob []byte) error {
	if len(blob) > 0 {
		f.steps = int(blob[0])
	}
	if len(blob) != 2 {
		return fmt.Errorf("%w: %d bytes", emulator.ErrIncompatibleState, len(blob))
	}
	f.input = blob[1]
	return nil
}

func (f *fakeCore) Close() {
	f.closed++
	*f.events = append(*f.events, "close "+f.name)
}

type fakeDisplay struct {
	frames   int
	statuses []string
	onFrame  func()
}

func (d *fakeDisplay) Present(*emulator.Framebuffer) {
	d.frames++
	if d.onFrame != nil {
		d.onFrame()
	}
}

func (d *fakeDisplay) SetStatus(s string) {
	d.statuses = append(d.statuses, s)
}

func (d *fakeDisplay) status() string {
	if len(d.statuses) == 0 {
		return ""
	}
	return d.statuses[len(d.statuses)-1]
}

type harness struct {
	clock   *scheduler.ManualClock
	sched   *scheduler.Scheduler
	ctrl    *Controller
	display *fakeDisplay
	events  []string
	cores   map[string]*fakeCore
}

func newHarness(t *testing.T, opts ...Opt) *harness {
	t.Helper()
	h := &harness{
		clock:   scheduler.NewManualClock(time.Unix(1000, 0)),
		display: &fakeDisplay{},
		cores:   make(map[string]*fakeCore),
	}
	h.sched = scheduler.New(h.clock)
	construct := func(rom string) (emulator.Core, error) {
		h.events = append(h.events, "construct "+rom)
		if strings.HasPrefix(rom, "bad") {
			return nil, errors.New("not a rom")
		}
		c := &fakeCore{name: rom, events: &h.events, fb: emulator.NewFramebuffer()}
		h.cores[rom] = c
		return c, nil
	}
	opts = append([]Opt{
		WithPacer(pacer.New(50, pacer.Granularity(0))),
		WithDisplay(h.display),
	}, opts...)
	h.ctrl = New(construct, h.sched, opts...)
	return h
}

// advance moves the clock forward and runs whatever fell due.
func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.sched.RunDue()
}

func (h *harness) open(t *testing.T, rom string) *fakeCore {
	t.Helper()
	if err := h.ctrl.Open(rom); err != nil {
		t.Fatal(err)
	}
	return h.cores[rom]
}

func TestOpenReplacesSession(t *testing.T) {
	h := newHarness(t)
	a := h.open(t, "a.nes")
	h.sched.RunDue()
	b := h.open(t, "b.nes")

	want := []string{"construct a.nes", "close a.nes", "construct b.nes"}
	if strings.Join(h.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", h.events, want)
	}
	if a.closed != 1 {
		t.Errorf("a closed %d times, want 1", a.closed)
	}
	if b.closed != 0 {
		t.Errorf("b closed %d times, want 0", b.closed)
	}
	if h.ctrl.Status() != emulator.Running || h.ctrl.ROM() != "b.nes" {
		t.Errorf("status %v rom %q", h.ctrl.Status(), h.ctrl.ROM())
	}

	// only b is stepped from now on
	h.advance(time.Second)
	if a.steps != 1 {
		t.Errorf("a stepped %d times after being replaced", a.steps)
	}
	if b.steps == 0 {
		t.Error("b was never stepped")
	}
}

func TestOpenFailure(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.Open("bad.nes"); !errors.Is(err, emulator.ErrRomLoad) {
		t.Fatalf("Open() error = %v, want ErrRomLoad", err)
	}
	if h.ctrl.Status() != emulator.Empty {
		t.Errorf("status = %v, want Empty", h.ctrl.Status())
	}

	a := h.open(t, "a.nes")
	if err := h.ctrl.Open("bad.nes"); !errors.Is(err, emulator.ErrRomLoad) {
		t.Fatalf("Open() error = %v, want ErrRomLoad", err)
	}
	if a.closed != 1 {
		t.Errorf("a closed %d times, want 1", a.closed)
	}
	if h.ctrl.Status() != emulator.Empty || h.sched.Len() != 0 {
		t.Errorf("status %v with %d pending events", h.ctrl.Status(), h.sched.Len())
	}
}

func TestStepping(t *testing.T) {
	h := newHarness(t)
	c := h.open(t, "a.nes")

	// the first step is requested immediately
	h.sched.RunDue()
	if c.steps != 1 || h.display.frames != 1 {
		t.Fatalf("steps %d frames %d after open, want 1", c.steps, h.display.frames)
	}

	// and the next after a full period
	h.advance(period - time.Millisecond)
	if c.steps != 1 {
		t.Fatalf("stepped early")
	}
	h.advance(time.Millisecond)
	if c.steps != 2 {
		t.Fatalf("steps = %d, want 2", c.steps)
	}

	for i := 0; i < 10; i++ {
		h.advance(period)
	}
	if c.steps != 12 {
		t.Errorf("steps = %d, want 12", c.steps)
	}
	if h.sched.Len() != 1 {
		t.Errorf("%d ticks pending, want 1", h.sched.Len())
	}
}

func TestInputReachesCore(t *testing.T) {
	h := newHarness(t)
	c := h.open(t, "a.nes")

	h.ctrl.Input().PressKey("up")
	h.ctrl.Input().PressKey("S")
	h.sched.RunDue()
	if c.input != 0x18 {
		t.Errorf("input = %#02x, want 0x18", c.input)
	}

	h.ctrl.Input().ReleaseKey("up")
	h.advance(period)
	if c.input != 0x08 {
		t.Errorf("input = %#02x, want 0x08", c.input)
	}
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.Pause(); !errors.Is(err, emulator.ErrNoActiveSession) {
		t.Errorf("Pause() on empty session: %v", err)
	}
	if err := h.ctrl.Resume(); !errors.Is(err, emulator.ErrNoActiveSession) {
		t.Errorf("Resume() on empty session: %v", err)
	}

	c := h.open(t, "a.nes")
	h.sched.RunDue()
	if err := h.ctrl.Resume(); err != nil {
		t.Errorf("Resume() on running session: %v", err)
	}

	if err := h.ctrl.Pause(); err != nil {
		t.Fatal(err)
	}
	if err := h.ctrl.Pause(); err != nil {
		t.Errorf("Pause() on paused session: %v", err)
	}
	if h.ctrl.Status() != emulator.Paused {
		t.Fatalf("status = %v, want Paused", h.ctrl.Status())
	}
	if !strings.Contains(h.display.status(), "Paused") {
		t.Errorf("status line %q", h.display.status())
	}

	frames, last := h.display.frames, h.ctrl.Pacer().Last()
	h.advance(time.Hour)
	if c.steps != 1 || h.display.frames != frames {
		t.Errorf("stepped while paused")
	}
	if !h.ctrl.Pacer().Last().Equal(last) {
		t.Errorf("pacer advanced while paused")
	}

	if err := h.ctrl.Resume(); err != nil {
		t.Fatal(err)
	}
	h.sched.RunDue()
	if c.steps != 2 {
		t.Errorf("steps = %d after resume, want 2", c.steps)
	}
	// the pause does not count as an overrun
	if s := h.ctrl.Pacer().Stats(); s.Overruns != 0 {
		t.Errorf("overruns = %d, want 0", s.Overruns)
	}
	h.advance(period)
	if c.steps != 3 {
		t.Errorf("steps = %d, want 3", c.steps)
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.Close(); err != nil {
		t.Errorf("Close() on empty session: %v", err)
	}

	c := h.open(t, "a.nes")
	h.sched.RunDue()
	if err := h.ctrl.Close(); err != nil {
		t.Fatal(err)
	}
	if err := h.ctrl.Close(); err != nil {
		t.Fatal(err)
	}
	if c.closed != 1 {
		t.Errorf("closed %d times, want 1", c.closed)
	}
	if h.sched.Len() != 0 {
		t.Errorf("%d events pending after close", h.sched.Len())
	}

	h.advance(time.Second)
	if c.steps != 1 {
		t.Errorf("stepped after close")
	}
	if h.ctrl.Status() != emulator.Empty || !strings.HasSuffix(h.display.status(), "No ROM") {
		t.Errorf("status %v, line %q", h.ctrl.Status(), h.display.status())
	}
}

func TestCloseDuringStep(t *testing.T) {
	h := newHarness(t)
	c := h.open(t, "a.nes")
	h.display.onFrame = func() {
		h.ctrl.Close()
	}

	h.sched.RunDue()
	if h.sched.Len() != 0 {
		t.Errorf("tick re-armed for a closed session")
	}
	h.advance(time.Second)
	if c.steps != 1 {
		t.Errorf("steps = %d, want 1", c.steps)
	}
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.Reset(); !errors.Is(err, emulator.ErrNoActiveSession) {
		t.Errorf("Reset() error = %v, want ErrNoActiveSession", err)
	}

	c := h.open(t, "a.nes")
	h.sched.RunDue()
	h.advance(period)
	if err := h.ctrl.Reset(); err != nil {
		t.Fatal(err)
	}
	if c.resets != 1 || c.steps != 0 {
		t.Fatalf("resets %d steps %d", c.resets, c.steps)
	}
	// stepping restarts immediately, with a single pending tick
	h.sched.RunDue()
	if c.steps != 1 {
		t.Errorf("steps = %d after reset, want 1", c.steps)
	}
	if h.sched.Len() != 1 {
		t.Errorf("%d ticks pending, want 1", h.sched.Len())
	}

	// a paused session stays paused
	h.ctrl.Pause()
	if err := h.ctrl.Reset(); err != nil {
		t.Fatal(err)
	}
	h.advance(time.Second)
	if c.steps != 0 || h.ctrl.Status() != emulator.Paused {
		t.Errorf("steps %d status %v", c.steps, h.ctrl.Status())
	}
}

func TestSnapshotRestore(t *testing.T) {
	h := newHarness(t)
	if _, err := h.ctrl.Snapshot(); !errors.Is(err, emulator.ErrNoActiveSession) {
		t.Errorf("Snapshot() error = %v", err)
	}
	if err := h.ctrl.Restore([]byte{1, 2}); !errors.Is(err, emulator.ErrNoActiveSession) {
		t.Errorf("Restore() error = %v", err)
	}

	c := h.open(t, "a.nes")
	h.ctrl.Input().Press(0)
	h.sched.RunDue()
	saved, err := h.ctrl.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	h.advance(period)
	h.advance(period)
	if err := h.ctrl.Restore(saved); err != nil {
		t.Fatal(err)
	}
	got, _ := h.ctrl.Snapshot()
	if !bytes.Equal(got, saved) {
		t.Errorf("snapshot after restore = %v, want %v", got, saved)
	}

	// a rejected blob leaves the core as it was
	if err := h.ctrl.Restore([]byte{99}); !errors.Is(err, emulator.ErrIncompatibleState) {
		t.Fatalf("Restore() error = %v, want ErrIncompatibleState", err)
	}
	if c.steps != 1 {
		t.Errorf("steps = %d after rejected restore, want 1", c.steps)
	}
	if h.ctrl.Status() != emulator.Running {
		t.Errorf("status = %v", h.ctrl.Status())
	}
}

func TestStatusLine(t *testing.T) {
	h := newHarness(t)
	h.open(t, "roms/game.nes")
	if got, want := h.display.status(), "nesfront | game.nes | 50.0 FPS"; got != want {
		t.Errorf("status line %q, want %q", got, want)
	}

	// refreshed once a second while running
	n := len(h.display.statuses)
	h.sched.RunDue()
	for i := 0; i < 60; i++ {
		h.advance(period)
	}
	if len(h.display.statuses) <= n {
		t.Error("status line not refreshed while running")
	}
	if len(h.display.statuses) > n+2 {
		t.Errorf("status line refreshed %d times in 1.2s", len(h.display.statuses)-n)
	}
}
