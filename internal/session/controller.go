// Package session drives an emulation core. A Controller owns
// at most one core at a time, steps it at the pacer's rate by
// re-arming a tick on the scheduler after every frame, and
// routes the controller bitmask, frames and state blobs between
// the core and the rest of the program.
//
// Every Controller method other than SendCommand, Status and
// TargetFPS must be called on the scheduler's goroutine.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/internal/pacer"
	"github.com/thelolagemann/nesfront/internal/scheduler"
	"github.com/thelolagemann/nesfront/internal/states"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
)

// Title prefixes every status line.
const Title = "nesfront"

// titleInterval is how often the status line is refreshed
// while running.
const titleInterval = time.Second

// Display receives the frames and status lines of a session.
type Display interface {
	Present(fb *emulator.Framebuffer)
	SetStatus(status string)
}

// Controller manages the lifecycle of a session: Empty until a
// ROM is opened, then Running or Paused until it is closed or
// replaced.
type Controller struct {
	construct emulator.Constructor
	sched     *scheduler.Scheduler
	clock     scheduler.Clock
	input     *joypad.State
	pacer     *pacer.Pacer
	display   Display
	store     *states.Store
	log       log.Logger

	status emulator.Status
	core   emulator.Core
	rom    string

	// generation is bumped whenever the pending tick is
	// cancelled, so a tick from an older generation is a no-op.
	generation uint64
	tick       *scheduler.Event
	lastTitle  time.Time

	published atomic.Int32
}

// Opt configures a Controller.
type Opt func(c *Controller)

// WithInput sets the controller state read on every step.
func WithInput(input *joypad.State) Opt {
	return func(c *Controller) {
		c.input = input
	}
}

// WithPacer sets the frame pacer.
func WithPacer(p *pacer.Pacer) Opt {
	return func(c *Controller) {
		c.pacer = p
	}
}

// WithDisplay sets the display frames are presented to.
func WithDisplay(d Display) Opt {
	return func(c *Controller) {
		c.display = d
	}
}

// WithStore sets the state store used by SaveState and
// LoadState.
func WithStore(s *states.Store) Opt {
	return func(c *Controller) {
		c.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Opt {
	return func(c *Controller) {
		c.log = l
	}
}

// WithClock sets the clock used to timestamp steps. It defaults
// to the scheduler's clock.
func WithClock(clock scheduler.Clock) Opt {
	return func(c *Controller) {
		c.clock = clock
	}
}

// New returns an Empty Controller creating cores with construct
// and scheduling its ticks on sched.
func New(construct emulator.Constructor, sched *scheduler.Scheduler, opts ...Opt) *Controller {
	if construct == nil {
		panic("session: nil constructor")
	}
	c := &Controller{
		construct: construct,
		sched:     sched,
		clock:     sched,
		log:       log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.input == nil {
		c.input = joypad.New(nil)
	}
	if c.pacer == nil {
		c.pacer = pacer.New(pacer.DefaultFPS)
	}
	return c
}

// Input returns the controller state of the session.
func (c *Controller) Input() *joypad.State {
	return c.input
}

// Pacer returns the frame pacer of the session.
func (c *Controller) Pacer() *pacer.Pacer {
	return c.pacer
}

// ROM returns the path of the open ROM, or an empty string.
func (c *Controller) ROM() string {
	return c.rom
}

// Open closes the current session, if any, and starts a new one
// with the ROM at romPath. The old core is closed before the new
// one is constructed. If construction fails the session is left
// Empty.
func (c *Controller) Open(romPath string) error {
	c.teardown()

	core, err := c.construct(romPath)
	if err == nil && core == nil {
		err = errors.New("constructor returned no core")
	}
	if err != nil {
		if !errors.Is(err, emulator.ErrRomLoad) {
			err = fmt.Errorf("%w: %w", emulator.ErrRomLoad, err)
		}
		c.log.Errorf("opening %s: %v", romPath, err)
		c.publish()
		return err
	}

	c.core = core
	c.rom = romPath
	c.setStatus(emulator.Running)
	c.pacer.Seed(c.clock.Now())
	c.arm(0)

	c.log.Infof("opened %s", romPath)
	c.publish()
	return nil
}

// Close closes the core and empties the session. Closing an
// Empty session does nothing.
func (c *Controller) Close() error {
	if c.core == nil {
		return nil
	}
	rom := c.rom
	c.teardown()
	c.log.Infof("closed %s", rom)
	c.publish()
	return nil
}

// Reset resets the core. A running session is stepped again
// immediately; a paused one stays paused.
func (c *Controller) Reset() error {
	if c.core == nil {
		c.log.Warnf("reset: %v", emulator.ErrNoActiveSession)
		return emulator.ErrNoActiveSession
	}

	c.core.Reset()
	c.pacer.Seed(c.clock.Now())
	if c.status == emulator.Running {
		c.cancelTick()
		c.arm(0)
	}
	c.log.Infof("reset %s", c.rom)
	return nil
}

// Pause stops stepping. Pausing a paused session does nothing.
func (c *Controller) Pause() error {
	switch c.status {
	case emulator.Empty:
		return emulator.ErrNoActiveSession
	case emulator.Paused:
		return nil
	}

	c.cancelTick()
	c.setStatus(emulator.Paused)
	c.log.Debugf("paused")
	c.publish()
	return nil
}

// Resume restarts stepping with a freshly seeded pacer, so the
// time spent paused is not treated as an overrun. Resuming a
// running session does nothing.
func (c *Controller) Resume() error {
	switch c.status {
	case emulator.Empty:
		return emulator.ErrNoActiveSession
	case emulator.Running:
		return nil
	}

	c.setStatus(emulator.Running)
	c.pacer.Seed(c.clock.Now())
	c.arm(0)
	c.log.Debugf("resumed")
	c.publish()
	return nil
}

// Snapshot returns the state blob of the core.
func (c *Controller) Snapshot() ([]byte, error) {
	if c.core == nil {
		return nil, emulator.ErrNoActiveSession
	}
	return c.core.Save()
}

// Restore hands blob to the core. If the core rejects it, the
// core is rolled back to its state before the call.
func (c *Controller) Restore(blob []byte) error {
	if c.core == nil {
		return emulator.ErrNoActiveSession
	}

	backup, backupErr := c.core.Save()
	if err := c.core.Load(blob); err != nil {
		if backupErr == nil {
			if rerr := c.core.Load(backup); rerr != nil {
				c.log.Errorf("rolling back rejected state: %v", rerr)
			}
		}
		if !errors.Is(err, emulator.ErrIncompatibleState) {
			err = fmt.Errorf("%w: %w", emulator.ErrIncompatibleState, err)
		}
		return err
	}

	c.pacer.Seed(c.clock.Now())
	return nil
}

// SaveState writes the state of the core to dest in the store.
func (c *Controller) SaveState(dest string) (string, error) {
	if c.store == nil {
		return "", fmt.Errorf("%w: no state store", emulator.ErrIO)
	}
	blob, err := c.store.Save(c)
	if err != nil {
		return "", err
	}
	if err := c.store.Persist(blob, dest); err != nil {
		c.log.Errorf("saving state: %v", err)
		return "", err
	}

	path := c.store.Path(dest)
	c.log.Infof("saved state to %s", path)
	return path, nil
}

// LoadState restores the state at src in the store. The session
// is left untouched if the file cannot be read.
func (c *Controller) LoadState(src string) (string, error) {
	if c.store == nil {
		return "", fmt.Errorf("%w: no state store", emulator.ErrIO)
	}
	if c.core == nil {
		return "", emulator.ErrNoActiveSession
	}
	blob, err := c.store.Load(src)
	if err != nil {
		c.log.Errorf("loading state: %v", err)
		return "", err
	}
	if err := c.store.Restore(c, blob); err != nil {
		c.log.Errorf("restoring state: %v", err)
		return "", err
	}

	path := c.store.Path(src)
	c.log.Infof("loaded state from %s", path)
	return path, nil
}

// stepTick steps the core once, presents the frame, and re-arms
// itself after the wait decided by the pacer.
func (c *Controller) stepTick(generation uint64) {
	if generation != c.generation || c.status != emulator.Running {
		return
	}
	c.tick = nil

	fb := c.core.Step(c.input.Current())
	if c.display != nil {
		c.display.Present(fb)
	}
	// the display may have changed the session
	if generation != c.generation || c.status != emulator.Running {
		return
	}

	now := c.clock.Now()
	wait := c.pacer.Next(now)
	if now.Sub(c.lastTitle) >= titleInterval {
		c.publish()
	}
	c.arm(wait)
}

func (c *Controller) arm(wait time.Duration) {
	generation := c.generation
	c.tick = c.sched.After(wait, func() {
		c.stepTick(generation)
	})
}

func (c *Controller) cancelTick() {
	c.sched.Deschedule(c.tick)
	c.tick = nil
	c.generation++
}

// teardown closes and drops the core.
func (c *Controller) teardown() {
	if c.core == nil {
		return
	}
	c.cancelTick()
	c.core.Close()
	c.core = nil
	c.rom = ""
	c.setStatus(emulator.Empty)
}

func (c *Controller) setStatus(s emulator.Status) {
	c.status = s
	c.published.Store(int32(s))
}

// publish pushes the status line to the display.
func (c *Controller) publish() {
	c.lastTitle = c.clock.Now()
	if c.display != nil {
		c.display.SetStatus(c.statusLine())
	}
}

func (c *Controller) statusLine() string {
	switch c.status {
	case emulator.Running:
		fps := c.pacer.Stats().FPS
		if fps == 0 {
			fps = c.pacer.FPS()
		}
		return fmt.Sprintf("%s | %s | %.1f FPS", Title, filepath.Base(c.rom), fps)
	case emulator.Paused:
		return fmt.Sprintf("%s | %s | Paused", Title, filepath.Base(c.rom))
	default:
		return Title + " | No ROM"
	}
}
