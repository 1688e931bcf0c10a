package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/thelolagemann/nesfront/internal/config"
	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/internal/pacer"
	"github.com/thelolagemann/nesfront/internal/refcore"
	"github.com/thelolagemann/nesfront/internal/scheduler"
	"github.com/thelolagemann/nesfront/internal/session"
	"github.com/thelolagemann/nesfront/internal/states"
	"github.com/thelolagemann/nesfront/pkg/display"
	"github.com/thelolagemann/nesfront/pkg/display/event"
	_ "github.com/thelolagemann/nesfront/pkg/display/ebiten"
	_ "github.com/thelolagemann/nesfront/pkg/display/fyne"
	_ "github.com/thelolagemann/nesfront/pkg/display/headless"
	_ "github.com/thelolagemann/nesfront/pkg/display/web"
	"github.com/thelolagemann/nesfront/pkg/display/views"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
	"golang.org/x/sync/errgroup"
)

var (
	_ display.Emulator = &session.Controller{}
	_ session.Display  = &display.Pipe{}
)

func main() {
	romFile := flag.String("rom", "", "The rom file to load")
	state := flag.String("state", "", "The state file to load once the rom is running")
	displayDriver := flag.String("driver", "", "The display driver to use. Can be auto, "+fmt.Sprint(display.DriverNames()))
	configFile := flag.String("config", "", "The configuration file to use")
	fps := flag.Float64("fps", 0, "The frame rate to pace the emulator at (0 uses the configuration)")
	stats := flag.Bool("statsview", false, "Serve a runtime statistics dashboard")
	perfPlot := flag.String("perf-plot", "", "Write a plot of the frame intervals to this file on exit")

	display.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := run(options{
		rom:      *romFile,
		state:    *state,
		driver:   *displayDriver,
		config:   *configFile,
		fps:      *fps,
		stats:    *stats,
		perfPlot: *perfPlot,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	rom, state, driver, config string
	fps                        float64
	stats                      bool
	perfPlot                   string
}

func run(opts options) error {
	cfg, err := config.LoadFile(opts.config)
	unsaved := err
	if err != nil && !errors.Is(err, config.ErrNotSaved) {
		return err
	}

	// flags take precedence over the configuration
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if opts.fps == 0 {
		opts.fps = cfg.Pacing.FPS
	}
	if opts.driver == "" {
		opts.driver = cfg.Display.Driver
	}
	if opts.perfPlot == "" {
		opts.perfPlot = cfg.Debug.PerfPlot
	}
	opts.stats = opts.stats || cfg.Debug.Statsview
	if !set["scale"] && flag.Lookup("scale") != nil {
		flag.Set("scale", strconv.Itoa(cfg.Display.Scale))
	}
	if !set["web-addr"] && flag.Lookup("web-addr") != nil && cfg.Display.WebAddress != "" {
		flag.Set("web-addr", cfg.Display.WebAddress)
	}

	logger := log.NewWithWriter(os.Stderr, cfg.Debugging())
	if cfg.IsLoaded() {
		logger.Debugf("loaded configuration from %s", cfg.Path())
	} else if unsaved != nil {
		logger.Warnf("running with the default configuration: %v", unsaved)
	}

	if len(display.InstalledDrivers) == 0 {
		return fmt.Errorf("no display drivers installed, please compile with at least one display driver")
	}
	driver := display.GetDriver(opts.driver)
	if driver == nil {
		return fmt.Errorf("invalid display driver %q, expected one of %v", opts.driver, display.DriverNames())
	}

	keyMap, err := cfg.KeyMap()
	if err != nil {
		return err
	}
	store, err := states.NewStore(cfg.States.Dir, states.Compress(cfg.States.Compress), states.WithLogger(logger))
	if err != nil {
		return err
	}

	// wire the session
	sched := scheduler.New(scheduler.SystemClock{})
	pipe := display.NewPipe(3)
	ctrl := session.New(refcore.New, sched,
		session.WithInput(joypad.New(keyMap)),
		session.WithPacer(pacer.New(opts.fps, pacer.Granularity(cfg.Granularity()))),
		session.WithDisplay(pipe),
		session.WithStore(store),
		session.WithLogger(logger),
	)

	if l, ok := driver.(display.Logged); ok {
		l.SetLogger(logger)
	}
	driver.Initialize(ctrl)

	if opts.stats {
		viewer.SetConfiguration(viewer.WithAddr(cfg.Debug.StatsviewAddr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
		logger.Infof("stats server available at http://%s/debug/statsview", cfg.Debug.StatsviewAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	keys := make(chan joypad.KeyEvent, 16)

	g.Go(func() error {
		return sched.Run(ctx)
	})
	g.Go(func() error {
		// key events are applied on the scheduler goroutine
		for {
			select {
			case <-ctx.Done():
				return nil
			case e := <-keys:
				sched.Post(func() { ctrl.Input().Handle(e) })
			}
		}
	})
	g.Go(func() error {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				sched.Post(func() {
					pipe.Send(event.Event{Type: event.FrameTime, Data: ctrl.Pacer().Stats().Samples})
				})
			}
		}
	})

	if opts.rom != "" {
		if resp := ctrl.SendCommand(emulator.NewCommand(emulator.CommandLoadROM, opts.rom)); resp.Error != nil {
			logger.Errorf("%v", resp.Error)
		} else if opts.state != "" {
			if resp := ctrl.SendCommand(emulator.NewCommand(emulator.CommandLoadState, opts.state)); resp.Error != nil {
				logger.Errorf("%v", resp.Error)
			}
		}
	} else {
		sched.Post(func() { pipe.SetStatus(session.Title + " | No ROM") })
	}

	// drivers own the main goroutine
	startErr := driver.Start(pipe.Frames(), pipe.Events(), keys)

	samples := make(chan pacer.Stats, 1)
	sched.Post(func() {
		samples <- ctrl.Pacer().Stats()
		if err := ctrl.Close(); err != nil {
			logger.Errorf("closing session: %v", err)
		}
	})
	var last pacer.Stats
	select {
	case last = <-samples:
	case <-sched.Done():
	}
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}

	logger.Debugf("paced %d frames, %d overruns, %.2f FPS", last.Frames, last.Overruns, last.FPS)
	if opts.perfPlot != "" {
		period := time.Duration(float64(time.Second) / ctrl.TargetFPS())
		if err := views.WriteFrameTimes(opts.perfPlot, last.Samples, period); err != nil {
			return err
		}
		logger.Infof("wrote frame interval plot to %s", opts.perfPlot)
	}
	return nil
}
