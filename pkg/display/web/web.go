// Package web streams a session to browsers over websockets.
// Frames are diffed against the previous one and sent as a
// patch of the changed pixels where that is smaller, compressed
// with brotli. Clients send key events and commands back.
package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/display"
	"github.com/thelolagemann/nesfront/pkg/display/event"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
)

const DefaultAddr = ":8090"

var addr = DefaultAddr

func init() {
	display.Install("web", &Driver{}, []display.DriverOption{
		{
			Name:        "addr",
			Default:     DefaultAddr,
			Value:       &addr,
			Description: "web: address to serve the websocket stream on",
			Type:        "string",
		},
	})
}

// Driver serves the session to websocket clients.
type Driver struct {
	emu  display.Emulator
	log  log.Logger
	hub  *hub
	Addr string

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

func (d *Driver) Start(frames <-chan *emulator.Framebuffer, events <-chan event.Event, keys chan<- joypad.KeyEvent) error {
	if d.stop == nil {
		d.Initialize(d.emu)
	}
	listen := d.Addr
	if listen == "" {
		listen = addr
	}

	d.hub = newHub(d.emu, keys, d.log)
	srv := &http.Server{Addr: listen, Handler: d.hub}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	go d.hub.run()
	d.log.Infof("web: streaming on %s", listen)

	defer func() {
		close(d.hub.done)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			d.log.Warnf("web: shutting down: %v", err)
		}
	}()

	for {
		select {
		case fb := <-frames:
			msgs, err := d.hub.stream.encode(fb)
			if err != nil {
				d.log.Errorf("web: encoding frame: %v", err)
				continue
			}
			for _, msg := range msgs {
				d.hub.publish(msg)
			}
		case e := <-events:
			switch e.Type {
			case event.Quit:
				return nil
			case event.Title:
				if title, ok := e.Data.(string); ok {
					d.hub.setTitle(title)
				}
			}
		case err := <-errs:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-d.stop:
			return nil
		}
	}
}

func (d *Driver) Stop() error {
	d.stopOnce.Do(func() {
		if d.stop != nil {
			close(d.stop)
		}
	})
	return nil
}
