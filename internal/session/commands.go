package session

import (
	"fmt"

	"github.com/thelolagemann/nesfront/pkg/emulator"
)

// QuickSlot is the state saved and loaded when a command names
// no file.
const QuickSlot = "quick"

// SendCommand runs cmd on the scheduler's goroutine and waits for
// the result. It may be called from any goroutine, but not from
// the scheduler's own.
func (c *Controller) SendCommand(cmd emulator.CommandPacket) emulator.ResponsePacket {
	resp := make(chan emulator.ResponsePacket, 1)
	c.sched.Post(func() {
		resp <- c.Dispatch(cmd)
	})

	select {
	case r := <-resp:
		return r
	case <-c.sched.Done():
		return emulator.ResponsePacket{
			Command: cmd.Command,
			Status:  c.Status(),
			Error:   emulator.ErrStopped,
		}
	}
}

// Dispatch runs cmd. It must be called on the scheduler's
// goroutine.
func (c *Controller) Dispatch(cmd emulator.CommandPacket) emulator.ResponsePacket {
	var err error
	var data []byte
	arg := string(cmd.Data)

	switch cmd.Command {
	case emulator.CommandPause:
		err = c.Pause()
	case emulator.CommandResume:
		err = c.Resume()
	case emulator.CommandTogglePause:
		if c.status == emulator.Paused {
			err = c.Resume()
		} else {
			err = c.Pause()
		}
	case emulator.CommandClose:
		err = c.Close()
	case emulator.CommandReset:
		err = c.Reset()
	case emulator.CommandLoadROM:
		err = c.Open(arg)
	case emulator.CommandSaveState:
		if arg == "" {
			arg = QuickSlot
		}
		var path string
		if path, err = c.SaveState(arg); err == nil {
			data = []byte(path)
		}
	case emulator.CommandLoadState:
		if arg == "" {
			arg = QuickSlot
		}
		var path string
		if path, err = c.LoadState(arg); err == nil {
			data = []byte(path)
		}
	default:
		err = fmt.Errorf("unknown command %d", cmd.Command)
	}

	if err != nil {
		c.log.Debugf("%s: %v", cmd.Command, err)
	}
	return emulator.ResponsePacket{
		Command: cmd.Command,
		Status:  c.status,
		Data:    data,
		Error:   err,
	}
}

// Status returns the status of the session. It is safe to call
// from any goroutine.
func (c *Controller) Status() emulator.Status {
	return emulator.Status(c.published.Load())
}

// TargetFPS returns the frame rate the session is paced at.
func (c *Controller) TargetFPS() float64 {
	return c.pacer.FPS()
}
