package web

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/emulator"
)

// ErrRefused is returned to a client that sends a command it
// may not issue.
var ErrRefused = errors.New("command not allowed from the web")

type Client struct {
	mu       sync.RWMutex
	sendMu   sync.Mutex
	closed   bool
	hub      *hub
	conn     *websocket.Conn
	Send     chan []byte
	ID       uint8
	Metadata struct {
		RemoteAddr string
		UserAgent  string
	}
	avgLatency  uint16
	connectedAt time.Time
}

func (c *Client) latency() uint16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.avgLatency
}

func (c *Client) ReadPump() {
	defer func() {
		c.unregister()
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil || len(message) == 0 {
			return // connection closed
		}

		switch message[0] {
		case KeyDown, KeyUp:
			e := joypad.KeyEvent{Key: string(message[1:]), Pressed: message[0] == KeyDown}
			select {
			case c.hub.keys <- e:
			case <-c.hub.done:
				return
			}
		case Command:
			if len(message) < 2 {
				continue
			}
			cmd := emulator.CommandPacket{
				Command: emulator.Command(message[1]),
				Data:    message[2:],
			}
			if !allowed(cmd) {
				c.hub.log.Warnf("web: client %d sent refused command %s", c.ID, cmd.Command)
				c.reply(response(emulator.ResponsePacket{
					Command: cmd.Command,
					Status:  c.hub.emu.Status(),
					Error:   ErrRefused,
				}))
				continue
			}
			c.reply(response(c.hub.emu.SendCommand(cmd)))
		case Closing:
			return
		case KeepAlive:
		default:
			if len(message) < 2 || !c.hub.stream.set(message[0], message[1]) {
				c.hub.log.Warnf("web: client %d sent unknown message %d", c.ID, message[0])
				continue
			}
			c.hub.publish(c.hub.stream.info())
		}
	}
}

func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.Send {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
			c.unregister()
			// drain until the hub closes the channel
			for range c.Send {
			}
			return
		}

		// update average latency
		if conn, ok := c.conn.UnderlyingConn().(*net.TCPConn); ok {
			if rtt, err := roundTrip(conn); err == nil {
				c.mu.Lock()
				c.avgLatency = ((c.avgLatency * 9) + uint16(rtt.Milliseconds())) / 10
				c.mu.Unlock()
			}
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// reply queues msg without blocking, reporting false when the
// client is closed or cannot keep up.
func (c *Client) reply(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// close closes Send once. Nothing is queued on it afterwards.
func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// allowed reports whether a web client may issue cmd. Paths are
// chosen by the local user only, so of the state commands just
// the quick slot is reachable, and ROMs cannot be opened.
func allowed(cmd emulator.CommandPacket) bool {
	switch cmd.Command {
	case emulator.CommandPause, emulator.CommandResume, emulator.CommandTogglePause, emulator.CommandReset:
	case emulator.CommandSaveState, emulator.CommandLoadState:
		if len(cmd.Data) > 0 {
			return false
		}
	default:
		return false
	}
	data := string(cmd.Data)
	return !strings.ContainsAny(data, `/\`) && !strings.Contains(data, "..")
}

func (c *Client) unregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// response encodes resp as [Response, command, status, error...].
func response(resp emulator.ResponsePacket) []byte {
	msg := []byte{Response, uint8(resp.Command), uint8(resp.Status)}
	if resp.Error != nil {
		return append(msg, fmt.Sprint(resp.Error)...)
	}
	return msg
}
