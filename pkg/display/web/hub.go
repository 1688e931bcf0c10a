package web

import (
	"encoding/binary"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/display"
	"github.com/thelolagemann/nesfront/pkg/log"
)

// hub fans the messages of a single session out to every
// connected client, and forwards their input back to it.
type hub struct {
	clients map[*Client]bool
	emu     display.Emulator
	keys    chan<- joypad.KeyEvent
	stream  *stream
	log     log.Logger

	broadcast            chan []byte
	register, unregister chan *Client
	done                 chan struct{}

	currentID uint8
	title     []byte

	mu sync.Mutex
}

func newHub(emu display.Emulator, keys chan<- joypad.KeyEvent, l log.Logger) *hub {
	return &hub{
		clients:    make(map[*Client]bool),
		emu:        emu,
		keys:       keys,
		stream:     newStream(),
		log:        l,
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket connection,
// and synchronizes the new client with the session.
func (w *hub) ServeHTTP(wr http.ResponseWriter, r *http.Request) {
	wr.Header().Set("Access-Control-Allow-Origin", "*")

	conn, err := upgrader.Upgrade(wr, r, nil)
	if err != nil {
		w.log.Errorf("web: upgrading %s: %v", r.RemoteAddr, err)
		return
	}

	c := w.newClient(conn, r)
	select {
	case w.register <- c:
	case <-w.done:
		conn.Close()
		return
	}

	go c.ReadPump()
	go c.WritePump()

	c.reply(w.stream.info())
	if msg, err := w.stream.sync(); err == nil {
		c.reply(msg)
	}
	w.mu.Lock()
	if w.title != nil {
		c.reply(w.title)
	}
	w.mu.Unlock()
	w.log.Debugf("web: client %d connected from %s", c.ID, c.Metadata.RemoteAddr)
}

func (w *hub) run() {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-w.done:
			for c := range w.clients {
				c.close()
				delete(w.clients, c)
			}
			return
		case <-t.C:
			// build information
			var data []byte
			for c := range w.clients {
				latencyBuf := make([]byte, 2)
				binary.LittleEndian.PutUint16(latencyBuf, c.latency())
				data = append(data, c.ID)
				data = append(data, latencyBuf...)
			}
			w.send(append([]byte{ServerInfo}, data...))
		case c := <-w.register:
			w.clients[c] = true
		case c := <-w.unregister:
			if _, ok := w.clients[c]; ok {
				delete(w.clients, c)
				c.close()
				w.log.Debugf("web: client %d disconnected", c.ID)
			}
		case msg := <-w.broadcast:
			w.send(msg)
		}
	}
}

// send delivers msg to every client, dropping those that
// cannot keep up.
func (w *hub) send(msg []byte) {
	for c := range w.clients {
		if !c.reply(msg) {
			c.close()
			delete(w.clients, c)
		}
	}
}

// publish queues msg for every client.
func (w *hub) publish(msg []byte) {
	select {
	case w.broadcast <- msg:
	case <-w.done:
	}
}

func (w *hub) setTitle(title string) {
	msg := append([]byte{Title}, title...)
	w.mu.Lock()
	w.title = msg
	w.mu.Unlock()
	w.publish(msg)
}

// newClient creates a new client for the hub
func (w *hub) newClient(conn *websocket.Conn, r *http.Request) *Client {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.currentID++

	c := &Client{
		hub:  w,
		conn: conn,
		Send: make(chan []byte, 256),
		ID:   w.currentID,
		Metadata: struct {
			RemoteAddr string
			UserAgent  string
		}{RemoteAddr: r.RemoteAddr, UserAgent: r.Header.Get("User-Agent")},
		connectedAt: time.Now(),
	}
	return c
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 16,
	WriteBufferSize: 1024 * 16,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
