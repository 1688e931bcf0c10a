package web

import (
	"bytes"
	"encoding/binary"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gorilla/websocket"
	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
)

func TestCache(t *testing.T) {
	c := newCache(2)
	if c.index(1) != -1 {
		t.Fatal("empty cache should miss")
	}
	if i := c.add(1, []byte{1}); i != 0 {
		t.Errorf("add = %d, want 0", i)
	}
	c.add(2, []byte{2})
	if c.index(2) != 1 {
		t.Errorf("index(2) = %d, want 1", c.index(2))
	}

	// third entry wraps and evicts the first
	c.add(3, []byte{3})
	if c.index(1) != -1 || c.index(3) != 0 {
		t.Errorf("expected 1 evicted by 3, got %d %d", c.index(1), c.index(3))
	}

	c.enabled = false
	if c.index(3) != -1 {
		t.Error("disabled cache should miss")
	}
}

func uncompressed() *stream {
	s := newStream()
	s.compression = false
	return s
}

func TestStreamEncode(t *testing.T) {
	t.Run("unchanged frame is skipped", func(t *testing.T) {
		s := uncompressed()
		msgs, err := s.encode(emulator.NewFramebuffer())
		if err != nil || msgs != nil {
			t.Fatalf("encode = %v, %v; want nothing", msgs, err)
		}
		if s.skipped != 1 {
			t.Errorf("skipped = %d, want 1", s.skipped)
		}
	})
	t.Run("small change is a patch", func(t *testing.T) {
		s := uncompressed()
		fb := emulator.NewFramebuffer()
		fb.Set(1, 0, 0xAA, 0xBB, 0xCC)
		msgs, err := s.encode(fb)
		if err != nil || len(msgs) != 1 {
			t.Fatalf("encode = %d messages, %v", len(msgs), err)
		}
		msg := msgs[0]
		if msg[0] != FramePatch || len(msg) != 3+frameBytes {
			t.Fatalf("unexpected message type %d len %d", msg[0], len(msg))
		}
		data := msg[3:]
		if !bytes.Equal(data[4:8], []byte{0xAA, 0xBB, 0xCC, 0xFF}) {
			t.Errorf("patched pixel = %v", data[4:8])
		}
		if !bytes.Equal(data[0:4], []byte{0, 0, 0, 0}) {
			t.Errorf("unchanged pixel = %v, want zeroed", data[0:4])
		}
	})
	t.Run("large change is a frame", func(t *testing.T) {
		s := uncompressed()
		fb := emulator.NewFramebuffer()
		for y := 0; y < emulator.ScreenHeight; y++ {
			for x := 0; x < emulator.ScreenWidth; x++ {
				fb.Set(x, y, 0x10, 0x20, 0x30)
			}
		}
		msgs, _ := s.encode(fb)
		if len(msgs) != 1 || msgs[0][0] != Frame {
			t.Fatalf("expected a single frame message")
		}
		if !bytes.Equal(msgs[0][3:], fb.Pix[:]) {
			t.Error("frame data does not match framebuffer")
		}
	})
	t.Run("repeated patch hits the cache", func(t *testing.T) {
		s := uncompressed()
		on, off := emulator.NewFramebuffer(), emulator.NewFramebuffer()
		on.Set(5, 5, 0xFF, 0, 0)

		first, _ := s.encode(on)
		s.encode(off)
		again, _ := s.encode(on)
		if len(again) != 1 || again[0][0] != PatchCache {
			t.Fatalf("expected cached patch, got type %d", again[0][0])
		}
		if got, want := binary.LittleEndian.Uint16(again[0][1:]), binary.LittleEndian.Uint16(first[0][1:]); got != want {
			t.Errorf("cache index = %d, want %d", got, want)
		}
	})
	t.Run("skip count precedes next frame", func(t *testing.T) {
		s := uncompressed()
		s.encode(emulator.NewFramebuffer())
		s.encode(emulator.NewFramebuffer())
		fb := emulator.NewFramebuffer()
		fb.Set(0, 0, 1, 1, 1)
		msgs, _ := s.encode(fb)
		if len(msgs) != 2 || msgs[0][0] != FrameSkip {
			t.Fatalf("expected skip then patch, got %d messages", len(msgs))
		}
		if n := binary.LittleEndian.Uint32(msgs[0][1:]); n != 2 {
			t.Errorf("skipped = %d, want 2", n)
		}
	})
	t.Run("compressed frame decodes", func(t *testing.T) {
		s := newStream()
		s.framePatching = false
		fb := emulator.NewFramebuffer()
		fb.Set(7, 3, 0x12, 0x34, 0x56)
		msgs, err := s.encode(fb)
		if err != nil || len(msgs) != 1 || msgs[0][0] != Frame {
			t.Fatalf("encode = %v", err)
		}
		data, err := io.ReadAll(brotli.NewReader(bytes.NewReader(msgs[0][3:])))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(data, fb.Pix[:]) {
			t.Error("decompressed frame does not match framebuffer")
		}
	})
}

func TestStreamSettings(t *testing.T) {
	s := newStream()
	tests := []struct {
		setting Event
		value   byte
		info    byte
	}{
		{Compression, 0, 0b110},
		{FramePatching, 0, 0b100},
		{FrameSkipping, 0, 0b000},
		{Compression, 1, 0b001},
	}
	for _, tt := range tests {
		if !s.set(tt.setting, tt.value) {
			t.Fatalf("set(%d) not applied", tt.setting)
		}
		if got := s.info()[1]; got != tt.info {
			t.Errorf("after set(%d, %d) info = %03b, want %03b", tt.setting, tt.value, got, tt.info)
		}
	}
	s.set(FramePatchRatio, 200)
	if s.framePatchRatio != 100 {
		t.Errorf("ratio = %d, want clamped to 100", s.framePatchRatio)
	}
	if s.set(KeyDown, 1) {
		t.Error("key events are not settings")
	}
}

type fakeEmulator struct {
	commands chan emulator.CommandPacket
}

func (f *fakeEmulator) SendCommand(c emulator.CommandPacket) emulator.ResponsePacket {
	f.commands <- c
	return emulator.ResponsePacket{Command: c.Command, Status: emulator.Paused}
}
func (f *fakeEmulator) Status() emulator.Status { return emulator.Paused }
func (f *fakeEmulator) TargetFPS() float64      { return 60 }

func TestHub(t *testing.T) {
	emu := &fakeEmulator{commands: make(chan emulator.CommandPacket, 1)}
	keys := make(chan joypad.KeyEvent, 1)
	h := newHub(emu, keys, log.NewNullLogger())
	go h.run()
	defer close(h.done)

	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func(want Type) []byte {
		t.Helper()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				t.Fatal(err)
			}
			if msg[0] == ServerInfo {
				continue
			}
			if msg[0] != want {
				t.Fatalf("message type = %d, want %d", msg[0], want)
			}
			return msg
		}
	}
	read(ClientInfo)
	read(FrameSync)

	conn.WriteMessage(websocket.BinaryMessage, append([]byte{KeyDown}, "z"...))
	select {
	case e := <-keys:
		if e.Key != "z" || !e.Pressed {
			t.Errorf("unexpected key event %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no key event")
	}

	conn.WriteMessage(websocket.BinaryMessage, []byte{Command, uint8(emulator.CommandPause)})
	if c := <-emu.commands; c.Command != emulator.CommandPause {
		t.Errorf("command = %v, want pause", c.Command)
	}
	resp := read(Response)
	if resp[1] != uint8(emulator.CommandPause) || resp[2] != uint8(emulator.Paused) || len(resp) != 3 {
		t.Errorf("unexpected response %v", resp)
	}

	// paths are never taken from the web
	conn.WriteMessage(websocket.BinaryMessage, append([]byte{Command, uint8(emulator.CommandSaveState)}, "../x"...))
	resp = read(Response)
	if resp[1] != uint8(emulator.CommandSaveState) || string(resp[3:]) != ErrRefused.Error() {
		t.Errorf("unexpected response %q", resp)
	}
	select {
	case c := <-emu.commands:
		t.Errorf("refused command %v reached the session", c.Command)
	default:
	}

	h.setTitle("nesfront | game | Paused")
	if title := read(Title); string(title[1:]) != "nesfront | game | Paused" {
		t.Errorf("title = %q", title[1:])
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name    string
		command emulator.Command
		data    string
		want    bool
	}{
		{"pause", emulator.CommandPause, "", true},
		{"resume", emulator.CommandResume, "", true},
		{"toggle pause", emulator.CommandTogglePause, "", true},
		{"reset", emulator.CommandReset, "", true},
		{"quick save", emulator.CommandSaveState, "", true},
		{"quick load", emulator.CommandLoadState, "", true},
		{"save to slot", emulator.CommandSaveState, "slot1", false},
		{"save outside state dir", emulator.CommandSaveState, "../x", false},
		{"load absolute path", emulator.CommandLoadState, "/etc/passwd", false},
		{"load rom", emulator.CommandLoadROM, "game.nes", false},
		{"close", emulator.CommandClose, "", false},
		{"pause with path", emulator.CommandPause, `..\\x`, false},
		{"unknown", emulator.Command(200), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := allowed(emulator.NewCommand(tt.command, tt.data)); got != tt.want {
				t.Errorf("allowed(%v, %q) = %v, want %v", tt.command, tt.data, got, tt.want)
			}
		})
	}
}

func TestClientClose(t *testing.T) {
	c := &Client{Send: make(chan []byte, 1)}
	if !c.reply([]byte{1}) {
		t.Fatal("reply to an open client failed")
	}
	if c.reply([]byte{2}) {
		t.Error("reply to a full client succeeded")
	}
	c.close()
	c.close()
	if c.reply([]byte{3}) {
		t.Error("reply to a closed client succeeded")
	}
	if msg := <-c.Send; msg[0] != 1 {
		t.Errorf("queued message = %v", msg)
	}
	if _, ok := <-c.Send; ok {
		t.Error("Send not closed")
	}
}
