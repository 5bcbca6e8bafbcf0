package hub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

type written struct {
	kind int
	data []byte
}

type fakeConn struct {
	writes chan written
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{writes: make(chan written, 16), closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, io.EOF
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("closed")
	default:
	}
	f.writes <- written{kind, data}
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) next(t *testing.T) written {
	t.Helper()
	select {
	case w := <-f.writes:
		return w
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write")
		return written{}
	}
}

func quietHub(name string, opts ...Option) *Hub {
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return New(name, opts...)
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := quietHub("preview")
	go h.Run(ctx)

	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, conn := range conns {
		c := NewClient(h, conn)
		go c.Run()
	}
	waitClients(t, h, 2)

	h.BroadcastBinary([]byte{0xFF, 0xD8})
	for i, conn := range conns {
		w := conn.next(t)
		if w.kind != websocket.BinaryMessage || len(w.data) != 2 {
			t.Errorf("client %d: unexpected write %+v", i, w)
		}
	}

	if err := h.BroadcastJSON(map[string]bool{"busy": true}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
	for i, conn := range conns {
		w := conn.next(t)
		if w.kind != websocket.TextMessage || string(w.data) != `{"busy":true}` {
			t.Errorf("client %d: unexpected write %+v", i, w)
		}
	}

	conns[0].Close()
	waitClients(t, h, 1)
}

func TestHubRetain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := quietHub("state", WithRetain())
	go h.Run(ctx)

	h.BroadcastJSON(map[string]string{"identification": "Strawberry"})
	time.Sleep(10 * time.Millisecond)

	conn := newFakeConn()
	go NewClient(h, conn).Run()

	w := conn.next(t)
	if string(w.data) != `{"identification":"Strawberry"}` {
		t.Errorf("expected retained snapshot, got %s", w.data)
	}
}

func TestHubShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := quietHub("preview")
	go h.Run(ctx)

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitClients(t, h, 1)

	cancel()
	w := conn.next(t)
	if w.kind != websocket.CloseMessage {
		t.Errorf("expected close frame, got %+v", w)
	}

	deadline := time.Now().Add(time.Second)
	for h.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if h.IsRunning() {
		t.Error("hub still running")
	}
	if c := NewClient(h, newFakeConn()); c != nil {
		t.Error("expected nil client after shutdown")
	}
}

func TestBroadcastNeverBlocks(t *testing.T) {
	h := quietHub("preview")
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.BroadcastBinary([]byte{1})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}
	if h.Dropped() == 0 {
		t.Error("expected dropped messages")
	}
}
