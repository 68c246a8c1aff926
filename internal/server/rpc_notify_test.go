package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/warpdl/delugectl/common"
	"github.com/warpdl/delugectl/pkg/delugerpc"
	"github.com/warpdl/delugectl/pkg/logger"
)

// newTestServer creates a jrpc2 server with push support backed by an
// io.Pipe channel. Frames pushed to the client side are delivered on the
// returned channel.
func newTestServer(t *testing.T) (<-chan map[string]any, *jrpc2.Server, func()) {
	t.Helper()
	cr, sw := io.Pipe()
	sr, cw := io.Pipe()
	cli := channel.Line(cr, cw)
	srvCh := channel.Line(sr, sw)

	srv := jrpc2.NewServer(handler.Map{}, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(srvCh)

	frames := make(chan map[string]any, 16)
	go func() {
		defer close(frames)
		for {
			data, err := cli.Recv()
			if err != nil {
				return
			}
			var msg map[string]any
			if json.Unmarshal(data, &msg) == nil {
				frames <- msg
			}
		}
	}()

	cleanup := func() {
		cli.Close()
		_ = srv.Wait()
	}
	return frames, srv, cleanup
}

func nextFrame(t *testing.T, frames <-chan map[string]any) map[string]any {
	t.Helper()
	select {
	case msg, ok := <-frames:
		if !ok {
			t.Fatal("client channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return nil
}

func noFrame(t *testing.T, frames <-chan map[string]any) {
	t.Helper()
	select {
	case msg := <-frames:
		t.Fatalf("unexpected notification: %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRPCNotifierRegister(t *testing.T) {
	n := NewRPCNotifier(nil)
	if n.Count() != 0 {
		t.Fatalf("expected 0 servers, got %d", n.Count())
	}
	_, srv, cleanup := newTestServer(t)
	defer cleanup()

	n.Register(srv)
	n.Register(srv)
	if n.Count() != 1 {
		t.Fatalf("expected 1 server, got %d", n.Count())
	}
	n.Unregister(srv)
	if n.Count() != 0 {
		t.Fatalf("expected 0 servers after unregister, got %d", n.Count())
	}
}

func TestRPCNotifierBroadcast(t *testing.T) {
	n := NewRPCNotifier(nil)
	frames1, srv1, cleanup1 := newTestServer(t)
	defer cleanup1()
	frames2, srv2, cleanup2 := newTestServer(t)
	defer cleanup2()
	n.Register(srv1)
	n.Register(srv2)

	n.Broadcast(context.Background(), notifyRemoved, &TorrentRemovedNotification{ID: "abc"})
	for _, frames := range []<-chan map[string]any{frames1, frames2} {
		msg := nextFrame(t, frames)
		if msg["method"] != notifyRemoved {
			t.Fatalf("method %v", msg["method"])
		}
		if p := msg["params"].(map[string]any); p["id"] != "abc" {
			t.Fatalf("params %v", p)
		}
	}
}

func TestRPCNotifierDropsClosedServers(t *testing.T) {
	l := logger.NewMockLogger()
	n := NewRPCNotifier(l)
	_, srv, cleanup := newTestServer(t)
	n.Register(srv)
	cleanup()

	n.Broadcast(context.Background(), notifyRemoved, &TorrentRemovedNotification{ID: "abc"})
	if n.Count() != 0 {
		t.Fatalf("closed server kept, count %d", n.Count())
	}
	if len(l.WarningCalls) == 0 {
		t.Fatal("push failure not logged")
	}
}

func watchFixture(t *testing.T, d *fakeDeluge) (*Watcher, <-chan map[string]any) {
	t.Helper()
	n := NewRPCNotifier(nil)
	frames, srv, cleanup := newTestServer(t)
	t.Cleanup(cleanup)
	n.Register(srv)
	return NewWatcher(d, n, time.Hour, nil), frames
}

func TestWatcherBaseline(t *testing.T) {
	d := &fakeDeluge{status: map[string]delugerpc.TorrentStatus{
		"abc": {"name": "ubuntu.iso", "state": common.STATE_DOWNLOADING},
	}}
	w, frames := watchFixture(t, d)
	if err := w.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	noFrame(t, frames)
	if err := w.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	noFrame(t, frames)
}

func TestWatcherCompletion(t *testing.T) {
	d := &fakeDeluge{status: map[string]delugerpc.TorrentStatus{
		"abc": {"name": "ubuntu.iso", "state": common.STATE_DOWNLOADING},
	}}
	w, frames := watchFixture(t, d)
	ctx := context.Background()
	if err := w.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	d.setStatus(map[string]delugerpc.TorrentStatus{
		"abc": {"name": "ubuntu.iso", "state": common.STATE_SEEDING},
	})
	if err := w.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	msg := nextFrame(t, frames)
	if msg["method"] != notifyStateChanged {
		t.Fatalf("method %v", msg["method"])
	}
	p := msg["params"].(map[string]any)
	if p["from"] != common.STATE_DOWNLOADING || p["to"] != common.STATE_SEEDING || p["name"] != "ubuntu.iso" {
		t.Fatalf("params %v", p)
	}
	if msg = nextFrame(t, frames); msg["method"] != notifyComplete {
		t.Fatalf("method %v", msg["method"])
	}
}

func TestWatcherPausedIsNotComplete(t *testing.T) {
	d := &fakeDeluge{status: map[string]delugerpc.TorrentStatus{
		"abc": {"state": common.STATE_PAUSED},
	}}
	w, frames := watchFixture(t, d)
	ctx := context.Background()
	_ = w.Poll(ctx)
	d.setStatus(map[string]delugerpc.TorrentStatus{"abc": {"state": common.STATE_SEEDING}})
	_ = w.Poll(ctx)
	if msg := nextFrame(t, frames); msg["method"] != notifyStateChanged {
		t.Fatalf("method %v", msg["method"])
	}
	noFrame(t, frames)
}

func TestWatcherRemoval(t *testing.T) {
	d := &fakeDeluge{status: map[string]delugerpc.TorrentStatus{
		"abc": {"state": common.STATE_SEEDING},
	}}
	w, frames := watchFixture(t, d)
	ctx := context.Background()
	_ = w.Poll(ctx)
	d.setStatus(map[string]delugerpc.TorrentStatus{})
	_ = w.Poll(ctx)
	msg := nextFrame(t, frames)
	if msg["method"] != notifyRemoved || msg["params"].(map[string]any)["id"] != "abc" {
		t.Fatalf("frame %v", msg)
	}
}

func TestWatcherPollError(t *testing.T) {
	boom := errors.New("daemon down")
	d := &fakeDeluge{failWith: boom}
	w, _ := watchFixture(t, d)
	if err := w.Poll(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if w.last != nil {
		t.Fatal("baseline recorded on error")
	}
}

func TestWatcherRunStops(t *testing.T) {
	d := &fakeDeluge{status: map[string]delugerpc.TorrentStatus{}}
	n := NewRPCNotifier(nil)
	w := NewWatcher(d, n, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
