package server

import (
	"context"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/warpdl/delugectl/common"
	"github.com/warpdl/delugectl/pkg/delugerpc"
	"github.com/warpdl/delugectl/pkg/logger"
)

// Push notification methods sent to WebSocket clients.
const (
	notifyStateChanged = "torrent.onStateChanged"
	notifyComplete     = "torrent.onComplete"
	notifyRemoved      = "torrent.onRemoved"
)

// RPCNotifier maintains the set of connected jrpc2 WebSocket servers and
// broadcasts push notifications to all of them.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
}

func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     l,
	}
}

func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to every registered server. Servers
// that fail to receive it are dropped.
func (n *RPCNotifier) Broadcast(ctx context.Context, method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(ctx, method, params); err != nil {
			n.log.Warning("RPC push failed: %v", err)
			failed = append(failed, srv)
		}
	}
	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered servers.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

// TorrentStateNotification is sent when a torrent changes state.
type TorrentStateNotification struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

// TorrentCompleteNotification is sent when a torrent starts seeding.
type TorrentCompleteNotification struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TorrentRemovedNotification is sent when a torrent leaves the session.
type TorrentRemovedNotification struct {
	ID string `json:"id"`
}

var watchKeys = []string{"name", "state", "progress"}

// Watcher polls the daemon for torrent states and turns changes into push
// notifications. The first poll only records the baseline.
type Watcher struct {
	deluge   Deluge
	notifier *RPCNotifier
	interval time.Duration
	log      logger.Logger

	last map[string]string
}

func NewWatcher(d Deluge, n *RPCNotifier, interval time.Duration, l logger.Logger) *Watcher {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Watcher{deluge: d, notifier: n, interval: interval, log: l}
}

// Run polls until ctx is done. Poll errors are logged and retried on the
// next tick.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.Poll(ctx); err != nil {
			w.log.Warning("torrent watch: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches states once and broadcasts the differences from the
// previous poll.
func (w *Watcher) Poll(ctx context.Context) error {
	st, err := w.deluge.GetTorrentsStatus(ctx, nil, watchKeys, nil)
	if err != nil {
		return err
	}
	next := make(map[string]string, len(st))
	for id, s := range st {
		next[id] = s.GetString("state")
	}
	if w.last != nil {
		w.diff(ctx, st, next)
	}
	w.last = next
	return nil
}

func (w *Watcher) diff(ctx context.Context, st map[string]delugerpc.TorrentStatus, next map[string]string) {
	for id, to := range next {
		from, seen := w.last[id]
		if !seen || from == to {
			continue
		}
		name := st[id].GetString("name")
		w.notifier.Broadcast(ctx, notifyStateChanged, &TorrentStateNotification{ID: id, Name: name, From: from, To: to})
		if to == common.STATE_SEEDING && from == common.STATE_DOWNLOADING {
			w.notifier.Broadcast(ctx, notifyComplete, &TorrentCompleteNotification{ID: id, Name: name})
		}
	}
	for id := range w.last {
		if _, ok := next[id]; !ok {
			w.notifier.Broadcast(ctx, notifyRemoved, &TorrentRemovedNotification{ID: id})
		}
	}
}
