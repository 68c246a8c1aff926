// Package server exposes a Deluge web daemon as a JSON-RPC 2.0 service over
// HTTP and WebSocket, with push notifications for torrent state changes.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Handler routes /jsonrpc to the HTTP bridge and /jsonrpc/ws to the
// WebSocket endpoint, both behind the bearer token.
func (rs *RPCServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/jsonrpc", requireToken(rs.secret, false, rs.bridge))
	mux.Handle("/jsonrpc/ws", requireToken(rs.secret, true, http.HandlerFunc(rs.serveWS)))
	return mux
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully.
func (rs *RPCServer) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           rs.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()
	rs.log.Info("JSON-RPC bridge listening on %s", l.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(sctx)
	if serr := <-errc; serr != nil && !errors.Is(serr, http.ErrServerClosed) && err == nil {
		err = serr
	}
	return err
}

// ListenAndServe listens on addr and calls Serve.
func (rs *RPCServer) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return rs.Serve(ctx, l)
}
