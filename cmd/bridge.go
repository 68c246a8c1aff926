package cmd

import (
	"context"
	"net/http"

	"github.com/warpdl/delugectl/internal/server"
	"github.com/warpdl/delugectl/pkg/delugerpc"
)

// authedDeluge runs every bridge call through runtimeEnv.authed so an
// expired web session is renewed while serving.
type authedDeluge struct {
	e *runtimeEnv
}

var _ server.Deluge = (*authedDeluge)(nil)

func authedCall[T any](ctx context.Context, e *runtimeEnv, fn func() (T, error)) (T, error) {
	var res T
	err := e.authed(ctx, func() error {
		var err error
		res, err = fn()
		return err
	})
	return res, err
}

func (d *authedDeluge) GetVersion(ctx context.Context) (string, error) {
	return authedCall(ctx, d.e, func() (string, error) {
		return d.e.client.GetVersion(ctx)
	})
}

func (d *authedDeluge) AddTorrentMagnet(ctx context.Context, uri string, opts *delugerpc.Options) (string, error) {
	return authedCall(ctx, d.e, func() (string, error) {
		return d.e.client.AddTorrentMagnet(ctx, uri, opts)
	})
}

func (d *authedDeluge) AddTorrentURL(ctx context.Context, url string, opts *delugerpc.Options, headers http.Header) (string, error) {
	return authedCall(ctx, d.e, func() (string, error) {
		return d.e.client.AddTorrentURL(ctx, url, opts, headers)
	})
}

func (d *authedDeluge) AddTorrentFile(ctx context.Context, filename, filedump string, opts *delugerpc.Options) (string, error) {
	return authedCall(ctx, d.e, func() (string, error) {
		return d.e.client.AddTorrentFile(ctx, filename, filedump, opts)
	})
}

func (d *authedDeluge) RemoveTorrent(ctx context.Context, id string, removeData bool) (bool, error) {
	return authedCall(ctx, d.e, func() (bool, error) {
		return d.e.client.RemoveTorrent(ctx, id, removeData)
	})
}

func (d *authedDeluge) PauseTorrents(ctx context.Context, ids []string) error {
	return d.e.authed(ctx, func() error {
		return d.e.client.PauseTorrents(ctx, ids)
	})
}

func (d *authedDeluge) ResumeTorrents(ctx context.Context, ids []string) error {
	return d.e.authed(ctx, func() error {
		return d.e.client.ResumeTorrents(ctx, ids)
	})
}

func (d *authedDeluge) GetTorrentStatus(ctx context.Context, id string, keys []string, diff *bool) (delugerpc.TorrentStatus, error) {
	return authedCall(ctx, d.e, func() (delugerpc.TorrentStatus, error) {
		return d.e.client.GetTorrentStatus(ctx, id, keys, diff)
	})
}

func (d *authedDeluge) GetTorrentsStatus(ctx context.Context, filter map[string]any, keys []string, diff *bool) (map[string]delugerpc.TorrentStatus, error) {
	return authedCall(ctx, d.e, func() (map[string]delugerpc.TorrentStatus, error) {
		return d.e.client.GetTorrentsStatus(ctx, filter, keys, diff)
	})
}

func (d *authedDeluge) SetTorrentOptions(ctx context.Context, ids []string, opts *delugerpc.Options) error {
	return d.e.authed(ctx, func() error {
		return d.e.client.SetTorrentOptions(ctx, ids, opts)
	})
}

func (d *authedDeluge) PauseSession(ctx context.Context) error {
	return d.e.authed(ctx, func() error {
		return d.e.client.PauseSession(ctx)
	})
}

func (d *authedDeluge) ResumeSession(ctx context.Context) error {
	return d.e.authed(ctx, func() error {
		return d.e.client.ResumeSession(ctx)
	})
}

func (d *authedDeluge) GetSessionState(ctx context.Context) ([]string, error) {
	return authedCall(ctx, d.e, func() ([]string, error) {
		return d.e.client.GetSessionState(ctx)
	})
}
