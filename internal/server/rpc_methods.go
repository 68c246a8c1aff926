package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/warpdl/delugectl/common"
	"github.com/warpdl/delugectl/pkg/delugerpc"
	"github.com/warpdl/delugectl/pkg/logger"
)

// JSON-RPC error codes for Deluge failures.
const (
	codeDuplicateTorrent = jrpc2.Code(-32010)
	codeDaemonError      = jrpc2.Code(-32011)
	codeEmptyResult      = jrpc2.Code(-32012)
	codeSchema           = jrpc2.Code(-32013)
	codeTransport        = jrpc2.Code(-32014)
	codeInvalidParams    = jrpc2.Code(-32602)
)

// Deluge is the part of the Deluge client the bridge calls into.
// *delugerpc.Client implements it.
type Deluge interface {
	GetVersion(ctx context.Context) (string, error)
	AddTorrentMagnet(ctx context.Context, uri string, opts *delugerpc.Options) (string, error)
	AddTorrentURL(ctx context.Context, url string, opts *delugerpc.Options, headers http.Header) (string, error)
	AddTorrentFile(ctx context.Context, filename, filedump string, opts *delugerpc.Options) (string, error)
	RemoveTorrent(ctx context.Context, id string, removeData bool) (bool, error)
	PauseTorrents(ctx context.Context, ids []string) error
	ResumeTorrents(ctx context.Context, ids []string) error
	GetTorrentStatus(ctx context.Context, id string, keys []string, diff *bool) (delugerpc.TorrentStatus, error)
	GetTorrentsStatus(ctx context.Context, filter map[string]any, keys []string, diff *bool) (map[string]delugerpc.TorrentStatus, error)
	SetTorrentOptions(ctx context.Context, ids []string, opts *delugerpc.Options) error
	PauseSession(ctx context.Context) error
	ResumeSession(ctx context.Context) error
	GetSessionState(ctx context.Context) ([]string, error)
}

var _ Deluge = (*delugerpc.Client)(nil)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string // Auth token (required -- empty means RPC disabled)
	Version   string
	Commit    string
	BuildType string
}

// RPCServer serves a JSON-RPC 2.0 surface in front of a Deluge web daemon.
type RPCServer struct {
	bridge    jhttp.Bridge
	methods   handler.Map
	secret    string
	version   string
	commit    string
	buildType string
	deluge    Deluge
	notifier  *RPCNotifier
	log       logger.Logger
}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
	Daemon    string `json:"daemon"`
}

// MagnetParams is the input for torrent.addMagnet.
type MagnetParams struct {
	URI     string             `json:"uri"`
	Options *delugerpc.Options `json:"options,omitempty"`
}

// URLParams is the input for torrent.addURL.
type URLParams struct {
	URL     string             `json:"url"`
	Options *delugerpc.Options `json:"options,omitempty"`
	Headers map[string]string  `json:"headers,omitempty"`
}

// FileParams is the input for torrent.addFile. Filedump is the base64
// encoded .torrent content.
type FileParams struct {
	Filename string             `json:"filename"`
	Filedump string             `json:"filedump"`
	Options  *delugerpc.Options `json:"options,omitempty"`
}

// AddResult is the response for the torrent.add* methods.
type AddResult struct {
	ID string `json:"id"`
}

// RemoveParams is the input for torrent.remove.
type RemoveParams struct {
	ID         string `json:"id"`
	RemoveData bool   `json:"removeData,omitempty"`
}

// RemoveResult is the response for torrent.remove.
type RemoveResult struct {
	Removed bool `json:"removed"`
}

// IDsParam selects torrents by id.
type IDsParam struct {
	IDs []string `json:"ids"`
}

// StatusParams is the input for torrent.status.
type StatusParams struct {
	ID   string   `json:"id"`
	Keys []string `json:"keys,omitempty"`
}

// ListParams is the input for torrent.list.
type ListParams struct {
	State string   `json:"state,omitempty"`
	Keys  []string `json:"keys,omitempty"`
}

// SetOptionsParams is the input for torrent.setOptions.
type SetOptionsParams struct {
	IDs     []string           `json:"ids"`
	Options *delugerpc.Options `json:"options"`
}

// StateResult is the response for session.state.
type StateResult struct {
	IDs []string `json:"ids"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// NewRPCServer creates an RPCServer calling d.
func NewRPCServer(cfg *RPCConfig, d Deluge, l logger.Logger) *RPCServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	rs := &RPCServer{
		secret:    cfg.Secret,
		version:   cfg.Version,
		commit:    cfg.Commit,
		buildType: cfg.BuildType,
		deluge:    d,
		notifier:  NewRPCNotifier(l),
		log:       l,
	}

	rs.methods = handler.Map{
		"system.getVersion":  handler.New(rs.systemGetVersion),
		"torrent.addMagnet":  handler.New(rs.torrentAddMagnet),
		"torrent.addURL":     handler.New(rs.torrentAddURL),
		"torrent.addFile":    handler.New(rs.torrentAddFile),
		"torrent.remove":     handler.New(rs.torrentRemove),
		"torrent.pause":      handler.New(rs.torrentPause),
		"torrent.resume":     handler.New(rs.torrentResume),
		"torrent.status":     handler.New(rs.torrentStatus),
		"torrent.list":       handler.New(rs.torrentList),
		"torrent.setOptions": handler.New(rs.torrentSetOptions),
		"session.pause":      handler.New(rs.sessionPause),
		"session.resume":     handler.New(rs.sessionResume),
		"session.state":      handler.New(rs.sessionState),
	}

	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// Notifier returns the broadcaster for WebSocket clients.
func (rs *RPCServer) Notifier() *RPCNotifier {
	return rs.notifier
}

// rpcError maps a Deluge client error onto a JSON-RPC error.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	var (
		dup   *delugerpc.DuplicateTorrentError
		other *delugerpc.OtherError
		te    *delugerpc.TransportError
	)
	switch {
	case errors.As(err, &dup):
		data, _ := json.Marshal(map[string]string{"id": dup.ID})
		return &jrpc2.Error{Code: codeDuplicateTorrent, Message: dup.Error(), Data: data}
	case errors.As(err, &other):
		return &jrpc2.Error{Code: codeDaemonError, Message: other.Message}
	case delugerpc.IsEmptyResult(err):
		return &jrpc2.Error{Code: codeEmptyResult, Message: err.Error()}
	case errors.Is(err, delugerpc.ErrSchema):
		return &jrpc2.Error{Code: codeSchema, Message: err.Error()}
	case errors.As(err, &te):
		return &jrpc2.Error{Code: codeTransport, Message: te.Error()}
	case errors.Is(err, delugerpc.ErrIncorrectHeaderFormat):
		return invalidParams(err.Error())
	}
	return err
}

func invalidParams(msg string) error {
	return &jrpc2.Error{Code: codeInvalidParams, Message: msg}
}

func (rs *RPCServer) systemGetVersion(ctx context.Context) (*VersionResult, error) {
	daemon, err := rs.deluge.GetVersion(ctx)
	if err != nil {
		return nil, rpcError(err)
	}
	return &VersionResult{
		Version:   rs.version,
		Commit:    rs.commit,
		BuildType: rs.buildType,
		Daemon:    daemon,
	}, nil
}

func (rs *RPCServer) torrentAddMagnet(ctx context.Context, p *MagnetParams) (*AddResult, error) {
	if !strings.HasPrefix(p.URI, "magnet:") {
		return nil, invalidParams("missing or invalid param: uri")
	}
	id, err := rs.deluge.AddTorrentMagnet(ctx, p.URI, p.Options)
	if err != nil {
		return nil, rpcError(err)
	}
	return &AddResult{ID: id}, nil
}

func (rs *RPCServer) torrentAddURL(ctx context.Context, p *URLParams) (*AddResult, error) {
	if p.URL == "" {
		return nil, invalidParams("missing required param: url")
	}
	parsed, err := url.Parse(p.URL)
	if err != nil {
		return nil, invalidParams("invalid url: " + err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, invalidParams("unsupported url scheme: " + parsed.Scheme)
	}
	var headers http.Header
	if len(p.Headers) > 0 {
		headers = make(http.Header, len(p.Headers))
		for k, v := range p.Headers {
			headers.Set(k, v)
		}
	}
	id, err := rs.deluge.AddTorrentURL(ctx, p.URL, p.Options, headers)
	if err != nil {
		return nil, rpcError(err)
	}
	return &AddResult{ID: id}, nil
}

func (rs *RPCServer) torrentAddFile(ctx context.Context, p *FileParams) (*AddResult, error) {
	if p.Filename == "" || p.Filedump == "" {
		return nil, invalidParams("missing required params: filename, filedump")
	}
	if _, err := base64.StdEncoding.DecodeString(p.Filedump); err != nil {
		return nil, invalidParams("filedump is not base64: " + err.Error())
	}
	id, err := rs.deluge.AddTorrentFile(ctx, p.Filename, p.Filedump, p.Options)
	if err != nil {
		return nil, rpcError(err)
	}
	return &AddResult{ID: id}, nil
}

func (rs *RPCServer) torrentRemove(ctx context.Context, p *RemoveParams) (*RemoveResult, error) {
	if p.ID == "" {
		return nil, invalidParams("missing required param: id")
	}
	ok, err := rs.deluge.RemoveTorrent(ctx, p.ID, p.RemoveData)
	if err != nil {
		return nil, rpcError(err)
	}
	return &RemoveResult{Removed: ok}, nil
}

func (rs *RPCServer) torrentPause(ctx context.Context, p *IDsParam) (*EmptyResult, error) {
	if len(p.IDs) == 0 {
		return nil, invalidParams("missing required param: ids")
	}
	if err := rs.deluge.PauseTorrents(ctx, p.IDs); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) torrentResume(ctx context.Context, p *IDsParam) (*EmptyResult, error) {
	if len(p.IDs) == 0 {
		return nil, invalidParams("missing required param: ids")
	}
	if err := rs.deluge.ResumeTorrents(ctx, p.IDs); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) torrentStatus(ctx context.Context, p *StatusParams) (delugerpc.TorrentStatus, error) {
	if p.ID == "" {
		return nil, invalidParams("missing required param: id")
	}
	keys := p.Keys
	if len(keys) == 0 {
		keys = common.StatusKeys
	}
	st, err := rs.deluge.GetTorrentStatus(ctx, p.ID, keys, nil)
	if err != nil {
		return nil, rpcError(err)
	}
	// the daemon answers an unknown id with an empty status
	if len(st) == 0 {
		return nil, &jrpc2.Error{Code: codeDaemonError, Message: "torrent not found: " + p.ID}
	}
	return st, nil
}

func (rs *RPCServer) torrentList(ctx context.Context, p *ListParams) (map[string]delugerpc.TorrentStatus, error) {
	keys := p.Keys
	if len(keys) == 0 {
		keys = common.StatusKeys
	}
	var filter map[string]any
	if p.State != "" {
		filter = map[string]any{"state": p.State}
	}
	st, err := rs.deluge.GetTorrentsStatus(ctx, filter, keys, nil)
	if err != nil {
		return nil, rpcError(err)
	}
	if st == nil {
		st = map[string]delugerpc.TorrentStatus{}
	}
	return st, nil
}

func (rs *RPCServer) torrentSetOptions(ctx context.Context, p *SetOptionsParams) (*EmptyResult, error) {
	if len(p.IDs) == 0 {
		return nil, invalidParams("missing required param: ids")
	}
	if p.Options.Len() == 0 {
		return nil, invalidParams("missing required param: options")
	}
	if err := rs.deluge.SetTorrentOptions(ctx, p.IDs, p.Options); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) sessionPause(ctx context.Context) (*EmptyResult, error) {
	if err := rs.deluge.PauseSession(ctx); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) sessionResume(ctx context.Context) (*EmptyResult, error) {
	if err := rs.deluge.ResumeSession(ctx); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) sessionState(ctx context.Context) (*StateResult, error) {
	ids, err := rs.deluge.GetSessionState(ctx)
	if err != nil {
		return nil, rpcError(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return &StateResult{IDs: ids}, nil
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
