package delugerpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/warpdl/delugectl/common"
)

// ErrLoginFailed is returned by Login when the daemon rejects the password.
var ErrLoginFailed = errors.New("login rejected by daemon")

func optionsParam(opts *Options) *Options {
	if opts == nil {
		return &Options{}
	}
	return opts
}

// Login authenticates the web session. The session cookie is kept by the
// transport and used by all later calls.
func (c *Client) Login(ctx context.Context, password string) error {
	c.log.Debug("Logging In")
	env, err := c.Call(ctx, c.request(common.AUTH_LOGIN).AddParam(password))
	if err != nil {
		return err
	}
	r := Decode[bool](env, c.classifier)
	ok, err := r.IntoResult()
	switch {
	case IsEmptyResult(err):
		return nil
	case err != nil:
		return err
	case !ok:
		return ErrLoginFailed
	}
	return nil
}

// DeleteSession ends the web session on the daemon side. The transport
// keeps its cookie; reset it separately.
func (c *Client) DeleteSession(ctx context.Context) error {
	c.log.Debug("Deleting Session")
	return invokeEmpty(ctx, c, c.request(common.AUTH_DELETE_SESSION))
}

// Disconnect ends the web session's connection to its daemon.
func (c *Client) Disconnect(ctx context.Context) error {
	c.log.Debug("Disconnecting")
	return invokeEmpty(ctx, c, c.request(common.WEB_DISCONNECT))
}

// Connected reports whether the web UI is connected to a daemon.
func (c *Client) Connected(ctx context.Context) (bool, error) {
	return invoke[bool](ctx, c, c.request(common.WEB_CONNECTED))
}

// GetHosts lists the daemons the web UI knows about.
func (c *Client) GetHosts(ctx context.Context) ([]Host, error) {
	return invoke[[]Host](ctx, c, c.request(common.WEB_GET_HOSTS))
}

// Connect attaches the web UI to the daemon with the given host id.
func (c *Client) Connect(ctx context.Context, hostID string) error {
	return invokeEmpty(ctx, c, c.request(common.WEB_CONNECT).AddParam(hostID))
}

// GetVersion returns the daemon version.
func (c *Client) GetVersion(ctx context.Context) (string, error) {
	c.log.Debug("Getting Version")
	return invoke[string](ctx, c, c.request(common.DAEMON_GET_VERSION))
}

// AddTorrentFile adds a torrent from its base64 encoded content and
// returns its id.
func (c *Client) AddTorrentFile(ctx context.Context, filename, filedump string, opts *Options) (string, error) {
	c.log.Debug("Adding Torrent File %s", filename)
	b := c.request(common.CORE_ADD_TORRENT_FILE).
		AddParams(filename, filedump, optionsParam(opts))
	return invoke[string](ctx, c, b)
}

// AddTorrentFileAsync is AddTorrentFile through the daemon's deferred path.
// A nil saveState leaves the daemon default.
func (c *Client) AddTorrentFileAsync(ctx context.Context, filename, filedump string, opts *Options, saveState *bool) (string, error) {
	c.log.Debug("Adding Torrent File %s (async)", filename)
	b := c.request(common.CORE_ADD_TORRENT_FILE_ASYNC).
		AddParams(filename, filedump, optionsParam(opts))
	if saveState != nil {
		b.AddParam(*saveState)
	}
	return invoke[string](ctx, c, b)
}

// AddTorrentFiles adds several torrents in one call.
func (c *Client) AddTorrentFiles(ctx context.Context, files []TorrentFile) error {
	return invokeEmpty(ctx, c, c.request(common.CORE_ADD_TORRENT_FILES).AddParam(files))
}

// AddTorrentURL has the daemon download a .torrent from url. headers are
// sent along with that download and must be ASCII.
func (c *Client) AddTorrentURL(ctx context.Context, url string, opts *Options, headers http.Header) (string, error) {
	c.log.Debug("Adding torrent from url")
	b := c.request(common.CORE_ADD_TORRENT_URL).AddParams(url, optionsParam(opts))
	if headers != nil {
		m := make(map[string]string, len(headers))
		for k, vals := range headers {
			v := strings.Join(vals, ", ")
			if !isASCII(k) || !isASCII(v) {
				return "", ErrIncorrectHeaderFormat
			}
			m[k] = v
		}
		b.AddParam(m)
	}
	return invoke[string](ctx, c, b)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

// AddTorrentMagnet adds a torrent from a magnet link and returns its id.
// If the torrent is already in the session the existing id is returned
// instead of an error.
func (c *Client) AddTorrentMagnet(ctx context.Context, uri string, opts *Options) (string, error) {
	c.log.Debug("Adding Torrent from magnet")
	id, err := invoke[string](ctx, c, c.request(common.CORE_ADD_TORRENT_MAGNET).AddParams(uri, optionsParam(opts)))
	var dup *DuplicateTorrentError
	if errors.As(err, &dup) {
		c.log.Debug("torrent %s already in session", dup.ID)
		return dup.ID, nil
	}
	return id, err
}

// PrefetchMagnetMetadata resolves the metadata of a magnet link without
// adding it. A zero timeout leaves the daemon default.
func (c *Client) PrefetchMagnetMetadata(ctx context.Context, uri string, timeout time.Duration) (*MagnetMetadata, error) {
	c.log.Debug("Prefetching Magnet Metadata")
	b := c.request(common.CORE_PREFETCH_MAGNET_META).AddParam(uri)
	if timeout > 0 {
		b.AddParam(int64(timeout / time.Second))
	}
	m, err := invoke[MagnetMetadata](ctx, c, b)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RemoveTorrent removes one torrent, optionally with its data.
func (c *Client) RemoveTorrent(ctx context.Context, id string, removeData bool) (bool, error) {
	c.log.Debug("Removing Torrent")
	return invoke[bool](ctx, c, c.request(common.CORE_REMOVE_TORRENT).AddParams(id, removeData))
}

// RemoveTorrents removes several torrents. Torrents the daemon could not
// remove are returned with their classified errors.
func (c *Client) RemoveTorrents(ctx context.Context, ids []string, removeData bool) ([]TorrentFailure, error) {
	c.log.Debug("Removing Torrents")
	env, err := c.Call(ctx, c.request(common.CORE_REMOVE_TORRENTS).AddParams(ids, removeData))
	if err != nil {
		return nil, err
	}
	pairs, err := Decode[[][2]string](env, c.classifier).IntoResult()
	if IsEmptyResult(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var failures []TorrentFailure
	for _, p := range pairs {
		failures = append(failures, TorrentFailure{ID: p[0], Err: c.classifier.Classify(p[1])})
	}
	return failures, nil
}

// GetSessionStatus returns the requested session status keys.
func (c *Client) GetSessionStatus(ctx context.Context, keys []string) (map[string]any, error) {
	return invoke[map[string]any](ctx, c, c.request(common.CORE_GET_SESSION_STATUS).AddParam(keys))
}

func (c *Client) idsCall(ctx context.Context, method string, ids []string) error {
	return invokeEmpty(ctx, c, c.request(method).AddParam(ids))
}

// ForceReannounce announces the torrents to their trackers now.
func (c *Client) ForceReannounce(ctx context.Context, ids []string) error {
	return c.idsCall(ctx, common.CORE_FORCE_REANNOUNCE, ids)
}

// PauseTorrent pauses one torrent.
func (c *Client) PauseTorrent(ctx context.Context, id string) error {
	c.log.Debug("Pausing Torrent")
	return invokeEmpty(ctx, c, c.request(common.CORE_PAUSE_TORRENT).AddParam(id))
}

// PauseTorrents pauses several torrents.
func (c *Client) PauseTorrents(ctx context.Context, ids []string) error {
	c.log.Debug("Pausing Torrents")
	return c.idsCall(ctx, common.CORE_PAUSE_TORRENTS, ids)
}

// ResumeTorrent resumes one torrent.
func (c *Client) ResumeTorrent(ctx context.Context, id string) error {
	c.log.Debug("Resume Torrent")
	return invokeEmpty(ctx, c, c.request(common.CORE_RESUME_TORRENT).AddParam(id))
}

// ResumeTorrents resumes several torrents.
func (c *Client) ResumeTorrents(ctx context.Context, ids []string) error {
	c.log.Debug("Resuming Torrents")
	return c.idsCall(ctx, common.CORE_RESUME_TORRENTS, ids)
}

// ConnectPeer asks the daemon to connect the torrent to a peer.
func (c *Client) ConnectPeer(ctx context.Context, id string, ip net.IP, port uint16) error {
	c.log.Debug("Connecting to Peer")
	return invokeEmpty(ctx, c, c.request(common.CORE_CONNECT_PEER).AddParams(id, ip.String(), port))
}

// MoveStorage moves the torrents' data to dest.
func (c *Client) MoveStorage(ctx context.Context, ids []string, dest string) error {
	return invokeEmpty(ctx, c, c.request(common.CORE_MOVE_STORAGE).AddParams(ids, dest))
}

// PauseSession pauses every torrent.
func (c *Client) PauseSession(ctx context.Context) error {
	c.log.Debug("Pausing Session")
	return invokeEmpty(ctx, c, c.request(common.CORE_PAUSE_SESSION))
}

// ResumeSession resumes the session.
func (c *Client) ResumeSession(ctx context.Context) error {
	c.log.Debug("Resuming Session")
	return invokeEmpty(ctx, c, c.request(common.CORE_RESUME_SESSION))
}

// IsSessionPaused reports whether the session is paused.
func (c *Client) IsSessionPaused(ctx context.Context) (bool, error) {
	c.log.Debug("Checking if session is paused")
	return invoke[bool](ctx, c, c.request(common.CORE_IS_SESSION_PAUSED))
}

// GetTorrentStatus returns the requested status keys of one torrent. With
// diff set the daemon only returns keys changed since the last call.
func (c *Client) GetTorrentStatus(ctx context.Context, id string, keys []string, diff *bool) (TorrentStatus, error) {
	c.log.Debug("Getting torrent status")
	b := c.request(common.CORE_GET_TORRENT_STATUS).AddParams(id, keys)
	if diff != nil {
		b.AddParam(*diff)
	}
	return invoke[TorrentStatus](ctx, c, b)
}

// GetTorrentsStatus returns the requested status keys of every torrent
// matching filter, keyed by torrent id.
func (c *Client) GetTorrentsStatus(ctx context.Context, filter map[string]any, keys []string, diff *bool) (map[string]TorrentStatus, error) {
	if filter == nil {
		filter = map[string]any{}
	}
	b := c.request(common.CORE_GET_TORRENTS_STATUS).AddParams(filter, keys)
	if diff != nil {
		b.AddParam(*diff)
	}
	return invoke[map[string]TorrentStatus](ctx, c, b)
}

// GetFilterTree returns filter categories with hit counts. showZeroHits is
// only sent along with hideCat, defaulting to true.
func (c *Client) GetFilterTree(ctx context.Context, showZeroHits *bool, hideCat []string) (map[string][]FilterItem, error) {
	b := c.request(common.CORE_GET_FILTER_TREE)
	if hideCat != nil {
		szh := true
		if showZeroHits != nil {
			szh = *showZeroHits
		}
		b.AddParams(szh, hideCat)
	}
	return invoke[map[string][]FilterItem](ctx, c, b)
}

// GetSessionState returns the ids of every torrent in the session.
func (c *Client) GetSessionState(ctx context.Context) ([]string, error) {
	c.log.Debug("Getting session state")
	return invoke[[]string](ctx, c, c.request(common.CORE_GET_SESSION_STATE))
}

// GetConfig returns the whole daemon configuration.
func (c *Client) GetConfig(ctx context.Context) (map[string]any, error) {
	c.log.Debug("Getting config")
	return invoke[map[string]any](ctx, c, c.request(common.CORE_GET_CONFIG))
}

// GetConfigValue returns one configuration value.
func (c *Client) GetConfigValue(ctx context.Context, key string) (any, error) {
	c.log.Debug("Getting config value %s", key)
	return invoke[any](ctx, c, c.request(common.CORE_GET_CONFIG_VALUE).AddParam(key))
}

// GetConfigValues returns several configuration values.
func (c *Client) GetConfigValues(ctx context.Context, keys []string) (map[string]any, error) {
	return invoke[map[string]any](ctx, c, c.request(common.CORE_GET_CONFIG_VALUES).AddParam(keys))
}

// SetConfig updates configuration values.
func (c *Client) SetConfig(ctx context.Context, config map[string]any) error {
	return invokeEmpty(ctx, c, c.request(common.CORE_SET_CONFIG).AddParam(config))
}

// GetListenPort returns the port the daemon listens on for peers.
func (c *Client) GetListenPort(ctx context.Context) (uint16, error) {
	return invoke[uint16](ctx, c, c.request(common.CORE_GET_LISTEN_PORT))
}

// GetProxy returns the daemon's proxy settings.
func (c *Client) GetProxy(ctx context.Context) (map[string]any, error) {
	return invoke[map[string]any](ctx, c, c.request(common.CORE_GET_PROXY))
}

func (c *Client) GetAvailablePlugins(ctx context.Context) ([]string, error) {
	return invoke[[]string](ctx, c, c.request(common.CORE_GET_AVAILABLE_PLUGINS))
}

func (c *Client) GetEnabledPlugins(ctx context.Context) ([]string, error) {
	return invoke[[]string](ctx, c, c.request(common.CORE_GET_ENABLED_PLUGINS))
}

func (c *Client) EnablePlugin(ctx context.Context, plugin string) (bool, error) {
	return invoke[bool](ctx, c, c.request(common.CORE_ENABLE_PLUGIN).AddParam(plugin))
}

func (c *Client) DisablePlugin(ctx context.Context, plugin string) (bool, error) {
	return invoke[bool](ctx, c, c.request(common.CORE_DISABLE_PLUGIN).AddParam(plugin))
}

// UploadPlugin installs a plugin egg. data is sent base64 encoded.
func (c *Client) UploadPlugin(ctx context.Context, filename string, data []byte) error {
	return invokeEmpty(ctx, c, c.request(common.CORE_UPLOAD_PLUGIN).AddParams(filename, data))
}

func (c *Client) RescanPlugins(ctx context.Context) error {
	c.log.Debug("Rescanning Plugins")
	return invokeEmpty(ctx, c, c.request(common.CORE_RESCAN_PLUGINS))
}

// ForceRecheck rechecks the torrents' data.
func (c *Client) ForceRecheck(ctx context.Context, ids []string) error {
	return c.idsCall(ctx, common.CORE_FORCE_RECHECK, ids)
}

// SetTorrentOptions applies opts to every torrent in ids.
func (c *Client) SetTorrentOptions(ctx context.Context, ids []string, opts *Options) error {
	return invokeEmpty(ctx, c, c.request(common.CORE_SET_TORRENT_OPTIONS).AddParams(ids, optionsParam(opts)))
}

// SetTorrentTrackers replaces the trackers of a torrent.
func (c *Client) SetTorrentTrackers(ctx context.Context, id string, trackers []TorrentTracker) error {
	return invokeEmpty(ctx, c, c.request(common.CORE_SET_TRACKERS).AddParams(id, trackers))
}

// GetMagnetURI returns the magnet link of a torrent.
func (c *Client) GetMagnetURI(ctx context.Context, id string) (string, error) {
	c.log.Debug("Getting Magnet Uri of %s", id)
	return invoke[string](ctx, c, c.request(common.CORE_GET_MAGNET_URI).AddParam(id))
}

// GetPathSize returns the size of path on the daemon host. found is false
// when the path does not exist.
func (c *Client) GetPathSize(ctx context.Context, path string) (size uint64, found bool, err error) {
	c.log.Debug("Getting Path Size")
	n, err := invoke[int64](ctx, c, c.request(common.CORE_GET_PATH_SIZE).AddParam(path))
	if err != nil {
		return 0, false, err
	}
	switch {
	case n == -1:
		return 0, false, nil
	case n < 0:
		return 0, false, fmt.Errorf("%w: path size %d", ErrNegativeValue, n)
	}
	return uint64(n), true, nil
}

// CreateTorrent has the daemon build a .torrent, optionally adding it.
func (c *Client) CreateTorrent(ctx context.Context, t *Torrent, addToSession bool) error {
	b := c.request(common.CORE_CREATE_TORRENT).AddParams(t.params()...).AddParam(addToSession)
	return invokeEmpty(ctx, c, b)
}

// RenameFiles renames files within a torrent.
func (c *Client) RenameFiles(ctx context.Context, id string, renames []FileRename) error {
	return invokeEmpty(ctx, c, c.request(common.CORE_RENAME_FILES).AddParams(id, renames))
}

// RenameFolder renames a folder within a torrent.
func (c *Client) RenameFolder(ctx context.Context, id, folder, newFolder string) error {
	return invokeEmpty(ctx, c, c.request(common.CORE_RENAME_FOLDER).AddParams(id, folder, newFolder))
}

func (c *Client) QueueTop(ctx context.Context, ids []string) error {
	return c.idsCall(ctx, common.CORE_QUEUE_TOP, ids)
}

func (c *Client) QueueUp(ctx context.Context, ids []string) error {
	return c.idsCall(ctx, common.CORE_QUEUE_UP, ids)
}

func (c *Client) QueueDown(ctx context.Context, ids []string) error {
	return c.idsCall(ctx, common.CORE_QUEUE_DOWN, ids)
}

func (c *Client) QueueBottom(ctx context.Context, ids []string) error {
	return c.idsCall(ctx, common.CORE_QUEUE_BOTTOM, ids)
}

// Glob expands a path pattern on the daemon host.
func (c *Client) Glob(ctx context.Context, path string) ([]string, error) {
	return invoke[[]string](ctx, c, c.request(common.CORE_GLOB).AddParam(path))
}

// TestListenPort checks whether the peer port is reachable from outside.
func (c *Client) TestListenPort(ctx context.Context) (bool, error) {
	c.log.Debug("Test Listen Port")
	return invoke[bool](ctx, c, c.request(common.CORE_TEST_LISTEN_PORT))
}

// GetFreeSpace returns the free bytes at path, or at the download location
// when path is empty.
func (c *Client) GetFreeSpace(ctx context.Context, path string) (int64, error) {
	b := c.request(common.CORE_GET_FREE_SPACE)
	if path != "" {
		b.AddParam(path)
	}
	return invoke[int64](ctx, c, b)
}

// ExternalIP returns the daemon's external address as seen by peers.
func (c *Client) ExternalIP(ctx context.Context) (net.IP, error) {
	s, err := invoke[string](ctx, c, c.request(common.CORE_GET_EXTERNAL_IP))
	if err != nil {
		return nil, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("%w: invalid ip %q", ErrSchema, s)
	}
	return ip, nil
}

func (c *Client) GetLibtorrentVersion(ctx context.Context) (string, error) {
	return invoke[string](ctx, c, c.request(common.CORE_GET_LIBTORRENT_VERSION))
}

// GetCompletionPaths returns path completions for args["completion_text"].
func (c *Client) GetCompletionPaths(ctx context.Context, args map[string]any) (map[string]any, error) {
	return invoke[map[string]any](ctx, c, c.request(common.CORE_GET_COMPLETION_PATHS).AddParam(args))
}

func (c *Client) GetKnownAccounts(ctx context.Context) ([]Account, error) {
	return invoke[[]Account](ctx, c, c.request(common.CORE_GET_KNOWN_ACCOUNTS))
}

func (c *Client) GetAuthLevelsMappings(ctx context.Context) (*AuthLevels, error) {
	a, err := invoke[AuthLevels](ctx, c, c.request(common.CORE_GET_AUTH_LEVELS_MAPPING))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateAccount(ctx context.Context, a Account) (bool, error) {
	return invoke[bool](ctx, c, c.request(common.CORE_CREATE_ACCOUNT).AddParams(a.Username, a.Password, a.AuthLevel))
}

func (c *Client) UpdateAccount(ctx context.Context, a Account) (bool, error) {
	return invoke[bool](ctx, c, c.request(common.CORE_UPDATE_ACCOUNT).AddParams(a.Username, a.Password, a.AuthLevel))
}

func (c *Client) RemoveAccount(ctx context.Context, username string) (bool, error) {
	return invoke[bool](ctx, c, c.request(common.CORE_REMOVE_ACCOUNT).AddParam(username))
}
