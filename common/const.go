package common

// Method is a Deluge web JSON-RPC method name.
type Method = string

const (
	AUTH_LOGIN          Method = "auth.login"
	AUTH_DELETE_SESSION Method = "auth.delete_session"

	WEB_CONNECT    Method = "web.connect"
	WEB_CONNECTED  Method = "web.connected"
	WEB_DISCONNECT Method = "web.disconnect"
	WEB_GET_HOSTS  Method = "web.get_hosts"

	DAEMON_GET_VERSION Method = "daemon.get_version"

	CORE_ADD_TORRENT_FILE        Method = "core.add_torrent_file"
	CORE_ADD_TORRENT_FILE_ASYNC  Method = "core.add_torrent_file_async"
	CORE_ADD_TORRENT_FILES       Method = "core.add_torrent_files"
	CORE_ADD_TORRENT_URL         Method = "core.add_torrent_url"
	CORE_ADD_TORRENT_MAGNET      Method = "core.add_torrent_magnet"
	CORE_PREFETCH_MAGNET_META    Method = "core.prefetch_magnet_metadata"
	CORE_REMOVE_TORRENT          Method = "core.remove_torrent"
	CORE_REMOVE_TORRENTS         Method = "core.remove_torrents"
	CORE_GET_SESSION_STATUS      Method = "core.get_session_status"
	CORE_FORCE_REANNOUNCE        Method = "core.force_reannounce"
	CORE_PAUSE_TORRENT           Method = "core.pause_torrent"
	CORE_PAUSE_TORRENTS          Method = "core.pause_torrents"
	CORE_RESUME_TORRENT          Method = "core.resume_torrent"
	CORE_RESUME_TORRENTS         Method = "core.resume_torrents"
	CORE_CONNECT_PEER            Method = "core.connect_peer"
	CORE_MOVE_STORAGE            Method = "core.move_storage"
	CORE_PAUSE_SESSION           Method = "core.pause_session"
	CORE_RESUME_SESSION          Method = "core.resume_session"
	CORE_IS_SESSION_PAUSED       Method = "core.is_session_paused"
	CORE_GET_TORRENT_STATUS      Method = "core.get_torrent_status"
	CORE_GET_TORRENTS_STATUS     Method = "core.get_torrents_status"
	CORE_GET_FILTER_TREE         Method = "core.get_filter_tree"
	CORE_GET_SESSION_STATE       Method = "core.get_session_state"
	CORE_GET_CONFIG              Method = "core.get_config"
	CORE_GET_CONFIG_VALUE        Method = "core.get_config_value"
	CORE_GET_CONFIG_VALUES       Method = "core.get_config_values"
	CORE_SET_CONFIG              Method = "core.set_config"
	CORE_GET_LISTEN_PORT         Method = "core.get_listen_port"
	CORE_GET_PROXY               Method = "core.get_proxy"
	CORE_GET_AVAILABLE_PLUGINS   Method = "core.get_available_plugins"
	CORE_GET_ENABLED_PLUGINS     Method = "core.get_enabled_plugins"
	CORE_ENABLE_PLUGIN           Method = "core.enable_plugin"
	CORE_DISABLE_PLUGIN          Method = "core.disable_plugin"
	CORE_UPLOAD_PLUGIN           Method = "core.upload_plugin"
	CORE_RESCAN_PLUGINS          Method = "core.rescan_plugins"
	CORE_FORCE_RECHECK           Method = "core.force_recheck"
	CORE_SET_TORRENT_OPTIONS     Method = "core.set_torrent_options"
	CORE_SET_TRACKERS            Method = "core.set_trackers"
	CORE_GET_MAGNET_URI          Method = "core.get_magnet_uri"
	CORE_GET_PATH_SIZE           Method = "core.get_path_size"
	CORE_CREATE_TORRENT          Method = "core.create_torrent"
	CORE_RENAME_FILES            Method = "core.rename_files"
	CORE_RENAME_FOLDER           Method = "core.rename_folder"
	CORE_QUEUE_TOP               Method = "core.queue_top"
	CORE_QUEUE_UP                Method = "core.queue_up"
	CORE_QUEUE_DOWN              Method = "core.queue_down"
	CORE_QUEUE_BOTTOM            Method = "core.queue_bottom"
	CORE_GLOB                    Method = "core.glob"
	CORE_TEST_LISTEN_PORT        Method = "core.test_listen_port"
	CORE_GET_FREE_SPACE          Method = "core.get_free_space"
	CORE_GET_EXTERNAL_IP         Method = "core.get_external_ip"
	CORE_GET_LIBTORRENT_VERSION  Method = "core.get_libtorrent_version"
	CORE_GET_COMPLETION_PATHS    Method = "core.get_completion_paths"
	CORE_GET_KNOWN_ACCOUNTS      Method = "core.get_known_accounts"
	CORE_GET_AUTH_LEVELS_MAPPING Method = "core.get_auth_levels_mappings"
	CORE_CREATE_ACCOUNT          Method = "core.create_account"
	CORE_UPDATE_ACCOUNT          Method = "core.update_account"
	CORE_REMOVE_ACCOUNT          Method = "core.remove_account"
)

// Torrent status keys requested by the front-ends.
var StatusKeys = []string{
	"name",
	"state",
	"progress",
	"total_wanted",
	"total_done",
	"download_payload_rate",
	"upload_payload_rate",
	"eta",
	"save_path",
	"ratio",
}

// Torrent states reported by the daemon.
const (
	STATE_DOWNLOADING = "Downloading"
	STATE_SEEDING     = "Seeding"
	STATE_PAUSED      = "Paused"
	STATE_CHECKING    = "Checking"
	STATE_QUEUED      = "Queued"
	STATE_ERROR       = "Error"
	STATE_MOVING      = "Moving"
)
