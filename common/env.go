// Package common provides shared constants used by the delugectl client
// library, the JSON-RPC bridge and the command line front-end.
package common

// Environment variable names for configuration.
const (
	// ConfigPathEnv overrides the location of config.toml.
	ConfigPathEnv = "DELUGECTL_CONFIG"

	// DaemonURLEnv is the base URL of the Deluge web UI, e.g. http://127.0.0.1:8112.
	DaemonURLEnv = "DELUGECTL_URL"

	// PasswordEnv is the Deluge web UI password.
	PasswordEnv = "DELUGECTL_PASSWORD"

	// ProxyEnv is an http, https or socks5 proxy URL used to reach the daemon.
	ProxyEnv = "DELUGECTL_PROXY"

	// RPCSecretEnv is the bearer token required by the JSON-RPC bridge.
	RPCSecretEnv = "DELUGECTL_RPC_SECRET"

	// RPCListenEnv is the address the JSON-RPC bridge listens on.
	RPCListenEnv = "DELUGECTL_RPC_LISTEN"

	// SessionKeyEnv is a hex encoded 32 byte key for the session database,
	// used instead of the OS keyring.
	SessionKeyEnv = "DELUGECTL_SESSION_KEY"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "DELUGECTL_DEBUG"
)
