// Package config loads delugectl's config.toml and applies environment
// overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/warpdl/delugectl/common"
)

const (
	DefaultDaemonURL = "http://127.0.0.1:8112"
	DefaultTimeout   = 30 * time.Second
	DefaultRPCListen = "127.0.0.1:6810"
	DefaultTTL       = 7 * 24 * time.Hour

	fileName = "config.toml"
	dirName  = "delugectl"
)

// DaemonConfig locates the Deluge web UI.
type DaemonConfig struct {
	URL      string        `toml:"url"`
	Password string        `toml:"password,omitempty"`
	Timeout  time.Duration `toml:"timeout"`
	Proxy    string        `toml:"proxy,omitempty"`
}

// SessionConfig controls where the login cookie is persisted.
type SessionConfig struct {
	DBPath string        `toml:"db_path"`
	TTL    time.Duration `toml:"ttl"`
}

// RPCConfig configures the JSON-RPC bridge started by "serve".
type RPCConfig struct {
	Listen string `toml:"listen"`
	Secret string `toml:"secret,omitempty"`
}

type LogConfig struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file,omitempty"`
}

// Config is the merged configuration.
type Config struct {
	Daemon  DaemonConfig  `toml:"daemon"`
	Session SessionConfig `toml:"session"`
	RPC     RPCConfig     `toml:"rpc"`
	Log     LogConfig     `toml:"log"`

	// Dir holds config.toml and the session database.
	Dir string `toml:"-"`
}

var userConfigDir = os.UserConfigDir

// DefaultDir returns $XDG_CONFIG_HOME/delugectl or the platform equivalent.
func DefaultDir() (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, dirName), nil
}

// Default returns the configuration used when no file exists.
func Default(dir string) *Config {
	return &Config{
		Daemon: DaemonConfig{
			URL:     DefaultDaemonURL,
			Timeout: DefaultTimeout,
		},
		Session: SessionConfig{
			DBPath: filepath.Join(dir, "sessions.db"),
			TTL:    DefaultTTL,
		},
		RPC: RPCConfig{Listen: DefaultRPCListen},
		Dir: dir,
	}
}

// Path resolves the config file location: explicit path, then
// DELUGECTL_CONFIG, then the default directory.
func Path(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(common.ConfigPathEnv); p != "" {
		return p, nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config file at path (resolved with Path), applies
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	path, err := Path(path)
	if err != nil {
		return nil, err
	}
	cfg := Default(filepath.Dir(path))
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	default:
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Session.DBPath = cfg.resolve(cfg.Session.DBPath)
	cfg.Log.File = cfg.resolve(cfg.Log.File)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML over cfg, keeping the values of keys the document
// does not set. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// resolve makes relative paths relative to the config directory.
func (cfg *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Dir, p)
}

func (cfg *Config) applyEnv() error {
	if v := os.Getenv(common.DaemonURLEnv); v != "" {
		cfg.Daemon.URL = v
	}
	if v := os.Getenv(common.PasswordEnv); v != "" {
		cfg.Daemon.Password = v
	}
	if v := os.Getenv(common.ProxyEnv); v != "" {
		cfg.Daemon.Proxy = v
	}
	if v := os.Getenv(common.RPCSecretEnv); v != "" {
		cfg.RPC.Secret = v
	}
	if v := os.Getenv(common.RPCListenEnv); v != "" {
		cfg.RPC.Listen = v
	}
	if v := os.Getenv(common.DebugEnv); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", common.DebugEnv, err)
		}
		cfg.Log.Debug = debug
	}
	return nil
}

// Validate checks the merged configuration.
func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.Daemon.URL)
	if err != nil {
		return fmt.Errorf("daemon.url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("daemon.url %q must be an http(s) URL with a host", cfg.Daemon.URL)
	}
	if cfg.Daemon.Timeout < 0 {
		return fmt.Errorf("daemon.timeout must not be negative")
	}
	if cfg.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative")
	}
	if cfg.Session.DBPath == "" {
		return fmt.Errorf("session.db_path required")
	}
	if cfg.RPC.Listen == "" {
		return fmt.Errorf("rpc.listen required")
	}
	return nil
}

// Encode writes cfg as TOML. Secrets are written as stored.
func (cfg *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Get returns one setting by its dotted key, e.g. "daemon.url".
func (cfg *Config) Get(key string) (string, error) {
	v, ok := cfg.values()[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return v, nil
}

// Keys lists the keys accepted by Get.
func (cfg *Config) Keys() []string {
	vals := cfg.values()
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (cfg *Config) values() map[string]string {
	return map[string]string{
		"daemon.url":      cfg.Daemon.URL,
		"daemon.password": cfg.Daemon.Password,
		"daemon.timeout":  cfg.Daemon.Timeout.String(),
		"daemon.proxy":    cfg.Daemon.Proxy,
		"session.db_path": cfg.Session.DBPath,
		"session.ttl":     cfg.Session.TTL.String(),
		"rpc.listen":      cfg.RPC.Listen,
		"rpc.secret":      cfg.RPC.Secret,
		"log.debug":       strconv.FormatBool(cfg.Log.Debug),
		"log.file":        cfg.Log.File,
	}
}
