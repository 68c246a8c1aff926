package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/cmd/common"
	coreCommon "github.com/warpdl/delugectl/common"
	"github.com/warpdl/delugectl/internal/config"
	"github.com/warpdl/delugectl/pkg/credman"
	"github.com/warpdl/delugectl/pkg/credman/keyring"
	"github.com/warpdl/delugectl/pkg/delugerpc"
	"github.com/warpdl/delugectl/pkg/logger"
)

var buildArgs BuildArgs

// fs is where .torrent files are read from.
var fs afero.Fs = afero.NewOsFs()

// logOutput receives console log lines.
var logOutput io.Writer = os.Stderr

var errNoPassword = errors.New("no password configured; run \"delugectl login\" or set " + coreCommon.PasswordEnv)

// runtimeEnv is everything a command needs to talk to the daemon.
type runtimeEnv struct {
	cfg       *config.Config
	client    *delugerpc.Client
	transport *delugerpc.HTTPTransport
	store     *credman.SessionStore
	keys      *keyring.Keyring
	log       logger.Logger
	host      string
}

// fileLogger closes its log file on Close.
type fileLogger struct {
	*logger.StandardLogger
	f *os.File
}

func (l *fileLogger) Close() error {
	return l.f.Close()
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if u := ctx.GlobalString("url"); u != "" {
		cfg.Daemon.URL = u
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if ctx.GlobalBool("debug") {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	console := logger.NewStandardLogger(log.New(logOutput, "delugectl: ", 0))
	console.SetDebug(cfg.Log.Debug)
	if cfg.Log.File == "" {
		return console, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	file := logger.NewStandardLogger(log.New(f, "", log.LstdFlags))
	file.SetDebug(true)
	return logger.NewMultiLogger(console, &fileLogger{StandardLogger: file, f: f}), nil
}

// sessionKey returns the session database key, from the environment when
// set and otherwise from the keyring or the key file next to the config.
func sessionKey(l logger.Logger, cfg *config.Config, kr *keyring.Keyring) ([]byte, error) {
	if v := os.Getenv(coreCommon.SessionKeyEnv); v != "" {
		return credman.ParseHexKey(v)
	}
	return credman.LoadKey(l, kr, keyring.NewFileKeyStore(cfg.Dir))
}

func openEnv(ctx *cli.Context) (*runtimeEnv, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	l, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	e := &runtimeEnv{cfg: cfg, keys: keyring.NewKeyring(), log: l}
	if u, err := url.Parse(cfg.Daemon.URL); err == nil {
		e.host = u.Host
	}
	key, err := sessionKey(l, cfg, e.keys)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("session key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Session.DBPath), 0o700); err != nil {
		l.Close()
		return nil, err
	}
	e.store, err = credman.OpenSessionStore(cfg.Session.DBPath, key, cfg.Session.TTL)
	if err != nil {
		l.Close()
		return nil, err
	}
	e.client, err = delugerpc.Dial(cfg.Daemon.URL, &delugerpc.HTTPOptions{
		Proxy:   cfg.Daemon.Proxy,
		Timeout: cfg.Daemon.Timeout,
		Cookies: e.store,
	}, delugerpc.WithLogger(l))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.transport = e.client.Transport().(*delugerpc.HTTPTransport)
	return e, nil
}

func (e *runtimeEnv) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Warning("close session store: %v", err)
		}
	}
	e.log.Close()
}

// password returns the configured password, falling back to the one
// stored by "login".
func (e *runtimeEnv) password() (string, error) {
	if e.cfg.Daemon.Password != "" {
		return e.cfg.Daemon.Password, nil
	}
	pw, err := e.keys.GetPassword(e.host)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", errNoPassword
	}
	if err != nil {
		return "", fmt.Errorf("keyring: %w", err)
	}
	return pw, nil
}

// connect logs in with password and makes sure the web UI is attached to
// a daemon, picking the first known host when it is not.
func (e *runtimeEnv) connect(ctx context.Context, password string) error {
	if err := e.client.Login(ctx, password); err != nil {
		return err
	}
	connected, err := e.client.Connected(ctx)
	if err != nil {
		return err
	}
	if connected {
		return nil
	}
	hosts, err := e.client.GetHosts(ctx)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		return errors.New("the web UI knows no daemon hosts")
	}
	e.log.Info("connecting web UI to %s:%d", hosts[0].Address, hosts[0].Port)
	return e.client.Connect(ctx, hosts[0].ID)
}

// isAuthError reports whether the daemon rejected a call for lack of a
// valid session.
func isAuthError(err error) bool {
	var oe *delugerpc.OtherError
	return errors.As(err, &oe) && strings.Contains(oe.Message, "Not authenticated")
}

// authed runs fn, logging in and retrying once when the stored session
// is missing or has expired.
func (e *runtimeEnv) authed(ctx context.Context, fn func() error) error {
	err := fn()
	if !isAuthError(err) {
		return err
	}
	e.log.Debug("session not authenticated, logging in")
	pw, perr := e.password()
	if perr != nil {
		return perr
	}
	if err := e.connect(ctx, pw); err != nil {
		return err
	}
	return fn()
}

// withEnv opens the environment for one command. Errors opening it are
// printed under the "open" action.
func withEnv(ctx *cli.Context, cmd string, fn func(e *runtimeEnv) error) error {
	e, err := openEnv(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, cmd, "open", err)
		return nil
	}
	defer e.Close()
	return fn(e)
}
