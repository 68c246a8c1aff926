package cmd

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/cmd/common"
	coreCommon "github.com/warpdl/delugectl/common"
	"github.com/warpdl/delugectl/internal/server"
)

var serveFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "listen, l",
		Usage: "address to listen on, overrides rpc.listen",
	},
	cli.DurationFlag{
		Name:  "poll-interval",
		Usage: "how often torrent states are polled for notifications (0 disables)",
		Value: 5 * time.Second,
	},
}

var errNoRPCSecret = errors.New("rpc.secret is empty; set it in config.toml or " + coreCommon.RPCSecretEnv)

// serveListen is swapped in tests to learn the bound address.
var serveListen = func(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

func serve(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	return withEnv(ctx, "serve", func(e *runtimeEnv) error {
		if e.cfg.RPC.Secret == "" {
			common.PrintRuntimeErr(ctx, "serve", "config", errNoRPCSecret)
			return nil
		}
		addr := e.cfg.RPC.Listen
		if l := ctx.String("listen"); l != "" {
			addr = l
		}
		cctx, cancel := cmdContext()
		defer cancel()
		if err := runBridge(cctx, e, addr, ctx.Duration("poll-interval")); err != nil {
			common.PrintRuntimeErr(ctx, "serve", "run", err)
		}
		return nil
	})
}

// runBridge logs in, then serves the JSON-RPC bridge on addr until ctx is
// done. A positive poll interval also runs the state change watcher.
func runBridge(ctx context.Context, e *runtimeEnv, addr string, poll time.Duration) error {
	d := &authedDeluge{e: e}
	if _, err := d.GetVersion(ctx); err != nil {
		return err
	}
	rs := server.NewRPCServer(&server.RPCConfig{
		Secret:    e.cfg.RPC.Secret,
		Version:   buildArgs.Version,
		Commit:    buildArgs.Commit,
		BuildType: buildArgs.BuildType,
	}, d, e.log)
	defer rs.Close()

	if poll > 0 {
		w := server.NewWatcher(d, rs.Notifier(), poll, e.log)
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.log.Warning("watcher stopped: %v", err)
			}
		}()
	}
	l, err := serveListen(addr)
	if err != nil {
		return err
	}
	return rs.Serve(ctx, l)
}
