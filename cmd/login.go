package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/cmd/common"
	"github.com/warpdl/delugectl/pkg/credman/keyring"
)

var (
	loginPassword string
	loginNoStore  bool

	loginFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "password, p",
			Usage:       "web UI password (default: configured or stored password)",
			Destination: &loginPassword,
		},
		cli.BoolFlag{
			Name:        "no-store",
			Usage:       "do not save the password in the OS keyring",
			Destination: &loginNoStore,
		},
	}
)

// cmdContext returns the context commands run under, canceled on
// interrupt.
var cmdContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func login(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	return withEnv(ctx, "login", func(e *runtimeEnv) error {
		pw := loginPassword
		if pw == "" {
			var err error
			pw, err = e.password()
			if err != nil {
				common.PrintRuntimeErr(ctx, "login", "password", err)
				return nil
			}
		}
		cctx, cancel := cmdContext()
		defer cancel()
		if err := e.connect(cctx, pw); err != nil {
			common.PrintRuntimeErr(ctx, "login", "auth", err)
			return nil
		}
		if loginPassword != "" && !loginNoStore {
			if err := e.keys.SetPassword(e.host, pw); err != nil {
				e.log.Warning("could not store password in keyring: %v", err)
			}
		}
		fmt.Printf("Logged in to %s\n", e.cfg.Daemon.URL)
		return nil
	})
}

func logout(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	return withEnv(ctx, "logout", func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		// the daemon may already consider the session gone
		if err := e.client.DeleteSession(cctx); err != nil && !isAuthError(err) {
			e.log.Warning("delete session: %v", err)
		}
		if err := e.transport.ResetSession(); err != nil {
			common.PrintRuntimeErr(ctx, "logout", "reset_session", err)
			return nil
		}
		if err := e.keys.DeletePassword(e.host); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			common.PrintRuntimeErr(ctx, "logout", "delete_password", err)
			return nil
		}
		fmt.Println("Logged out")
		return nil
	})
}
