package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/cmd/common"
)

func sessionPause(ctx *cli.Context) error {
	return sessionCall(ctx, "pause", "Session paused", func(cctx context.Context, e *runtimeEnv) error {
		return e.client.PauseSession(cctx)
	})
}

func sessionResume(ctx *cli.Context) error {
	return sessionCall(ctx, "resume", "Session resumed", func(cctx context.Context, e *runtimeEnv) error {
		return e.client.ResumeSession(cctx)
	})
}

func sessionCall(ctx *cli.Context, action, done string, call func(context.Context, *runtimeEnv) error) error {
	return withEnv(ctx, "session", func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		if err := e.authed(cctx, func() error { return call(cctx, e) }); err != nil {
			common.PrintRuntimeErr(ctx, "session", action, err)
			return nil
		}
		fmt.Println(done)
		return nil
	})
}

func sessionState(ctx *cli.Context) error {
	return withEnv(ctx, "session", func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		var ids []string
		err := e.authed(cctx, func() (err error) {
			ids, err = e.client.GetSessionState(cctx)
			return err
		})
		if err != nil {
			common.PrintRuntimeErr(ctx, "session", "state", err)
			return nil
		}
		if len(ids) == 0 {
			fmt.Println("delugectl: no torrents in session")
			return nil
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	})
}
