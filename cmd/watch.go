package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/warpdl/delugectl/cmd/common"
	coreCommon "github.com/warpdl/delugectl/common"
	"github.com/warpdl/delugectl/pkg/delugerpc"
)

var (
	watchInterval time.Duration

	watchFlags = []cli.Flag{
		cli.DurationFlag{
			Name:        "interval, i",
			Usage:       "time between status polls",
			Value:       time.Second,
			Destination: &watchInterval,
		},
	}
)

// progressOutput returns where progress bars are drawn. It is looked up
// per call so tests that swap os.Stdout see the bars.
var progressOutput = func() io.Writer { return os.Stdout }

var watchKeys = []string{"name", "state", "progress"}

func watch(ctx *cli.Context) error {
	ids, err := torrentIDs(ctx)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	if ids[0] == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	interval := watchInterval
	if interval <= 0 {
		interval = time.Second
	}
	return withEnv(ctx, "watch", func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		if err := watchTorrents(cctx, e, ids, interval); err != nil {
			common.PrintRuntimeErr(ctx, "watch", "get_torrents_status", err)
		}
		return nil
	})
}

// watchTorrents draws a bar per torrent and returns once every torrent is
// seeding or gone, or ctx is done.
func watchTorrents(ctx context.Context, e *runtimeEnv, ids []string, interval time.Duration) error {
	p := mpb.NewWithContext(ctx, mpb.WithOutput(progressOutput()), mpb.WithWidth(40))
	bars := make(map[string]*mpb.Bar, len(ids))
	var done []string
	finish := func(id string, bar *mpb.Bar, complete bool) {
		if complete {
			bar.SetCurrent(common.ProgressTotal)
		} else {
			bar.Abort(false)
		}
		delete(bars, id)
	}

	filter := map[string]any{"id": ids}
	first := true
	for {
		var st map[string]delugerpc.TorrentStatus
		err := e.authed(ctx, func() (err error) {
			st, err = e.client.GetTorrentsStatus(ctx, filter, watchKeys, nil)
			return err
		})
		if err != nil {
			for id, bar := range bars {
				finish(id, bar, false)
			}
			p.Wait()
			return err
		}
		if first {
			for _, id := range ids {
				s, ok := st[id]
				if !ok {
					fmt.Fprintf(progressOutput(), "delugectl: no torrent with id %s\n", id)
					continue
				}
				name := s.GetString("name")
				if name == "" {
					name = id
				}
				bars[id] = common.InitTorrentBar(p, name)
			}
			first = false
		}
		for id, bar := range bars {
			s, ok := st[id]
			switch {
			case !ok:
				finish(id, bar, false)
			case s.GetString("state") == coreCommon.STATE_SEEDING || s.GetFloat("progress") >= 100:
				finish(id, bar, true)
				done = append(done, id)
			default:
				bar.SetCurrent(common.ProgressValue(s.GetFloat("progress")))
			}
		}
		if len(bars) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			for id, bar := range bars {
				finish(id, bar, false)
			}
			p.Wait()
			return nil
		case <-time.After(interval):
		}
	}
	p.Wait()
	for _, id := range done {
		fmt.Printf("Complete: %s\n", id)
	}
	return nil
}
