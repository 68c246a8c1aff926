package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/cmd/common"
	coreCommon "github.com/warpdl/delugectl/common"
	"github.com/warpdl/delugectl/pkg/delugerpc"
)

var errNoIDs = errors.New("no torrent id provided")

var (
	rmFlags = []cli.Flag{
		cli.BoolFlag{
			Name:  "remove-data, d",
			Usage: "also delete the downloaded data",
		},
	}
	statusFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "keys, k",
			Usage: "comma separated status keys to fetch (default: the common set)",
		},
	}
	lsFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "state, s",
			Usage: "only list torrents in this state, e.g. Downloading or Seeding",
		},
	}
)

func torrentIDs(ctx *cli.Context) ([]string, error) {
	ids := []string(ctx.Args())
	if len(ids) == 0 {
		return nil, errNoIDs
	}
	return ids, nil
}

func remove(ctx *cli.Context) error {
	ids, err := torrentIDs(ctx)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	if ids[0] == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	removeData := ctx.Bool("remove-data")
	return withEnv(ctx, "rm", func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		var failed []delugerpc.TorrentFailure
		err := e.authed(cctx, func() (err error) {
			failed, err = e.client.RemoveTorrents(cctx, ids, removeData)
			return err
		})
		if err != nil {
			common.PrintRuntimeErr(ctx, "rm", "remove_torrents", err)
			return nil
		}
		bad := make(map[string]bool, len(failed))
		for _, f := range failed {
			bad[f.ID] = true
			common.PrintRuntimeErr(ctx, "rm", f.ID, f.Err)
		}
		for _, id := range ids {
			if !bad[id] {
				fmt.Printf("Removed: %s\n", id)
			}
		}
		return nil
	})
}

func pause(ctx *cli.Context) error {
	return torrentsAction(ctx, "pause", "Paused", func(cctx context.Context, e *runtimeEnv, ids []string) error {
		return e.client.PauseTorrents(cctx, ids)
	})
}

func resume(ctx *cli.Context) error {
	return torrentsAction(ctx, "resume", "Resumed", func(cctx context.Context, e *runtimeEnv, ids []string) error {
		return e.client.ResumeTorrents(cctx, ids)
	})
}

func set(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	opts, err := optionsFromFlags(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "set", "options", err)
		return nil
	}
	if opts.Len() == 0 {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no torrent option flags provided"))
	}
	return torrentsAction(ctx, "set", "Updated", func(cctx context.Context, e *runtimeEnv, ids []string) error {
		return e.client.SetTorrentOptions(cctx, ids, opts)
	})
}

// torrentsAction runs call against the ids given as arguments and prints
// done followed by each id on success.
func torrentsAction(ctx *cli.Context, cmd, done string, call func(context.Context, *runtimeEnv, []string) error) error {
	ids, err := torrentIDs(ctx)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	if ids[0] == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	return withEnv(ctx, cmd, func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		err := e.authed(cctx, func() error { return call(cctx, e, ids) })
		if err != nil {
			common.PrintRuntimeErr(ctx, cmd, "call", err)
			return nil
		}
		for _, id := range ids {
			fmt.Printf("%s: %s\n", done, id)
		}
		return nil
	})
}

func status(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return common.PrintErrWithCmdHelp(ctx, errNoIDs)
	}
	id := ctx.Args().First()
	if id == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	keys := coreCommon.StatusKeys
	if k := ctx.String("keys"); k != "" {
		keys = strings.Split(k, ",")
	}
	return withEnv(ctx, "status", func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		var st delugerpc.TorrentStatus
		err := e.authed(cctx, func() (err error) {
			st, err = e.client.GetTorrentStatus(cctx, id, keys, nil)
			return err
		})
		if err != nil {
			common.PrintRuntimeErr(ctx, "status", "get_torrent_status", err)
			return nil
		}
		if len(st) == 0 {
			fmt.Printf("delugectl: no torrent with id %s\n", id)
			return nil
		}
		fmt.Println(formatStatus(id, st))
		return nil
	})
}

// formatStatus renders one key per line in key order, with sizes and
// rates made readable.
func formatStatus(id string, st delugerpc.TorrentStatus) string {
	keys := make([]string, 0, len(st))
	width := 0
	for k := range st {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s : %s", width, "id", id)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%-*s : %s", width, k, formatField(k, st))
	}
	return b.String()
}

func formatField(key string, st delugerpc.TorrentStatus) string {
	switch key {
	case "total_wanted", "total_done", "total_size", "total_uploaded":
		return humanize.IBytes(uint64(max(st.GetInt(key), 0)))
	case "download_payload_rate", "upload_payload_rate":
		return humanize.IBytes(uint64(max(st.GetInt(key), 0))) + "/s"
	case "progress":
		return fmt.Sprintf("%.1f%%", st.GetFloat(key))
	case "ratio":
		return fmt.Sprintf("%.3f", st.GetFloat(key))
	}
	return fmt.Sprint(st[key])
}

func list(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	var filter map[string]any
	if s := ctx.String("state"); s != "" {
		filter = map[string]any{"state": s}
	}
	return withEnv(ctx, "list", func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		var all map[string]delugerpc.TorrentStatus
		err := e.authed(cctx, func() (err error) {
			all, err = e.client.GetTorrentsStatus(cctx, filter, coreCommon.StatusKeys, nil)
			return err
		})
		if err != nil {
			common.PrintRuntimeErr(ctx, "list", "get_torrents_status", err)
			return nil
		}
		if len(all) == 0 {
			fmt.Println("delugectl: no torrents found")
			return nil
		}
		fmt.Println(formatList(all))
		return nil
	})
}

func formatList(all map[string]delugerpc.TorrentStatus) string {
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := all[ids[i]].GetString("name"), all[ids[j]].GetString("name")
		if ni != nj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
	const rule = "-------------------------------------------------------------------------------------------"
	txt := "Here are your torrents:"
	txt += "\n\n" + rule
	txt += "\n|                    Id                    |         Name         |    State    | Progress |"
	txt += "\n|------------------------------------------|----------------------|-------------|----------|"
	for _, id := range ids {
		st := all[id]
		perc := fmt.Sprintf("%.1f%%", st.GetFloat("progress"))
		txt += fmt.Sprintf("\n| %s | %s | %s | %s |",
			common.Beaut(id, 40),
			common.Beaut(st.GetString("name"), 20),
			common.Beaut(st.GetString("state"), 11),
			common.Beaut(perc, 8),
		)
	}
	txt += "\n" + rule
	return txt
}
