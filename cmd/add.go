package cmd

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/cmd/common"
	"github.com/warpdl/delugectl/internal/cookies"
	"github.com/warpdl/delugectl/pkg/delugerpc"
	"github.com/warpdl/delugectl/pkg/logger"
)

var addFlags = append([]cli.Flag{
	cli.StringSliceFlag{
		Name:  "header, H",
		Usage: "extra header sent when the daemon fetches a torrent url, as \"Key: Value\"; repeatable",
	},
	cli.StringFlag{
		Name:  "cookies, c",
		Usage: "browser cookie store (Firefox, Chrome or cookies.txt) to send tracker cookies from when fetching a url",
	},
}, optionFlags...)

type addKind int

const (
	addMagnet addKind = iota
	addURL
	addFile
)

func sourceKind(src string) addKind {
	switch {
	case strings.HasPrefix(src, "magnet:"):
		return addMagnet
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return addURL
	}
	return addFile
}

func parseHeaders(raw []string) (http.Header, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	h := make(http.Header, len(raw))
	for _, r := range raw {
		k, v, ok := strings.Cut(r, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Key: Value\"", r)
		}
		h.Add(k, strings.TrimSpace(v))
	}
	return h, nil
}

// urlHeaders adds a Cookie header built from the cookie store to headers,
// unless one was given explicitly.
func urlHeaders(l logger.Logger, store, rawURL string, headers http.Header) (http.Header, error) {
	if store == "" || headers.Get("Cookie") != "" {
		return headers, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	found, format, err := cookies.Import(l, store, u)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		l.Warning("no %s cookies for %s", format, u.Hostname())
		return headers, nil
	}
	h := headers.Clone()
	if h == nil {
		h = make(http.Header, 1)
	}
	h.Set("Cookie", cookies.Header(found))
	return h, nil
}

// readTorrentFile returns the base name and base64 content of a .torrent
// file.
func readTorrentFile(afs afero.Fs, path string) (string, string, error) {
	data, err := afero.ReadFile(afs, path)
	if err != nil {
		return "", "", err
	}
	if len(data) == 0 {
		return "", "", errors.New("torrent file is empty")
	}
	return filepath.Base(path), base64.StdEncoding.EncodeToString(data), nil
}

func add(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no magnet uri, url or torrent file provided"))
	}
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	opts, err := optionsFromFlags(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "add", "options", err)
		return nil
	}
	headers, err := parseHeaders(ctx.StringSlice("header"))
	if err != nil {
		common.PrintRuntimeErr(ctx, "add", "headers", err)
		return nil
	}
	cookieStore := ctx.String("cookies")
	return withEnv(ctx, "add", func(e *runtimeEnv) error {
		cctx, cancel := cmdContext()
		defer cancel()
		for _, src := range ctx.Args() {
			var (
				id     string
				action string
			)
			err := e.authed(cctx, func() (err error) {
				switch sourceKind(src) {
				case addMagnet:
					action = "add_magnet"
					id, err = e.client.AddTorrentMagnet(cctx, src, opts)
				case addURL:
					action = "cookies"
					h, cerr := urlHeaders(e.log, cookieStore, src, headers)
					if cerr != nil {
						return cerr
					}
					action = "add_url"
					id, err = e.client.AddTorrentURL(cctx, src, opts, h)
				default:
					action = "add_file"
					name, dump, rerr := readTorrentFile(fs, src)
					if rerr != nil {
						action = "read_file"
						return rerr
					}
					id, err = e.client.AddTorrentFile(cctx, name, dump, opts)
				}
				return err
			})
			var dup *delugerpc.DuplicateTorrentError
			switch {
			case errors.As(err, &dup):
				fmt.Printf("Already in session: %s\n", dup.ID)
			case err != nil:
				common.PrintRuntimeErr(ctx, "add", action, err)
			default:
				fmt.Printf("Added: %s\n", id)
			}
		}
		return nil
	})
}
