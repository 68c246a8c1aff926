package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/pkg/delugerpc"
)

// optionFlags has one flag per torrent option kind, named after the wire
// key with dashes, e.g. --max-connections for max_connections.
var optionFlags = buildOptionFlags()

func optionFlagName(k delugerpc.OptionKind) string {
	return strings.ReplaceAll(k.String(), "_", "-")
}

func buildOptionFlags() []cli.Flag {
	kinds := delugerpc.OptionKinds()
	flags := make([]cli.Flag, 0, len(kinds))
	for _, k := range kinds {
		name := optionFlagName(k)
		usage := "torrent option " + k.String()
		switch k {
		case delugerpc.KindDownloadLocation, delugerpc.KindMoveCompletedPath,
			delugerpc.KindName, delugerpc.KindOwner:
			flags = append(flags, cli.StringFlag{Name: name, Usage: usage})
		case delugerpc.KindMaxConnections, delugerpc.KindMaxUploadSlots:
			flags = append(flags, cli.Int64Flag{Name: name, Usage: usage})
		case delugerpc.KindMaxDownloadSpeed, delugerpc.KindMaxUploadSpeed, delugerpc.KindStopRatio:
			flags = append(flags, cli.Float64Flag{Name: name, Usage: usage})
		case delugerpc.KindFilePriorities:
			flags = append(flags, cli.StringFlag{
				Name:  name,
				Usage: "comma separated file priorities in file order (0 skip, 1 low, 4 normal, 7 high)",
			})
		case delugerpc.KindMappedFiles:
			flags = append(flags, cli.StringSliceFlag{
				Name:  name,
				Usage: "rename a file before adding, as <index>=<path>; repeatable",
			})
		default:
			flags = append(flags, cli.BoolFlag{Name: name, Usage: usage + " (use =false to clear)"})
		}
	}
	return flags
}

// optionsFromFlags collects the option flags set on the command line.
func optionsFromFlags(ctx *cli.Context) (*delugerpc.Options, error) {
	opts := &delugerpc.Options{}
	for _, k := range delugerpc.OptionKinds() {
		name := optionFlagName(k)
		if !ctx.IsSet(name) {
			continue
		}
		opt, err := optionFromFlag(ctx, k, name)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		opts.Insert(opt)
	}
	return opts, nil
}

func optionFromFlag(ctx *cli.Context, k delugerpc.OptionKind, name string) (delugerpc.Option, error) {
	switch k {
	case delugerpc.KindAddPaused:
		return delugerpc.AddPaused(ctx.Bool(name)), nil
	case delugerpc.KindAutoManaged:
		return delugerpc.AutoManaged(ctx.Bool(name)), nil
	case delugerpc.KindDownloadLocation:
		return delugerpc.DownloadLocation(ctx.String(name)), nil
	case delugerpc.KindFilePriorities:
		return parsePriorities(ctx.String(name))
	case delugerpc.KindMappedFiles:
		return parseMappedFiles(ctx.StringSlice(name))
	case delugerpc.KindMaxConnections:
		return delugerpc.MaxConnections(ctx.Int64(name)), nil
	case delugerpc.KindMaxDownloadSpeed:
		return delugerpc.MaxDownloadSpeed(ctx.Float64(name)), nil
	case delugerpc.KindMaxUploadSlots:
		return delugerpc.MaxUploadSlots(ctx.Int64(name)), nil
	case delugerpc.KindMaxUploadSpeed:
		return delugerpc.MaxUploadSpeed(ctx.Float64(name)), nil
	case delugerpc.KindMoveCompleted:
		return delugerpc.MoveCompleted(ctx.Bool(name)), nil
	case delugerpc.KindMoveCompletedPath:
		return delugerpc.MoveCompletedPath(ctx.String(name)), nil
	case delugerpc.KindName:
		return delugerpc.Name(ctx.String(name)), nil
	case delugerpc.KindOwner:
		return delugerpc.Owner(ctx.String(name)), nil
	case delugerpc.KindPreAllocateStorage:
		return delugerpc.PreAllocateStorage(ctx.Bool(name)), nil
	case delugerpc.KindPrioritizeFirstLastPieces:
		return delugerpc.PrioritizeFirstLastPieces(ctx.Bool(name)), nil
	case delugerpc.KindRemoveAtRatio:
		return delugerpc.RemoveAtRatio(ctx.Bool(name)), nil
	case delugerpc.KindSeedMode:
		return delugerpc.SeedMode(ctx.Bool(name)), nil
	case delugerpc.KindSequentialDownload:
		return delugerpc.SequentialDownload(ctx.Bool(name)), nil
	case delugerpc.KindShared:
		return delugerpc.Shared(ctx.Bool(name)), nil
	case delugerpc.KindStopAtRatio:
		return delugerpc.StopAtRatio(ctx.Bool(name)), nil
	case delugerpc.KindStopRatio:
		return delugerpc.StopRatio(ctx.Float64(name)), nil
	case delugerpc.KindSuperSeeding:
		return delugerpc.SuperSeeding(ctx.Bool(name)), nil
	}
	return delugerpc.Option{}, fmt.Errorf("unsupported option kind %d", k)
}

func parsePriorities(s string) (delugerpc.Option, error) {
	var ps []delugerpc.Priority
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return delugerpc.Option{}, err
		}
		p := delugerpc.Priority(n)
		switch p {
		case delugerpc.PrioritySkip, delugerpc.PriorityLow, delugerpc.PriorityNormal, delugerpc.PriorityHigh:
		default:
			return delugerpc.Option{}, fmt.Errorf("invalid priority %d", n)
		}
		ps = append(ps, p)
	}
	return delugerpc.FilePriorities(ps...), nil
}

func parseMappedFiles(entries []string) (delugerpc.Option, error) {
	m := make(map[int32]string, len(entries))
	for _, e := range entries {
		idx, path, ok := strings.Cut(e, "=")
		if !ok || path == "" {
			return delugerpc.Option{}, fmt.Errorf("expected <index>=<path>, got %q", e)
		}
		n, err := strconv.ParseInt(idx, 10, 32)
		if err != nil {
			return delugerpc.Option{}, fmt.Errorf("file index %q: %w", idx, err)
		}
		m[int32(n)] = path
	}
	return delugerpc.MappedFiles(m), nil
}
