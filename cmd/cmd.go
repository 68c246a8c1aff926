package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config",
		Usage: "path to config.toml (default: $XDG_CONFIG_HOME/delugectl/config.toml)",
	},
	cli.StringFlag{
		Name:  "url, u",
		Usage: "Deluge web UI base url, overrides daemon.url",
	},
	cli.BoolFlag{
		Name:  "debug",
		Usage: "log requests and responses to stderr",
	},
}

func Execute(args []string, bArgs BuildArgs) error {
	buildArgs = bArgs
	app := cli.App{
		Name:                  "delugectl",
		HelpName:              "delugectl",
		Usage:                 "Control a Deluge torrent daemon from the command line.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "delugectl [global options] <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "login",
				Usage:              "log in to the web UI and remember the password",
				Description:        LoginDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             login,
				Flags:              loginFlags,
			},
			{
				Name:               "logout",
				Usage:              "end the web session and forget the password",
				Description:        LogoutDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             logout,
			},
			{
				Name:                   "add",
				Aliases:                []string{"a"},
				Usage:                  "add a torrent from a magnet uri, url or .torrent file",
				Description:            AddDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 add,
				Flags:                  addFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "rm",
				Aliases:            []string{"remove"},
				Usage:              "remove torrents from the session",
				Description:        RemoveDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             remove,
				Flags:              rmFlags,
			},
			{
				Name:               "pause",
				Usage:              "pause torrents",
				Description:        PauseDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             pause,
			},
			{
				Name:               "resume",
				Aliases:            []string{"r"},
				Usage:              "resume paused torrents",
				Description:        ResumeDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             resume,
			},
			{
				Name:               "set",
				Usage:              "change options of torrents in the session",
				Description:        SetDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             set,
				Flags:              optionFlags,
			},
			{
				Name:               "status",
				Aliases:            []string{"s"},
				Usage:              "show the status of a torrent",
				Description:        StatusDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             status,
				Flags:              statusFlags,
			},
			{
				Name:                   "list",
				Aliases:                []string{"l", "ls"},
				Usage:                  "list torrents in the session",
				Description:            ListDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 list,
				Flags:                  lsFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "show progress bars until torrents are seeding",
				Description:        WatchDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             watch,
				Flags:              watchFlags,
			},
			{
				Name:        "session",
				Usage:       "pause, resume or inspect the whole session",
				Description: SessionDescription,
				Subcommands: []cli.Command{
					{
						Name:   "pause",
						Usage:  "pause every torrent",
						Action: sessionPause,
					},
					{
						Name:   "resume",
						Usage:  "resume every torrent",
						Action: sessionResume,
					},
					{
						Name:   "state",
						Usage:  "print the ids of all torrents",
						Action: sessionState,
					},
				},
			},
			{
				Name:               "config-get",
				Usage:              "print a configuration value",
				Description:        ConfigGetDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             configGet,
			},
			{
				Name:               "serve",
				Usage:              "run the JSON-RPC bridge in front of the daemon",
				Description:        ServeDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             serve,
				Flags:              serveFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of delugectl",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      common.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
