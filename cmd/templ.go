package cmd

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`

const DESCRIPTION = `
delugectl talks to a Deluge daemon through its web UI. It logs in once,
keeps the encrypted session cookie between runs and can expose the
daemon as a JSON-RPC 2.0 service for other tools.
`

const (
	LoginDescription = `The login command authenticates against the web UI, connects
it to the first known daemon if needed and stores the password
in the OS keyring for later commands.

Example:
        delugectl login --password deluge

`
	LogoutDescription = `The logout command ends the web session, forgets the stored
session cookie and deletes the password from the keyring.

Example:
        delugectl logout

`
	AddDescription = `The add command adds a torrent to the session. The argument
may be a magnet uri, an http(s) url to a .torrent file or a
path to a local .torrent file. Torrent options can be set with
the option flags.

Example:
        delugectl add magnet:?xt=urn:btih:...
        delugectl add --add-paused --download-location /data ./file.torrent

`
	RemoveDescription = `The rm command removes torrents from the session, optionally
deleting the downloaded data.

Example:
        delugectl rm --remove-data <torrent id>...

`
	PauseDescription = `The pause command pauses the given torrents.

Example:
        delugectl pause <torrent id>...

`
	ResumeDescription = `The resume command resumes the given torrents.

Example:
        delugectl resume <torrent id>...

`
	SetDescription = `The set command changes torrent options of torrents already
in the session.

Example:
        delugectl set --max-connections 50 <torrent id>...

`
	StatusDescription = `The status command prints the status fields of a torrent.

Example:
        delugectl status <torrent id>
        delugectl status --keys name,state,progress <torrent id>

`
	ListDescription = `The list command displays the torrents in the session with
their ids, which the other commands take as arguments.

Example:
        delugectl list
        delugectl list --state Downloading

`
	WatchDescription = `The watch command shows a progress bar per torrent and returns
once all of them are seeding or have left the session.

Example:
        delugectl watch <torrent id>...

`
	SessionDescription = `The session command pauses or resumes every torrent, or
prints the ids of all torrents in the session.

Example:
        delugectl session pause
        delugectl session state

`
	ConfigGetDescription = `The config-get command prints one configuration value, or
every key with its value when no key is given.

Example:
        delugectl config-get daemon.url

`
	ServeDescription = `The serve command starts the JSON-RPC 2.0 bridge on
rpc.listen. Requests need the bearer token from rpc.secret.
WebSocket clients on /jsonrpc/ws also receive torrent state
change notifications.

Example:
        DELUGECTL_RPC_SECRET=s3cret delugectl serve

`
)
