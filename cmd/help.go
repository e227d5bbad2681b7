package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newHelpCommand(streams Streams) *cobra.Command {
	helpCmd := &cobra.Command{
		Use:   "help [command | topic]",
		Short: "Help about any command or topic",
		Long: `Help provides help for any command in the application, and for these topics:

  config    Settings file reference`,
		Run: func(cmd *cobra.Command, args []string) {
			root := cmd.Root()
			if len(args) == 0 {
				root.Help()
				return
			}

			target, _, err := root.Find(args)
			if err != nil || target == root {
				fmt.Fprintf(streams.Out, "Unknown help topic: %s\n", args[0])
				fmt.Fprintln(streams.Out, "Available topics: config")
				return
			}
			target.Help()
		},
	}

	helpCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show the settings file reference",
		Run: func(cmd *cobra.Command, args []string) {
			showConfigHelp(streams)
		},
	})

	return helpCmd
}

func showConfigHelp(streams Streams) {
	fmt.Fprint(streams.Out, `Settings file reference

A settings file is passed with -c/--config. YAML (.yaml, .yml) and TOML
(.toml) are supported; unknown keys are rejected. Command-line flags take
precedence over the file. Passwords cannot be stored in settings files.

`)

	table := tablewriter.NewTable(streams.Out,
		tablewriter.WithHeader([]string{"Key", "Type", "Flag", "Default", "Description"}),
	)
	table.Append("remote.host", "string", "-r, --remote", "", "Remote host name or IP address")
	table.Append("remote.user", "string", "-u, --username", "", "Remote username")
	table.Append("prefix", "string", "--prefix", `" >> "`, "Marker written before every line")
	table.Append("log_file", "string", "--log-file", "$TMPDIR/<program>.log", "Log file, written at info level")
	table.Append("color_logs", "boolean", "--no-color", "true", "Color console log levels on terminals")
	table.Append("follow", "boolean", "-f, --follow", "false", "Keep reading appended input")
	table.Append("verbosity", "integer", "-v, --verbose", "0", "Console level: 0 warning, 1 info, 2 debug")
	table.Render()

	fmt.Fprint(streams.Out, `
Example .prefixer.yaml:

  remote:
    host: build-01.example.com
    user: deploy
  prefix: " >> "
  color_logs: true
  verbosity: 1

Example .prefixer.toml:

  prefix = " >> "
  verbosity = 1

  [remote]
  host = "build-01.example.com"
  user = "deploy"
`)
}
