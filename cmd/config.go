package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const maskedPassword = "********"

// effectiveSettings is what `prefixer config` prints.
type effectiveSettings struct {
	Infile    string `json:"infile" yaml:"infile"`
	Outfile   string `json:"outfile" yaml:"outfile"`
	Remote    remote `json:"remote" yaml:"remote"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	LogFile   string `json:"log_file" yaml:"log_file"`
	ColorLogs bool   `json:"color_logs" yaml:"color_logs"`
	Follow    bool   `json:"follow" yaml:"follow"`
	Verbosity int    `json:"verbosity" yaml:"verbosity"`
}

type remote struct {
	Host     string `json:"host" yaml:"host"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
}

func newConfigCommand(opts *options, streams Streams) *cobra.Command {
	var format string

	configCmd := &cobra.Command{
		Use:   "config [infile]",
		Short: "Show the effective settings",
		Long: `Show the settings a run with the same flags would use, after merging
command-line flags, the settings file, the environment and defaults.
The password is never printed, only whether it is set.

Examples:
  prefixer config -c .prefixer.yaml            # Table of settings and their sources
  prefixer config -r host -u me --format yaml  # YAML output
  prefixer config --format json                # JSON output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveOptions(cmd, opts, args)
			if err != nil {
				return err
			}
			return printSettings(resolved, format, streams)
		},
	}
	configCmd.Flags().StringVar(&format, "format", "table", "Output format (table, yaml, json)")

	return configCmd
}

func printSettings(r *resolvedOptions, format string, streams Streams) error {
	password := ""
	if r.source("password") != sourceDefault {
		password = maskedPassword
	}
	infile, outfile := r.Infile, r.Outfile
	if infile == "" {
		infile = "<stdin>"
	}
	if outfile == "" {
		outfile = "<stdout>"
	}

	settings := effectiveSettings{
		Infile:  infile,
		Outfile: outfile,
		Remote: remote{
			Host:     r.RemoteHost,
			User:     r.RemoteUser,
			Password: password,
		},
		Prefix:    r.Prefix,
		LogFile:   r.LogFile,
		ColorLogs: r.ColorLogs,
		Follow:    r.Follow,
		Verbosity: r.Verbosity,
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal settings to JSON: %w", err)
		}
		fmt.Fprintln(streams.Out, string(data))
	case "yaml":
		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal settings to YAML: %w", err)
		}
		fmt.Fprint(streams.Out, string(data))
	case "table":
		table := tablewriter.NewTable(streams.Out,
			tablewriter.WithHeader([]string{"Setting", "Value", "Source"}),
		)
		table.Append("infile", settings.Infile, sourceOf(r.Infile != "", "arg"))
		table.Append("outfile", settings.Outfile, r.source("outfile"))
		table.Append("remote", settings.Remote.Host, r.source("remote"))
		table.Append("username", settings.Remote.User, r.source("username"))
		table.Append("password", settings.Remote.Password, r.source("password"))
		table.Append("prefix", strconv.Quote(settings.Prefix), r.source("prefix"))
		table.Append("log-file", settings.LogFile, r.source("log-file"))
		table.Append("color", strconv.FormatBool(settings.ColorLogs), r.source("no-color"))
		table.Append("follow", strconv.FormatBool(settings.Follow), r.source("follow"))
		table.Append("verbose", strconv.Itoa(settings.Verbosity), r.source("verbose"))
		return table.Render()
	default:
		return fmt.Errorf("unknown output format %q, use table, yaml or json", format)
	}
	return nil
}

func sourceOf(set bool, source string) string {
	if set {
		return source
	}
	return sourceDefault
}
