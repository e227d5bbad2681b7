package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/panyam/prefixer/config"
	"github.com/panyam/prefixer/processor"
	"github.com/panyam/prefixer/utils"
	"github.com/spf13/cobra"
)

// Where a resolved value came from.
const (
	sourceFlag    = "flag"
	sourceConfig  = "config"
	sourceEnv     = "env"
	sourceDefault = "default"
)

// resolvedOptions are the settings a run uses after merging flags, the
// settings file, the environment and defaults, in that order of precedence.
type resolvedOptions struct {
	Infile     string
	Outfile    string
	RemoteHost string
	RemoteUser string
	// Password is only set when given with -p; otherwise the processor
	// picks it up from the environment itself.
	Password  string
	Verbosity int
	Prefix    string
	LogFile   string
	ColorLogs bool
	Follow    bool

	sources map[string]string
}

func (r *resolvedOptions) source(name string) string {
	if s, ok := r.sources[name]; ok {
		return s
	}
	return sourceDefault
}

// resolveOptions merges flags with the optional settings file. Missing
// required values are reported the same way cobra reports missing required
// flags.
func resolveOptions(cmd *cobra.Command, opts *options, args []string) (*resolvedOptions, error) {
	settings := &config.Settings{}
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	flags := cmd.Flags()
	r := &resolvedOptions{
		Outfile:  opts.outfile,
		Password: opts.password,
		sources:  map[string]string{},
	}
	if len(args) > 0 {
		r.Infile = args[0]
	}

	pickString := func(name, flagValue, configValue, def string) string {
		switch {
		case flags.Changed(name):
			r.sources[name] = sourceFlag
			return flagValue
		case configValue != "":
			r.sources[name] = sourceConfig
			return configValue
		}
		return def
	}
	r.RemoteHost = pickString("remote", opts.remoteHost, settings.Remote.Host, "")
	r.RemoteUser = pickString("username", opts.remoteUser, settings.Remote.User, "")
	r.Prefix = pickString("prefix", opts.prefix, settings.Prefix, processor.DefaultPrefix)
	r.LogFile = pickString("log-file", opts.logFile, settings.LogFile, utils.DefaultLogFile())

	r.Verbosity = settings.Verbosity
	if settings.Verbosity != 0 {
		r.sources["verbose"] = sourceConfig
	}
	if flags.Changed("verbose") {
		r.Verbosity = opts.verbosity
		r.sources["verbose"] = sourceFlag
	}

	r.ColorLogs = settings.ColorEnabled()
	if settings.ColorLogs != nil {
		r.sources["no-color"] = sourceConfig
	}
	if flags.Changed("no-color") {
		r.ColorLogs = !opts.noColor
		r.sources["no-color"] = sourceFlag
	}

	r.Follow = settings.Follow
	if settings.Follow {
		r.sources["follow"] = sourceConfig
	}
	if flags.Changed("follow") {
		r.Follow = opts.follow
		r.sources["follow"] = sourceFlag
	}

	switch {
	case flags.Changed("password"):
		r.sources["password"] = sourceFlag
	default:
		if _, ok := os.LookupEnv(processor.PasswordEnvVar); ok {
			r.sources["password"] = sourceEnv
		}
	}
	if flags.Changed("outfile") {
		r.sources["outfile"] = sourceFlag
	}

	return r, nil
}

// checkRequired returns an error naming the required values that are unset.
func (r *resolvedOptions) checkRequired() error {
	var missing []string
	if r.RemoteHost == "" {
		missing = append(missing, `"remote"`)
	}
	if r.RemoteUser == "" {
		missing = append(missing, `"username"`)
	}
	if len(missing) > 0 {
		return fmt.Errorf("required flag(s) %s not set", strings.Join(missing, ", "))
	}
	return nil
}
