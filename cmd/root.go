package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version is the prefixer release, settable at build time.
var Version = "0.1.0"

// Exit codes returned by Execute.
const (
	ExitOK        = 0
	ExitConfig    = 1
	ExitUsage     = 2
	ExitIOFailure = 3
)

// ExitError carries the process exit code for a failure that has already
// been reported to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// Streams are the standard streams a command reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process's standard streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// options are filled in from the command line.
type options struct {
	configPath string
	remoteHost string
	remoteUser string
	password   string
	outfile    string
	verbosity  int
	prefix     string
	logFile    string
	follow     bool
	noColor    bool
}

// NewRootCommand builds the prefixer command tree bound to the given streams.
func NewRootCommand(streams Streams) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "prefixer [infile]",
		Short: "Prefix every line of a file",
		Long: `Prefixer copies its input to its output, writing a marker (" >> " by default)
in front of every line. Line terminators are kept as they are.

The remote host, user and password are recorded and logged (the password
only for its presence) but no connection is ever made. Processing refuses
to start without a password, given with -p or through REMOTE_PASSWORD.

Examples:
  prefixer -r host -u alice notes.txt          # Prefix notes.txt to stdout
  cat notes.txt | prefixer -r host -u alice    # Read from stdin
  prefixer -r host -u alice -o out.txt in.txt  # Write to out.txt
  prefixer -c .prefixer.yaml -f app.log        # Follow a growing file`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveOptions(cmd, opts, args)
			if err != nil {
				return err
			}
			return runProcessor(cmd.Context(), resolved, streams)
		},
	}
	rootCmd.SetIn(streams.In)
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.Err)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a settings file (.yaml, .yml or .toml)")
	flags.StringVarP(&opts.remoteHost, "remote", "r", "", "The remote host name or IP address (required)")
	flags.StringVarP(&opts.remoteUser, "username", "u", "", "The remote username (required)")
	flags.StringVarP(&opts.password, "password", "p", "", "The remote password (default $REMOTE_PASSWORD)")
	flags.StringVarP(&opts.outfile, "outfile", "o", "", "Output file (default stdout)")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase console verbosity (-v info, -vv debug)")
	flags.StringVar(&opts.prefix, "prefix", "", "Marker written in front of every line (default \" >> \")")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file, always written at info level (default $TMPDIR/<program>.log)")
	flags.BoolVarP(&opts.follow, "follow", "f", false, "Keep reading data appended to the input file")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored console logs")

	rootCmd.AddCommand(newConfigCommand(opts, streams))
	rootCmd.AddCommand(newInitCommand(streams))
	rootCmd.SetHelpCommand(newHelpCommand(streams))

	return rootCmd
}

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, args []string, streams Streams) int {
	rootCmd := NewRootCommand(streams)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fmt.Fprintf(streams.Err, "Error: %v\n", err)
	fmt.Fprintf(streams.Err, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
	return ExitUsage
}
