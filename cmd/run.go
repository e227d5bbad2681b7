package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/panyam/prefixer/processor"
	"github.com/panyam/prefixer/utils"
)

// runProcessor opens the streams, configures a processor and runs it until
// it finishes or ctx is cancelled by a termination signal.
func runProcessor(ctx context.Context, r *resolvedOptions, streams Streams) error {
	if err := r.checkRequired(); err != nil {
		return err
	}

	logger, logErr := utils.NewLogger(utils.LoggerConfig{
		Console:      streams.Err,
		ConsoleLevel: utils.VerbosityLevel(r.Verbosity),
		ColorLogs:    r.ColorLogs,
		LogFile:      r.LogFile,
	})
	defer logger.Close()
	defer logger.Debug("done")
	if logErr != nil {
		logger.Warn("Logging to console only", "error", logErr)
	}

	in, closeIn, err := openInput(ctx, r, streams)
	if err != nil {
		logger.Critical("unable to process", "error", err)
		return &ExitError{Code: ExitUsage, Err: err}
	}
	defer closeIn()

	out, closeOut, err := openOutput(r, streams)
	if err != nil {
		logger.Critical("unable to process", "error", err)
		return &ExitError{Code: ExitUsage, Err: err}
	}
	defer func() {
		if err := closeOut(); err != nil {
			logger.Error("Failed to close output", "error", err)
		}
	}()

	p := processor.New(in, out)
	logger.Info("Processing", "input", p.InputName(), "output", p.OutputName())

	p.SetRemoteUser(r.RemoteUser)
	p.SetRemoteHost(r.RemoteHost)
	if r.Password != "" {
		p.SetRemotePassword(r.Password)
	}
	p.SetPrefix(r.Prefix)

	logger.Info("Remote destination", "host", p.RemoteHost(), "user", p.RemoteUser())

	done := make(chan error, 1)
	go func() { done <- p.Process(ctx) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		// The processor may be blocked reading; keep what it has written.
		logger.Debug("term received")
		if err := p.Flush(); err != nil {
			logger.Error("Failed to flush output", "error", err)
		}
		return nil
	}

	var cfgErr *processor.ConfigurationError
	switch {
	case err == nil:
		logger.Info("Processed", "lines", p.Lines())
		return nil
	case errors.As(err, &cfgErr):
		logger.Error(cfgErr.Error())
		return &ExitError{Code: ExitConfig, Err: err}
	case errors.Is(err, context.Canceled):
		logger.Debug("quit")
		return nil
	default:
		logger.Error("Processing failed", "error", err)
		return &ExitError{Code: ExitIOFailure, Err: err}
	}
}

// openInput returns the input stream and a function releasing it. "" and "-"
// mean the command's standard input.
func openInput(ctx context.Context, r *resolvedOptions, streams Streams) (io.Reader, func(), error) {
	if r.Infile == "" || r.Infile == "-" {
		if r.Follow {
			return nil, nil, errors.New("--follow needs an input file")
		}
		return streams.In, func() {}, nil
	}

	f, err := os.Open(r.Infile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	if !r.Follow {
		return f, func() { f.Close() }, nil
	}

	follower, err := processor.NewFollowReader(ctx, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return follower, func() {
		follower.Close()
		f.Close()
	}, nil
}

// openOutput returns the output stream and a function closing it. "" and "-"
// mean the command's standard output, which is left open.
func openOutput(r *resolvedOptions, streams Streams) (io.Writer, func() error, error) {
	if r.Outfile == "" || r.Outfile == "-" {
		return streams.Out, func() error { return nil }, nil
	}

	f, err := os.Create(r.Outfile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
