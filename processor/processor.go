// Package processor copies an input stream to an output stream, prefixing
// every line with a marker.
package processor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	// PasswordEnvVar seeds the remote password at construction time.
	PasswordEnvVar = "REMOTE_PASSWORD"

	// DefaultPrefix is written in front of every line.
	DefaultPrefix = " >> "
)

// ErrNoInput is returned by Process when no input stream is bound.
var ErrNoInput = errors.New("no input stream")

// Processor transforms its input stream into its output stream. The remote
// host, user and password are stored for the caller but never used to
// connect anywhere; only the password's presence is checked.
type Processor struct {
	infile  io.Reader
	outfile io.Writer

	remoteHost     string
	remoteUser     string
	remotePassword string
	prefix         string

	// mu guards out and lines, which the signal path reads via Flush and
	// Lines while Process runs.
	mu    sync.Mutex
	out   *bufio.Writer
	lines int
}

// New binds the two streams. The remote password defaults to the value of
// REMOTE_PASSWORD if it is set.
func New(infile io.Reader, outfile io.Writer) *Processor {
	p := &Processor{
		infile:  infile,
		outfile: outfile,
		prefix:  DefaultPrefix,
	}
	if password, ok := os.LookupEnv(PasswordEnvVar); ok {
		p.remotePassword = password
	}
	return p
}

// InputName returns the display name of the input stream, or "" if none is
// bound.
func (p *Processor) InputName() string { return streamName(p.infile) }

// OutputName returns the display name of the output stream, or "" if none is
// bound.
func (p *Processor) OutputName() string { return streamName(p.outfile) }

func (p *Processor) RemoteHost() string        { return p.remoteHost }
func (p *Processor) SetRemoteHost(host string) { p.remoteHost = host }

func (p *Processor) RemoteUser() string        { return p.remoteUser }
func (p *Processor) SetRemoteUser(user string) { p.remoteUser = user }

func (p *Processor) RemotePassword() string            { return p.remotePassword }
func (p *Processor) SetRemotePassword(password string) { p.remotePassword = password }

func (p *Processor) Prefix() string          { return p.prefix }
func (p *Processor) SetPrefix(prefix string) { p.prefix = prefix }

// Process writes every input line to the output, prefixed. It fails with a
// *ConfigurationError before touching either stream if no password is set.
// The context is checked between lines; on cancellation the lines written so
// far are flushed and the context's error is returned.
func (p *Processor) Process(ctx context.Context) error {
	if p.remotePassword == "" {
		return &ConfigurationError{Reason: "no password given or set " + PasswordEnvVar + " in the environment"}
	}
	if p.infile == nil {
		return ErrNoInput
	}

	p.mu.Lock()
	p.out = bufio.NewWriter(p.outfile)
	pw := NewPrefixWriter(p.out, p.prefix)
	p.mu.Unlock()

	reader := bufio.NewReader(p.infile)
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, p.Flush())
		}

		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			p.mu.Lock()
			_, err := pw.Write(line)
			p.lines++
			p.mu.Unlock()
			if err != nil {
				return fmt.Errorf("failed to write to %s: %w", p.OutputName(), err)
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.Join(fmt.Errorf("failed to read from %s: %w", p.InputName(), readErr), p.Flush())
		}
	}

	return p.Flush()
}

// Flush writes any buffered output. It is safe to call while Process runs.
func (p *Processor) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return nil
	}
	if err := p.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", p.OutputName(), err)
	}
	return nil
}

// Lines returns the number of lines written so far.
func (p *Processor) Lines() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines
}

type namer interface {
	Name() string
}

func streamName(stream any) string {
	switch s := stream.(type) {
	case nil:
		return ""
	case *os.File:
		switch s {
		case nil:
			return ""
		case os.Stdin:
			return "<stdin>"
		case os.Stdout:
			return "<stdout>"
		case os.Stderr:
			return "<stderr>"
		}
		return s.Name()
	case namer:
		return s.Name()
	default:
		return fmt.Sprintf("<%T>", stream)
	}
}
