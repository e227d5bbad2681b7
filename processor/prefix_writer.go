package processor

import (
	"bytes"
	"io"
)

// PrefixWriter is an io.Writer that adds a prefix to each line of output.
// Line boundaries are tracked across calls, so a line split over several
// writes is prefixed once.
type PrefixWriter struct {
	writer      io.Writer
	prefix      []byte
	atLineStart bool
}

// NewPrefixWriter creates a PrefixWriter that writes to w.
func NewPrefixWriter(w io.Writer, prefix string) *PrefixWriter {
	return &PrefixWriter{
		writer:      w,
		prefix:      []byte(prefix),
		atLineStart: true,
	}
}

// Write implements the io.Writer interface. Empty lines are prefixed too and
// line terminators are passed through untouched.
func (pw *PrefixWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	output := make([]byte, 0, len(p)+len(pw.prefix))
	rest := p
	for len(rest) > 0 {
		if pw.atLineStart {
			output = append(output, pw.prefix...)
			pw.atLineStart = false
		}
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			output = append(output, rest...)
			break
		}
		output = append(output, rest[:i+1]...)
		rest = rest[i+1:]
		pw.atLineStart = true
	}

	if _, err = pw.writer.Write(output); err != nil {
		return 0, err
	}
	return len(p), nil
}

// AtLineStart reports whether the next byte written starts a new line.
func (pw *PrefixWriter) AtLineStart() bool {
	return pw.atLineStart
}
