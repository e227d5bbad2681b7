package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelCritical sits above slog.LevelError for failures that stop the run
// before any work is done.
const LevelCritical = slog.Level(12)

// LevelName returns the label printed for a level.
func LevelName(level slog.Level) string {
	switch {
	case level >= LevelCritical:
		return "CRITICAL"
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// VerbosityLevel maps a repeated -v count to a console level: none is
// warnings only, one adds info, two or more adds debug.
func VerbosityLevel(count int) slog.Level {
	switch {
	case count <= 0:
		return slog.LevelWarn
	case count == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// DefaultLogFile is the log file path derived from the program name, e.g.
// /tmp/prefixer.log.
func DefaultLogFile() string {
	return filepath.Join(os.TempDir(), filepath.Base(os.Args[0])+".log")
}

// LineHandler is a slog.Handler that writes one "[ LEVEL ] message k=v" line
// per record.
type LineHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	colors *ColorManager
	attrs  string
	group  string
}

// NewLineHandler creates a handler writing records at or above level to w.
// A nil colors disables colored level labels; ANSI codes are then stripped
// from messages as well.
func NewLineHandler(w io.Writer, level slog.Leveler, colors *ColorManager) *LineHandler {
	return &LineHandler{
		mu:     &sync.Mutex{},
		w:      w,
		level:  level,
		colors: colors,
	}
}

func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString("[ ")
	sb.WriteString(h.colors.FormatLevel(r.Level, LevelName(r.Level)))
	sb.WriteString(" ] ")
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, h.group, a)
		return true
	})

	line := sb.String()
	if !h.colors.IsEnabled() {
		line = StripColorCodes(line)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&sb, h.group, a)
	}
	h2 := *h
	h2.attrs = sb.String()
	return &h2
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = h.group + name + "."
	return &h2
}

func appendAttr(sb *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		prefix := group
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(sb, prefix, ga)
		}
		return
	}

	var value string
	switch a.Value.Kind() {
	case slog.KindTime:
		value = a.Value.Time().Format(time.RFC3339)
	default:
		value = a.Value.String()
	}
	if value == "" || strings.ContainsAny(value, " \t\n\"=") {
		value = fmt.Sprintf("%q", value)
	}
	fmt.Fprintf(sb, " %s%s=%s", group, a.Key, value)
}

// FanoutHandler sends each record to every handler that accepts its level.
type FanoutHandler struct {
	handlers []slog.Handler
}

func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

func (f *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: handlers}
}

func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &FanoutHandler{handlers: handlers}
}

// LoggerConfig holds configuration for the console and file sinks
type LoggerConfig struct {
	// Console receives records at ConsoleLevel and above.
	Console      io.Writer
	ConsoleLevel slog.Level
	// ColorLogs colors console level labels if Console is a terminal.
	ColorLogs bool

	// LogFile always receives info records and above. Empty disables it.
	LogFile string
}

// Logger is a slog.Logger writing to a console and an optional log file.
type Logger struct {
	*slog.Logger
	file *os.File
}

// NewLogger creates a Logger. The log file is opened for appending; if that
// fails the logger still writes to the console and the error is returned
// alongside it.
func NewLogger(cfg LoggerConfig) (*Logger, error) {
	if cfg.Console == nil {
		cfg.Console = os.Stderr
	}

	var colors *ColorManager
	if cfg.ColorLogs && ColorCapable(cfg.Console) {
		colors = NewColorManager(true)
	}
	handlers := []slog.Handler{NewLineHandler(cfg.Console, cfg.ConsoleLevel, colors)}

	l := &Logger{}
	var err error
	if cfg.LogFile != "" {
		var f *os.File
		f, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			err = fmt.Errorf("failed to open log file %q: %w", cfg.LogFile, err)
		} else {
			l.file = f
			handlers = append(handlers, NewLineHandler(f, slog.LevelInfo, nil))
		}
	}

	l.Logger = slog.New(NewFanoutHandler(handlers...))
	return l, err
}

// Critical logs at LevelCritical.
func (l *Logger) Critical(msg string, args ...any) {
	l.Log(context.Background(), LevelCritical, msg, args...)
}

// FilePath returns the path of the open log file, or "".
func (l *Logger) FilePath() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
