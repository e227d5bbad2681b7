package utils

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type fdWriter interface {
	Fd() uintptr
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorCapable checks whether colored output to w makes sense.
func ColorCapable(w io.Writer) bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTerminal(w)
}

// ColorManager maps log levels to colors for console output.
type ColorManager struct {
	enabled bool
	levels  map[slog.Level]*color.Color
}

// NewColorManager creates a color manager. Colors are only applied when
// enabled is true; callers decide based on ColorCapable and user settings.
func NewColorManager(enabled bool) *ColorManager {
	cm := &ColorManager{
		enabled: enabled,
		levels: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgCyan),
			slog.LevelInfo:  color.New(color.FgGreen),
			slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
			slog.LevelError: color.New(color.FgRed, color.Bold),
			LevelCritical:   color.New(color.FgHiWhite, color.BgRed, color.Bold),
		},
	}

	// Do NOT rely on the global color.NoColor: it is decided from stdout,
	// while log records go to stderr.
	for _, c := range cm.levels {
		c.EnableColor()
	}
	return cm
}

// IsEnabled returns whether color formatting is enabled
func (cm *ColorManager) IsEnabled() bool {
	return cm != nil && cm.enabled
}

// FormatLevel wraps a level label in the level's color.
func (cm *ColorManager) FormatLevel(level slog.Level, label string) string {
	if !cm.IsEnabled() {
		return label
	}
	c, ok := cm.levels[level]
	if !ok {
		return label
	}
	return c.Sprint(label)
}

// ANSI escape sequence regex pattern - matches color codes, cursor movements, etc.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripColorCodes removes ANSI color codes from a string using regex
func StripColorCodes(input string) string {
	if !strings.Contains(input, "\x1b") {
		return input
	}
	return ansiRegex.ReplaceAllString(input, "")
}
