// Package config loads optional prefixer settings files. Settings files
// provide defaults; command-line flags always win.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for settings files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported settings file format")

// Remote holds the remote destination. It is recorded and logged only.
type Remote struct {
	Host string `yaml:"host,omitempty" toml:"host,omitempty" json:"host,omitempty"`
	User string `yaml:"user,omitempty" toml:"user,omitempty" json:"user,omitempty"`
}

// Settings mirrors the command-line flags. Zero values mean "not set".
type Settings struct {
	Remote    Remote `yaml:"remote,omitempty" toml:"remote,omitempty" json:"remote,omitempty"`
	Prefix    string `yaml:"prefix,omitempty" toml:"prefix,omitempty" json:"prefix,omitempty"`
	LogFile   string `yaml:"log_file,omitempty" toml:"log_file,omitempty" json:"log_file,omitempty"`
	ColorLogs *bool  `yaml:"color_logs,omitempty" toml:"color_logs,omitempty" json:"color_logs,omitempty"`
	Follow    bool   `yaml:"follow,omitempty" toml:"follow,omitempty" json:"follow,omitempty"`
	Verbosity int    `yaml:"verbosity,omitempty" toml:"verbosity,omitempty" json:"verbosity,omitempty"`
}

// ColorEnabled reports whether colored logs are wanted, defaulting to true.
func (s *Settings) ColorEnabled() bool {
	return s.ColorLogs == nil || *s.ColorLogs
}

// LoadConfig reads a settings file, picking the format from its extension.
// Unknown keys are rejected.
func LoadConfig(configPath string) (*Settings, error) {
	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for config file: %w", err)
	}

	data, err := os.ReadFile(absConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %q", absConfigPath)
		}
		return nil, fmt.Errorf("failed to read config file %q: %w", absConfigPath, err)
	}

	settings, err := Parse(data, filepath.Ext(absConfigPath))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", absConfigPath, err)
	}
	return settings, nil
}

// Parse decodes settings in the format named by ext (".yaml", ".yml" or
// ".toml").
func Parse(data []byte, ext string) (*Settings, error) {
	var settings Settings

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&settings); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if settings.Verbosity < 0 {
		return nil, fmt.Errorf("verbosity must not be negative, got %d", settings.Verbosity)
	}
	return &settings, nil
}

// Marshal encodes settings in the format named by ext.
func Marshal(settings *Settings, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Marshal(settings)
	case ".toml":
		return toml.Marshal(settings)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
