package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/panyam/prefixer/config"
	"github.com/panyam/prefixer/processor"
	"github.com/spf13/cobra"
)

// DefaultConfigFile is the settings file `prefixer init` writes by default.
const DefaultConfigFile = ".prefixer.yaml"

func newInitCommand(streams Streams) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Create a starter settings file",
		Long: `Create a starter settings file. The format follows the file extension:
.yaml or .yml for YAML, .toml for TOML.

Passwords are never written to settings files; use -p or REMOTE_PASSWORD.

Examples:
  prefixer init                   # Create .prefixer.yaml
  prefixer init prefixer.toml     # Create a TOML settings file
  prefixer init --force           # Overwrite an existing file`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultConfigFile
			if len(args) > 0 {
				path = args[0]
			}
			if err := writeStarterConfig(path, force); err != nil {
				return err
			}
			fmt.Fprintf(streams.Out, "Created %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite existing settings file")

	return initCmd
}

func writeStarterConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	colorLogs := true
	settings := &config.Settings{
		Remote: config.Remote{
			Host: "localhost",
			User: os.Getenv("USER"),
		},
		Prefix:    processor.DefaultPrefix,
		ColorLogs: &colorLogs,
	}

	data, err := config.Marshal(settings, filepath.Ext(path))
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
