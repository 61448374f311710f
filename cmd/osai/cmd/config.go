package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/osai-labs/osai/configs"
	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage osai configuration.

Settings are resolved in order of increasing precedence:
  1. Defaults for this OS
  2. User config ($XDG_CONFIG_HOME/osai/config.yaml or ~/.config/osai/config.yaml)
  3. Environment variables (OSAI_SEARCH_PATHS, OSAI_MAX_INDEX_FILES, ...)

A running daemon rebuilds its index when the config file changes.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the user configuration file",
		Long: `Create a commented configuration file with the defaults.

With --force an existing file is backed up (the newest three backups
are kept) and replaced by the template.`,
		Example: `  # Create user config
  osai config init

  # Replace an existing config, keeping a backup
  osai config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  `Show the effective settings after merging defaults, the config file and environment variables.`,
		Example: `  osai config show
  osai config show --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), settingsPath())
			return err
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value",
		Long: fmt.Sprintf(`Set one configuration value and save the config file.

The previous file is backed up first. List values (search_paths,
ignored_directories) are separated by %q.

Keys: %s`, string(os.PathListSeparator), strings.Join(config.Keys(), ", ")),
		Example: `  osai config set max_index_files 200000
  osai config set search_paths ~/Documents:~/Projects`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the config file from a backup",
		Long: `Restore the config file from a backup made by 'config init --force'
or 'config set'. Without an argument the newest backup is restored.

The current file is itself backed up before it is replaced.`,
		Example: `  osai config restore --list
  osai config restore`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var backup string
			if len(args) == 1 {
				backup = args[0]
			}
			return runConfigRestore(cmd, backup, list)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List available backups, newest first")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	path := settingsPath()

	var backup string
	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Newline()
			out.Status("💡", "Use --force to replace it with the template (a backup is kept)")
			return nil
		}
		backup, err = config.BackupFile(path)
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	if backup != "" {
		out.Statusf("💾", "Backup: %s", backup)
	}
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Edit search_paths and ignored_directories, for example:")
	out.Code("search_paths:\n  - ~/Documents\n  - ~/Projects")
	out.Status("", "  2. Run 'osai config show' to verify")
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(settings)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# Effective configuration (defaults + %s + env)\n", settingsPath())
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	out := output.New(cmd.OutOrStdout())
	path := settingsPath()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := settings.Set(key, value); err != nil {
		return err
	}

	backup, err := config.Save(settings, path)
	if err != nil {
		return err
	}

	out.Successf("Set %s", key)
	out.Statusf("📁", "Location: %s", path)
	if backup != "" {
		out.Statusf("💾", "Backup: %s", backup)
	}
	return nil
}

func runConfigRestore(cmd *cobra.Command, backup string, list bool) error {
	out := output.New(cmd.OutOrStdout())
	path := settingsPath()

	backups, err := config.ListBackups(path)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if list {
		if len(backups) == 0 {
			out.Status("📭", "No backups found")
			return nil
		}
		for _, b := range backups {
			out.Status("", b)
		}
		return nil
	}

	if backup == "" {
		if len(backups) == 0 {
			return fmt.Errorf("no backups found for %s", path)
		}
		backup = backups[0]
	}

	if err := config.RestoreFile(path, backup); err != nil {
		return err
	}
	if _, err := config.LoadFile(path); err != nil {
		out.Warningf("Restored file does not load cleanly: %v", err)
	}

	out.Successf("Restored configuration from %s", filepath.Base(backup))
	out.Statusf("📁", "Location: %s", path)
	return nil
}
