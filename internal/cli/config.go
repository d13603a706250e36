package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-mediakit/config.toml.
Each setting falls back to an environment variable when unset.

Supported settings:
  output-dir          Default directory for output files (env: MEDIAKIT_OUTPUT_DIR)
  chunk-duration      Target chunk length in seconds (env: MEDIAKIT_CHUNK_DURATION)
  silence-threshold   Silence level in dB, negative (env: MEDIAKIT_SILENCE_THRESHOLD)
  silence-duration    Minimum silence length in seconds (env: MEDIAKIT_SILENCE_DURATION)
  log-level           debug, info, warn or error (env: MEDIAKIT_LOG_LEVEL)
  probe-cache         SQLite file caching ffprobe results (env: MEDIAKIT_PROBE_CACHE)`,
		Example: `  mediakit config set output-dir ~/Videos/out
  mediakit config set silence-threshold -35
  mediakit config get chunk-duration
  mediakit config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

For output-dir, the directory is created if it doesn't exist.`,
		Example: `  mediakit config set output-dir ~/Videos/out
  mediakit config set probe-cache ~/.cache/mediakit/probe.db`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  mediakit config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable fallbacks.`,
		Example: `  mediakit config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if key == config.KeyOutputDir || key == config.KeyProbeCache {
		value = config.ExpandPath(strings.TrimSpace(value))
	}
	if key == config.KeyOutputDir {
		if err := config.EnsureOutputDir(value); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
	}

	// Save validates the key and the value.
	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		value = env.Getenv(config.EnvVar(key))
	}
	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	found := false
	for _, key := range config.Keys() {
		value, ok := data[key]
		if !ok {
			if value = env.Getenv(config.EnvVar(key)); value == "" {
				continue
			}
			value += " (from env)"
		}
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
		found = true
	}

	if !found {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
	}
	return nil
}
