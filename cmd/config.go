package cmd

import (
	"fmt"
	"io"
	"os"

	"audio-trimmer/infrastructure/config"

	"github.com/spf13/cobra"
)

// OutputWriter allows capturing output in tests
type OutputWriter = io.Writer

// DefaultOutput is the default output writer for config commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration settings",
	Long: `Show or change individual settings in the configuration file.

Examples:
  audio-trimmer config show
  audio-trimmer config set trim.seconds 7.5
  audio-trimmer config set trim.output_directory ./trimmed
  audio-trimmer config set google.folder_id 1AbCdEf`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List every setting and its value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigShowWithDependencies(cfg, cfgFile, DefaultOutput)
	},
}

// RunConfigShowWithDependencies runs the show command with injected dependencies
func RunConfigShowWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	keys := mgr.Keys()
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		value, err := mgr.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(not set)"
		}
		rows = append(rows, []string{key, value})
	}

	fmt.Fprintf(out, "Configuration file: %s\n", configPath)
	fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
	return nil
}

// --- SET command ---

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save the file",
	Long: `Change one setting and save the configuration file. The new value is
validated first; an invalid value leaves the file unchanged.

Examples:
  audio-trimmer config set trim.seconds 5
  audio-trimmer config set trim.concurrency 4
  audio-trimmer config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigSetWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
	},
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(cfg *config.Config, configPath, key, value string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	if err := mgr.Set(key, value); err != nil {
		return err
	}

	current, err := mgr.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Set %s = %s\n", key, current)
	return nil
}
