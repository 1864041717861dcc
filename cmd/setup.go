package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"audio-trimmer/domain/audio"
	"audio-trimmer/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through the trim duration, output directory,
parallelism, and optional Google Drive upload settings.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out io.Writer) error {
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to audio-trimmer setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptTrim(prompter, cfg); err != nil {
		return err
	}

	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptTrim(prompter Prompter, cfg *config.Config) error {
	seconds, err := prompter.Input("How much should be trimmed from the start of each file? (seconds or HH:MM:SS)",
		strconv.FormatFloat(cfg.Trim.Seconds, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if seconds != "" {
		spec, err := audio.ParseTrimSpec(seconds)
		if err != nil {
			return err
		}
		if err := spec.Validate(); err != nil {
			return err
		}
		cfg.Trim.Seconds = spec.Seconds
	}

	outputDir, err := prompter.Input("Where should trimmed files go?", cfg.Trim.OutputDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if outputDir != "" {
		cfg.Trim.OutputDirectory = outputDir
	}

	concurrency, err := prompter.Input("How many files should be trimmed at once?", strconv.Itoa(cfg.Trim.Concurrency))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if concurrency != "" {
		n, err := strconv.Atoi(concurrency)
		if err != nil || n < 1 {
			return fmt.Errorf("concurrency must be a whole number of at least 1")
		}
		cfg.Trim.Concurrency = n
	}

	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Upload results to Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !enable {
		return nil
	}

	credentials, err := prompter.Input("Path to Google OAuth credentials file?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	cfg.Google.CredentialsFile = credentials

	folder, err := prompter.Input("Google Drive folder ID for trimmed files?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Google.FolderID = folder

	return nil
}
