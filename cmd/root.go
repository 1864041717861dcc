package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"audio-trimmer/infrastructure/config"
	"audio-trimmer/infrastructure/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgErr   error
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "audio-trimmer",
	Short: "Remove a fixed-length intro from a batch of MP3 files",
	Long: `audio-trimmer removes the first N seconds from every MP3 file in a batch
and re-encodes the remainder at 128 kbps:

  - Decode each file with ffmpeg
  - Drop the leading trim duration
  - Encode the rest as <name>_trimmed.mp3
  - Optionally bundle the results as trimmed_files.zip or upload them to Google Drive

Example:
  audio-trimmer trim ./episodes --seconds 5 --out ./trimmed --zip`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM stop new files from
// starting; files already being trimmed are finished.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "diagnostic log level (debug, info, warn, error)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	var err error
	cfg, err = config.Load(cfgFile)
	switch {
	case err == nil:
		cfgErr = nil
	case errors.Is(err, fs.ErrNotExist):
		// The config file is optional; defaults are enough to trim locally
		cfg = config.Default()
		cfgErr = nil
	default:
		cfg = nil
		cfgErr = err
	}

	opts := logging.Options{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat}
	if cfg != nil {
		opts = logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	}
	if logLevel != "" {
		opts.Level = logLevel
	}
	if l, err := logging.New(opts); err == nil {
		logger = l
	} else {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// requireConfig returns the loaded configuration or the reason it could not be loaded
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("configuration not loaded: %w", cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded; run 'audio-trimmer setup' first")
	}
	return cfg, nil
}
