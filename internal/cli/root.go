// Package cli wires the capture engine into a small cobra-based command
// line: device listing, live metering, and recording to a WAV file.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/emberquiz/voicecapture/internal/audio"
	"github.com/emberquiz/voicecapture/internal/config"
	"github.com/emberquiz/voicecapture/internal/logging"
	"github.com/emberquiz/voicecapture/internal/permissions"
)

var (
	cfg     *config.Config
	cfgFile string
	verbose bool
	log     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "voicecapture",
	Short: "Record and analyze spoken audio responses",
	Long: `voicecapture records microphone audio in fixed-size windows, keeps a
smoothed live level estimate, and finalizes recordings as 16-bit PCM WAV
files with true-peak and loudness measurements.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = defaultConfigPath()
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		log = logging.New(level)
		return nil
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/voicecapture.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(meterCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(configCmd)
}

// ensureMicAccess verifies microphone authorization before any device is
// opened, mapping host refusal onto the engine's error taxonomy.
func ensureMicAccess() error {
	if err := permissions.EnsureMicrophone(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrPermissionDenied, err)
	}
	return nil
}

func defaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "voicecapture.yaml")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "voicecapture.yaml")
}
