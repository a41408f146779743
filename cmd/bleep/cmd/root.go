package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kevintanjc/bleep/internal/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	cfg config.Config

	flagDataDir  string
	flagBackend  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "bleep",
	Short: "bleep keeps your originals behind a biometric or PIN lock",
	Long: `bleep gates the originals collection behind a short-lived session unlocked
with platform biometrics, falling back to a numeric PIN.

Settings come from BLEEP_* environment variables; flags override them.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Parse()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data-dir") {
		loaded.DataDir = flagDataDir
	}
	if cmd.Flags().Changed("backend") {
		loaded.Backend = flagBackend
	}
	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel = flagLogLevel
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	level, err := loaded.SlogLevel()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	cfg = loaded
	return nil
}

// Execute runs the root command. Cobra has already printed any error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory for the secure store (default $BLEEP_DATA_DIR or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: bbolt, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("bleep %s\n", Version))
}
