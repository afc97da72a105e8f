package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	serverAddr string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "scplay",
	Short: "Schedule scores and inspect allocators for scsynth",
	Long: `scplay talks OSC to a running scsynth. It allocates node IDs, buses and
buffers locally, tracks node lifecycles from the server's notifications and
sends timed events just ahead of their due time.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", defaultServer, "scsynth UDP address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger returns a console logger writing to stderr.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// loadFlags reads the config file and applies flags set on the command
// line over it.
func loadFlags(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return Config{}, err
	}
	if cmd.Flags().Changed("server") || cfg.Server == "" {
		cfg.Server = serverAddr
	}
	return cfg, nil
}
