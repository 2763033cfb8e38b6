// Package main implements the actionc CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/actionc/actionc/internal/config"
	"github.com/actionc/actionc/internal/logger"
	"github.com/actionc/actionc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "actionc",
	Short: "Server action compiler",
	Long: "actionc rewrites JavaScript modules so \"use server\" actions become\n" +
		"independently invocable entry points with stable identifiers.",
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|always|never)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// applyColorMode reads the persistent --color flag and configures both the
// fatih/color package and the stderr logger accordingly.
func applyColorMode(cmd *cobra.Command) (logger.StderrColor, error) {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return logger.ColorIfTerminal, err
	}
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
		return logger.ColorIfTerminal, nil
	case "always":
		color.NoColor = false
		return logger.ColorAlways, nil
	case "never":
		color.NoColor = true
		return logger.ColorNever, nil
	default:
		return logger.ColorIfTerminal, fmt.Errorf("unsupported --color mode %q (must be auto, always, or never)", mode)
	}
}

func logLevel(cmd *cobra.Command) (logger.LogLevel, error) {
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return logger.LevelInfo, err
	}
	if quiet {
		return logger.LevelError, nil
	}
	return logger.LevelInfo, nil
}

// loadProject resolves the effective configuration: an explicit --config
// path must exist, the default actionc.toml is optional, and everything
// else falls back to defaults.
func loadProject(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	if _, err := os.Stat(config.DefaultFileName); err == nil {
		return config.Load(config.DefaultFileName)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", config.DefaultFileName, err)
	}
	return config.Default(), nil
}
