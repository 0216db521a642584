package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/deepstock/internal/cli"
	"github.com/aretw0/deepstock/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "deepstock",
	Short: "Deepstock writes investment research memos with Gemini",
	Long: `Deepstock turns a ticker symbol or company name into a structured
investment research memo: business model, moat, management, financials,
valuation and risks.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.deepstock/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (overrides config)")
	rootCmd.PersistentFlags().String("store", "", "Secret store backend: file, memory, redis, sqlite (overrides config)")
}

// setup resolves the configuration and logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if backend, _ := cmd.Flags().GetString("store"); backend != "" {
		cfg.Store.Backend = backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	return cfg, cli.CreateLogger(cfg, debug), nil
}
