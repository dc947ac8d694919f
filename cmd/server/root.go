package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"knowdex/internal/config"
	"knowdex/internal/pkg/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "knowdex",
	Short: "Research paper workspaces with an AI assistant",
	Long: `knowdex serves the HTTP API for research workspaces: users upload papers
into workspaces and chat with an LLM (Groq or Gemini) that is given the
workspace's papers as context.

Running without a subcommand is the same as "knowdex serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to TOML config file (overrides CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config failed: %w", err)
	}
	log := logger.New(cfg.App.LogLevel, cfg.App.Env).With().Str("app", cfg.App.Name).Logger()
	return cfg, log, nil
}
