package cmd

import (
	"fmt"

	"github.com/rustyeddy/fxjournal/config"
	"github.com/rustyeddy/fxjournal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "fxjournal",
	Short: "Forex and metals position sizing with a trade journal",
	Long: `fxjournal sizes forex and metal positions and keeps a trading journal.

It provides tools for:
  - Margin and pip/point value for a position
  - Risk-based position sizing with risk/reward
  - A local SQLite trade journal with CSV and Org-mode export
  - Syncing the journal with the remote sheet worker
  - A small JSON API for the web UI

Rates come from an exchangerate-api style service, or from a static table
in the config file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile  string
	logLevel string

	cfg *config.Config
	log = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() { _ = log.Sync() }()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
}

// setup loads the configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log, err = logger.New(level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}
