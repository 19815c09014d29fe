// Package cmd implements the moneypenny command line.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/iQube-Protocol/moneypenny/internal/config"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Commands write JSON to stdout and logs to stderr.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "moneypenny",
		Short: "Cash-flow features and policy overrides from bank statements",
		Long: `Moneypenny turns bank statements into daily cash-flow features and proposes
bounded trading-policy overrides from them.

Examples:
  moneypenny features -f statement.json
  moneypenny aggregate -f months.json
  moneypenny extract -f statement.pdf --provider mock --month-offset 1
  moneypenny migrate --config config.yaml`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		newFeaturesCmd(),
		newAggregateCmd(),
		newExtractCmd(&configPath),
		newMigrateCmd(&configPath),
	)
	return root
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig applies the YAML file, .env and the environment, in that order.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, level string) zerolog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr()).Level(logger.ParseLevel(level))
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
