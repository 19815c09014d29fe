package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/iQube-Protocol/moneypenny/internal/extraction"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
	"github.com/spf13/cobra"
)

func newExtractCmd(configPath *string) *cobra.Command {
	var (
		file        string
		provider    string
		tenantID    string
		monthOffset int
	)

	c := &cobra.Command{
		Use:   "extract",
		Short: "Extract a statement document and profile it",
		Long: `Run a statement document through the configured extraction provider and
print the features and proposed overrides. Nothing is archived or recorded.

A month offset of 0 or more asks for the calendar month that many months back;
a negative offset asks for the trailing window ending today.

Example:
  moneypenny extract -f statement.pdf --provider gemini
  moneypenny extract -f statement.pdf --month-offset 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if provider != "" {
				cfg.Extraction.Provider = provider
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			ctx := logger.WithContext(cmd.Context(), newLogger(cmd, cfg.Log.Level))

			in, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			raw, err := io.ReadAll(in)
			in.Close()
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			extractor, err := extraction.New(ctx, cfg.Extraction)
			if err != nil {
				return err
			}

			input := pipeline.Input{
				TenantID: tenantID,
				Filename: filepath.Base(file),
				Raw:      raw,
			}
			if monthOffset >= 0 {
				input.Monthly, input.MonthOffset = true, monthOffset
			}

			res, err := pipeline.NewService(extractor).Run(ctx, input)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "statement document, or - for stdin (required)")
	c.Flags().StringVarP(&provider, "provider", "p", "", "extraction provider (mock, gemini); overrides the config")
	c.Flags().StringVar(&tenantID, "tenant", "local", "tenant id to attribute the run to")
	c.Flags().IntVar(&monthOffset, "month-offset", -1, "calendar month offset; negative for the trailing window")
	_ = c.MarkFlagRequired("file")
	return c
}
