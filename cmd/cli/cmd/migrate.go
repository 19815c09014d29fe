package cmd

import (
	"errors"
	"fmt"
	"os"

	infraBQ "github.com/iQube-Protocol/moneypenny/internal/infra/bigquery"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var appliedBy string

	c := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending BigQuery schema migrations",
		Long: `Create or update the extraction and aggregate tables in the configured
BigQuery dataset. Already applied migrations are skipped.

Example:
  BQ_PROJECT_ID=my-project moneypenny migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.BigQuery.ProjectID == "" {
				return errors.New("bigquery.project_id (or BQ_PROJECT_ID) is required")
			}

			log := newLogger(cmd, cfg.Log.Level)
			ctx := logger.WithContext(cmd.Context(), log)

			repo, err := infraBQ.NewProfileRepository(ctx, cfg.BigQuery)
			if err != nil {
				return err
			}
			defer repo.Close()

			if appliedBy == "" {
				appliedBy = os.Getenv("USER")
			}

			applied, err := repo.Migrate(ctx, appliedBy)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			log.Info().Int("applied", applied).Str("dataset", cfg.BigQuery.Dataset).Msg("Migrations complete")
			return writeJSON(cmd, map[string]interface{}{
				"project_id": cfg.BigQuery.ProjectID,
				"dataset":    cfg.BigQuery.Dataset,
				"applied":    applied,
			})
		},
	}

	c.Flags().StringVar(&appliedBy, "applied-by", "", "name recorded against applied migrations (default $USER)")
	return c
}
