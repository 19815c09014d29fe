package cmd

import (
	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
	"github.com/iQube-Protocol/moneypenny/internal/profile"
	"github.com/spf13/cobra"
)

type featuresOutput struct {
	Month             string                 `json:"month"`
	Period            string                 `json:"period"`
	TransactionCount  int                    `json:"transaction_count"`
	Features          profile.FeatureSet     `json:"features"`
	ProposedOverrides profile.PolicyOverride `json:"proposed_overrides"`
}

func newFeaturesCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "features",
		Short: "Compute features and proposed overrides for a statement JSON document",
		Long: `Read a statement document (period, balances and transactions) and print its
cash-flow features and proposed policy overrides.

Example:
  moneypenny features -f statement.json
  cat statement.json | moneypenny features -f -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer in.Close()

			stmt, err := domain.DecodeStatement(in)
			if err != nil {
				return err
			}

			features := profile.FeaturesFromStatement(stmt)
			return writeJSON(cmd, featuresOutput{
				Month:             pipeline.MonthLabel(stmt),
				Period:            pipeline.PeriodLabel(stmt),
				TransactionCount:  len(stmt.Transactions),
				Features:          features.Rounded(),
				ProposedOverrides: profile.ProposeOverrides(features).Rounded(),
			})
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "statement JSON file, or - for stdin (required)")
	_ = c.MarkFlagRequired("file")
	return c
}
