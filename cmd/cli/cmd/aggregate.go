package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/iQube-Protocol/moneypenny/internal/profile"
	"github.com/spf13/cobra"
)

func newAggregateCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "aggregate",
		Short: "Merge per-month features into one recommendation",
		Long: `Read a JSON array of {"month": "...", "features": {...}} objects, oldest first,
and print the merged summary with its proposed overrides.

Example:
  moneypenny aggregate -f months.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer in.Close()

			var periods []profile.Period
			if err := json.NewDecoder(in).Decode(&periods); err != nil {
				return fmt.Errorf("decode months: %w", err)
			}

			for i, p := range periods {
				if !p.Features.IsFinite() {
					return fmt.Errorf("months[%d] (%s): features must be finite numbers", i, p.Label)
				}
			}

			return writeJSON(cmd, profile.MergePeriods(periods).Rounded())
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "months JSON file, or - for stdin (required)")
	_ = c.MarkFlagRequired("file")
	return c
}
