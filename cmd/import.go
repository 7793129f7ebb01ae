package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/discovery"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from CSV, auditing and scoring each website",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		geography, _ := cmd.Flags().GetString("geography")
		industry, _ := cmd.Flags().GetString("industry")

		f, err := os.Open(importCSVPath)
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer f.Close() //nolint:errcheck

		env, err := initEnv(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Finder.Import(ctx, f, discovery.ImportOptions{
			Geography: geography,
			Industry:  industry,
		})
		if err != nil {
			return eris.Wrap(err, "import csv")
		}

		zap.L().Info("import complete",
			zap.Int("imported", res.Imported),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
			zap.String("csv", importCSVPath),
		)
		formatLeadsList(os.Stdout, res.Leads)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	importCmd.Flags().String("geography", "", "geography label for imported leads")
	importCmd.Flags().String("industry", "", "industry label for imported leads")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
