package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/discovery"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Discover, audit and score leads for an industry in a geography",
	Example: `  seo-leads find --geography "Austin, TX" --industry "Plumbing Services" --max 5
  seo-leads find --geography Denver --industry HVAC --json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		geography, _ := cmd.Flags().GetString("geography")
		industry, _ := cmd.Flags().GetString("industry")
		maxResults, _ := cmd.Flags().GetInt("max")
		req := discovery.Request{Geography: geography, Industry: industry, MaxResults: maxResults}
		if err := req.Validate(); err != nil {
			return err
		}

		env, err := initEnv(ctx, "find")
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := env.Finder.Find(ctx, req)
		if err != nil {
			return eris.Wrap(err, "find leads")
		}

		zap.L().Info("find complete",
			zap.String("geography", geography),
			zap.String("industry", industry),
			zap.Int("leads", len(leads)),
		)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, nonNilLeads(leads))
		}
		formatLeadsList(os.Stdout, leads)
		return nil
	},
}

func init() {
	f := findCmd.Flags()
	f.String("geography", "", "city or region to search (required)")
	f.String("industry", "", "industry to search (required)")
	f.Int("max", 0, "number of leads to return (default from config)")
	f.Bool("json", false, "print JSON instead of a table")
	_ = findCmd.MarkFlagRequired("geography")
	_ = findCmd.MarkFlagRequired("industry")
	rootCmd.AddCommand(findCmd)
}
