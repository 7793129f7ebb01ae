package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/enrich"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [lead-id...]",
	Short: "Add authority and performance metrics to basic leads",
	Long: `Fetches domain analytics, backlinks and page speed for every lead still in
the basic analysis state, recomputes its score and marks it complete.

Pass lead IDs as arguments, or --run to enrich the leads of a campaign run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runID, _ := cmd.Flags().GetString("run")
		if runID == "" && len(args) == 0 {
			return eris.New("lead IDs or --run is required")
		}

		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		var res *enrich.Result
		if runID != "" {
			res, err = env.Updater.EnrichCampaignRun(ctx, runID)
		} else {
			res, err = env.Updater.EnrichLeads(ctx, args)
		}
		if err != nil {
			return eris.Wrap(err, "enrich")
		}

		zap.L().Info("enrich complete",
			zap.Int("total", res.Total),
			zap.Int("enriched", res.Enriched),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)
		return printJSON(os.Stdout, res)
	},
}

func init() {
	enrichCmd.Flags().String("run", "", "campaign run ID whose leads to enrich")
	rootCmd.AddCommand(enrichCmd)
}
