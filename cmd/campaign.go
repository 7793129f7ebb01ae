package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/campaign"
	"github.com/sells-group/seo-leads/internal/model"
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Run and inspect automated lead discovery campaigns",
}

// -- campaign run --

var campaignRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover leads across the top-ranked industries of a geography",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		geography, _ := cmd.Flags().GetString("geography")
		campaignID, _ := cmd.Flags().GetString("campaign-id")
		industries, _ := cmd.Flags().GetInt("industries")
		perIndustry, _ := cmd.Flags().GetInt("leads-per-industry")

		env, err := initEnv(ctx, "campaign")
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Runner.Run(ctx, campaign.Request{
			Geography:          geography,
			CampaignID:         campaignID,
			IndustriesToSearch: industries,
			LeadsPerIndustry:   perIndustry,
		})
		if err != nil {
			return eris.Wrap(err, "campaign run")
		}

		zap.L().Info("campaign run complete",
			zap.String("run_id", resp.CampaignRunID),
			zap.Int("leads", resp.TotalLeads),
		)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, resp)
		}
		formatCampaignResponse(os.Stdout, resp)
		return nil
	},
}

// -- campaign show --

var campaignShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a campaign run and its linked leads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("campaign"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetCampaignRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "campaign show")
		}
		ids, err := st.ListRunLeadIDs(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "campaign show: leads")
		}

		return printJSON(os.Stdout, struct {
			*model.CampaignRun
			LeadIDs []string `json:"lead_ids"`
		}{run, ids})
	},
}

func init() {
	f := campaignRunCmd.Flags()
	f.String("geography", "", "city or region to search (required)")
	f.String("campaign-id", "", "owning campaign ID")
	f.Int("industries", 0, "number of top industries to search (default from config)")
	f.Int("leads-per-industry", 0, "leads to find per industry (default from config)")
	f.Bool("json", false, "print the full response as JSON")
	_ = campaignRunCmd.MarkFlagRequired("geography")

	campaignCmd.AddCommand(campaignRunCmd)
	campaignCmd.AddCommand(campaignShowCmd)
	rootCmd.AddCommand(campaignCmd)
}

// formatCampaignResponse writes the run summary followed by its leads.
func formatCampaignResponse(out io.Writer, resp *campaign.Response) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", resp.CampaignRunID)
	_, _ = fmt.Fprintf(w, "Geography:\t%s\n", resp.Geography)
	for _, ind := range resp.Industries {
		_, _ = fmt.Fprintf(w, "Industry:\t%s (%d)\n", ind.Industry, ind.Score)
	}
	_, _ = fmt.Fprintf(w, "Total leads:\t%d\n", resp.TotalLeads)
	if e := resp.Enrichment; e != nil {
		_, _ = fmt.Fprintf(w, "Enriched:\t%d of %d\n", e.Enriched, e.Total)
	}
	_ = w.Flush()

	if len(resp.Leads) > 0 {
		_, _ = fmt.Fprintln(out)
		formatLeadsList(out, resp.Leads)
	}
}
