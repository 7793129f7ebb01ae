package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and update stored leads",
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads, lowest score first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("leads"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := leadFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, leads)
		}
		formatLeadsList(os.Stdout, leads)
		return nil
	},
}

// -- leads show --

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show full details of a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("leads"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lead, err := st.GetLead(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "leads show")
		}
		return printJSON(os.Stdout, lead)
	},
}

// -- leads update --

var leadsUpdateCmd = &cobra.Command{
	Use:   "update <lead-id>",
	Short: "Change a lead's workflow status or priority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("leads"); err != nil {
			return err
		}

		update := workflowUpdateFromFlags(cmd)
		if err := update.Validate(); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lead, err := st.UpdateWorkflow(ctx, args[0], update)
		if err != nil {
			return eris.Wrap(err, "leads update")
		}
		return printJSON(os.Stdout, lead)
	},
}

func init() {
	addLeadFilterFlags(leadsListCmd)
	leadsListCmd.Flags().Bool("json", false, "print JSON instead of a table")

	leadsUpdateCmd.Flags().String("status", "", "new status (new, contacted, qualified, converted, lost)")
	leadsUpdateCmd.Flags().String("priority", "", "new priority (low, medium, high, urgent)")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsShowCmd)
	leadsCmd.AddCommand(leadsUpdateCmd)
	rootCmd.AddCommand(leadsCmd)
}

func addLeadFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("geography", "", "filter by geography label")
	f.String("industry", "", "filter by industry label")
	f.String("status", "", "filter by workflow status")
	f.String("priority", "", "filter by priority")
	f.String("analysis-status", "", "filter by analysis status (basic, complete)")
	f.Int("max-score", -1, "only leads scoring at or below this value")
	f.Int("limit", 50, "max number of leads")
}

func leadFilterFromFlags(cmd *cobra.Command) (store.LeadFilter, error) {
	f := cmd.Flags()
	geography, _ := f.GetString("geography")
	industry, _ := f.GetString("industry")
	status, _ := f.GetString("status")
	priority, _ := f.GetString("priority")
	analysisStatus, _ := f.GetString("analysis-status")
	maxScore, _ := f.GetInt("max-score")
	limit, _ := f.GetInt("limit")

	filter := store.LeadFilter{
		Geography:      geography,
		Industry:       industry,
		Status:         model.Status(status),
		Priority:       model.Priority(priority),
		AnalysisStatus: model.AnalysisStatus(analysisStatus),
		Limit:          limit,
	}
	if maxScore >= 0 {
		filter.MaxScore = &maxScore
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, eris.Errorf("invalid status %q", status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return filter, eris.Errorf("invalid priority %q", priority)
	}
	if filter.AnalysisStatus != "" && !filter.AnalysisStatus.Valid() {
		return filter, eris.Errorf("invalid analysis status %q", analysisStatus)
	}
	return filter, nil
}

func workflowUpdateFromFlags(cmd *cobra.Command) store.WorkflowUpdate {
	var update store.WorkflowUpdate
	if s, _ := cmd.Flags().GetString("status"); s != "" {
		status := model.Status(s)
		update.Status = &status
	}
	if p, _ := cmd.Flags().GetString("priority"); p != "" {
		priority := model.Priority(p)
		update.Priority = &priority
	}
	return update
}

// formatLeadsList writes a tabular list of leads to w.
func formatLeadsList(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tBUSINESS\tSCORE\tPRIORITY\tSTATUS\tANALYSIS\tWEBSITE")
	_, _ = fmt.Fprintln(w, "--\t--------\t-----\t--------\t------\t--------\t-------")

	for _, l := range leads {
		name := l.BusinessName
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			truncateID(l.ID),
			name,
			l.Score,
			l.Priority,
			l.Status,
			l.AnalysisStatus,
			l.Website,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
