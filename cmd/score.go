package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/scorer"
	"github.com/sells-group/seo-leads/internal/signals"
)

var scoreCmd = &cobra.Command{
	Use:   "score [url]",
	Short: "Audit a homepage, or rescore a stored lead, and show the breakdown",
	Long: `Score a website without storing anything, or recompute the score of a
stored lead from its saved signals.

Lower scores mean more SEO opportunity.

Examples:
  # Audit a homepage
  score https://example.com

  # Recompute a stored lead
  score --lead 3f2a9c1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("lead", "", "stored lead ID to rescore")
	scoreCmd.Flags().Bool("json", false, "print the lead as JSON")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	leadID, _ := cmd.Flags().GetString("lead")

	var lead model.Lead
	switch {
	case leadID != "":
		if err := cfg.Validate("score"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stored, err := st.GetLead(ctx, leadID)
		if err != nil {
			return eris.Wrap(err, "score: load lead")
		}
		lead = *stored
	case len(args) == 1:
		analyzer := signals.NewAnalyzer(signals.Options{
			Timeout:      cfg.Fetch.Timeout(),
			UserAgent:    cfg.Fetch.UserAgent,
			MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		})
		lead = model.Lead{
			BusinessName: args[0],
			Website:      args[0],
			Signals:      analyzer.Analyze(ctx, args[0]),
		}
	default:
		return eris.New("a url argument or --lead is required")
	}

	scorer.Apply(&lead)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(os.Stdout, lead)
	}
	formatScore(os.Stdout, &lead)
	return nil
}

// formatScore writes the score and the signals behind it.
func formatScore(out io.Writer, l *model.Lead) {
	b := scorer.PriorityOf(l.Score)
	s := &l.Signals

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Lead:\t%s\n", l.BusinessName)
	_, _ = fmt.Fprintf(w, "Score:\t%d/100 (%s %s)\n", l.Score, b.Emoji, b.Label)
	_, _ = fmt.Fprintf(w, "Notes:\t%s\n", l.Notes)
	_, _ = fmt.Fprintf(w, "Schema:\t%t\n", s.HasSchema)
	_, _ = fmt.Fprintf(w, "FAQ:\t%t\n", s.HasFAQ)
	_, _ = fmt.Fprintf(w, "Organization:\t%t\n", s.HasOrg)
	_, _ = fmt.Fprintf(w, "Meta title OK:\t%t\n", s.MetaTitleOK)
	_, _ = fmt.Fprintf(w, "Meta description OK:\t%t\n", s.MetaDescOK)
	_, _ = fmt.Fprintf(w, "Traffic trend:\t%s\n", orDash(string(s.TrafficTrend)))
	_, _ = fmt.Fprintf(w, "LCP (ms):\t%s\n", optionalFloat(s.LCPMillis))
	_, _ = fmt.Fprintf(w, "Content age (months):\t%s\n", optionalInt(s.ContentFreshMonths))
	_, _ = fmt.Fprintf(w, "Tech stack:\t%s\n", orDash(strings.Join(s.TechStack, ", ")))
	_ = w.Flush()

	if len(s.Issues) > 0 {
		_, _ = fmt.Fprintln(out, "Issues:")
		for _, issue := range s.Issues {
			_, _ = fmt.Fprintf(out, "  - %s\n", issue)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
