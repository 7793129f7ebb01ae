package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/report"
	"github.com/sells-group/seo-leads/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report [lead-id...]",
	Short: "Render lead reports as text or HTML files",
	Long: `Render one report per lead ID, or with --bulk a single document covering
every lead that matches the filter flags.

Examples:
  # Single reports into ./reports
  report 3f2a9c1e-... 7b1d... --format html --out reports

  # Bulk report for a geography and industry
  report --bulk --geography "Austin, TX" --industry HVAC --format txt`,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.String("format", "txt", "output format (txt, html)")
	f.String("out", ".", "directory to write reports into")
	f.Bool("bulk", false, "render one bulk report from the filter flags")
	addLeadFilterFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	bulk, _ := cmd.Flags().GetBool("bulk")
	if !bulk && len(args) == 0 {
		return eris.New("lead IDs or --bulk is required")
	}

	if err := cfg.Validate("report"); err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrap(err, "report: create output dir")
	}
	r := report.New()

	if bulk {
		filter, err := leadFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		return writeBulkReport(ctx, st, r, filter, format, outDir)
	}

	for _, id := range args {
		lead, err := st.GetLead(ctx, id)
		if err != nil {
			return eris.Wrapf(err, "report: load lead %s", id)
		}
		body, err := r.Render(lead, format)
		if err != nil {
			return err
		}
		if err := writeReportFile(outDir, report.Filename(lead, format), body); err != nil {
			return err
		}
	}
	return nil
}

func writeBulkReport(ctx context.Context, st store.Store, r *report.Renderer, filter store.LeadFilter, format report.Format, outDir string) error {
	leads, err := st.ListLeads(ctx, filter)
	if err != nil {
		return eris.Wrap(err, "report: list leads")
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	body, err := r.RenderBulk(leads, filter.Geography, filter.Industry, format)
	if err != nil {
		return err
	}
	return writeReportFile(outDir, report.BulkFilename(filter.Geography, filter.Industry, format), body)
}

func writeReportFile(dir, name string, body []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	zap.L().Info("report written", zap.String("path", path), zap.Int("bytes", len(body)))
	return nil
}
