package discovery

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/fetcher"
	"github.com/sells-group/seo-leads/internal/model"
)

const importedLabel = "Imported"

// ImportOptions labels imported rows.
type ImportOptions struct {
	Geography string
	Industry  string
	Delimiter rune
}

// ImportResult summarises a CSV import.
type ImportResult struct {
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Leads    []model.Lead `json:"leads"`
}

// Import reads leads from CSV, analyses and scores each website and persists
// them as basic leads. Rows without a business name are skipped.
func (f *Finder) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if strings.TrimSpace(opts.Geography) == "" {
		opts.Geography = importedLabel
	}
	if strings.TrimSpace(opts.Industry) == "" {
		opts.Industry = importedLabel
	}
	log := zap.L().With(zap.String("phase", "import"))
	req := Request{Geography: opts.Geography, Industry: opts.Industry}

	res := &ImportResult{}
	recCh, errCh := fetcher.StreamRecords(ctx, r, fetcher.CSVOptions{Delimiter: opts.Delimiter, LazyQuotes: true})
	for rec := range recCh {
		name := rec.Get("business_name", "businessname", "name")
		if name == "" {
			res.Skipped++
			continue
		}

		lead := f.buildLead(ctx, req, leadInput{
			name:    name,
			website: rec.Get("website", "url"),
			phone:   rec.Get("phone"),
			address: rec.Get("address"),
			city:    rec.Get("city"),
		}, model.SourceCSVImport)
		lead.Email = rec.Get("email")

		if err := f.store.CreateLead(ctx, &lead); err != nil {
			log.Warn("import: store lead failed", zap.String("business", name), zap.Error(err))
			res.Failed++
			continue
		}
		res.Imported++
		res.Leads = append(res.Leads, lead)
	}
	if err := <-errCh; err != nil {
		return res, err
	}

	log.Info("import: complete",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
