// Package enrich upgrades basic leads with authority, traffic and page speed
// metrics from a paid provider and re-scores them exactly once.
package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/scorer"
)

const (
	// DefaultCallTimeout bounds each provider call.
	DefaultCallTimeout = 30 * time.Second

	msgNoRunLeads    = "No leads to enrich"
	msgNothingToDo   = "No leads need enrichment"
	msgEnrichmentRan = "Enrichment complete"
)

// Store is the persistence surface the updater needs.
type Store interface {
	ListBasicLeads(ctx context.Context, ids []string) ([]model.Lead, error)
	ListRunLeadIDs(ctx context.Context, runID string) ([]string, error)
	CompleteEnrichment(ctx context.Context, lead *model.Lead) (bool, error)
	MarkAnalysisComplete(ctx context.Context, id string) (bool, error)
}

// Config tunes an Updater.
type Config struct {
	// Concurrency is the number of leads enriched at once. 1 or less is sequential.
	Concurrency int
	// CallTimeout bounds each of the three provider calls.
	CallTimeout time.Duration
}

// Result summarises one enrichment batch.
type Result struct {
	Total     int    `json:"totalLeads"`
	Enriched  int    `json:"enrichedCount"`
	Skipped   int    `json:"skippedCount"`
	NoWebsite int    `json:"noWebsiteCount"`
	Failed    int    `json:"failedCount"`
	Message   string `json:"message"`
}

// Updater merges provider metrics into stored leads.
type Updater struct {
	store    Store
	provider MetricsProvider
	cfg      Config
}

// NewUpdater creates an Updater. A nil provider behaves like NoopProvider.
func NewUpdater(st Store, provider MetricsProvider, cfg Config) *Updater {
	if provider == nil {
		provider = NoopProvider{}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Updater{store: st, provider: provider, cfg: cfg}
}

// EnrichCampaignRun enriches the basic leads linked to a campaign run.
func (u *Updater) EnrichCampaignRun(ctx context.Context, runID string) (*Result, error) {
	ids, err := u.store.ListRunLeadIDs(ctx, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: list leads for run %s", runID)
	}
	if len(ids) == 0 {
		return &Result{Message: msgNoRunLeads}, nil
	}
	return u.EnrichLeads(ctx, ids)
}

// EnrichLeads enriches the given leads that are still in the basic state.
// Leads already complete are not loaded and therefore never re-scored.
func (u *Updater) EnrichLeads(ctx context.Context, ids []string) (*Result, error) {
	leads, err := u.store.ListBasicLeads(ctx, ids)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: list basic leads")
	}
	if len(leads) == 0 {
		return &Result{Message: msgNothingToDo}, nil
	}

	log := zap.L().With(zap.String("phase", "enrich"))
	log.Info("enrich: starting batch", zap.Int("leads", len(leads)), zap.Int("concurrency", u.cfg.Concurrency))

	res := &Result{Total: len(leads)}
	var mu sync.Mutex
	record := func(o outcome) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeEnriched:
			res.Enriched++
		case outcomeSkipped:
			res.Skipped++
		case outcomeNoWebsite:
			res.NoWebsite++
		case outcomeFailed:
			res.Failed++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.Concurrency)
	for i := range leads {
		lead := leads[i]
		g.Go(func() error {
			record(u.enrichLead(gctx, &lead))
			return nil
		})
	}
	_ = g.Wait()

	res.Message = fmt.Sprintf("%s. Processed %d of %d leads", msgEnrichmentRan, res.Enriched, res.Total)
	log.Info("enrich: batch complete",
		zap.Int("total", res.Total),
		zap.Int("enriched", res.Enriched),
		zap.Int("skipped", res.Skipped),
		zap.Int("no_website", res.NoWebsite),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

type outcome int

const (
	outcomeEnriched outcome = iota
	outcomeSkipped
	outcomeNoWebsite
	outcomeFailed
)

// enrichLead runs one lead to completion. Any error or panic still marks
// the lead complete so it is never retried.
func (u *Updater) enrichLead(ctx context.Context, lead *model.Lead) (out outcome) {
	log := zap.L().With(zap.String("lead_id", lead.ID), zap.String("business", lead.BusinessName))

	if lead.Website == "" {
		log.Debug("enrich: no website, marking complete")
		if _, err := u.store.MarkAnalysisComplete(ctx, lead.ID); err != nil {
			log.Warn("enrich: mark complete failed", zap.Error(err))
			return outcomeFailed
		}
		return outcomeNoWebsite
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("enrich: panic during enrichment", zap.Any("panic", r))
			u.markFailed(ctx, lead.ID, log)
			out = outcomeFailed
		}
	}()

	start := time.Now()
	merged := Merge(*lead, u.fetch(ctx, lead.Website))

	applied, err := u.store.CompleteEnrichment(ctx, &merged)
	if err != nil {
		log.Warn("enrich: persist failed", zap.Error(err))
		u.markFailed(ctx, lead.ID, log)
		return outcomeFailed
	}
	if !applied {
		log.Debug("enrich: lead already complete, skipped")
		return outcomeSkipped
	}

	log.Debug("enrich: lead enriched",
		zap.Int("score", merged.Score),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcomeEnriched
}

func (u *Updater) markFailed(ctx context.Context, id string, log *zap.Logger) {
	if _, err := u.store.MarkAnalysisComplete(ctx, id); err != nil {
		log.Warn("enrich: mark complete after failure", zap.Error(err))
	}
}

// Partials holds the three provider results for one lead.
type Partials struct {
	Domain    DomainMetrics
	Backlinks BacklinkMetrics
	PageSpeed PageSpeedMetrics
}

// fetch issues the three provider calls concurrently. A failed or
// panicking call yields an empty partial; a failed domain call yields an
// Unknown trend.
func (u *Updater) fetch(ctx context.Context, website string) Partials {
	p := Partials{Domain: DomainMetrics{Trend: model.TrendUnknown}}
	log := zap.L().With(zap.String("website", website))

	var g errgroup.Group
	g.Go(u.call(ctx, log, "domain metrics", func(cctx context.Context) error {
		d, err := u.provider.DomainMetrics(cctx, website)
		if err != nil || d == nil {
			return err
		}
		p.Domain = *d
		if p.Domain.Trend == "" {
			p.Domain.Trend = model.TrendUnknown
		}
		return nil
	}))
	g.Go(u.call(ctx, log, "backlinks", func(cctx context.Context) error {
		b, err := u.provider.Backlinks(cctx, website)
		if err != nil || b == nil {
			return err
		}
		p.Backlinks = *b
		return nil
	}))
	g.Go(u.call(ctx, log, "page speed", func(cctx context.Context) error {
		ps, err := u.provider.PageSpeed(cctx, website)
		if err != nil || ps == nil {
			return err
		}
		p.PageSpeed = *ps
		return nil
	}))
	_ = g.Wait()
	return p
}

// call bounds fn with the per-call timeout and swallows its failure.
func (u *Updater) call(ctx context.Context, log *zap.Logger, name string, fn func(context.Context) error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				log.Warn("enrich: provider call panicked", zap.String("call", name), zap.Any("panic", r))
			}
		}()
		cctx, cancel := context.WithTimeout(ctx, u.cfg.CallTimeout)
		defer cancel()
		if err := fn(cctx); err != nil {
			log.Debug("enrich: provider call failed", zap.String("call", name), zap.Error(err))
		}
		return nil
	}
}

// Merge applies provider partials to a stored lead and re-scores it.
// Authority and traffic fields are replaced outright; LCP falls back to the
// stored value when the provider reported none. The stored issues are kept
// and only the slow LCP issue may be appended.
func Merge(lead model.Lead, p Partials) model.Lead {
	out := lead
	s := lead.Signals.Clone()

	s.TrafficTrend = p.Domain.Trend
	s.DomainRank = p.Domain.DomainRank
	s.OrganicTraffic = p.Domain.OrganicTraffic
	s.BacklinksCount = p.Backlinks.Backlinks
	s.ReferringDomains = p.Backlinks.ReferringDomains
	if p.PageSpeed.LCPMillis != nil {
		s.LCPMillis = p.PageSpeed.LCPMillis
	}

	if s.LCPMillis != nil && *s.LCPMillis > scorer.SlowLCPIssueMillis {
		s.AddIssue(model.IssueSlowLCP)
	}

	out.Signals = s
	out.AnalysisStatus = model.AnalysisComplete
	scorer.Apply(&out)
	return out
}
