// Package campaign runs automated discovery across the top industries of a
// geography and records the run.
package campaign

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/discovery"
	"github.com/sells-group/seo-leads/internal/enrich"
	"github.com/sells-group/seo-leads/internal/model"
)

const (
	defaultIndustriesToSearch = 3
	defaultLeadsPerIndustry   = 10
)

// Store records campaign runs and their leads.
type Store interface {
	CreateCampaignRun(ctx context.Context, run *model.CampaignRun) error
	AddRunLeads(ctx context.Context, runID string, leadIDs []string) error
	CompleteCampaignRun(ctx context.Context, runID string, industries []model.IndustryScore, totalLeads int) error
	FailCampaignRun(ctx context.Context, runID string, message string) error
}

// LeadFinder discovers leads for one industry.
type LeadFinder interface {
	Find(ctx context.Context, req discovery.Request) ([]model.Lead, error)
}

// Enricher enriches the leads linked to a run.
type Enricher interface {
	EnrichCampaignRun(ctx context.Context, runID string) (*enrich.Result, error)
}

// Config holds per-run defaults.
type Config struct {
	IndustriesToSearch int `mapstructure:"industries_to_search"`
	LeadsPerIndustry   int `mapstructure:"leads_per_industry"`
}

// Request starts one run.
type Request struct {
	Geography          string `json:"geography"`
	CampaignID         string `json:"campaignId,omitempty"`
	IndustriesToSearch int    `json:"industriesToSearch,omitempty"`
	LeadsPerIndustry   int    `json:"leadsPerIndustry,omitempty"`
}

// Response summarises a completed run.
type Response struct {
	CampaignRunID string                `json:"campaignRunId"`
	Geography     string                `json:"geography"`
	Industries    []model.IndustryScore `json:"industries"`
	TotalLeads    int                   `json:"totalLeads"`
	Leads         []model.Lead          `json:"leads"`
	Enrichment    *enrich.Result        `json:"enrichment,omitempty"`
}

// Runner executes campaign runs.
type Runner struct {
	store    Store
	finder   LeadFinder
	enricher Enricher
	cfg      Config
}

// NewRunner creates a Runner. enricher may be nil to skip enrichment.
func NewRunner(st Store, finder LeadFinder, enricher Enricher, cfg Config) *Runner {
	if cfg.IndustriesToSearch <= 0 {
		cfg.IndustriesToSearch = defaultIndustriesToSearch
	}
	if cfg.LeadsPerIndustry <= 0 {
		cfg.LeadsPerIndustry = defaultLeadsPerIndustry
	}
	return &Runner{store: st, finder: finder, enricher: enricher, cfg: cfg}
}

// Run creates a run, discovers leads per industry, links the persisted ones,
// completes the run and then enriches it. Errors after the run is created
// mark it failed.
func (r *Runner) Run(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Geography) == "" {
		return nil, eris.New("campaign: geography is required")
	}
	industryCount := req.IndustriesToSearch
	if industryCount <= 0 {
		industryCount = r.cfg.IndustriesToSearch
	}
	perIndustry := req.LeadsPerIndustry
	if perIndustry <= 0 {
		perIndustry = r.cfg.LeadsPerIndustry
	}

	run := &model.CampaignRun{
		CampaignID: req.CampaignID,
		Geography:  req.Geography,
		Status:     model.RunStatusRunning,
	}
	if err := r.store.CreateCampaignRun(ctx, run); err != nil {
		return nil, eris.Wrap(err, "campaign: create run")
	}

	log := zap.L().With(
		zap.String("phase", "campaign"),
		zap.String("run_id", run.ID),
		zap.String("geography", req.Geography),
	)

	industries := TopIndustries(industryCount)
	log.Info("campaign: starting", zap.Int("industries", len(industries)))

	leads, err := r.discover(ctx, run.ID, req.Geography, industries, perIndustry, log)
	if err == nil {
		err = r.store.CompleteCampaignRun(ctx, run.ID, industries, len(leads))
	}
	if err != nil {
		r.fail(ctx, run.ID, err, log)
		return nil, eris.Wrapf(err, "campaign: run %s", run.ID)
	}
	log.Info("campaign: completed", zap.Int("total_leads", len(leads)))

	resp := &Response{
		CampaignRunID: run.ID,
		Geography:     req.Geography,
		Industries:    industries,
		TotalLeads:    len(leads),
		Leads:         leads,
	}

	if r.enricher != nil {
		res, err := r.enricher.EnrichCampaignRun(ctx, run.ID)
		if err != nil {
			log.Warn("campaign: enrichment failed", zap.Error(err))
		} else {
			resp.Enrichment = res
		}
	}
	return resp, nil
}

func (r *Runner) discover(ctx context.Context, runID, geography string, industries []model.IndustryScore, perIndustry int, log *zap.Logger) ([]model.Lead, error) {
	all := []model.Lead{}
	for _, ind := range industries {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "campaign: cancelled")
		}

		found, err := r.finder.Find(ctx, discovery.Request{
			Geography:  geography,
			Industry:   ind.Industry,
			MaxResults: perIndustry,
		})
		if err != nil {
			log.Warn("campaign: industry search failed", zap.String("industry", ind.Industry), zap.Error(err))
			continue
		}
		log.Info("campaign: industry searched", zap.String("industry", ind.Industry), zap.Int("leads", len(found)))

		var ids []string
		for _, l := range found {
			if l.ID != "" {
				ids = append(ids, l.ID)
			}
		}
		if err := r.store.AddRunLeads(ctx, runID, ids); err != nil {
			return nil, eris.Wrapf(err, "campaign: link leads for %s", ind.Industry)
		}
		all = append(all, found...)
	}
	return all, nil
}

func (r *Runner) fail(ctx context.Context, runID string, cause error, log *zap.Logger) {
	if err := r.store.FailCampaignRun(context.WithoutCancel(ctx), runID, cause.Error()); err != nil {
		log.Error("campaign: mark run failed", zap.Error(err))
	}
}
