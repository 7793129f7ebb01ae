package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/analysis"
	"github.com/sells-group/seo-leads/internal/campaign"
	"github.com/sells-group/seo-leads/internal/discovery"
	"github.com/sells-group/seo-leads/internal/enrich"
	"github.com/sells-group/seo-leads/internal/report"
	"github.com/sells-group/seo-leads/internal/resilience"
	"github.com/sells-group/seo-leads/internal/signals"
	"github.com/sells-group/seo-leads/internal/store"
	anthropicpkg "github.com/sells-group/seo-leads/pkg/anthropic"
	"github.com/sells-group/seo-leads/pkg/dataforseo"
	"github.com/sells-group/seo-leads/pkg/google"
)

// appEnv holds the store and every service built on top of it, shared by
// the CLI commands and the HTTP API.
type appEnv struct {
	Store    store.Store
	Sites    *signals.Analyzer
	Finder   *discovery.Finder
	Updater  *enrich.Updater
	Runner   *campaign.Runner
	Analyzer *analysis.Analyzer // nil without an Anthropic key
	Renderer *report.Renderer
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates the config for mode, opens the store and builds the
// services. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	return buildEnv(st), nil
}

// buildEnv wires the services around an open store.
func buildEnv(st store.Store) *appEnv {
	sites := signals.NewAnalyzer(signals.Options{
		Timeout:      cfg.Fetch.Timeout(),
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})
	retry := resilience.NewPolicy(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs)

	// Google Places is optional; without it discovery falls back to demo data.
	var googleClient google.Client
	if cfg.Google.Key != "" {
		googleClient = google.NewClient(cfg.Google.Key,
			google.WithBaseURL(cfg.Google.BaseURL),
			google.WithRateLimit(cfg.Google.RateLimit),
			google.WithRetry(retry),
		)
		zap.L().Info("google places api enabled")
	} else {
		zap.L().Debug("SEOLEADS_GOOGLE_KEY not set, discovery uses demo data")
	}

	finder := discovery.NewFinder(st, googleClient, sites, discovery.Config{
		DefaultMaxResults: cfg.Discovery.DefaultMaxResults,
		SearchMultiplier:  cfg.Discovery.SearchMultiplier,
		SearchCap:         cfg.Discovery.SearchCap,
		AnalyzeWorkers:    cfg.Discovery.AnalyzeWorkers,
		DemoFallback:      cfg.Discovery.DemoFallback,
	})

	var provider enrich.MetricsProvider = enrich.NoopProvider{}
	if cfg.DataForSEO.Configured() {
		credential := cfg.DataForSEO.Key
		if credential == "" {
			credential = dataforseo.Credential(cfg.DataForSEO.Login, cfg.DataForSEO.Password)
		}
		client := dataforseo.NewClient(credential,
			dataforseo.WithBaseURL(cfg.DataForSEO.BaseURL),
			dataforseo.WithRateLimit(cfg.DataForSEO.RateLimit),
			dataforseo.WithLocation(cfg.DataForSEO.LocationCode, cfg.DataForSEO.LanguageCode),
			dataforseo.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.DataForSEO.TimeoutSecs) * time.Second}),
		)
		provider = enrich.NewDataForSEOProvider(client)
		zap.L().Info("dataforseo enrichment enabled")
	} else {
		zap.L().Warn("dataforseo credentials not set, enrichment leaves authority metrics empty")
	}

	updater := enrich.NewUpdater(st, provider, enrich.Config{
		Concurrency: cfg.Enrich.Concurrency,
		CallTimeout: cfg.Enrich.CallTimeout(),
	})

	runner := campaign.NewRunner(st, finder, updater, campaign.Config{
		IndustriesToSearch: cfg.Campaign.IndustriesToSearch,
		LeadsPerIndustry:   cfg.Campaign.LeadsPerIndustry,
	})

	var analyzer *analysis.Analyzer
	if cfg.Anthropic.Key != "" {
		analyzer = analysis.NewAnalyzer(anthropicpkg.NewClient(cfg.Anthropic.Key), analysis.Config{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}, analysis.WithPageFetcher(sites))
	}

	return &appEnv{
		Store:    st,
		Sites:    sites,
		Finder:   finder,
		Updater:  updater,
		Runner:   runner,
		Analyzer: analyzer,
		Renderer: report.New(),
	}
}
