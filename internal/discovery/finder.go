// Package discovery finds local businesses for an industry and geography,
// analyses their websites and stores them as scored leads.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/scorer"
	"github.com/sells-group/seo-leads/pkg/google"
)

const (
	defaultMaxResults       = 3
	defaultSearchMultiplier = 6
	defaultSearchCap        = 60
	defaultAnalyzeWorkers   = 4
	maxDemoLeads            = 3
)

// Store persists discovered leads.
type Store interface {
	CreateLead(ctx context.Context, lead *model.Lead) error
}

// SiteAnalyzer produces the basic signal set for a website. It never fails.
type SiteAnalyzer interface {
	Analyze(ctx context.Context, website string) model.Signals
}

// Config tunes a Finder.
type Config struct {
	DefaultMaxResults int  `mapstructure:"default_max_results"`
	SearchMultiplier  int  `mapstructure:"search_multiplier"`
	SearchCap         int  `mapstructure:"search_cap"`
	AnalyzeWorkers    int  `mapstructure:"analyze_workers"`
	DemoFallback      bool `mapstructure:"demo_fallback"`
}

func (c Config) withDefaults() Config {
	if c.DefaultMaxResults <= 0 {
		c.DefaultMaxResults = defaultMaxResults
	}
	if c.SearchMultiplier <= 0 {
		c.SearchMultiplier = defaultSearchMultiplier
	}
	if c.SearchCap <= 0 {
		c.SearchCap = defaultSearchCap
	}
	if c.AnalyzeWorkers <= 0 {
		c.AnalyzeWorkers = defaultAnalyzeWorkers
	}
	return c
}

// Request describes one find-leads call.
type Request struct {
	Geography  string `json:"geography"`
	Industry   string `json:"industry"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// Validate checks the required fields.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Geography) == "" {
		return eris.New("discovery: geography is required")
	}
	if strings.TrimSpace(r.Industry) == "" {
		return eris.New("discovery: industry is required")
	}
	if r.MaxResults < 0 {
		return eris.New("discovery: maxResults must not be negative")
	}
	return nil
}

// Finder discovers, analyses, scores and stores leads.
type Finder struct {
	store    Store
	places   google.Client
	analyzer SiteAnalyzer
	cfg      Config
}

// NewFinder creates a Finder. places may be nil, in which case only the
// demo fallback can produce leads.
func NewFinder(st Store, places google.Client, analyzer SiteAnalyzer, cfg Config) *Finder {
	return &Finder{store: st, places: places, analyzer: analyzer, cfg: cfg.withDefaults()}
}

// Find returns the neediest leads for the request, lowest score first.
func (f *Finder) Find(ctx context.Context, req Request) ([]model.Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	want := req.MaxResults
	if want == 0 {
		want = f.cfg.DefaultMaxResults
	}

	log := zap.L().With(
		zap.String("phase", "discovery"),
		zap.String("geography", req.Geography),
		zap.String("industry", req.Industry),
	)

	leads := f.fromPlaces(ctx, req, want, log)
	if len(leads) == 0 && f.cfg.DemoFallback {
		log.Info("discovery: no places found, using demo data")
		leads = f.demoLeads(ctx, req, want)
	}

	sort.SliceStable(leads, func(i, j int) bool { return leads[i].Score < leads[j].Score })
	if len(leads) > want {
		leads = leads[:want]
	}
	log.Info("discovery: complete", zap.Int("returned", len(leads)))
	return leads, nil
}

// SearchLimit is the number of places examined for a requested result count.
func (f *Finder) SearchLimit(want int) int {
	return min(want*f.cfg.SearchMultiplier, f.cfg.SearchCap)
}

func (f *Finder) fromPlaces(ctx context.Context, req Request, want int, log *zap.Logger) []model.Lead {
	if f.places == nil {
		return nil
	}

	query := fmt.Sprintf("%s in %s", req.Industry, req.Geography)
	resp, err := f.places.TextSearch(ctx, query, f.SearchLimit(want))
	if err != nil {
		log.Warn("discovery: places search failed", zap.Error(err))
		return nil
	}
	places := resp.Places
	if limit := f.SearchLimit(want); len(places) > limit {
		places = places[:limit]
	}
	log.Info("discovery: places found", zap.Int("count", len(places)))

	candidates := make([]model.Lead, len(places))
	f.analyzeAll(len(places), func(i int) {
		p := places[i]
		candidates[i] = f.buildLead(ctx, req, leadInput{
			name:    p.DisplayName.Text,
			website: p.WebsiteURI,
			phone:   p.NationalPhoneNumber,
			address: p.FormattedAddress,
			city:    p.City(),
		}, model.SourceGooglePlaces)
	})

	var leads []model.Lead
	for i := range candidates {
		lead := candidates[i]
		if strings.TrimSpace(lead.BusinessName) == "" {
			log.Debug("discovery: place without a name skipped", zap.String("place_id", places[i].ID))
			continue
		}
		if err := f.store.CreateLead(ctx, &lead); err != nil {
			log.Warn("discovery: store lead failed", zap.String("business", lead.BusinessName), zap.Error(err))
			continue
		}
		leads = append(leads, lead)
	}
	return leads
}

// demoLeads synthesises placeholder leads. They are never persisted.
func (f *Finder) demoLeads(ctx context.Context, req Request, want int) []model.Lead {
	n := min(want, maxDemoLeads)
	leads := make([]model.Lead, n)
	city := strings.TrimSpace(strings.SplitN(req.Geography, ",", 2)[0])
	f.analyzeAll(n, func(i int) {
		leads[i] = f.buildLead(ctx, req, leadInput{
			name:    fmt.Sprintf("%s Business %d", req.Industry, i+1),
			website: fmt.Sprintf("https://example-%d.com", i),
			phone:   fmt.Sprintf("(555) %03d-%04d", i, i),
			address: fmt.Sprintf("%d Main St, %s", i+1, req.Geography),
			city:    city,
		}, model.SourceDemo)
	})
	return leads
}

// analyzeAll runs fn for 0..n-1 with bounded concurrency.
func (f *Finder) analyzeAll(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(f.cfg.AnalyzeWorkers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

type leadInput struct {
	name, website, phone, address, city string
}

func (f *Finder) buildLead(ctx context.Context, req Request, in leadInput, source string) model.Lead {
	var signals model.Signals
	if in.website != "" {
		signals = f.analyzer.Analyze(ctx, in.website)
	} else {
		signals = model.FailedSignals(model.IssueNoWebsite)
	}

	lead := model.Lead{
		BusinessName:   in.name,
		Website:        in.website,
		Phone:          in.phone,
		Address:        in.address,
		City:           in.city,
		Geography:      req.Geography,
		Industry:       req.Industry,
		Signals:        signals,
		Source:         source,
		Status:         model.StatusNew,
		AnalysisStatus: model.AnalysisBasic,
	}
	scorer.Apply(&lead)
	lead.Priority = scorer.PriorityOf(lead.Score).Priority
	return lead
}
