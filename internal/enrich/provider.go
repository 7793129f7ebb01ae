package enrich

import (
	"context"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/pkg/dataforseo"
)

// DomainMetrics is the traffic partial of an enrichment pass.
type DomainMetrics struct {
	Trend          model.TrafficTrend
	DomainRank     *float64
	OrganicTraffic *float64
}

// BacklinkMetrics is the authority partial of an enrichment pass.
type BacklinkMetrics struct {
	Backlinks        *float64
	ReferringDomains *float64
}

// PageSpeedMetrics is the performance partial of an enrichment pass.
type PageSpeedMetrics struct {
	LCPMillis *float64
}

// MetricsProvider fetches the three metric groups for a website.
type MetricsProvider interface {
	DomainMetrics(ctx context.Context, website string) (*DomainMetrics, error)
	Backlinks(ctx context.Context, website string) (*BacklinkMetrics, error)
	PageSpeed(ctx context.Context, website string) (*PageSpeedMetrics, error)
}

// DataForSEOProvider adapts a dataforseo.Client to MetricsProvider.
type DataForSEOProvider struct {
	client dataforseo.Client
}

// NewDataForSEOProvider wraps the client.
func NewDataForSEOProvider(c dataforseo.Client) *DataForSEOProvider {
	return &DataForSEOProvider{client: c}
}

func (p *DataForSEOProvider) DomainMetrics(ctx context.Context, website string) (*DomainMetrics, error) {
	ov, err := p.client.DomainOverview(ctx, website)
	if err != nil {
		return nil, err
	}
	return &DomainMetrics{
		Trend:          model.TrafficTrend(ov.Trend),
		DomainRank:     ov.DomainRank,
		OrganicTraffic: ov.OrganicTraffic,
	}, nil
}

func (p *DataForSEOProvider) Backlinks(ctx context.Context, website string) (*BacklinkMetrics, error) {
	bl, err := p.client.Backlinks(ctx, website)
	if err != nil {
		return nil, err
	}
	return &BacklinkMetrics{Backlinks: bl.Backlinks, ReferringDomains: bl.ReferringDomains}, nil
}

func (p *DataForSEOProvider) PageSpeed(ctx context.Context, website string) (*PageSpeedMetrics, error) {
	lh, err := p.client.Lighthouse(ctx, website)
	if err != nil {
		return nil, err
	}
	return &PageSpeedMetrics{LCPMillis: lh.LCPMillis}, nil
}

// NoopProvider returns empty partials. It stands in when no metrics
// credentials are configured so enrichment still marks leads complete.
type NoopProvider struct{}

func (NoopProvider) DomainMetrics(context.Context, string) (*DomainMetrics, error) {
	return &DomainMetrics{Trend: model.TrendUnknown}, nil
}

func (NoopProvider) Backlinks(context.Context, string) (*BacklinkMetrics, error) {
	return &BacklinkMetrics{}, nil
}

func (NoopProvider) PageSpeed(context.Context, string) (*PageSpeedMetrics, error) {
	return &PageSpeedMetrics{}, nil
}
