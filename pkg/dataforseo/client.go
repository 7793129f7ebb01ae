// Package dataforseo is a minimal client for the DataForSEO live endpoints
// used by lead enrichment: backlink summary, domain overview and lighthouse.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/seo-leads/internal/resilience"
)

const (
	defaultBaseURL      = "https://api.dataforseo.com/v3"
	defaultLocationCode = 2840 // United States
	defaultLanguageCode = "en"

	// trendThreshold is the etv_difference beyond which traffic counts as moving.
	trendThreshold = 10
)

// Trend values returned by DomainOverview.
const (
	TrendGrowing   = "Growing"
	TrendStable    = "Stable"
	TrendDeclining = "Declining"
)

// Client performs DataForSEO API operations.
type Client interface {
	Backlinks(ctx context.Context, website string) (*BacklinkSummary, error)
	DomainOverview(ctx context.Context, website string) (*DomainOverview, error)
	Lighthouse(ctx context.Context, website string) (*LighthouseResult, error)
}

// BacklinkSummary holds authority metrics for a domain. Nil means not reported.
type BacklinkSummary struct {
	Backlinks        *float64
	ReferringDomains *float64
}

// DomainOverview holds organic traffic metrics for a domain.
type DomainOverview struct {
	Trend          string
	DomainRank     *float64
	OrganicTraffic *float64
}

// LighthouseResult holds page speed metrics for a URL.
type LighthouseResult struct {
	LCPMillis *float64
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second across all endpoints.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRetry enables retries of transient failures. Calls are attempted
// once unless this option is given.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithLocation sets the location and language codes for domain analytics.
func WithLocation(locationCode int, languageCode string) Option {
	return func(c *httpClient) {
		if locationCode > 0 {
			c.locationCode = locationCode
		}
		if languageCode != "" {
			c.languageCode = languageCode
		}
	}
}

type httpClient struct {
	auth         string
	baseURL      string
	locationCode int
	languageCode string
	http         *http.Client
	limiter      *rate.Limiter
	retry        resilience.Policy
}

// NewClient creates a client from a base64 "login:password" credential.
func NewClient(credential string, opts ...Option) Client {
	c := &httpClient{
		auth:         credential,
		baseURL:      defaultBaseURL,
		locationCode: defaultLocationCode,
		languageCode: defaultLanguageCode,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry: resilience.Policy{MaxAttempts: 1},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Credential encodes a login and password for NewClient.
func Credential(login, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(login + ":" + password))
}

// CleanDomain reduces a website URL to its bare host.
func CleanDomain(website string) string {
	d := strings.TrimSpace(website)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimSuffix(d, "/")
	if i := strings.Index(d, "/"); i >= 0 {
		d = d[:i]
	}
	return d
}

// ClassifyTrend maps an organic etv difference to a trend label.
func ClassifyTrend(etvDifference float64) string {
	switch {
	case etvDifference > trendThreshold:
		return TrendGrowing
	case etvDifference < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

type envelope[T any] struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Result        []T    `json:"result"`
	} `json:"tasks"`
}

// first returns the first result of the first task, or nil.
func (e *envelope[T]) first() *T {
	if len(e.Tasks) == 0 || len(e.Tasks[0].Result) == 0 {
		return nil
	}
	return &e.Tasks[0].Result[0]
}

type backlinksResult struct {
	Backlinks        float64 `json:"backlinks"`
	ReferringDomains float64 `json:"referring_domains"`
}

type overviewResult struct {
	Metrics struct {
		Organic struct {
			ETV           float64 `json:"etv"`
			ETVDifference float64 `json:"etv_difference"`
			Pos1          float64 `json:"pos_1"`
		} `json:"organic"`
	} `json:"metrics"`
}

type lighthouseResult struct {
	Audits map[string]struct {
		NumericValue *float64 `json:"numericValue"`
	} `json:"audits"`
}

func (c *httpClient) Backlinks(ctx context.Context, website string) (*BacklinkSummary, error) {
	var env envelope[backlinksResult]
	body := []map[string]any{{"target": CleanDomain(website)}}
	if err := c.post(ctx, "/backlinks/summary/live", body, &env); err != nil {
		return nil, eris.Wrap(err, "dataforseo: backlinks")
	}

	out := &BacklinkSummary{}
	if r := env.first(); r != nil {
		out.Backlinks = positive(r.Backlinks)
		out.ReferringDomains = positive(r.ReferringDomains)
	}
	return out, nil
}

func (c *httpClient) DomainOverview(ctx context.Context, website string) (*DomainOverview, error) {
	var env envelope[overviewResult]
	body := []map[string]any{{
		"target":        CleanDomain(website),
		"location_code": c.locationCode,
		"language_code": c.languageCode,
	}}
	if err := c.post(ctx, "/domain_analytics/google/overview/live", body, &env); err != nil {
		return nil, eris.Wrap(err, "dataforseo: domain overview")
	}

	r := env.first()
	if r == nil {
		return nil, eris.New("dataforseo: domain overview: empty result")
	}
	organic := r.Metrics.Organic
	return &DomainOverview{
		Trend:          ClassifyTrend(organic.ETVDifference),
		DomainRank:     positive(organic.Pos1),
		OrganicTraffic: positive(organic.ETV),
	}, nil
}

func (c *httpClient) Lighthouse(ctx context.Context, website string) (*LighthouseResult, error) {
	var env envelope[lighthouseResult]
	body := []map[string]any{{
		"url":        website,
		"categories": []string{"performance"},
	}}
	if err := c.post(ctx, "/on_page/lighthouse/live/json", body, &env); err != nil {
		return nil, eris.Wrap(err, "dataforseo: lighthouse")
	}

	out := &LighthouseResult{}
	if r := env.first(); r != nil {
		if audit, ok := r.Audits["largest-contentful-paint"]; ok && audit.NumericValue != nil {
			out.LCPMillis = positive(math.Round(*audit.NumericValue))
		}
	}
	return out, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	respBody, err := resilience.Do(ctx, c.retry, "dataforseo"+path, func(ctx context.Context) ([]byte, error) {
		return c.send(ctx, path, data)
	})
	if err != nil {
		return eris.Wrap(err, "send request")
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}

func (c *httpClient) send(ctx context.Context, path string, data []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Basic "+c.auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}
	return respBody, nil
}

// positive treats zero and negative metrics as not reported.
func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
