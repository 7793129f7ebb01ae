package google

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/seo-leads/internal/resilience"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"

	// maxPageSize is the largest page the searchText endpoint returns.
	maxPageSize = 20

	fieldMask = "places.id,places.displayName,places.websiteUri,places.nationalPhoneNumber,places.formattedAddress,nextPageToken"
)

// Client performs Google Places API operations.
type Client interface {
	// TextSearch returns up to maxResults places for a free-text query,
	// following page tokens as needed.
	TextSearch(ctx context.Context, query string, maxResults int) (*TextSearchResponse, error)
}

// TextSearchResponse is the response from Places Text Search.
type TextSearchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// Place represents a place returned by the API.
type Place struct {
	ID                  string      `json:"id"`
	DisplayName         DisplayName `json:"displayName"`
	WebsiteURI          string      `json:"websiteUri,omitempty"`
	NationalPhoneNumber string      `json:"nationalPhoneNumber,omitempty"`
	FormattedAddress    string      `json:"formattedAddress,omitempty"`
}

// City returns the first comma-separated segment of the formatted address.
func (p Place) City() string {
	if p.FormattedAddress == "" {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(p.FormattedAddress, ",", 2)[0])
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textSearchRequest struct {
	TextQuery string `json:"textQuery"`
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

func (c *httpClient) TextSearch(ctx context.Context, query string, maxResults int) (*TextSearchResponse, error) {
	if maxResults <= 0 {
		maxResults = maxPageSize
	}

	out := &TextSearchResponse{}
	token := ""
	for len(out.Places) < maxResults {
		page, err := c.searchPage(ctx, textSearchRequest{
			TextQuery: query,
			PageSize:  min(maxResults-len(out.Places), maxPageSize),
			PageToken: token,
		})
		if err != nil {
			return nil, err
		}
		out.Places = append(out.Places, page.Places...)
		token = page.NextPageToken
		if token == "" || len(page.Places) == 0 {
			break
		}
	}
	if len(out.Places) > maxResults {
		out.Places = out.Places[:maxResults]
	}
	return out, nil
}

func (c *httpClient) searchPage(ctx context.Context, reqBody textSearchRequest) (*TextSearchResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "google: marshal request")
	}

	respBody, err := resilience.Do(ctx, c.retry, "google/searchText", func(ctx context.Context) ([]byte, error) {
		return c.send(ctx, body)
	})
	if err != nil {
		return nil, eris.Wrap(err, "google: text search")
	}

	var result TextSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) send(ctx context.Context, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

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
		return nil, &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
