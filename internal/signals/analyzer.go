package signals

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/model"
)

const (
	// DefaultTimeout bounds the whole homepage fetch.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is sent on every homepage fetch.
	DefaultUserAgent = "Mozilla/5.0 (compatible; SEOBot/1.0)"
	// defaultMaxBodyBytes caps the HTML downloaded per site.
	defaultMaxBodyBytes = 2 << 20
)

// Options configures an Analyzer.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	HTTPClient   *http.Client
	Now          func() time.Time
}

// Analyzer fetches a homepage and extracts its signal set.
type Analyzer struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
	maxBody   int64
	now       func() time.Time
}

// Page is a fetched homepage. Body is capped at the analyzer's limit.
type Page struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       string
}

// OK reports a 2xx response.
func (p *Page) OK() bool { return p.StatusCode >= 200 && p.StatusCode <= 299 }

// NewAnalyzer creates an Analyzer. Zero-valued options fall back to defaults.
func NewAnalyzer(opts Options) *Analyzer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.DialContext = (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		tr.TLSHandshakeTimeout = timeout
		hc = &http.Client{Timeout: timeout, Transport: tr}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		http:      hc,
		timeout:   timeout,
		userAgent: ua,
		maxBody:   maxBody,
		now:       now,
	}
}

// Analyze fetches the website and returns its basic signal set. It never
// returns an error: a non-2xx response yields the "Website unreachable"
// set and any transport or read failure yields the "Analysis failed" set.
func (a *Analyzer) Analyze(ctx context.Context, website string) model.Signals {
	log := zap.L().With(zap.String("website", website))
	start := a.now()

	page, err := a.Fetch(ctx, website)
	if err != nil {
		log.Debug("signals: fetch failed", zap.Error(err))
		return model.FailedSignals(model.IssueAnalysisFailed)
	}
	if !page.OK() {
		log.Debug("signals: non-2xx response", zap.Int("status", page.StatusCode))
		return model.FailedSignals(model.IssueWebsiteUnreachable)
	}

	s := Extract(page.Body, a.now())
	log.Debug("signals: analysis complete",
		zap.Duration("elapsed", a.now().Sub(start)),
		zap.Int("issues", len(s.Issues)),
		zap.Strings("tech_stack", s.TechStack),
	)
	return s
}

// Fetch downloads the page at website within the analyzer's timeout. The
// body is read whatever the status code; transport failures are errors.
func (a *Analyzer) Fetch(ctx context.Context, website string) (*Page, error) {
	target, err := NormalizeURL(website)
	if err != nil {
		return nil, eris.Wrap(err, "signals: parse url")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "signals: create request")
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "signals: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "signals: read body")
	}
	return &Page{URL: target, StatusCode: resp.StatusCode, Header: resp.Header, Body: string(body)}, nil
}

// NormalizeURL adds an https scheme when missing and ensures a path.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.New("signals: empty url")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", eris.Errorf("signals: url %q has no host", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
