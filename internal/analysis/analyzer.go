package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/signals"
	"github.com/sells-group/seo-leads/pkg/anthropic"
)

const (
	defaultMaxTokens     = 8000
	htmlExcerptLimit     = 5000
	securityExcerptLimit = 8000
	contentMaxTokens     = 4096
	contentTemperature   = 0.7
)

const seoSystemPrompt = `You are an SEO and answer-engine optimization analyst. Audit the website and return only a JSON object, no markdown.`

const seoUserPrompt = `Audit this website for SEO and AEO.

%s
Return JSON with these keys:
- score: integer 0-100
- grade: one of A+, A, A-, B+, B, B-, C+, C, C-, D+, D, D-, F
- seoIssues: [{title, severity (LOW|MEDIUM|HIGH|CRITICAL), priority (1-10), description, codeSnippet, implementation, impact}]
- aeoOptimizations: [{title, description, codeSnippet, implementation, expectedImprovement}]
- technicalSeo: {present: [], missing: [], howToAdd: []}
- contentGaps: [{gap, whyItMatters, suggestions, recommendedFormat}]
- recommendations: [{title, description, codeSnippet, expectedImprovement}]`

const securitySystemPrompt = `You are a web security analyst. Audit the website for vulnerabilities and return only a JSON object, no markdown.`

const securityUserPrompt = `Audit this website for security issues.

%s
Security Headers Status:
%s

Detected Vulnerabilities:
%s

Return JSON with these keys:
- riskScore: integer 0-100, 0 is most secure
- vulnerabilities: [{title, severity (LOW|MEDIUM|HIGH|CRITICAL), cve, description, riskImpact}]
- fixes: [{vulnerability, codeFix, configuration, bestPractices}]
- strategicReport: {executiveSummary, detailedFindings, remediationRoadmap, expectedImprovements}`

const keywordsSystemPrompt = `You are an expert SEO keyword researcher. Generate highly relevant, high-value keywords with difficulty and search volume estimates.`

const keywordsUserPrompt = `Generate SEO-optimized keywords for:
Industry: %s
Geography: %s
Target: %s

Provide 20-30 keywords in JSON format with: {keyword, difficulty (1-100), estimatedVolume, intent (informational/commercial/transactional), reasoning}`

const pressReleaseSystemPrompt = `You are a professional press release writer. Create compelling, newsworthy press releases in AP style.`

const pressReleaseUserPrompt = `Write a professional press release:
Company: %s
Announcement: %s
Style: %s
Additional Info: %s

Include: headline, dateline, lead paragraph, body, boilerplate, and contact information.`

const articleSystemPrompt = `You are an expert content writer specializing in SEO-optimized long-form articles.`

const articleUserPrompt = `Write an SEO-optimized article:
Topic: %s
Keywords: %s
Tone: %s
Length: %s words

Include: compelling headline, meta description, introduction, H2/H3 structure, conclusion, and naturally integrated keywords.`

// Config tunes the Analyzer.
type Config struct {
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// Request describes one audit or content draft. Audits need URL or
// HTMLSource; content needs ContentType and its required Params.
type Request struct {
	Kind        Kind              `json:"type"`
	URL         string            `json:"url,omitempty"`
	HTMLSource  string            `json:"htmlSource,omitempty"`
	ContentType ContentType       `json:"contentType,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

// Validate checks the kind and that there is something to work from.
func (r Request) Validate() error {
	if !r.Kind.Valid() {
		return eris.Errorf("analysis: unknown type %q", r.Kind)
	}
	if r.Kind == KindContent {
		if !r.ContentType.Valid() {
			return eris.Errorf("analysis: unknown contentType %q", r.ContentType)
		}
		for _, k := range requiredParams[r.ContentType] {
			if strings.TrimSpace(r.Params[k]) == "" {
				return eris.Errorf("analysis: %s requires params.%s", r.ContentType, k)
			}
		}
		return nil
	}
	if strings.TrimSpace(r.URL) == "" && strings.TrimSpace(r.HTMLSource) == "" {
		return eris.New("analysis: url or htmlSource is required")
	}
	return nil
}

// PageFetcher downloads a page with its response headers.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*signals.Page, error)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPageFetcher lets security audits fetch the URL to check response
// headers and scan the served HTML.
func WithPageFetcher(f PageFetcher) Option {
	return func(a *Analyzer) { a.pages = f }
}

// Analyzer runs audits and content drafts through an LLM.
type Analyzer struct {
	client anthropic.Client
	cfg    Config
	pages  PageFetcher
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(client anthropic.Client, cfg Config, opts ...Option) *Analyzer {
	if cfg.Model == "" {
		cfg.Model = anthropic.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	a := &Analyzer{client: client, cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze sends the prompt and parses the reply. Only request and
// transport errors are returned; bad model output becomes a Failed result.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg := anthropic.MessageRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
	}
	var scan *SecurityScan
	var user string
	switch req.Kind {
	case KindContent:
		msg.System, user = contentPrompts(req.ContentType, req.Params)
		msg.MaxTokens = min(msg.MaxTokens, contentMaxTokens)
		temp := contentTemperature
		msg.Temperature = &temp
	case KindSecurity:
		var src string
		scan, src = a.scan(ctx, req)
		msg.System, user = securitySystemPrompt, securityPrompt(req.URL, src, scan)
	default:
		msg.System, user = seoSystemPrompt, fmt.Sprintf(seoUserPrompt, subject(req.URL, req.HTMLSource, htmlExcerptLimit))
	}
	msg.Messages = []anthropic.Message{{Role: "user", Content: user}}

	resp, err := a.client.CreateMessage(ctx, msg)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: %s request", req.Kind)
	}
	resp.Usage.LogCost(a.cfg.Model, "analysis_"+string(req.Kind))

	res := Parse(req.Kind, resp.Text())
	res.Scan = scan
	if res.Content != nil {
		res.Content.Type = req.ContentType
	}
	if res.Failed {
		zap.L().Warn("analysis: unparseable model output",
			zap.String("kind", string(req.Kind)),
			zap.String("url", req.URL),
			zap.String("error", res.Error),
		)
	}
	return res, nil
}

// scan runs the header and markup checks for a security audit and returns
// the HTML to quote in the prompt. A failed fetch leaves the header report
// empty; provided HTMLSource wins over the fetched body.
func (a *Analyzer) scan(ctx context.Context, req Request) (*SecurityScan, string) {
	headers := emptyHeaderReport()
	src := req.HTMLSource
	if req.URL != "" && a.pages != nil {
		page, err := a.pages.Fetch(ctx, req.URL)
		if err != nil {
			zap.L().Warn("analysis: security fetch failed",
				zap.String("url", req.URL),
				zap.Error(err),
			)
		} else {
			headers = CheckHeaders(page.Header, req.URL)
			if src == "" {
				src = page.Body
			}
		}
	}
	return &SecurityScan{
		Headers:         headers,
		Vulnerabilities: ScanHTML(src, req.URL),
		HTTPS:           headers.HTTPS,
	}, src
}

func subject(url, src string, limit int) string {
	var b strings.Builder
	if url != "" {
		fmt.Fprintf(&b, "URL: %s\n", url)
	}
	if src != "" {
		fmt.Fprintf(&b, "HTML Source: %s\n", truncate(src, limit))
	}
	return b.String()
}

func securityPrompt(url, src string, scan *SecurityScan) string {
	headers, _ := json.MarshalIndent(scan.Headers, "", "  ")
	vulns, _ := json.MarshalIndent(scan.Vulnerabilities, "", "  ")
	return fmt.Sprintf(securityUserPrompt, subject(url, src, securityExcerptLimit), headers, vulns)
}

func contentPrompts(t ContentType, p map[string]string) (system, user string) {
	param := func(k, def string) string {
		if v := strings.TrimSpace(p[k]); v != "" {
			return v
		}
		return def
	}
	switch t {
	case ContentKeywords:
		return keywordsSystemPrompt, fmt.Sprintf(keywordsUserPrompt,
			param("industry", ""), param("geography", "Global"), param("target", "General"))
	case ContentPressRelease:
		return pressReleaseSystemPrompt, fmt.Sprintf(pressReleaseUserPrompt,
			param("company", ""), param("announcement", ""), param("style", "Professional"), param("additionalInfo", ""))
	default:
		return articleSystemPrompt, fmt.Sprintf(articleUserPrompt,
			param("topic", ""), param("keywords", ""), param("tone", "Professional"), param("length", "1500"))
	}
}
