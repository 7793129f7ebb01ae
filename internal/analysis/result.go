// Package analysis turns LLM site audits and content drafts into typed,
// validated results.
package analysis

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind selects the audit type.
type Kind string

const (
	KindSEO      Kind = "seo"
	KindSecurity Kind = "security"
	KindContent  Kind = "content"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSEO, KindSecurity, KindContent:
		return true
	}
	return false
}

// ContentType selects what a content request drafts.
type ContentType string

const (
	ContentKeywords     ContentType = "keywords"
	ContentPressRelease ContentType = "press_release"
	ContentArticle      ContentType = "article"
)

// requiredParams lists the params each content type cannot do without.
var requiredParams = map[ContentType][]string{
	ContentKeywords:     {"industry"},
	ContentPressRelease: {"company", "announcement"},
	ContentArticle:      {"topic"},
}

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	_, ok := requiredParams[t]
	return ok
}

// Severity levels accepted in findings.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// GradeUnknown replaces grades outside the letter scale.
const GradeUnknown = "N/A"

var grades = map[string]bool{
	"A+": true, "A": true, "A-": true,
	"B+": true, "B": true, "B-": true,
	"C+": true, "C": true, "C-": true,
	"D+": true, "D": true, "D-": true,
	"F": true,
}

// Result is a tagged result. Exactly one of SEO, Security or Content is
// set, matching Kind. Scan accompanies security audits.
type Result struct {
	Kind        Kind            `json:"kind"`
	SEO         *SEOResult      `json:"seo,omitempty"`
	Security    *SecurityResult `json:"security,omitempty"`
	Content     *ContentResult  `json:"content,omitempty"`
	Scan        *SecurityScan   `json:"realSecurityData,omitempty"`
	Failed      bool            `json:"failed,omitempty"`
	Error       string          `json:"error,omitempty"`
	RawResponse string          `json:"rawResponse,omitempty"`
}

// SEOResult is an SEO/AEO audit.
type SEOResult struct {
	Score            int              `json:"score"`
	Grade            string           `json:"grade"`
	Issues           []SEOIssue       `json:"seoIssues"`
	AEOOptimizations []Optimization   `json:"aeoOptimizations"`
	TechnicalSEO     TechnicalSEO     `json:"technicalSeo"`
	ContentGaps      []ContentGap     `json:"contentGaps"`
	Recommendations  []Recommendation `json:"recommendations"`
}

// SEOIssue is one prioritised SEO problem.
type SEOIssue struct {
	Title          string `json:"title"`
	Severity       string `json:"severity"`
	Priority       int    `json:"priority"`
	Description    Text   `json:"description"`
	CodeSnippet    Text   `json:"codeSnippet,omitempty"`
	Implementation Text   `json:"implementation,omitempty"`
	Impact         Text   `json:"impact,omitempty"`
}

// Optimization is an answer-engine improvement.
type Optimization struct {
	Title               string `json:"title"`
	Description         Text   `json:"description"`
	CodeSnippet         Text   `json:"codeSnippet,omitempty"`
	Implementation      Text   `json:"implementation,omitempty"`
	ExpectedImprovement Text   `json:"expectedImprovement,omitempty"`
}

// TechnicalSEO lists present and missing technical elements.
type TechnicalSEO struct {
	Present  []string `json:"present"`
	Missing  []string `json:"missing"`
	HowToAdd []string `json:"howToAdd"`
}

// ContentGap is a missing content area.
type ContentGap struct {
	Gap               string `json:"gap"`
	WhyItMatters      Text   `json:"whyItMatters"`
	Suggestions       Text   `json:"suggestions"`
	RecommendedFormat Text   `json:"recommendedFormat,omitempty"`
}

// Recommendation is a general improvement.
type Recommendation struct {
	Title               string `json:"title"`
	Description         Text   `json:"description"`
	CodeSnippet         Text   `json:"codeSnippet,omitempty"`
	ExpectedImprovement Text   `json:"expectedImprovement,omitempty"`
}

// SecurityResult is a security audit. RiskScore 0 is most secure.
type SecurityResult struct {
	RiskScore       int             `json:"riskScore"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Fixes           []Fix           `json:"fixes"`
	StrategicReport StrategicReport `json:"strategicReport"`
}

// Vulnerability is one security finding.
type Vulnerability struct {
	Title       string `json:"title"`
	Severity    string `json:"severity"`
	CVE         string `json:"cve,omitempty"`
	Description Text   `json:"description"`
	RiskImpact  Text   `json:"riskImpact,omitempty"`
}

// Fix remediates a vulnerability.
type Fix struct {
	Vulnerability string `json:"vulnerability"`
	CodeFix       Text   `json:"codeFix,omitempty"`
	Configuration Text   `json:"configuration,omitempty"`
	BestPractices Text   `json:"bestPractices,omitempty"`
}

// StrategicReport is the narrative part of a security audit.
type StrategicReport struct {
	ExecutiveSummary     Text `json:"executiveSummary"`
	DetailedFindings     Text `json:"detailedFindings"`
	RemediationRoadmap   Text `json:"remediationRoadmap"`
	ExpectedImprovements Text `json:"expectedImprovements"`
}

// ContentResult is a generated draft, returned as the model wrote it.
type ContentResult struct {
	Type ContentType `json:"type"`
	Body string      `json:"body"`
}

// Text is free text that models sometimes return as a list of strings.
// A list is joined with newlines.
type Text string

// UnmarshalJSON accepts a string, a list of strings or null.
func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = Text(strings.Join(list, "\n"))
		return nil
	}
	return eris.Errorf("analysis: expected string or list of strings, got %s", truncate(string(b), 40))
}

func validSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
