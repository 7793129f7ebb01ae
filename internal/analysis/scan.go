package analysis

import (
	"net/http"
	"regexp"
	"strings"
)

// SecurityScan is the deterministic part of a security audit: response
// headers and markup patterns checked before the model is asked.
type SecurityScan struct {
	Headers         HeaderReport `json:"securityHeaders"`
	Vulnerabilities []Finding    `json:"commonVulnerabilities"`
	HTTPS           bool         `json:"https"`
}

// HeaderReport lists which recommended security headers a response set.
type HeaderReport struct {
	Present []string        `json:"presentHeaders"`
	Missing []MissingHeader `json:"missingHeaders"`
	HTTPS   bool            `json:"hasHttps"`
}

// MissingHeader is a recommended header the response did not set.
type MissingHeader struct {
	Header         string `json:"header"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// Finding is a vulnerability pattern matched in the page source.
type Finding struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Location    string `json:"location"`
	CWE         string `json:"cve"`
}

// headerChecks are evaluated in order; the report keeps that order.
var headerChecks = []MissingHeader{
	{
		Header:         "Strict-Transport-Security",
		Severity:       SeverityHigh,
		Description:    "Missing HSTS header - site vulnerable to protocol downgrade attacks",
		Recommendation: "Add header: Strict-Transport-Security: max-age=31536000; includeSubDomains",
	},
	{
		Header:         "X-Frame-Options",
		Severity:       SeverityMedium,
		Description:    "Missing X-Frame-Options - vulnerable to clickjacking attacks",
		Recommendation: "Add header: X-Frame-Options: DENY or SAMEORIGIN",
	},
	{
		Header:         "X-Content-Type-Options",
		Severity:       SeverityMedium,
		Description:    "Missing X-Content-Type-Options - vulnerable to MIME sniffing attacks",
		Recommendation: "Add header: X-Content-Type-Options: nosniff",
	},
	{
		Header:         "Content-Security-Policy",
		Severity:       SeverityHigh,
		Description:    "Missing CSP - vulnerable to XSS and data injection attacks",
		Recommendation: "Add CSP header with appropriate directives for your application",
	},
	{
		Header:         "Referrer-Policy",
		Severity:       SeverityLow,
		Description:    "Missing Referrer-Policy - may leak sensitive information in referer header",
		Recommendation: "Add header: Referrer-Policy: strict-origin-when-cross-origin",
	},
}

// CheckHeaders reports the recommended headers present in and missing from
// h. An empty value counts as missing.
func CheckHeaders(h http.Header, url string) HeaderReport {
	r := HeaderReport{
		Present: []string{},
		Missing: []MissingHeader{},
		HTTPS:   strings.HasPrefix(url, "https://"),
	}
	for _, c := range headerChecks {
		if h.Get(c.Header) != "" {
			r.Present = append(r.Present, c.Header)
		} else {
			r.Missing = append(r.Missing, c)
		}
	}
	return r
}

// emptyHeaderReport stands in when no response was fetched.
func emptyHeaderReport() HeaderReport {
	return HeaderReport{Present: []string{}, Missing: []MissingHeader{}}
}

var (
	reEval          = regexp.MustCompile(`eval\s*\(`)
	reInnerHTML     = regexp.MustCompile(`innerHTML\s*=`)
	rePasswordInput = regexp.MustCompile(`(?i)<input[^>]*type=["']password["'][^>]*>`)
	reExternalJS    = regexp.MustCompile(`(?i)<script[^>]*src=["'](https?://[^"']+)["'][^>]*>`)
	reFormTag       = regexp.MustCompile(`(?i)<form[^>]*>`)
	reCredential    = regexp.MustCompile(`(?i)api[_-]?key|apikey|access[_-]?token`)
)

// ScanHTML matches common vulnerability patterns in page source. url
// decides whether password fields travel over plain HTTP.
func ScanHTML(src, url string) []Finding {
	out := []Finding{}

	if strings.Contains(src, "<script") && !strings.Contains(src, "nonce=") {
		out = append(out, Finding{
			Type:        "XSS Risk",
			Severity:    SeverityMedium,
			Description: "Inline scripts without CSP nonce detected",
			Location:    "Multiple <script> tags",
			CWE:         "CWE-79",
		})
	}
	if reEval.MatchString(src) {
		out = append(out, Finding{
			Type:        "Code Injection Risk",
			Severity:    SeverityHigh,
			Description: "Use of eval() detected - dangerous function that can execute arbitrary code",
			Location:    "JavaScript code",
			CWE:         "CWE-95",
		})
	}
	if strings.Contains(src, "document.write") {
		out = append(out, Finding{
			Type:        "DOM-based XSS Risk",
			Severity:    SeverityMedium,
			Description: "document.write() usage detected - can lead to XSS vulnerabilities",
			Location:    "JavaScript code",
			CWE:         "CWE-79",
		})
	}
	if reInnerHTML.MatchString(src) {
		out = append(out, Finding{
			Type:        "XSS Risk",
			Severity:    SeverityMedium,
			Description: "innerHTML usage detected - use textContent or sanitize input",
			Location:    "JavaScript code",
			CWE:         "CWE-79",
		})
	}
	if rePasswordInput.MatchString(src) && !strings.HasPrefix(url, "https://") {
		out = append(out, Finding{
			Type:        "Insecure Data Transmission",
			Severity:    SeverityCritical,
			Description: "Password fields on non-HTTPS site - credentials sent in plaintext",
			Location:    "Password input fields",
			CWE:         "CWE-319",
		})
	}
	if anyMatch(reExternalJS, src, func(tag string) bool { return !strings.Contains(tag, "integrity=") }) {
		out = append(out, Finding{
			Type:        "Subresource Integrity Missing",
			Severity:    SeverityMedium,
			Description: "External scripts without SRI - vulnerable to CDN compromise",
			Location:    "External script tags",
			CWE:         "CWE-353",
		})
	}
	if anyMatch(reFormTag, src, func(tag string) bool {
		tag = strings.ToLower(tag)
		return !strings.Contains(tag, "csrf") && !strings.Contains(tag, "token")
	}) {
		out = append(out, Finding{
			Type:        "CSRF Protection Missing",
			Severity:    SeverityHigh,
			Description: "Forms without apparent CSRF tokens detected",
			Location:    "Form elements",
			CWE:         "CWE-352",
		})
	}
	if reCredential.MatchString(src) {
		out = append(out, Finding{
			Type:        "Exposed Credentials",
			Severity:    SeverityCritical,
			Description: "Potential API keys or tokens in HTML source",
			Location:    "HTML/JavaScript source",
			CWE:         "CWE-798",
		})
	}
	return out
}

func anyMatch(re *regexp.Regexp, src string, pred func(string) bool) bool {
	for _, m := range re.FindAllString(src, -1) {
		if pred(m) {
			return true
		}
	}
	return false
}
