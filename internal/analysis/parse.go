package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	rawResponseLimit = 1000
	failedGrade      = "F"
	parseFailure     = "Failed to parse JSON response"
	emptyContent     = "Model returned no content"
)

// Parse decodes a model response into a typed Result. It never returns an
// error: undecodable or invalid output yields a Failed result carrying the
// first 1000 characters of the raw text. Content is free text and only
// fails when empty.
func Parse(kind Kind, raw string) *Result {
	if kind == KindContent {
		return parseContent(raw)
	}
	body := stripFences(raw)

	var err error
	res := &Result{Kind: kind}
	switch kind {
	case KindSEO:
		res.SEO, err = parseSEO(body)
	case KindSecurity:
		res.Security, err = parseSecurity(body)
	default:
		err = eris.Errorf("analysis: unknown kind %q", kind)
	}
	if err != nil {
		return Failed(kind, err, raw)
	}
	return res
}

// Failed builds the fallback result for an unusable response.
func Failed(kind Kind, cause error, raw string) *Result {
	res := &Result{
		Kind:        kind,
		Failed:      true,
		Error:       parseFailure,
		RawResponse: truncate(raw, rawResponseLimit),
	}
	if cause != nil {
		res.Error = fmt.Sprintf("%s: %v", parseFailure, cause)
	}
	switch kind {
	case KindSecurity:
		res.Security = &SecurityResult{Vulnerabilities: []Vulnerability{}, Fixes: []Fix{}}
	case KindContent:
		res.Content = &ContentResult{}
	default:
		res.SEO = &SEOResult{
			Grade:            failedGrade,
			Issues:           []SEOIssue{},
			AEOOptimizations: []Optimization{},
		}
	}
	return res
}

func parseContent(raw string) *Result {
	body := strings.TrimSpace(raw)
	if body == "" {
		res := Failed(KindContent, nil, raw)
		res.Error = emptyContent
		return res
	}
	return &Result{Kind: KindContent, Content: &ContentResult{Body: body}}
}

func parseSEO(body string) (*SEOResult, error) {
	var r SEOResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, eris.Wrap(err, "analysis: decode seo result")
	}
	if r.Score < 0 || r.Score > 100 {
		return nil, eris.Errorf("analysis: score %d out of range [0,100]", r.Score)
	}
	r.Grade = strings.ToUpper(strings.TrimSpace(r.Grade))
	if !grades[r.Grade] {
		r.Grade = GradeUnknown
	}
	for i := range r.Issues {
		sev, err := normalizeSeverity(r.Issues[i].Severity)
		if err != nil {
			return nil, err
		}
		r.Issues[i].Severity = sev
	}
	if r.Issues == nil {
		r.Issues = []SEOIssue{}
	}
	if r.AEOOptimizations == nil {
		r.AEOOptimizations = []Optimization{}
	}
	return &r, nil
}

func parseSecurity(body string) (*SecurityResult, error) {
	var r SecurityResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, eris.Wrap(err, "analysis: decode security result")
	}
	if r.RiskScore < 0 || r.RiskScore > 100 {
		return nil, eris.Errorf("analysis: risk score %d out of range [0,100]", r.RiskScore)
	}
	for i := range r.Vulnerabilities {
		sev, err := normalizeSeverity(r.Vulnerabilities[i].Severity)
		if err != nil {
			return nil, err
		}
		r.Vulnerabilities[i].Severity = sev
	}
	if r.Vulnerabilities == nil {
		r.Vulnerabilities = []Vulnerability{}
	}
	if r.Fixes == nil {
		r.Fixes = []Fix{}
	}
	return &r, nil
}

func normalizeSeverity(s string) (string, error) {
	sev := strings.ToUpper(strings.TrimSpace(s))
	if !validSeverity(sev) {
		return "", eris.Errorf("analysis: invalid severity %q", s)
	}
	return sev, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
