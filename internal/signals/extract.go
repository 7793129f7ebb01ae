// Package signals derives SEO signals from a business website's homepage HTML.
package signals

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf16"

	"golang.org/x/net/html"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/scorer"
)

// techSignature maps a platform name to the substrings that reveal it.
type techSignature struct {
	name    string
	markers []string
}

// techSignatures are checked in order; each platform is reported at most once.
var techSignatures = []techSignature{
	{name: "WordPress", markers: []string{"wordpress", "wp-content"}},
	{name: "Wix", markers: []string{"wix.com", "wixsite"}},
	{name: "Shopify", markers: []string{"shopify", "cdn.shopify"}},
	{name: "Squarespace", markers: []string{"squarespace"}},
	{name: "React", markers: []string{"react"}},
}

const (
	markerJSONLD     = "application/ld+json"
	markerSchemaOrg  = "schema.org"
	markerFAQPage    = "faqpage"
	markerQuestion   = "question"
	markerOrg        = "organization"
	metaModifiedTime = "article:modified_time"

	// daysPerMonth approximates a month when converting modification age.
	daysPerMonth = 30
)

// modifiedTimeLayouts are tried in order when parsing article:modified_time.
var modifiedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Extract derives the basic signal set from raw HTML. Authority and
// performance fields are left empty. Malformed HTML never fails: a
// missing pattern simply yields false or an empty value.
func Extract(rawHTML string, now time.Time) model.Signals {
	s := model.EmptySignals()
	lower := strings.ToLower(rawHTML)

	s.HasSchema = strings.Contains(lower, markerJSONLD) || strings.Contains(lower, markerSchemaOrg)
	s.HasFAQ = strings.Contains(lower, markerFAQPage) || strings.Contains(lower, markerQuestion)
	s.HasOrg = strings.Contains(lower, markerOrg) && strings.Contains(lower, markerSchemaOrg)

	head := parseHead(rawHTML)
	s.MetaTitleOK = inRange(head.title, scorer.MetaTitleMinLen, scorer.MetaTitleMaxLen)
	s.MetaDescOK = inRange(head.description, scorer.MetaDescMinLen, scorer.MetaDescMaxLen)

	for _, sig := range techSignatures {
		if containsAny(lower, sig.markers...) {
			s.TechStack = append(s.TechStack, sig.name)
		}
	}

	if head.modifiedTime != "" {
		if months, ok := monthsSince(head.modifiedTime, now); ok {
			s.ContentFreshMonths = model.Int(months)
		}
	}

	AnnotateBasic(&s)
	return s
}

// AnnotateBasic appends the issues detected by the basic HTML pass.
func AnnotateBasic(s *model.Signals) {
	if !s.HasSchema {
		s.AddIssue(model.IssueMissingSchema)
	}
	if !s.HasFAQ {
		s.AddIssue(model.IssueNoFAQ)
	}
	if !s.MetaTitleOK {
		s.AddIssue(model.IssueMetaTitle)
	}
	if !s.MetaDescOK {
		s.AddIssue(model.IssueMetaDescription)
	}
	if s.ContentFreshMonths != nil && *s.ContentFreshMonths > scorer.StaleMonths {
		s.AddIssue(model.IssueOutdatedContent)
	}
}

// headInfo holds the values pulled from the document head. title and
// description keep their markup form: entities are not decoded, so
// lengths match what the page author typed.
type headInfo struct {
	title        string
	description  string
	modifiedTime string
}

// rawContentAttr captures a meta tag's content attribute exactly as written.
var rawContentAttr = regexp.MustCompile(`(?is)\scontent\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)

// parseHead tokenizes the document for the first <title>, the description
// meta tag and the article:modified_time meta tag.
func parseHead(rawHTML string) headInfo {
	var info headInfo
	var titleSeen, descSeen, modSeen bool

	z := html.NewTokenizer(strings.NewReader(rawHTML))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return info
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			name, hasAttr := z.TagName()
			switch string(name) {
			case "title":
				if titleSeen {
					continue
				}
				titleSeen = true
				if z.Next() == html.TextToken {
					info.title = string(z.Raw())
				}
			case "meta":
				var metaName, property, content string
				for hasAttr {
					var k, v []byte
					k, v, hasAttr = z.TagAttr()
					switch strings.ToLower(string(k)) {
					case "name":
						metaName = strings.ToLower(string(v))
					case "property":
						property = strings.ToLower(string(v))
					case "content":
						content = string(v)
					}
				}
				if metaName == "description" && !descSeen {
					descSeen = true
					info.description = rawAttr(raw)
				}
				if property == metaModifiedTime && !modSeen {
					modSeen = true
					info.modifiedTime = strings.TrimSpace(content)
				}
			}
		}
	}
}

func rawAttr(tag string) string {
	m := rawContentAttr.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// inRange measures s in UTF-16 code units, the unit browsers and search
// engines report title lengths in.
func inRange(s string, lo, hi int) bool {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n >= lo && n <= hi
}

// monthsSince returns whole 30-day months elapsed since the timestamp.
// Future timestamps count as zero months.
func monthsSince(raw string, now time.Time) (int, bool) {
	for _, layout := range modifiedTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		days := now.Sub(t).Hours() / 24
		if days < 0 {
			return 0, true
		}
		return int(days / daysPerMonth), true
	}
	return 0, false
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
