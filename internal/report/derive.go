package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/scorer"
)

// Revenue impact constants, in dollars per month.
const (
	revenueDefaultBase   = 1000
	revenueTrafficFactor = 0.3
	revenuePerIssue      = 500
	revenueIssueCap      = 3000
	revenueDeclining     = 2000
	revenueFloor         = 1000
	revenueCeiling       = 15000

	staleContentMonths = 6
	weakBacklinks      = 100
	thinBacklinks      = 200
)

// Range is an estimated monthly revenue loss.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// RevenueImpact estimates the monthly revenue a lead loses to SEO issues.
func RevenueImpact(l *model.Lead) Range {
	base := revenueDefaultBase
	if t := l.Signals.OrganicTraffic; t != nil && *t > 0 {
		base = int(math.Round(*t * revenueTrafficFactor))
	}
	base += min(len(l.Signals.Issues)*revenuePerIssue, revenueIssueCap)
	if l.Signals.TrafficTrend == model.TrendDeclining {
		base += revenueDeclining
	}
	lo := max(revenueFloor, base)
	return Range{Min: lo, Max: min(revenueCeiling, lo*2)}
}

// CriticalIssue is a headline plus the reasons it matters.
type CriticalIssue struct {
	Headline string
	Details  []string
}

func slowLCP(s *model.Signals) bool {
	return s.LCPMillis != nil && *s.LCPMillis > scorer.SlowLCPIssueMillis
}

func staleContent(s *model.Signals) bool {
	return s.ContentFreshMonths != nil && *s.ContentFreshMonths > staleContentMonths
}

func badMeta(s *model.Signals) bool {
	return !s.MetaTitleOK || !s.MetaDescOK
}

func backlinksBelow(s *model.Signals, n float64) bool {
	return s.BacklinksCount != nil && *s.BacklinksCount > 0 && *s.BacklinksCount < n
}

// CriticalIssues lists the sales-facing problems found on the lead's site.
func (r *Renderer) CriticalIssues(l *model.Lead) []CriticalIssue {
	s := &l.Signals
	var out []CriticalIssue
	if slowLCP(s) {
		out = append(out, CriticalIssue{
			Headline: fmt.Sprintf("Website Loads in %s Seconds (Should be under 3s)", seconds(*s.LCPMillis)),
			Details: []string{
				"53% of mobile users abandon sites that take >3s to load",
				"They're losing potential customers every day",
			},
		})
	}
	if !s.HasSchema {
		out = append(out, CriticalIssue{
			Headline: "Missing Schema Markup",
			Details: []string{
				"Not showing up in Google's local pack",
				"Competitors with schema get 36% more clicks",
			},
		})
	}
	if staleContent(s) {
		out = append(out, CriticalIssue{
			Headline: fmt.Sprintf("Content Last Updated %d Months Ago", *s.ContentFreshMonths),
			Details: []string{
				"Google penalizes stale content",
				"Ranking below competitors with fresh content",
			},
		})
	}
	if s.TrafficTrend == model.TrendDeclining {
		out = append(out, CriticalIssue{
			Headline: "Traffic Declining (-20% over 90 days)",
			Details: []string{
				"Losing visibility in search results",
				"Competitors are taking their market share",
			},
		})
	}
	if badMeta(s) {
		out = append(out, CriticalIssue{
			Headline: "Poor Meta Tags and Descriptions",
			Details: []string{
				"Low click-through rates from search results",
				"Missing opportunities to attract qualified traffic",
			},
		})
	}
	if backlinksBelow(s, weakBacklinks) {
		out = append(out, CriticalIssue{
			Headline: fmt.Sprintf("Weak Backlink Profile (%s total links)", r.number(*s.BacklinksCount)),
			Details: []string{
				"Low domain authority",
				"Difficult to rank for competitive keywords",
			},
		})
	}
	return out
}

// Opportunities lists improvement services to pitch.
func Opportunities(l *model.Lead) []string {
	s := &l.Signals
	var out []string
	if slowLCP(s) {
		out = append(out, "Optimize images and other media to improve page speed")
	}
	if !s.HasSchema {
		out = append(out, "Implement schema.org markup for local business and services")
	}
	if !s.HasFAQ {
		out = append(out, "Add FAQ schema on inner pages to showcase expertise")
	}
	if badMeta(s) {
		out = append(out, "Optimize for voice search and local intent queries")
	}
	out = append(out, "Improve internal linking structure")
	if staleContent(s) {
		out = append(out, "Update existing content with current information and trends")
	}
	if backlinksBelow(s, thinBacklinks) {
		out = append(out, "Build high-quality local backlinks and citations")
	}
	return out
}

// QuickWins lists the first two weeks of work.
func QuickWins(l *model.Lead) []string {
	s := &l.Signals
	var out []string
	if slowLCP(s) {
		out = append(out, "Week 1: Optimize image sizes and lazy load images to improve page speed")
	}
	if !s.HasSchema || !s.HasOrg {
		out = append(out, "Week 1: Implement structured data markup for local business, services, and reviews")
	}
	if staleContent(s) {
		out = append(out, "Week 2: Expand content depth on inner pages to showcase expertise and address common customer questions")
	}
	if badMeta(s) {
		out = append(out, "Week 2: Optimize title tags and meta descriptions for target keywords")
	}
	return out
}

// PitchScript is the cold-call opener for the lead.
func (r *Renderer) PitchScript(l *model.Lead) string {
	industry := l.Industry
	if industry == "" && len(l.Signals.TechStack) > 0 {
		industry = l.Signals.TechStack[0]
	}
	if industry == "" {
		industry = "your industry"
	}
	city := orDefault(l.City, "your area")

	mainIssue := "some technical SEO issues"
	if issues := r.CriticalIssues(l); len(issues) > 0 {
		mainIssue = issues[0].Headline
	}

	return fmt.Sprintf(`"Hi, this is [YOUR NAME]. I was doing some research on %s businesses in %s and came across %s. `+
		`I noticed a few things on your website that might be costing you customers, specifically %s. `+
		`Do you have a couple minutes to discuss how we could fix this?"`,
		industry, city, l.BusinessName, strings.ToLower(mainIssue))
}

type serviceRule struct {
	nameKeywords []string
	urlKeywords  []string
	services     []string
}

var serviceRules = []serviceRule{
	{
		nameKeywords: []string{"plumb"},
		urlKeywords:  []string{"plumb"},
		services: []string{
			"Emergency plumbing services",
			"Water heater installation and repair",
			"Drain cleaning and sewer line services",
			"Pipe repair and replacement",
			"Fixture installation",
		},
	},
	{
		nameKeywords: []string{"hvac", "air", "heating"},
		services: []string{
			"AC installation and repair",
			"Heating system maintenance",
			"Ductwork services",
			"Indoor air quality solutions",
			"Emergency HVAC services",
		},
	},
	{
		nameKeywords: []string{"restaurant", "food"},
		services: []string{
			"Dine-in service",
			"Takeout and delivery",
			"Catering services",
			"Private events and parties",
			"Online ordering",
		},
	},
	{
		nameKeywords: []string{"law", "attorney", "legal"},
		services: []string{
			"Legal consultation",
			"Case representation",
			"Document preparation",
			"Court appearances",
			"Legal advisory services",
		},
	},
	{
		nameKeywords: []string{"dental", "dentist"},
		services: []string{
			"General dentistry",
			"Cosmetic dentistry",
			"Teeth cleaning and prevention",
			"Dental implants",
			"Emergency dental services",
		},
	},
}

var genericServices = []string{
	"Primary services",
	"Consultation and assessment",
	"Custom solutions",
	"Emergency services",
	"Maintenance and support",
}

// DetectServices guesses the lead's service lines from its name and website.
func DetectServices(l *model.Lead) []string {
	name := strings.ToLower(l.BusinessName)
	site := strings.ToLower(l.Website)
	for _, rule := range serviceRules {
		for _, kw := range rule.nameKeywords {
			if strings.Contains(name, kw) {
				return rule.services
			}
		}
		for _, kw := range rule.urlKeywords {
			if strings.Contains(site, kw) {
				return rule.services
			}
		}
	}
	return genericServices
}

// ContentAssessment is a short verdict on the site's content.
func ContentAssessment(l *model.Lead) string {
	s := &l.Signals
	if !s.HasIssue(model.IssueOutdatedContent) && s.MetaTitleOK && s.MetaDescOK {
		return fmt.Sprintf("The website provides a good overview of %s's services. However, the content could be expanded "+
			"to include more detailed information about their qualifications, customer testimonials, and the specific "+
			"benefits of their services for local customers.", l.BusinessName)
	}
	return "The website content needs significant improvement. Key issues include outdated information, poor meta " +
		"descriptions, and lack of detailed service pages. Adding comprehensive content about services, customer " +
		"success stories, and local expertise would significantly improve search rankings and customer engagement."
}

// Summary is the bulk report's executive summary.
type Summary struct {
	Total          int
	AverageScore   int
	HighPriority   int
	MediumPriority int
}

// Summarize counts leads by priority bucket and averages their scores.
func Summarize(leads []model.Lead) Summary {
	s := Summary{Total: len(leads)}
	if len(leads) == 0 {
		return s
	}
	sum := 0
	for _, l := range leads {
		sum += l.Score
		switch scorer.PriorityOf(l.Score).Priority {
		case model.PriorityHigh:
			s.HighPriority++
		case model.PriorityMedium:
			s.MediumPriority++
		}
	}
	s.AverageScore = int(math.Round(float64(sum) / float64(len(leads))))
	return s
}

func seconds(ms float64) string {
	return fmt.Sprintf("%.1f", ms/1000)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
