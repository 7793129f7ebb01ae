package report

import (
	"fmt"
	"strings"

	"github.com/sells-group/seo-leads/internal/model"
)

var rule = strings.Repeat("═", 63)

func check(ok bool, yes, no string) string {
	if ok {
		return "✓ " + yes
	}
	return "✗ " + no
}

// Text renders the plain-text report for one lead.
func (r *Renderer) Text(l *model.Lead) string {
	return r.text(r.view(l, r.generated()))
}

func (r *Renderer) text(v view) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", rule)
	line("#. %s", strings.ToUpper(v.Name))
	line("Score: %d/100 (%s %s)", v.Score, v.Bucket.Emoji, v.Bucket.Label)
	line("%s", rule)
	line("")

	line("📞 Phone: %s", v.Phone)
	line("🌐 Website: %s", v.Website)
	line("📍 Location: %s", v.Location)
	line("🏢 Industry: %s", v.Industry)
	line("⚙️  Tech Stack: %s", v.TechStack)
	line("")

	if len(v.CriticalIssues) > 0 {
		line("🔴 CRITICAL ISSUES COSTING THEM CUSTOMERS:")
		line("")
		for i, issue := range v.CriticalIssues {
			line("%d. %s", i+1, issue.Headline)
			for _, d := range issue.Details {
				line("   → %s", d)
			}
			line("")
		}
	}

	line("💰 ESTIMATED REVENUE IMPACT:")
	line("   Monthly loss from SEO issues: $%s-$%s per month", v.RevenueMin, v.RevenueMax)
	line("")

	if len(v.Opportunities) > 0 {
		line("💡 OPPORTUNITIES:")
		line("")
		for i, o := range v.Opportunities {
			line("%d. %s", i+1, o)
		}
		line("")
	}

	if len(v.QuickWins) > 0 {
		line("✅ QUICK WINS (First 2 Weeks):")
		line("")
		for _, w := range v.QuickWins {
			line("%s", w)
		}
		line("")
	}

	line("📞 PITCH ANGLE:")
	line("")
	line("%s", v.Pitch)
	line("")

	line("📋 SERVICES THEY OFFER:")
	for _, s := range v.Services {
		line("• %s", s)
	}
	line("")

	line("📝 CONTENT ASSESSMENT:")
	line("%s", v.ContentAssessment)
	line("")

	line("%s", rule)
	line("📊 TECHNICAL METRICS:")
	line("%s", rule)
	line("")

	fresh := placeholderUnknown
	if v.FreshMonths != "" {
		fresh = v.FreshMonths + " months old"
	}

	line("Performance:")
	line("  • LCP (Page Load): %s", v.LCP)
	line("  • Traffic Trend: %s", v.TrafficTrend)
	line("  • Organic Traffic Value: %s", v.OrganicTraffic)
	line("")
	line("SEO Health:")
	line("  • Schema Markup: %s", check(v.HasSchema, "Yes", "No"))
	line("  • FAQ Schema: %s", check(v.HasFAQ, "Yes", "No"))
	line("  • Organization Schema: %s", check(v.HasOrg, "Yes", "No"))
	line("  • Meta Title: %s", check(v.MetaTitleOK, "Optimized", "Needs Work"))
	line("  • Meta Description: %s", check(v.MetaDescOK, "Optimized", "Needs Work"))
	line("  • Content Freshness: %s", fresh)
	line("")
	line("Authority:")
	line("  • Backlinks: %s", v.Backlinks)
	line("  • Referring Domains: %s", v.ReferringDomains)
	line("  • Domain Rank: %s", v.DomainRank)
	line("")

	line("%s", rule)
	line("Report Generated: %s", v.Generated)
	line("%s", rule)
	return b.String()
}

// BulkText renders a header block followed by every lead's report.
func (r *Renderer) BulkText(leads []model.Lead, geography, industry string) string {
	generated := r.generated()

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("BULK SEO LEAD REPORT\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Geography: %s\n", orDefault(geography, placeholderUnknown))
	fmt.Fprintf(&b, "Industry: %s\n", orDefault(industry, placeholderUnknown))
	fmt.Fprintf(&b, "Total Leads: %d\n", len(leads))
	fmt.Fprintf(&b, "Report Generated: %s\n\n", generated)
	b.WriteString(rule + "\n\n\n")

	for i := range leads {
		b.WriteString(r.text(r.view(&leads[i], generated)))
		if i < len(leads)-1 {
			b.WriteString("\n\n\n")
		}
	}
	return b.String()
}
