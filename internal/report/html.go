package report

import (
	"bytes"
	"html/template"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-leads/internal/model"
)

var templates = template.Must(template.New("report").Funcs(template.FuncMap{
	"css":   func(s string) template.CSS { return template.CSS(s) },
	"check": check,
}).Parse(htmlTemplates))

type bulkPage struct {
	Geography string
	Industry  string
	Generated string
	Summary   Summary
	Leads     []view
}

// HTML renders the self-contained HTML report for one lead.
func (r *Renderer) HTML(l *model.Lead) (string, error) {
	return execute("single", r.view(l, r.generated()))
}

// BulkHTML renders a cover page, an executive summary and every lead's
// report, separated by print page breaks.
func (r *Renderer) BulkHTML(leads []model.Lead, geography, industry string) (string, error) {
	generated := r.generated()
	page := bulkPage{
		Geography: orDefault(geography, placeholderUnknown),
		Industry:  orDefault(industry, placeholderUnknown),
		Generated: generated,
		Summary:   Summarize(leads),
		Leads:     make([]view, len(leads)),
	}
	for i := range leads {
		page.Leads[i] = r.view(&leads[i], generated)
	}
	return execute("bulk", page)
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", eris.Wrapf(err, "report: render %s html", name)
	}
	return buf.String(), nil
}

const htmlTemplates = `
{{define "styles"}}
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #1f2937; background: #f9fafb; padding: 2rem; }
    .container { max-width: 900px; margin: 0 auto 3rem; background: white; border-radius: 12px; box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1); overflow: hidden; }
    .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 3rem 2rem; text-align: center; }
    .header h1 { font-size: 2rem; margin-bottom: 0.5rem; font-weight: 700; }
    .score-badge { display: inline-block; padding: 0.5rem 1.5rem; background: rgba(255, 255, 255, 0.2); border-radius: 50px; font-size: 1.25rem; font-weight: 600; margin-top: 1rem; }
    .priority { display: inline-block; padding: 0.25rem 1rem; background-color: var(--priority-color); color: white; border-radius: 20px; font-size: 0.875rem; font-weight: 600; margin-left: 0.5rem; }
    .content { padding: 2rem; }
    .section { margin-bottom: 2.5rem; }
    .section-title { font-size: 1.5rem; font-weight: 700; color: #667eea; margin-bottom: 1rem; padding-bottom: 0.5rem; border-bottom: 3px solid #667eea; }
    .info-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 1rem; margin-bottom: 2rem; }
    .info-item { padding: 1rem; background: #f3f4f6; border-radius: 8px; }
    .info-label { font-size: 0.875rem; color: #6b7280; font-weight: 600; margin-bottom: 0.25rem; }
    .info-value { font-size: 1rem; color: #1f2937; font-weight: 500; }
    .critical-issues { background: #fef2f2; border-left: 4px solid #ef4444; padding: 1.5rem; border-radius: 8px; }
    .issue-item { margin-bottom: 1.5rem; padding-bottom: 1.5rem; border-bottom: 1px solid #fee2e2; }
    .issue-item:last-child { margin-bottom: 0; padding-bottom: 0; border-bottom: none; }
    .issue-title { font-weight: 700; color: #dc2626; margin-bottom: 0.5rem; font-size: 1.1rem; }
    .issue-detail { color: #7f1d1d; margin-left: 1.5rem; line-height: 1.8; }
    .revenue-box { background: linear-gradient(135deg, #fbbf24 0%, #f59e0b 100%); color: white; padding: 1.5rem; border-radius: 8px; text-align: center; font-size: 1.25rem; font-weight: 700; }
    .opportunities-list, .quickwins-list, .services-list { list-style: none; padding: 0; }
    .opportunities-list li, .quickwins-list li, .services-list li { padding: 0.75rem 0; padding-left: 2rem; position: relative; border-bottom: 1px solid #e5e7eb; }
    .opportunities-list li:before { content: "💡"; position: absolute; left: 0; }
    .quickwins-list li:before { content: "✅"; position: absolute; left: 0; }
    .services-list li:before { content: "•"; position: absolute; left: 0.5rem; color: #667eea; font-size: 1.5rem; }
    .pitch-box { background: #eff6ff; border: 2px solid #3b82f6; border-radius: 8px; padding: 1.5rem; font-style: italic; color: #1e40af; line-height: 1.8; }
    .content-assessment { background: #f9fafb; padding: 1.5rem; border-radius: 8px; border-left: 4px solid #667eea; line-height: 1.8; }
    .metrics-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1rem; }
    .metric-card { background: #f9fafb; padding: 1rem; border-radius: 8px; border-left: 3px solid #667eea; }
    .metric-label { font-size: 0.875rem; color: #6b7280; margin-bottom: 0.25rem; }
    .metric-value { font-size: 1.25rem; font-weight: 700; color: #1f2937; }
    .metric-good { color: #10b981; }
    .metric-bad { color: #ef4444; }
    .footer { background: #f3f4f6; padding: 1.5rem 2rem; text-align: center; color: #6b7280; font-size: 0.875rem; }
{{end}}

{{define "lead"}}
  <div class="container" style="--priority-color: {{css .Bucket.Color}}">
    <div class="header">
      <h1>{{.Name}}</h1>
      <div class="score-badge">
        Score: {{.Score}}/100
        <span class="priority">{{.Bucket.Label}}</span>
      </div>
    </div>

    <div class="content">
      <div class="info-grid">
        <div class="info-item"><div class="info-label">Phone</div><div class="info-value">{{.Phone}}</div></div>
        <div class="info-item"><div class="info-label">Website</div><div class="info-value">{{.Website}}</div></div>
        <div class="info-item"><div class="info-label">Location</div><div class="info-value">{{.Location}}</div></div>
        <div class="info-item"><div class="info-label">Industry</div><div class="info-value">{{.Industry}}</div></div>
        <div class="info-item"><div class="info-label">Tech Stack</div><div class="info-value">{{.TechStack}}</div></div>
      </div>
      {{if .CriticalIssues}}
      <div class="section">
        <h2 class="section-title">🔴 Critical Issues Costing Them Customers</h2>
        <div class="critical-issues">
          {{range .CriticalIssues}}
          <div class="issue-item">
            <div class="issue-title">{{.Headline}}</div>
            {{range .Details}}<div class="issue-detail">→ {{.}}</div>{{end}}
          </div>
          {{end}}
        </div>
      </div>
      {{end}}
      <div class="section">
        <h2 class="section-title">💰 Estimated Revenue Impact</h2>
        <div class="revenue-box">Monthly Loss from SEO Issues: ${{.RevenueMin}} - ${{.RevenueMax}}</div>
      </div>
      {{if .Opportunities}}
      <div class="section">
        <h2 class="section-title">💡 Opportunities</h2>
        <ul class="opportunities-list">{{range .Opportunities}}<li>{{.}}</li>{{end}}</ul>
      </div>
      {{end}}
      {{if .QuickWins}}
      <div class="section">
        <h2 class="section-title">✅ Quick Wins (First 2 Weeks)</h2>
        <ul class="quickwins-list">{{range .QuickWins}}<li>{{.}}</li>{{end}}</ul>
      </div>
      {{end}}
      <div class="section">
        <h2 class="section-title">📞 Pitch Angle</h2>
        <div class="pitch-box">{{.Pitch}}</div>
      </div>
      <div class="section">
        <h2 class="section-title">📋 Services They Offer</h2>
        <ul class="services-list">{{range .Services}}<li>{{.}}</li>{{end}}</ul>
      </div>
      <div class="section">
        <h2 class="section-title">📝 Content Assessment</h2>
        <div class="content-assessment">{{.ContentAssessment}}</div>
      </div>
      <div class="section">
        <h2 class="section-title">📊 Technical Metrics</h2>
        <div class="metrics-grid">
          <div class="metric-card"><div class="metric-label">Page Load Speed (LCP)</div><div class="metric-value {{if .LCPGood}}metric-good{{else}}metric-bad{{end}}">{{.LCP}}</div></div>
          <div class="metric-card"><div class="metric-label">Traffic Trend</div><div class="metric-value">{{.TrafficTrend}}</div></div>
          <div class="metric-card"><div class="metric-label">Organic Traffic Value</div><div class="metric-value">{{.OrganicTraffic}}</div></div>
          <div class="metric-card"><div class="metric-label">Backlinks</div><div class="metric-value">{{.Backlinks}}</div></div>
          <div class="metric-card"><div class="metric-label">Referring Domains</div><div class="metric-value">{{.ReferringDomains}}</div></div>
          <div class="metric-card"><div class="metric-label">Domain Rank</div><div class="metric-value">{{.DomainRank}}</div></div>
          <div class="metric-card"><div class="metric-label">Schema Markup</div><div class="metric-value {{if .HasSchema}}metric-good{{else}}metric-bad{{end}}">{{check .HasSchema "Yes" "No"}}</div></div>
          <div class="metric-card"><div class="metric-label">Meta Tags</div><div class="metric-value {{if and .MetaTitleOK .MetaDescOK}}metric-good{{else}}metric-bad{{end}}">{{check (and .MetaTitleOK .MetaDescOK) "Optimized" "Needs Work"}}</div></div>
          <div class="metric-card"><div class="metric-label">Content Freshness</div><div class="metric-value {{if .FreshGood}}metric-good{{else}}metric-bad{{end}}">{{if .FreshMonths}}{{.FreshMonths}} months{{else}}Unknown{{end}}</div></div>
        </div>
      </div>
    </div>

    <div class="footer">Report Generated: {{.Generated}}</div>
  </div>
{{end}}

{{define "single"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>SEO Report - {{.Name}}</title>
  <style>
{{template "styles"}}
    @media print { body { padding: 0; background: white; } .container { box-shadow: none; } }
  </style>
</head>
<body>
{{template "lead" .}}
</body>
</html>
{{end}}

{{define "bulk"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Bulk SEO Lead Report - {{.Geography}} {{.Industry}}</title>
  <style>
{{template "styles"}}
    .cover-page { max-width: 900px; margin: 0 auto 3rem; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 4rem 2rem; border-radius: 12px; text-align: center; box-shadow: 0 10px 30px rgba(0, 0, 0, 0.2); }
    .cover-page h1 { font-size: 3rem; margin-bottom: 1rem; font-weight: 700; }
    .cover-page .subtitle { font-size: 1.5rem; opacity: 0.9; margin-bottom: 2rem; }
    .cover-page .meta { font-size: 1.125rem; opacity: 0.8; }
    .summary-section { max-width: 900px; margin: 0 auto 3rem; background: white; padding: 2rem; border-radius: 12px; box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1); }
    .summary-section h2 { font-size: 2rem; color: #667eea; margin-bottom: 1.5rem; border-bottom: 3px solid #667eea; padding-bottom: 0.5rem; }
    .summary-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1.5rem; margin-top: 2rem; }
    .summary-card { background: #f9fafb; padding: 1.5rem; border-radius: 8px; border-left: 4px solid #667eea; text-align: center; }
    .summary-card .label { font-size: 0.875rem; color: #6b7280; margin-bottom: 0.5rem; text-transform: uppercase; letter-spacing: 0.05em; }
    .summary-card .value { font-size: 2rem; font-weight: 700; color: #1f2937; }
    .page-break { page-break-after: always; margin: 3rem 0; }
    @media print {
      body { padding: 0; background: white; }
      .container { box-shadow: none; margin-bottom: 0; page-break-after: always; }
      .cover-page, .summary-section { box-shadow: none; }
    }
  </style>
</head>
<body>
  <div class="cover-page">
    <h1>SEO Lead Report</h1>
    <div class="subtitle">{{.Geography}} - {{.Industry}}</div>
    <div class="meta">
      <div>{{.Summary.Total}} Qualified Leads</div>
      <div style="margin-top: 0.5rem;">Generated: {{.Generated}}</div>
    </div>
  </div>

  <div class="summary-section">
    <h2>Executive Summary</h2>
    <p style="margin-bottom: 2rem; line-height: 1.8;">
      This report contains a comprehensive SEO analysis of {{.Summary.Total}} businesses in the {{.Industry}} industry
      located in {{.Geography}}. Each business has been evaluated based on technical SEO health, performance metrics,
      and growth potential. Lower scores indicate higher opportunity for SEO improvement services.
    </p>
    <div class="summary-grid">
      <div class="summary-card"><div class="label">Total Leads</div><div class="value" data-summary="total">{{.Summary.Total}}</div></div>
      <div class="summary-card"><div class="label">Avg Score</div><div class="value" data-summary="average">{{.Summary.AverageScore}}</div></div>
      <div class="summary-card"><div class="label">High Priority</div><div class="value" data-summary="high">{{.Summary.HighPriority}}</div></div>
      <div class="summary-card"><div class="label">Medium Priority</div><div class="value" data-summary="medium">{{.Summary.MediumPriority}}</div></div>
    </div>
  </div>

  <div class="page-break"></div>
{{range $i, $lead := .Leads}}{{if $i}}
  <div class="page-break"></div>{{end}}
{{template "lead" $lead}}{{end}}

  <div class="summary-section">
    <h2>End of Report</h2>
    <p style="text-align: center; color: #6b7280; margin-top: 1rem;">Generated on {{.Generated}}</p>
  </div>
</body>
</html>
{{end}}
`
