// Package report renders scored leads as downloadable text and HTML reports.
package report

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/scorer"
)

// Format is a report output format.
type Format string

const (
	FormatText Format = "txt"
	FormatHTML Format = "html"
)

// ParseFormat accepts "txt", "text" or "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	}
	return "", eris.Errorf("report: unknown format %q", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

const (
	placeholderUnknown = "Unknown"
	placeholderNA      = "Not available"
	defaultIndustry    = "General"
	defaultTechStack   = "Custom"

	// Matches en-US toLocaleString output, e.g. 1/2/2026, 3:04:05 PM.
	timestampLayout = "1/2/2006, 3:04:05 PM"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock fixes the "generated" timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLocation sets the timezone of the generated timestamp.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) { r.loc = loc }
}

// Renderer produces reports. It is safe for concurrent use.
type Renderer struct {
	now     func() time.Time
	loc     *time.Location
	printer *message.Printer
}

// New creates a Renderer using en-US number formatting.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		now:     time.Now,
		loc:     time.Local,
		printer: message.NewPrinter(language.AmericanEnglish),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render renders one lead in the given format.
func (r *Renderer) Render(l *model.Lead, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(r.Text(l)), nil
	case FormatHTML:
		s, err := r.HTML(l)
		return []byte(s), err
	}
	return nil, eris.Errorf("report: unknown format %q", f)
}

// RenderBulk renders a list of leads with geography and industry labels.
func (r *Renderer) RenderBulk(leads []model.Lead, geography, industry string, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(r.BulkText(leads, geography, industry)), nil
	case FormatHTML:
		s, err := r.BulkHTML(leads, geography, industry)
		return []byte(s), err
	}
	return nil, eris.Errorf("report: unknown format %q", f)
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

func sanitize(s string) string {
	return nonAlnum.ReplaceAllString(s, "_")
}

// Filename is the download name for a single-lead report.
func Filename(l *model.Lead, f Format) string {
	return sanitize(l.BusinessName) + "_SEO_Report." + string(f)
}

// BulkFilename is the download name for a bulk report.
func BulkFilename(geography, industry string, f Format) string {
	return "Bulk_SEO_Report_" + sanitize(geography) + "_" + sanitize(industry) + "." + string(f)
}

// view is a lead with every placeholder resolved, shared by both formats.
type view struct {
	Name              string
	Score             int
	Bucket            scorer.Bucket
	Phone             string
	Website           string
	Location          string
	Industry          string
	TechStack         string
	CriticalIssues    []CriticalIssue
	RevenueMin        string
	RevenueMax        string
	Opportunities     []string
	QuickWins         []string
	Pitch             string
	Services          []string
	ContentAssessment string
	LCP               string
	LCPGood           bool
	TrafficTrend      string
	OrganicTraffic    string
	HasSchema         bool
	HasFAQ            bool
	HasOrg            bool
	MetaTitleOK       bool
	MetaDescOK        bool
	FreshMonths       string
	FreshGood         bool
	Backlinks         string
	ReferringDomains  string
	DomainRank        string
	Generated         string
}

func (r *Renderer) view(l *model.Lead, generated string) view {
	s := &l.Signals
	rev := RevenueImpact(l)

	v := view{
		Name:              l.BusinessName,
		Score:             l.Score,
		Bucket:            scorer.PriorityOf(l.Score),
		Phone:             orDefault(l.Phone, placeholderNA),
		Website:           orDefault(l.Website, placeholderNA),
		Location:          orDefault(l.City, orDefault(l.Address, placeholderNA)),
		Industry:          orDefault(l.Industry, defaultIndustry),
		TechStack:         defaultTechStack,
		CriticalIssues:    r.CriticalIssues(l),
		RevenueMin:        r.printer.Sprintf("%d", rev.Min),
		RevenueMax:        r.printer.Sprintf("%d", rev.Max),
		Opportunities:     Opportunities(l),
		QuickWins:         QuickWins(l),
		Pitch:             r.PitchScript(l),
		Services:          DetectServices(l),
		ContentAssessment: ContentAssessment(l),
		LCP:               placeholderUnknown,
		TrafficTrend:      orDefault(string(s.TrafficTrend), placeholderUnknown),
		OrganicTraffic:    placeholderUnknown,
		HasSchema:         s.HasSchema,
		HasFAQ:            s.HasFAQ,
		HasOrg:            s.HasOrg,
		MetaTitleOK:       s.MetaTitleOK,
		MetaDescOK:        s.MetaDescOK,
		Backlinks:         r.optionalNumber(s.BacklinksCount),
		ReferringDomains:  r.optionalNumber(s.ReferringDomains),
		DomainRank:        r.optionalNumber(s.DomainRank),
		Generated:         generated,
	}
	if len(s.TechStack) > 0 {
		v.TechStack = strings.Join(s.TechStack, ", ")
	}
	if s.LCPMillis != nil && *s.LCPMillis > 0 {
		v.LCP = seconds(*s.LCPMillis) + "s"
		v.LCPGood = *s.LCPMillis <= scorer.SlowLCPIssueMillis
	}
	if t := s.OrganicTraffic; t != nil && *t > 0 {
		v.OrganicTraffic = "$" + r.number(*t)
	}
	if m := s.ContentFreshMonths; m != nil {
		v.FreshMonths = strconv.Itoa(*m)
		v.FreshGood = *m <= staleContentMonths
	}
	return v
}

func (r *Renderer) generated() string {
	return r.now().In(r.loc).Format(timestampLayout)
}

// number formats v with en-US grouping and up to three fraction digits.
func (r *Renderer) number(v float64) string {
	return r.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

func (r *Renderer) optionalNumber(v *float64) string {
	if v == nil || *v == 0 {
		return placeholderUnknown
	}
	return r.number(*v)
}
