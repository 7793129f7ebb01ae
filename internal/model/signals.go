package model

// TrafficTrend is the direction of a site's organic traffic.
type TrafficTrend string

const (
	TrendGrowing   TrafficTrend = "Growing"
	TrendStable    TrafficTrend = "Stable"
	TrendDeclining TrafficTrend = "Declining"
	TrendUnknown   TrafficTrend = "Unknown"
)

// Valid reports whether t is a known trend. The empty value is treated as Unknown.
func (t TrafficTrend) Valid() bool {
	switch t {
	case TrendGrowing, TrendStable, TrendDeclining, TrendUnknown, "":
		return true
	}
	return false
}

// Issue tags. Order of detection is preserved in Signals.Issues.
const (
	IssueWebsiteUnreachable = "Website unreachable"
	IssueAnalysisFailed     = "Analysis failed"
	IssueNoWebsite          = "No website found"
	IssueMissingSchema      = "Missing schema markup"
	IssueNoFAQ              = "No FAQ schema"
	IssueMetaTitle          = "Meta title needs optimization"
	IssueMetaDescription    = "Meta description needs optimization"
	IssueOutdatedContent    = "Outdated content"
	IssueSlowLCP            = "Slow LCP (>2.5s)"
)

// Signals is the set of measured or inferred facts about one website.
// Authority and performance fields stay nil until enrichment.
type Signals struct {
	HasSchema          bool         `json:"has_schema"`
	HasFAQ             bool         `json:"has_faq"`
	HasOrg             bool         `json:"has_org"`
	MetaTitleOK        bool         `json:"meta_title_ok"`
	MetaDescOK         bool         `json:"meta_desc_ok"`
	ContentFreshMonths *int         `json:"content_fresh_months,omitempty"`
	LCPMillis          *float64     `json:"core_web_vitals_lcp,omitempty"`
	TrafficTrend       TrafficTrend `json:"traffic_trend"`
	TechStack          []string     `json:"tech_stack"`
	BacklinksCount     *float64     `json:"backlinks_count,omitempty"`
	ReferringDomains   *float64     `json:"referring_domains,omitempty"`
	DomainRank         *float64     `json:"domain_rank,omitempty"`
	OrganicTraffic     *float64     `json:"organic_traffic,omitempty"`
	Issues             []string     `json:"issues"`
}

// EmptySignals returns the all-false signal set with an unknown trend.
func EmptySignals() Signals {
	return Signals{
		TrafficTrend: TrendUnknown,
		TechStack:    []string{},
		Issues:       []string{},
	}
}

// FailedSignals returns the all-false signal set carrying a single diagnostic issue.
func FailedSignals(issue string) Signals {
	s := EmptySignals()
	s.Issues = append(s.Issues, issue)
	return s
}

// HasIssue reports whether the issue tag is already present.
func (s *Signals) HasIssue(issue string) bool {
	for _, i := range s.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// AddIssue appends the issue unless it is already present.
// It returns true when the issue was appended.
func (s *Signals) AddIssue(issue string) bool {
	if s.HasIssue(issue) {
		return false
	}
	s.Issues = append(s.Issues, issue)
	return true
}

// Clone returns a deep copy so merges never alias the stored slices.
func (s Signals) Clone() Signals {
	c := s
	c.TechStack = append([]string{}, s.TechStack...)
	c.Issues = append([]string{}, s.Issues...)
	c.ContentFreshMonths = cloneInt(s.ContentFreshMonths)
	c.LCPMillis = cloneFloat(s.LCPMillis)
	c.BacklinksCount = cloneFloat(s.BacklinksCount)
	c.ReferringDomains = cloneFloat(s.ReferringDomains)
	c.DomainRank = cloneFloat(s.DomainRank)
	c.OrganicTraffic = cloneFloat(s.OrganicTraffic)
	return c
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
