// Package scorer implements the lead opportunity scoring model.
//
// Lower scores mean more room for SEO improvement, so a low score is a
// better sales opportunity.
package scorer

// Base and bounds.
const (
	BaseScore = 50
	MinScore  = 0
	MaxScore  = 100
)

// Structured data and meta tag weights.
const (
	SchemaWeight    = 10
	FAQWeight       = 8
	OrgWeight       = 7
	MetaTitleWeight = 5
	MetaDescWeight  = 5
)

// Largest Contentful Paint bands, in milliseconds.
const (
	LCPGoodMillis      = 2500
	LCPGoodWeight      = 10
	LCPAcceptMillis    = 4000
	LCPAcceptWeight    = 5
	SlowLCPIssueMillis = LCPGoodMillis
)

// Traffic trend weights.
const (
	GrowingWeight   = 10
	DecliningWeight = -10
)

// Content freshness bands, in whole months since last update.
const (
	FreshMonths        = 3
	FreshWeight        = 8
	RecentMonths       = 6
	RecentWeight       = 4
	StaleMonths        = 12
	StaleWeight        = -5
	IssuePenaltyWeight = -2
)

// Meta tag length ranges, inclusive, in characters.
const (
	MetaTitleMinLen = 30
	MetaTitleMaxLen = 60
	MetaDescMinLen  = 120
	MetaDescMaxLen  = 160
)

// Tier thresholds for lead notes.
const (
	StrongOpportunityBelow   = 70
	ModerateOpportunityBelow = 85
)

// Priority bucket thresholds for report colour coding.
const (
	HighPriorityBelow   = 60
	MediumPriorityBelow = 75
)
