package scorer

import (
	"github.com/sells-group/seo-leads/internal/model"
)

// Tier labels written to Lead.Notes.
const (
	TierStrong   = "Strong SEO improvement opportunity"
	TierModerate = "Moderate SEO opportunity"
	TierWell     = "Well-optimized site"
)

// Score maps a signal set to a 0-100 opportunity score. It is a pure
// function of the signals and the number of issues they carry.
func Score(s model.Signals) int {
	score := BaseScore

	if s.HasSchema {
		score += SchemaWeight
	}
	if s.HasFAQ {
		score += FAQWeight
	}
	if s.HasOrg {
		score += OrgWeight
	}
	if s.MetaTitleOK {
		score += MetaTitleWeight
	}
	if s.MetaDescOK {
		score += MetaDescWeight
	}

	if s.LCPMillis != nil {
		switch lcp := *s.LCPMillis; {
		case lcp <= LCPGoodMillis:
			score += LCPGoodWeight
		case lcp <= LCPAcceptMillis:
			score += LCPAcceptWeight
		}
	}

	switch s.TrafficTrend {
	case model.TrendGrowing:
		score += GrowingWeight
	case model.TrendDeclining:
		score += DecliningWeight
	}

	if s.ContentFreshMonths != nil {
		switch m := *s.ContentFreshMonths; {
		case m <= FreshMonths:
			score += FreshWeight
		case m <= RecentMonths:
			score += RecentWeight
		case m > StaleMonths:
			score += StaleWeight
		}
	}

	score += IssuePenaltyWeight * len(s.Issues)

	return clamp(score)
}

// Tier returns the notes label for a score.
func Tier(score int) string {
	switch {
	case score < StrongOpportunityBelow:
		return TierStrong
	case score < ModerateOpportunityBelow:
		return TierModerate
	default:
		return TierWell
	}
}

// Apply recomputes score and notes on the lead from its current signals.
func Apply(l *model.Lead) {
	l.Score = Score(l.Signals)
	l.Notes = Tier(l.Score)
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
