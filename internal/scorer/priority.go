package scorer

import "github.com/sells-group/seo-leads/internal/model"

// Bucket is the colour-coded priority band used by reports and the UI.
// Its thresholds (60/75) are independent of Tier's (70/85).
type Bucket struct {
	Label    string
	Emoji    string
	Color    string
	Priority model.Priority
}

var (
	bucketHigh   = Bucket{Label: "HIGH PRIORITY", Emoji: "🔴", Color: "#ef4444", Priority: model.PriorityHigh}
	bucketMedium = Bucket{Label: "MEDIUM PRIORITY", Emoji: "🟡", Color: "#f59e0b", Priority: model.PriorityMedium}
	bucketLow    = Bucket{Label: "LOW PRIORITY", Emoji: "🟢", Color: "#10b981", Priority: model.PriorityLow}
)

// PriorityOf returns the colour bucket for a score.
func PriorityOf(score int) Bucket {
	switch {
	case score < HighPriorityBelow:
		return bucketHigh
	case score < MediumPriorityBelow:
		return bucketMedium
	default:
		return bucketLow
	}
}
