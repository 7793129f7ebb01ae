package campaign

import "github.com/sells-group/seo-leads/internal/model"

// rankedIndustries lists local-service industries by SEO need, highest first.
var rankedIndustries = []model.IndustryScore{
	{Industry: "HVAC Services", Score: 92, Reasoning: "High search volume, competitive market, strong local SEO need"},
	{Industry: "Plumbing Services", Score: 90, Reasoning: "Emergency services demand, local search critical"},
	{Industry: "Landscaping", Score: 88, Reasoning: "Seasonal high demand, visual portfolio importance"},
	{Industry: "Dental Practices", Score: 87, Reasoning: "High-value patients, trust and reputation critical"},
	{Industry: "Law Firms", Score: 86, Reasoning: "Competitive market, lead value extremely high"},
	{Industry: "Real Estate", Score: 85, Reasoning: "Visual content heavy, local expertise showcase"},
	{Industry: "Roofing Services", Score: 84, Reasoning: "Emergency needs, trust-based decisions"},
	{Industry: "Electrical Services", Score: 83, Reasoning: "Safety concerns drive online research"},
	{Industry: "Auto Repair", Score: 82, Reasoning: "Review-driven decisions, local proximity important"},
	{Industry: "Restaurant", Score: 80, Reasoning: "High mobile search volume, visual content critical"},
}

// TopIndustries returns the n highest-ranked industries. The ranking does not
// depend on geography.
func TopIndustries(n int) []model.IndustryScore {
	n = max(0, min(n, len(rankedIndustries)))
	out := make([]model.IndustryScore, n)
	copy(out, rankedIndustries[:n])
	return out
}
