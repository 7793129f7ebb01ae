package model

import "time"

// RunStatus represents the current state of a campaign run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IndustryScore ranks an industry by how much it needs SEO work.
type IndustryScore struct {
	Industry  string `json:"industry"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// CampaignRun records one automated discovery pass over a geography.
type CampaignRun struct {
	ID              string          `json:"id"`
	CampaignID      string          `json:"campaign_id,omitempty"`
	Geography       string          `json:"geography"`
	Status          RunStatus       `json:"status"`
	Industries      []IndustryScore `json:"industries_found,omitempty"`
	TotalLeadsFound int             `json:"total_leads_found"`
	Error           string          `json:"error_message,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}
