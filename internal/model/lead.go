// Package model defines the lead records shared by discovery, enrichment,
// scoring, storage and reporting.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Status is the sales workflow state of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Valid reports whether s is a known workflow status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost:
		return true
	}
	return false
}

// Priority is the sales follow-up priority of a lead.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// AnalysisStatus records whether enrichment has run for a lead.
type AnalysisStatus string

const (
	// AnalysisBasic means only the on-the-fly HTML analysis has run.
	AnalysisBasic AnalysisStatus = "basic"
	// AnalysisComplete means enrichment was attempted. It is never reset.
	AnalysisComplete AnalysisStatus = "complete"
)

// Valid reports whether a is a known analysis status.
func (a AnalysisStatus) Valid() bool {
	return a == AnalysisBasic || a == AnalysisComplete
}

// Provenance tags for Lead.Source.
const (
	SourceGooglePlaces = "Google Places API"
	SourceDemo         = "Demo Data"
	SourceCSVImport    = "CSV Import"
)

// Lead is a prospective client business evaluated for SEO opportunity.
type Lead struct {
	ID             string         `json:"id,omitempty"`
	BusinessName   string         `json:"business_name"`
	Website        string         `json:"website,omitempty"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Address        string         `json:"address,omitempty"`
	City           string         `json:"city,omitempty"`
	Geography      string         `json:"geography,omitempty"`
	Industry       string         `json:"industry,omitempty"`
	Signals        Signals        `json:"signals"`
	Score          int            `json:"score"`
	Notes          string         `json:"notes,omitempty"`
	Source         string         `json:"source"`
	Status         Status         `json:"status"`
	Priority       Priority       `json:"priority"`
	AnalysisStatus AnalysisStatus `json:"analysis_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Validate checks required fields and enum values.
func (l *Lead) Validate() error {
	var errs []string
	if strings.TrimSpace(l.BusinessName) == "" {
		errs = append(errs, "business_name is required")
	}
	if l.Status != "" && !l.Status.Valid() {
		errs = append(errs, fmt.Sprintf("invalid status %q", l.Status))
	}
	if l.Priority != "" && !l.Priority.Valid() {
		errs = append(errs, fmt.Sprintf("invalid priority %q", l.Priority))
	}
	if l.AnalysisStatus != "" && !l.AnalysisStatus.Valid() {
		errs = append(errs, fmt.Sprintf("invalid analysis_status %q", l.AnalysisStatus))
	}
	if !l.Signals.TrafficTrend.Valid() {
		errs = append(errs, fmt.Sprintf("invalid traffic_trend %q", l.Signals.TrafficTrend))
	}
	if l.Score < 0 || l.Score > 100 {
		errs = append(errs, fmt.Sprintf("score %d out of range [0,100]", l.Score))
	}
	if len(errs) > 0 {
		return eris.Errorf("model: invalid lead: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ApplyDefaults fills empty workflow fields with their initial values.
func (l *Lead) ApplyDefaults() {
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Priority == "" {
		l.Priority = PriorityMedium
	}
	if l.AnalysisStatus == "" {
		l.AnalysisStatus = AnalysisBasic
	}
	if l.Signals.TrafficTrend == "" {
		l.Signals.TrafficTrend = TrendUnknown
	}
	if l.Signals.TechStack == nil {
		l.Signals.TechStack = []string{}
	}
	if l.Signals.Issues == nil {
		l.Signals.Issues = []string{}
	}
}
