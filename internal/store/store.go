// Package store persists leads and campaign runs in Postgres or SQLite.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-leads/internal/model"
)

// ErrNotFound is returned when a row addressed by ID does not exist.
var ErrNotFound = eris.New("store: not found")

// LeadFilter specifies criteria for listing leads. Zero fields match everything.
type LeadFilter struct {
	Geography      string               `json:"geography,omitempty"`
	Industry       string               `json:"industry,omitempty"`
	Status         model.Status         `json:"status,omitempty"`
	Priority       model.Priority       `json:"priority,omitempty"`
	AnalysisStatus model.AnalysisStatus `json:"analysis_status,omitempty"`
	MaxScore       *int                 `json:"max_score,omitempty"`
	Limit          int                  `json:"limit,omitempty"`
	Offset         int                  `json:"offset,omitempty"`
}

// WorkflowUpdate changes the sales workflow fields of a lead. Nil fields are left as is.
type WorkflowUpdate struct {
	Status   *model.Status   `json:"status,omitempty"`
	Priority *model.Priority `json:"priority,omitempty"`
}

// Validate checks enum values.
func (u WorkflowUpdate) Validate() error {
	if u.Status == nil && u.Priority == nil {
		return eris.New("store: workflow update has no fields")
	}
	if u.Status != nil && !u.Status.Valid() {
		return eris.Errorf("store: invalid status %q", *u.Status)
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return eris.Errorf("store: invalid priority %q", *u.Priority)
	}
	return nil
}

// Store defines the persistence interface for leads and campaign runs.
type Store interface {
	// Leads
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateWorkflow(ctx context.Context, id string, update WorkflowUpdate) (*model.Lead, error)

	// Enrichment. Both updates only apply to leads still in the basic state
	// and report whether this call performed the transition.
	ListBasicLeads(ctx context.Context, ids []string) ([]model.Lead, error)
	CompleteEnrichment(ctx context.Context, lead *model.Lead) (bool, error)
	MarkAnalysisComplete(ctx context.Context, id string) (bool, error)

	// Campaign runs
	CreateCampaignRun(ctx context.Context, run *model.CampaignRun) error
	GetCampaignRun(ctx context.Context, id string) (*model.CampaignRun, error)
	AddRunLeads(ctx context.Context, runID string, leadIDs []string) error
	ListRunLeadIDs(ctx context.Context, runID string) ([]string, error)
	CompleteCampaignRun(ctx context.Context, runID string, industries []model.IndustryScore, totalLeads int) error
	FailCampaignRun(ctx context.Context, runID string, message string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const leadColumns = `id, business_name, website, email, phone, address, city, geography, industry,
	signals, score, notes, source, status, priority, analysis_status, created_at, updated_at`

const runColumns = `id, campaign_id, geography, status, industries, total_leads_found, error_message, started_at, completed_at`

// leadRow is the flat column form of a lead shared by both drivers.
type leadRow struct {
	ID, BusinessName, Website, Email, Phone, Address, City string
	Geography, Industry                                    string
	Signals                                                []byte
	Score                                                  int
	Notes, Source, Status, Priority, AnalysisStatus        string
	CreatedAt, UpdatedAt                                   time.Time
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *leadRow) scan(row scannable) error {
	return row.Scan(
		&r.ID, &r.BusinessName, &r.Website, &r.Email, &r.Phone, &r.Address, &r.City,
		&r.Geography, &r.Industry, &r.Signals, &r.Score, &r.Notes, &r.Source,
		&r.Status, &r.Priority, &r.AnalysisStatus, &r.CreatedAt, &r.UpdatedAt,
	)
}

func (r *leadRow) toLead() (*model.Lead, error) {
	l := &model.Lead{
		ID:             r.ID,
		BusinessName:   r.BusinessName,
		Website:        r.Website,
		Email:          r.Email,
		Phone:          r.Phone,
		Address:        r.Address,
		City:           r.City,
		Geography:      r.Geography,
		Industry:       r.Industry,
		Score:          r.Score,
		Notes:          r.Notes,
		Source:         r.Source,
		Status:         model.Status(r.Status),
		Priority:       model.Priority(r.Priority),
		AnalysisStatus: model.AnalysisStatus(r.AnalysisStatus),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if len(r.Signals) > 0 {
		if err := json.Unmarshal(r.Signals, &l.Signals); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal signals for lead %s", r.ID)
		}
	}
	l.ApplyDefaults()
	return l, nil
}

// leadArgs returns the insert arguments in leadColumns order.
func leadArgs(l *model.Lead, signals []byte) []any {
	return []any{
		l.ID, l.BusinessName, l.Website, l.Email, l.Phone, l.Address, l.City,
		l.Geography, l.Industry, signals, l.Score, l.Notes, l.Source,
		string(l.Status), string(l.Priority), string(l.AnalysisStatus), l.CreatedAt, l.UpdatedAt,
	}
}

// prepareLead validates and stamps a lead before insertion.
func prepareLead(l *model.Lead, newID func() string) ([]byte, error) {
	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if l.ID == "" {
		l.ID = newID()
	}
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	return marshalSignals(l.Signals)
}

func marshalSignals(s model.Signals) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal signals")
	}
	return data, nil
}

// buildLeadFilter renders the WHERE, ORDER and LIMIT clauses for ListLeads.
// ph returns the placeholder for the n-th argument (1-based).
func buildLeadFilter(f LeadFilter, ph func(n int) string) (string, []any) {
	var where []string
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, ph(len(args))))
	}

	if f.Geography != "" {
		add("geography = %s", f.Geography)
	}
	if f.Industry != "" {
		add("industry = %s", f.Industry)
	}
	if f.Status != "" {
		add("status = %s", string(f.Status))
	}
	if f.Priority != "" {
		add("priority = %s", string(f.Priority))
	}
	if f.AnalysisStatus != "" {
		add("analysis_status = %s", string(f.AnalysisStatus))
	}
	if f.MaxScore != nil {
		add("score <= %s", *f.MaxScore)
	}

	var sb strings.Builder
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY score ASC, created_at ASC")

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT " + ph(len(args)))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sb.WriteString(" OFFSET " + ph(len(args)))
	}
	return sb.String(), args
}

func notFound(entity, id string) error {
	return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
}

func optionalString[T ~string](p *T) any {
	if p == nil {
		return nil
	}
	return string(*p)
}
