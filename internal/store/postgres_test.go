package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-leads/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var leadColumnNames = []string{
	"id", "business_name", "website", "email", "phone", "address", "city", "geography", "industry",
	"signals", "score", "notes", "source", "status", "priority", "analysis_status", "created_at", "updated_at",
}

func leadRowValues(id string, score int, analysis string) []any {
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return []any{
		id, "Acme Plumbing", "https://acme.example.com", "", "(512) 555-0100", "1 Main St, Austin, TX", "1 Main St",
		"Austin, TX", "Plumbing", []byte(`{"has_schema":true,"traffic_trend":"Stable","tech_stack":[],"issues":["No FAQ schema"]}`),
		score, "Strong SEO opportunity", model.SourceGooglePlaces, "new", "high", analysis, now, now,
	}
}

func TestPostgresStore_CreateLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(
			pgxmock.AnyArg(), "Acme", "", "", "", "", "", "", "",
			pgxmock.AnyArg(), 50, "", "", "new", "medium", "basic", pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	lead := &model.Lead{BusinessName: "Acme", Score: 50}
	require.NoError(t, s.CreateLead(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE id = \$1`).
		WithArgs("lead-1").
		WillReturnRows(pgxmock.NewRows(leadColumnNames).AddRow(leadRowValues("lead-1", 48, "basic")...))

	got, err := s.GetLead(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Plumbing", got.BusinessName)
	assert.Equal(t, 48, got.Score)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.True(t, got.Signals.HasSchema)
	assert.Equal(t, model.TrendStable, got.Signals.TrafficTrend)
	assert.Equal(t, []string{model.IssueNoFAQ}, got.Signals.Issues)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetLead(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_Filter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM leads WHERE geography = \$1 AND industry = \$2 ORDER BY score ASC, created_at ASC LIMIT \$3`).
		WithArgs("Austin, TX", "Plumbing", 100).
		WillReturnRows(pgxmock.NewRows(leadColumnNames).
			AddRow(leadRowValues("lead-1", 40, "basic")...).
			AddRow(leadRowValues("lead-2", 70, "complete")...))

	leads, err := s.ListLeads(context.Background(), LeadFilter{Geography: "Austin, TX", Industry: "Plumbing"})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, model.AnalysisComplete, leads[1].AnalysisStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBasicLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE id = ANY\(\$1\) AND analysis_status = 'basic'`).
		WithArgs([]string{"lead-1", "lead-2"}).
		WillReturnRows(pgxmock.NewRows(leadColumnNames).AddRow(leadRowValues("lead-1", 40, "basic")...))

	leads, err := s.ListBasicLeads(context.Background(), []string{"lead-1", "lead-2"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "lead-1", leads[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBasicLeads_EmptyIDs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	leads, err := s.ListBasicLeads(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, leads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteEnrichment(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"transition applied", 1, true},
		{"already complete", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockPostgresStore(t)

			mock.ExpectExec(`UPDATE leads SET signals = \$1, score = \$2, notes = \$3, analysis_status = 'complete'.+WHERE id = \$5 AND analysis_status = 'basic'`).
				WithArgs(pgxmock.AnyArg(), 72, "Moderate SEO opportunity", pgxmock.AnyArg(), "lead-1").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			lead := &model.Lead{ID: "lead-1", Score: 72, Notes: "Moderate SEO opportunity", Signals: model.EmptySignals()}
			ok, err := s.CompleteEnrichment(context.Background(), lead)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_MarkAnalysisComplete_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET analysis_status = 'complete'`).
		WithArgs(pgxmock.AnyArg(), "lead-1").
		WillReturnError(assert.AnError)

	ok, err := s.MarkAnalysisComplete(context.Background(), "lead-1")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "mark analysis complete")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateWorkflow_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	status := model.StatusLost
	mock.ExpectExec(`UPDATE leads SET status = COALESCE\(\$1, status\)`).
		WithArgs("lost", nil, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := s.UpdateWorkflow(context.Background(), "missing", WorkflowUpdate{Status: &status})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddRunLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"campaign_run_leads"}, []string{"run_id", "lead_id"}).
		WillReturnResult(2)

	require.NoError(t, s.AddRunLeads(context.Background(), "run-1", []string{"lead-1", "lead-2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteCampaignRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE campaign_runs SET status = \$1, industries = \$2, total_leads_found = \$3`).
		WithArgs("completed", pgxmock.AnyArg(), 7, pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteCampaignRun(context.Background(), "run-1", []model.IndustryScore{{Industry: "HVAC Services", Score: 92}}, 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRunLeadIDs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT lead_id FROM campaign_run_leads WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"lead_id"}).AddRow("lead-1").AddRow("lead-2"))

	ids, err := s.ListRunLeadIDs(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1", "lead-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
