package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-leads/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleLead(name string, score int) *model.Lead {
	s := model.EmptySignals()
	s.HasSchema = true
	s.LCPMillis = model.Float(3100)
	s.TechStack = []string{"WordPress"}
	s.Issues = []string{model.IssueNoFAQ}
	return &model.Lead{
		BusinessName: name,
		Website:      "https://" + name + ".example.com",
		Phone:        "(512) 555-0100",
		City:         "Austin",
		Geography:    "Austin, TX",
		Industry:     "Plumbing",
		Signals:      s,
		Score:        score,
		Notes:        "Strong SEO opportunity",
		Source:       model.SourceGooglePlaces,
	}
}

func TestSQLite_CreateAndGetLead(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := sampleLead("acme", 55)
	require.NoError(t, st.CreateLead(ctx, lead))
	require.NotEmpty(t, lead.ID)
	assert.Equal(t, model.StatusNew, lead.Status)
	assert.Equal(t, model.AnalysisBasic, lead.AnalysisStatus)

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.BusinessName)
	assert.Equal(t, 55, got.Score)
	assert.Equal(t, model.PriorityMedium, got.Priority)
	assert.Equal(t, []string{"WordPress"}, got.Signals.TechStack)
	require.NotNil(t, got.Signals.LCPMillis)
	assert.Equal(t, 3100.0, *got.Signals.LCPMillis)
	assert.Nil(t, got.Signals.BacklinksCount)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_CreateLead_Invalid(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CreateLead(context.Background(), &model.Lead{BusinessName: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "business_name is required")
}

func TestSQLite_GetLead_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetLead(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListLeads_FilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, l := range []*model.Lead{sampleLead("c", 80), sampleLead("a", 40), sampleLead("b", 65)} {
		require.NoError(t, st.CreateLead(ctx, l))
	}
	other := sampleLead("d", 10)
	other.Industry = "Dental"
	require.NoError(t, st.CreateLead(ctx, other))

	leads, err := st.ListLeads(ctx, LeadFilter{Geography: "Austin, TX", Industry: "Plumbing"})
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, []int{40, 65, 80}, []int{leads[0].Score, leads[1].Score, leads[2].Score})

	maxScore := 65
	leads, err = st.ListLeads(ctx, LeadFilter{MaxScore: &maxScore, Limit: 2})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, 10, leads[0].Score)
	assert.Equal(t, 40, leads[1].Score)

	leads, err = st.ListLeads(ctx, LeadFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, 65, leads[0].Score)
}

func TestSQLite_UpdateWorkflow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := sampleLead("acme", 55)
	require.NoError(t, st.CreateLead(ctx, lead))

	status := model.StatusContacted
	got, err := st.UpdateWorkflow(ctx, lead.ID, WorkflowUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, got.Status)
	assert.Equal(t, model.PriorityMedium, got.Priority)

	priority := model.PriorityUrgent
	got, err = st.UpdateWorkflow(ctx, lead.ID, WorkflowUpdate{Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, got.Status)
	assert.Equal(t, model.PriorityUrgent, got.Priority)

	bad := model.Status("archived")
	_, err = st.UpdateWorkflow(ctx, lead.ID, WorkflowUpdate{Status: &bad})
	assert.Error(t, err)

	_, err = st.UpdateWorkflow(ctx, "missing", WorkflowUpdate{Status: &status})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_CompleteEnrichment_CompareAndSwap(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := sampleLead("acme", 55)
	require.NoError(t, st.CreateLead(ctx, lead))

	basic, err := st.ListBasicLeads(ctx, []string{lead.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, basic, 1)

	enriched := basic[0]
	enriched.Score = 72
	enriched.Notes = "Moderate SEO opportunity"
	enriched.Signals.AddIssue(model.IssueSlowLCP)
	enriched.Signals.BacklinksCount = model.Float(120)

	ok, err := st.CompleteEnrichment(ctx, &enriched)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second pass over a complete lead must not change it.
	stale := enriched
	stale.Score = 10
	ok, err = st.CompleteEnrichment(ctx, &stale)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 72, got.Score)
	assert.Equal(t, model.AnalysisComplete, got.AnalysisStatus)
	assert.Equal(t, []string{model.IssueNoFAQ, model.IssueSlowLCP}, got.Signals.Issues)
	require.NotNil(t, got.Signals.BacklinksCount)

	basic, err = st.ListBasicLeads(ctx, []string{lead.ID})
	require.NoError(t, err)
	assert.Empty(t, basic)
}

func TestSQLite_MarkAnalysisComplete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := sampleLead("acme", 55)
	lead.Website = ""
	require.NoError(t, st.CreateLead(ctx, lead))

	ok, err := st.MarkAnalysisComplete(ctx, lead.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.MarkAnalysisComplete(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisComplete, got.AnalysisStatus)
	assert.Equal(t, 55, got.Score)
}

func TestSQLite_CampaignRunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := &model.CampaignRun{CampaignID: "camp-1", Geography: "Austin, TX"}
	require.NoError(t, st.CreateCampaignRun(ctx, run))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	a, b := sampleLead("a", 40), sampleLead("b", 50)
	require.NoError(t, st.CreateLead(ctx, a))
	require.NoError(t, st.CreateLead(ctx, b))
	require.NoError(t, st.AddRunLeads(ctx, run.ID, []string{a.ID, b.ID}))
	require.NoError(t, st.AddRunLeads(ctx, run.ID, []string{a.ID}))
	require.NoError(t, st.AddRunLeads(ctx, run.ID, nil))

	ids, err := st.ListRunLeadIDs(ctx, run.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	industries := []model.IndustryScore{{Industry: "HVAC Services", Score: 92, Reasoning: "r"}}
	require.NoError(t, st.CompleteCampaignRun(ctx, run.ID, industries, 2))

	got, err := st.GetCampaignRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, 2, got.TotalLeadsFound)
	assert.Equal(t, industries, got.Industries)
	assert.NotNil(t, got.CompletedAt)
}

func TestSQLite_FailCampaignRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := &model.CampaignRun{Geography: "Denver, CO"}
	require.NoError(t, st.CreateCampaignRun(ctx, run))
	require.NoError(t, st.FailCampaignRun(ctx, run.ID, "places: quota exceeded"))

	got, err := st.GetCampaignRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "places: quota exceeded", got.Error)

	err = st.FailCampaignRun(ctx, "missing", "x")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = st.GetCampaignRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCheckRowsAffected(t *testing.T) {
	err := checkRowsAffected(&fakeResult{rowsAffected: 0}, "widget", "abc-123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "widget abc-123")

	err = checkRowsAffected(&fakeResult{err: assert.AnError}, "widget", "abc-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows affected")

	assert.NoError(t, checkRowsAffected(&fakeResult{rowsAffected: 1}, "widget", "abc-123"))
}

// fakeResult implements sql.Result for testing checkRowsAffected.
type fakeResult struct {
	rowsAffected int64
	err          error
}

func (f *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (f *fakeResult) RowsAffected() (int64, error) { return f.rowsAffected, f.err }

var _ sql.Result = (*fakeResult)(nil)
