package campaign

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-leads/internal/discovery"
	"github.com/sells-group/seo-leads/internal/enrich"
	"github.com/sells-group/seo-leads/internal/model"
)

type mockStore struct {
	run        *model.CampaignRun
	linked     map[string][]string
	industries []model.IndustryScore
	total      int
	failedMsg  string
	createErr  error
	linkErr    error
	completed  bool
}

func newMockStore() *mockStore {
	return &mockStore{linked: map[string][]string{}}
}

func (m *mockStore) CreateCampaignRun(_ context.Context, run *model.CampaignRun) error {
	if m.createErr != nil {
		return m.createErr
	}
	run.ID = "run-1"
	m.run = run
	return nil
}

func (m *mockStore) AddRunLeads(_ context.Context, runID string, ids []string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	m.linked[runID] = append(m.linked[runID], ids...)
	return nil
}

func (m *mockStore) CompleteCampaignRun(_ context.Context, _ string, industries []model.IndustryScore, total int) error {
	m.completed = true
	m.industries = industries
	m.total = total
	return nil
}

func (m *mockStore) FailCampaignRun(_ context.Context, _ string, msg string) error {
	m.failedMsg = msg
	return nil
}

// fakeFinder returns n leads per industry; the first lead of each industry
// is unpersisted to mimic demo data.
type fakeFinder struct {
	perIndustry int
	failFor     string
	requests    []discovery.Request
}

func (f *fakeFinder) Find(_ context.Context, req discovery.Request) ([]model.Lead, error) {
	f.requests = append(f.requests, req)
	if req.Industry == f.failFor {
		return nil, errors.New("search failed")
	}
	leads := make([]model.Lead, f.perIndustry)
	for i := range leads {
		leads[i] = model.Lead{BusinessName: fmt.Sprintf("%s %d", req.Industry, i)}
		if i > 0 {
			leads[i].ID = fmt.Sprintf("%s-%d", req.Industry, i)
		}
	}
	return leads, nil
}

type fakeEnricher struct {
	runs []string
	err  error
}

func (f *fakeEnricher) EnrichCampaignRun(_ context.Context, runID string) (*enrich.Result, error) {
	f.runs = append(f.runs, runID)
	if f.err != nil {
		return nil, f.err
	}
	return &enrich.Result{Total: 4, Enriched: 4}, nil
}

func TestRun_DiscoversLinksCompletesAndEnriches(t *testing.T) {
	st := newMockStore()
	finder := &fakeFinder{perIndustry: 3}
	enricher := &fakeEnricher{}
	r := NewRunner(st, finder, enricher, Config{})

	resp, err := r.Run(context.Background(), Request{Geography: "Austin, TX", IndustriesToSearch: 2, LeadsPerIndustry: 3})
	require.NoError(t, err)

	assert.Equal(t, "run-1", resp.CampaignRunID)
	assert.Equal(t, 6, resp.TotalLeads)
	assert.Len(t, resp.Leads, 6)
	require.Len(t, resp.Industries, 2)
	assert.Equal(t, "HVAC Services", resp.Industries[0].Industry)
	assert.Equal(t, "Plumbing Services", resp.Industries[1].Industry)

	require.Len(t, finder.requests, 2)
	assert.Equal(t, discovery.Request{Geography: "Austin, TX", Industry: "HVAC Services", MaxResults: 3}, finder.requests[0])

	assert.Equal(t, model.RunStatusRunning, st.run.Status)
	assert.Equal(t, []string{
		"HVAC Services-1", "HVAC Services-2",
		"Plumbing Services-1", "Plumbing Services-2",
	}, st.linked["run-1"])
	assert.True(t, st.completed)
	assert.Equal(t, 6, st.total)
	assert.Empty(t, st.failedMsg)

	assert.Equal(t, []string{"run-1"}, enricher.runs)
	require.NotNil(t, resp.Enrichment)
	assert.Equal(t, 4, resp.Enrichment.Enriched)
}

func TestRun_DefaultsFromConfig(t *testing.T) {
	finder := &fakeFinder{perIndustry: 1}
	r := NewRunner(newMockStore(), finder, nil, Config{})

	resp, err := r.Run(context.Background(), Request{Geography: "Boise"})
	require.NoError(t, err)
	assert.Len(t, resp.Industries, defaultIndustriesToSearch)
	for _, req := range finder.requests {
		assert.Equal(t, defaultLeadsPerIndustry, req.MaxResults)
	}
	assert.Nil(t, resp.Enrichment)
}

func TestRun_IndustryFailureContinues(t *testing.T) {
	st := newMockStore()
	finder := &fakeFinder{perIndustry: 2, failFor: "Plumbing Services"}
	r := NewRunner(st, finder, nil, Config{})

	resp, err := r.Run(context.Background(), Request{Geography: "Austin", IndustriesToSearch: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.TotalLeads)
	assert.Len(t, finder.requests, 3)
	assert.True(t, st.completed)
}

func TestRun_LinkFailureMarksRunFailed(t *testing.T) {
	st := newMockStore()
	st.linkErr = errors.New("db down")
	r := NewRunner(st, &fakeFinder{perIndustry: 2}, &fakeEnricher{}, Config{})

	resp, err := r.Run(context.Background(), Request{Geography: "Austin"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, st.failedMsg, "db down")
	assert.False(t, st.completed)
}

func TestRun_EnrichmentFailureDoesNotFailRun(t *testing.T) {
	st := newMockStore()
	r := NewRunner(st, &fakeFinder{perIndustry: 2}, &fakeEnricher{err: errors.New("provider down")}, Config{})

	resp, err := r.Run(context.Background(), Request{Geography: "Austin"})
	require.NoError(t, err)
	assert.Nil(t, resp.Enrichment)
	assert.Empty(t, st.failedMsg)
}

func TestRun_Validation(t *testing.T) {
	r := NewRunner(newMockStore(), &fakeFinder{}, nil, Config{})
	_, err := r.Run(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geography is required")
}

func TestRun_CreateFailure(t *testing.T) {
	st := newMockStore()
	st.createErr = errors.New("insert failed")
	r := NewRunner(st, &fakeFinder{}, nil, Config{})

	_, err := r.Run(context.Background(), Request{Geography: "Austin"})
	require.Error(t, err)
	assert.Empty(t, st.failedMsg)
}

func TestTopIndustries(t *testing.T) {
	assert.Empty(t, TopIndustries(0))
	assert.Empty(t, TopIndustries(-1))

	top := TopIndustries(3)
	require.Len(t, top, 3)
	assert.Equal(t, 92, top[0].Score)
	assert.Equal(t, "Landscaping", top[2].Industry)

	all := TopIndustries(50)
	require.Len(t, all, 10)
	assert.Equal(t, "Restaurant", all[9].Industry)
	assert.Equal(t, 80, all[9].Score)

	top[0].Industry = "mutated"
	assert.Equal(t, "HVAC Services", TopIndustries(1)[0].Industry)
}
