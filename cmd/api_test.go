package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-leads/internal/analysis"
	"github.com/sells-group/seo-leads/internal/campaign"
	"github.com/sells-group/seo-leads/internal/discovery"
	"github.com/sells-group/seo-leads/internal/enrich"
	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/report"
	"github.com/sells-group/seo-leads/internal/signals"
	"github.com/sells-group/seo-leads/internal/store"
	"github.com/sells-group/seo-leads/pkg/anthropic"
)

type fakeLeadStore struct {
	mu         sync.Mutex
	leads      map[string]model.Lead
	lastFilter store.LeadFilter
}

func (f *fakeLeadStore) GetLead(_ context.Context, id string) (*model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return nil, eris.Wrapf(store.ErrNotFound, "lead %s", id)
	}
	return &l, nil
}

func (f *fakeLeadStore) ListLeads(_ context.Context, filter store.LeadFilter) ([]model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	var out []model.Lead
	for _, l := range f.leads {
		if filter.Geography != "" && l.Geography != filter.Geography {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLeadStore) UpdateWorkflow(_ context.Context, id string, u store.WorkflowUpdate) (*model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if u.Status != nil {
		l.Status = *u.Status
	}
	if u.Priority != nil {
		l.Priority = *u.Priority
	}
	f.leads[id] = l
	return &l, nil
}

type fakeFinder struct {
	got discovery.Request
}

func (f *fakeFinder) Find(_ context.Context, req discovery.Request) ([]model.Lead, error) {
	f.got = req
	return []model.Lead{{ID: "l1", BusinessName: "Acme Plumbing", Score: 40}}, nil
}

type fakeEnricher struct {
	runID string
	ids   []string
}

func (f *fakeEnricher) EnrichLeads(_ context.Context, ids []string) (*enrich.Result, error) {
	f.ids = ids
	return &enrich.Result{Total: len(ids), Enriched: len(ids)}, nil
}

func (f *fakeEnricher) EnrichCampaignRun(_ context.Context, runID string) (*enrich.Result, error) {
	f.runID = runID
	return &enrich.Result{Message: "No leads to enrich"}, nil
}

type fakeRunner struct{}

func (fakeRunner) Run(_ context.Context, req campaign.Request) (*campaign.Response, error) {
	return &campaign.Response{CampaignRunID: "run-1", Geography: req.Geography, TotalLeads: 2}, nil
}

type fakeAuditor struct{}

func (fakeAuditor) Analyze(_ context.Context, req analysis.Request) (*analysis.Result, error) {
	return &analysis.Result{Kind: req.Kind, SEO: &analysis.SEOResult{Score: 72, Grade: "B"}}, nil
}

func newTestAPI() *api {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &api{
		store: &fakeLeadStore{leads: map[string]model.Lead{
			"l1": {ID: "l1", BusinessName: "Acme Plumbing & Co", Geography: "Austin, TX", Score: 40, Status: model.StatusNew},
			"l2": {ID: "l2", BusinessName: "Cool Air", Geography: "Denver", Score: 80, Status: model.StatusNew},
		}},
		finder:    &fakeFinder{},
		enricher:  &fakeEnricher{},
		campaigns: fakeRunner{},
		renderer:  report.New(report.WithClock(func() time.Time { return fixed }), report.WithLocation(time.UTC)),
	}
}

func serve(t *testing.T, a *api, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	a.routes([]string{"*"}).ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestAPI_Health(t *testing.T) {
	rr := serve(t, newTestAPI(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", decode(t, rr)["status"])
}

func TestAPI_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/find-leads", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rr := httptest.NewRecorder()
	newTestAPI().routes([]string{"*"}).ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestAPI_FindLeads(t *testing.T) {
	a := newTestAPI()
	rr := serve(t, a, http.MethodPost, "/find-leads", `{"geography":"Austin, TX","industry":"Plumbing","maxResults":5}`)
	require.Equal(t, http.StatusOK, rr.Code)

	leads := decode(t, rr)["leads"].([]any)
	require.Len(t, leads, 1)
	assert.Equal(t, "Acme Plumbing", leads[0].(map[string]any)["business_name"])
	assert.Equal(t, discovery.Request{Geography: "Austin, TX", Industry: "Plumbing", MaxResults: 5}, a.finder.(*fakeFinder).got)
}

func TestAPI_FindLeads_BadRequests(t *testing.T) {
	a := newTestAPI()

	rr := serve(t, a, http.MethodPost, "/find-leads", `{"geography":"Austin"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "industry is required")

	rr = serve(t, a, http.MethodPost, "/find-leads", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestAPI_EnrichLeadMetrics(t *testing.T) {
	a := newTestAPI()
	enricher := a.enricher.(*fakeEnricher)

	rr := serve(t, a, http.MethodPost, "/enrich-lead-metrics", `{"campaignRunId":"run-9"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "run-9", enricher.runID)
	assert.Equal(t, "No leads to enrich", decode(t, rr)["message"])

	rr = serve(t, a, http.MethodPost, "/enrich-lead-metrics", `{"leadIds":["l1","l2"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"l1", "l2"}, enricher.ids)
	assert.EqualValues(t, 2, decode(t, rr)["enrichedCount"])

	rr = serve(t, a, http.MethodPost, "/enrich-lead-metrics", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_RunCampaign(t *testing.T) {
	a := newTestAPI()

	rr := serve(t, a, http.MethodPost, "/campaigns/run", `{"geography":"Boise, ID"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "run-1", body["campaignRunId"])
	assert.Equal(t, "Boise, ID", body["geography"])

	rr = serve(t, a, http.MethodPost, "/campaigns/run", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_Analyze(t *testing.T) {
	a := newTestAPI()

	rr := serve(t, a, http.MethodPost, "/analyze", `{"type":"seo","url":"https://example.com"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	a.auditor = fakeAuditor{}
	rr = serve(t, a, http.MethodPost, "/analyze", `{"type":"seo","url":"https://example.com"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"grade":"B"`)

	rr = serve(t, a, http.MethodPost, "/analyze", `{"type":"pdf","url":"https://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

type cannedLLM struct{ reply string }

func (c cannedLLM) CreateMessage(context.Context, anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: c.reply}}}, nil
}

func TestAPI_AnalyzeContent(t *testing.T) {
	a := newTestAPI()
	a.auditor = analysis.NewAnalyzer(cannedLLM{reply: "Acme opens a second office."}, analysis.Config{})

	rr := serve(t, a, http.MethodPost, "/analyze",
		`{"type":"content","contentType":"press_release","params":{"company":"Acme","announcement":"New office"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	content := decode(t, rr)["content"].(map[string]any)
	assert.Equal(t, "press_release", content["type"])
	assert.Equal(t, "Acme opens a second office.", content["body"])

	rr = serve(t, a, http.MethodPost, "/analyze", `{"type":"content","contentType":"press_release","params":{"company":"Acme"}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "params.announcement")
}

func TestAPI_AnalyzeSecurityIncludesScan(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		_, _ = w.Write([]byte(`<script>document.write("hi")</script>`))
	}))
	defer site.Close()

	a := newTestAPI()
	a.auditor = analysis.NewAnalyzer(cannedLLM{reply: `{"riskScore": 20}`}, analysis.Config{},
		analysis.WithPageFetcher(signals.NewAnalyzer(signals.Options{})))

	rr := serve(t, a, http.MethodPost, "/analyze", `{"type":"security","url":"`+site.URL+`"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.EqualValues(t, 20, body["security"].(map[string]any)["riskScore"])

	scan := body["realSecurityData"].(map[string]any)
	assert.Equal(t, false, scan["https"])
	headers := scan["securityHeaders"].(map[string]any)
	assert.Equal(t, []any{"X-Frame-Options"}, headers["presentHeaders"])
	assert.Len(t, scan["commonVulnerabilities"], 2)
}

func TestAPI_ListLeads(t *testing.T) {
	a := newTestAPI()

	rr := serve(t, a, http.MethodGet, "/leads?geography=Denver&max_score=90&limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	leads := decode(t, rr)["leads"].([]any)
	require.Len(t, leads, 1)
	assert.Equal(t, "Cool Air", leads[0].(map[string]any)["business_name"])

	f := a.store.(*fakeLeadStore).lastFilter
	assert.Equal(t, 5, f.Limit)
	require.NotNil(t, f.MaxScore)
	assert.Equal(t, 90, *f.MaxScore)

	rr = serve(t, a, http.MethodGet, "/leads?geography=Nowhere", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"leads":[]}`, strings.TrimSpace(rr.Body.String()))

	rr = serve(t, a, http.MethodGet, "/leads?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_GetAndUpdateLead(t *testing.T) {
	a := newTestAPI()

	rr := serve(t, a, http.MethodGet, "/leads/l1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Acme Plumbing & Co", decode(t, rr)["business_name"])

	rr = serve(t, a, http.MethodGet, "/leads/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(t, a, http.MethodPatch, "/leads/l1", `{"status":"contacted","priority":"urgent"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "contacted", body["status"])
	assert.Equal(t, "urgent", body["priority"])

	rr = serve(t, a, http.MethodPatch, "/leads/l1", `{"status":"won"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, a, http.MethodPatch, "/leads/missing", `{"status":"lost"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_LeadReport(t *testing.T) {
	a := newTestAPI()

	rr := serve(t, a, http.MethodGet, "/leads/l1/report.txt", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Acme_Plumbing___Co_SEO_Report.txt"`, rr.Header().Get("Content-Disposition"))
	assert.Contains(t, rr.Body.String(), "#. ACME PLUMBING & CO")
	assert.Contains(t, rr.Body.String(), "Report Generated: 1/2/2026, 3:04:05 AM")

	rr = serve(t, a, http.MethodGet, "/leads/l1/report.html", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "<!DOCTYPE html>")

	rr = serve(t, a, http.MethodGet, "/leads/l1/report.pdf", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(t, a, http.MethodGet, "/leads/missing/report.txt", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_BulkReport(t *testing.T) {
	a := newTestAPI()

	rr := serve(t, a, http.MethodPost, "/reports/bulk.html", `{"geography":"Austin, TX","industry":"Plumbing"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="Bulk_SEO_Report_Austin__TX_Plumbing.html"`, rr.Header().Get("Content-Disposition"))
	assert.Contains(t, rr.Body.String(), `data-summary="total">1<`)
	assert.Contains(t, rr.Body.String(), "Acme Plumbing &amp; Co")

	rr = serve(t, a, http.MethodPost, "/reports/bulk.txt", `{"geography":"Mixed","industry":"Any","leadIds":["l1","l2"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Total Leads: 2")
	assert.Contains(t, rr.Body.String(), "#. COOL AIR")

	rr = serve(t, a, http.MethodPost, "/reports/bulk.txt", `{"leadIds":["missing"]}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
