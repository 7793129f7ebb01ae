package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-leads/internal/analysis"
	"github.com/sells-group/seo-leads/internal/campaign"
	"github.com/sells-group/seo-leads/internal/discovery"
	"github.com/sells-group/seo-leads/internal/enrich"
	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/report"
	"github.com/sells-group/seo-leads/internal/store"
)

type leadStore interface {
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter store.LeadFilter) ([]model.Lead, error)
	UpdateWorkflow(ctx context.Context, id string, update store.WorkflowUpdate) (*model.Lead, error)
}

type leadFinder interface {
	Find(ctx context.Context, req discovery.Request) ([]model.Lead, error)
}

type leadEnricher interface {
	EnrichLeads(ctx context.Context, ids []string) (*enrich.Result, error)
	EnrichCampaignRun(ctx context.Context, runID string) (*enrich.Result, error)
}

type campaignRunner interface {
	Run(ctx context.Context, req campaign.Request) (*campaign.Response, error)
}

type siteAuditor interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// api serves the HTTP endpoints. A nil auditor answers /analyze with 503.
type api struct {
	store     leadStore
	finder    leadFinder
	enricher  leadEnricher
	campaigns campaignRunner
	auditor   siteAuditor
	renderer  *report.Renderer
}

func newAPI(env *appEnv) *api {
	a := &api{
		store:     env.Store,
		finder:    env.Finder,
		enricher:  env.Updater,
		campaigns: env.Runner,
		renderer:  env.Renderer,
	}
	if env.Analyzer != nil {
		a.auditor = env.Analyzer
	}
	return a
}

// routes builds the chi router. Every route answers CORS preflight for the
// configured origins.
func (a *api) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"},
			MaxAge:         300,
		}),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/find-leads", a.findLeads)
	r.Post("/enrich-lead-metrics", a.enrichLeadMetrics)
	r.Post("/campaigns/run", a.runCampaign)
	r.Post("/analyze", a.analyze)
	r.Post("/reports/bulk.{format}", a.bulkReport)
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", a.listLeads)
		r.Get("/{id}", a.getLead)
		r.Patch("/{id}", a.updateLead)
		r.Get("/{id}/report.{format}", a.leadReport)
	})
	return r
}

func (a *api) findLeads(w http.ResponseWriter, r *http.Request) {
	var req discovery.Request
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	leads, err := a.finder.Find(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": nonNilLeads(leads)})
}

type enrichRequest struct {
	CampaignRunID string   `json:"campaignRunId,omitempty"`
	LeadIDs       []string `json:"leadIds,omitempty"`
}

func (a *api) enrichLeadMetrics(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		res *enrich.Result
		err error
	)
	switch {
	case req.CampaignRunID != "":
		res, err = a.enricher.EnrichCampaignRun(r.Context(), req.CampaignRunID)
	case len(req.LeadIDs) > 0:
		res, err = a.enricher.EnrichLeads(r.Context(), req.LeadIDs)
	default:
		writeError(w, http.StatusBadRequest, eris.New("campaignRunId or leadIds is required"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) runCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaign.Request
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Geography == "" {
		writeError(w, http.StatusBadRequest, eris.New("geography is required"))
		return
	}
	resp, err := a.campaigns.Run(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) analyze(w http.ResponseWriter, r *http.Request) {
	if a.auditor == nil {
		writeError(w, http.StatusServiceUnavailable, eris.New("analysis is not configured"))
		return
	}
	var req analysis.Request
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := a.auditor.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) listLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := leadFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	leads, err := a.store.ListLeads(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": nonNilLeads(leads)})
}

func (a *api) getLead(w http.ResponseWriter, r *http.Request) {
	lead, ok := a.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (a *api) updateLead(w http.ResponseWriter, r *http.Request) {
	var update store.WorkflowUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	if err := update.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lead, err := a.store.UpdateWorkflow(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (a *api) leadReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	lead, ok := a.lookup(w, r)
	if !ok {
		return
	}
	body, err := a.renderer.Render(lead, format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeAttachment(w, format, report.Filename(lead, format), body)
}

type bulkReportRequest struct {
	Geography string   `json:"geography"`
	Industry  string   `json:"industry"`
	LeadIDs   []string `json:"leadIds,omitempty"`
	MaxScore  *int     `json:"maxScore,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// bulkReport renders the listed leads, or every lead matching the
// geography and industry labels when no IDs are given.
func (a *api) bulkReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var req bulkReportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	leads, err := a.bulkLeads(r.Context(), req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	body, err := a.renderer.RenderBulk(leads, req.Geography, req.Industry, format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeAttachment(w, format, report.BulkFilename(req.Geography, req.Industry, format), body)
}

func (a *api) bulkLeads(ctx context.Context, req bulkReportRequest) ([]model.Lead, error) {
	if len(req.LeadIDs) == 0 {
		return a.store.ListLeads(ctx, store.LeadFilter{
			Geography: req.Geography,
			Industry:  req.Industry,
			MaxScore:  req.MaxScore,
			Limit:     req.Limit,
		})
	}
	leads := make([]model.Lead, 0, len(req.LeadIDs))
	for _, id := range req.LeadIDs {
		l, err := a.store.GetLead(ctx, id)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, nil
}

func (a *api) lookup(w http.ResponseWriter, r *http.Request) (*model.Lead, bool) {
	lead, err := a.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return lead, true
}

func leadFilterFromQuery(r *http.Request) (store.LeadFilter, error) {
	q := r.URL.Query()
	f := store.LeadFilter{
		Geography:      q.Get("geography"),
		Industry:       q.Get("industry"),
		Status:         model.Status(q.Get("status")),
		Priority:       model.Priority(q.Get("priority")),
		AnalysisStatus: model.AnalysisStatus(q.Get("analysis_status")),
	}
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, eris.New(key + " must be a non-negative integer")
			}
			*dst = n
		}
	}
	if v := q.Get("max_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, eris.New("max_score must be an integer")
		}
		f.MaxScore = &n
	}
	return f, nil
}

func nonNilLeads(leads []model.Lead) []model.Lead {
	if leads == nil {
		return []model.Lead{}
	}
	return leads
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func writeAttachment(w http.ResponseWriter, format report.Format, filename string, body []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
