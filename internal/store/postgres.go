package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-leads/internal/db"
	"github.com/sells-group/seo-leads/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	business_name   TEXT NOT NULL,
	website         TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	geography       TEXT NOT NULL DEFAULT '',
	industry        TEXT NOT NULL DEFAULT '',
	signals         JSONB NOT NULL DEFAULT '{}'::jsonb,
	score           INTEGER NOT NULL DEFAULT 0 CHECK (score BETWEEN 0 AND 100),
	notes           TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'new',
	priority        TEXT NOT NULL DEFAULT 'medium',
	analysis_status TEXT NOT NULL DEFAULT 'basic',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_geo_industry ON leads(geography, industry);
CREATE INDEX IF NOT EXISTS idx_leads_analysis_status ON leads(analysis_status);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score);

CREATE TABLE IF NOT EXISTS campaign_runs (
	id                TEXT PRIMARY KEY,
	campaign_id       TEXT NOT NULL DEFAULT '',
	geography         TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'running',
	industries        JSONB NOT NULL DEFAULT '[]'::jsonb,
	total_leads_found INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT NOT NULL DEFAULT '',
	started_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS campaign_run_leads (
	run_id  TEXT NOT NULL REFERENCES campaign_runs(id),
	lead_id TEXT NOT NULL REFERENCES leads(id),
	PRIMARY KEY (run_id, lead_id)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func pgPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	signals, err := prepareLead(lead, uuid.NewString)
	if err != nil {
		return eris.Wrap(err, "postgres: create lead")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		leadArgs(lead, signals)...,
	)
	return eris.Wrap(err, "postgres: insert lead")
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)

	var r leadRow
	if err := r.scan(row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("lead", id)
		}
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return r.toLead()
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	clause, args := buildLeadFilter(filter, pgPlaceholder)
	return s.queryLeads(ctx, `SELECT `+leadColumns+` FROM leads`+clause, args...)
}

func (s *PostgresStore) UpdateWorkflow(ctx context.Context, id string, update WorkflowUpdate) (*model.Lead, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = COALESCE($1, status), priority = COALESCE($2, priority), updated_at = $3 WHERE id = $4`,
		optionalString(update.Status), optionalString(update.Priority), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update workflow %s", id)
	}
	if err := checkTag(tag, "lead", id); err != nil {
		return nil, err
	}
	return s.GetLead(ctx, id)
}

func (s *PostgresStore) ListBasicLeads(ctx context.Context, ids []string) ([]model.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryLeads(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ANY($1) AND analysis_status = 'basic' ORDER BY created_at ASC`,
		ids,
	)
}

func (s *PostgresStore) CompleteEnrichment(ctx context.Context, lead *model.Lead) (bool, error) {
	signals, err := marshalSignals(lead.Signals)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET signals = $1, score = $2, notes = $3, analysis_status = 'complete', updated_at = $4
		WHERE id = $5 AND analysis_status = 'basic'`,
		signals, lead.Score, lead.Notes, time.Now().UTC(), lead.ID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: complete enrichment %s", lead.ID)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) MarkAnalysisComplete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET analysis_status = 'complete', updated_at = $1 WHERE id = $2 AND analysis_status = 'basic'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: mark analysis complete %s", id)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) CreateCampaignRun(ctx context.Context, run *model.CampaignRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = model.RunStatusRunning
	}
	industries, err := json.Marshal(nonNilIndustries(run.Industries))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal industries")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO campaign_runs (id, campaign_id, geography, status, industries, started_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.CampaignID, run.Geography, string(run.Status), industries, run.StartedAt,
	)
	return eris.Wrap(err, "postgres: insert campaign run")
}

func (s *PostgresStore) GetCampaignRun(ctx context.Context, id string) (*model.CampaignRun, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM campaign_runs WHERE id = $1`, id)

	var (
		run        model.CampaignRun
		status     string
		industries []byte
	)
	err := row.Scan(&run.ID, &run.CampaignID, &run.Geography, &status, &industries,
		&run.TotalLeadsFound, &run.Error, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("campaign run", id)
		}
		return nil, eris.Wrapf(err, "postgres: get campaign run %s", id)
	}
	run.Status = model.RunStatus(status)
	if len(industries) > 0 {
		if err := json.Unmarshal(industries, &run.Industries); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal industries")
		}
	}
	return &run, nil
}

func (s *PostgresStore) AddRunLeads(ctx context.Context, runID string, leadIDs []string) error {
	rows := make([][]any, 0, len(leadIDs))
	for _, id := range leadIDs {
		rows = append(rows, []any{runID, id})
	}
	_, err := db.CopyRows(ctx, s.pool, "campaign_run_leads", []string{"run_id", "lead_id"}, rows)
	return eris.Wrapf(err, "postgres: add run leads %s", runID)
}

func (s *PostgresStore) ListRunLeadIDs(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT lead_id FROM campaign_run_leads WHERE run_id = $1 ORDER BY lead_id`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list run leads %s", runID)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run lead")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: iterate run leads")
}

func (s *PostgresStore) CompleteCampaignRun(ctx context.Context, runID string, industries []model.IndustryScore, totalLeads int) error {
	data, err := json.Marshal(nonNilIndustries(industries))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal industries")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE campaign_runs SET status = $1, industries = $2, total_leads_found = $3, completed_at = $4 WHERE id = $5`,
		string(model.RunStatusCompleted), data, totalLeads, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete campaign run %s", runID)
	}
	return checkTag(tag, "campaign run", runID)
}

func (s *PostgresStore) FailCampaignRun(ctx context.Context, runID string, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaign_runs SET status = $1, error_message = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail campaign run %s", runID)
	}
	return checkTag(tag, "campaign run", runID)
}

func (s *PostgresStore) queryLeads(ctx context.Context, sql string, args ...any) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var r leadRow
		if err := r.scan(rows); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		l, err := r.toLead()
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

func checkTag(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return notFound(entity, id)
	}
	return nil
}

func nonNilIndustries(in []model.IndustryScore) []model.IndustryScore {
	if in == nil {
		return []model.IndustryScore{}
	}
	return in
}
