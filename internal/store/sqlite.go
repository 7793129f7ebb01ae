package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/seo-leads/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	signals         TEXT NOT NULL DEFAULT '{}',
	score           INTEGER NOT NULL DEFAULT 0 CHECK (score BETWEEN 0 AND 100),
	notes           TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'new',
	priority        TEXT NOT NULL DEFAULT 'medium',
	analysis_status TEXT NOT NULL DEFAULT 'basic',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_geo_industry ON leads(geography, industry);
CREATE INDEX IF NOT EXISTS idx_leads_analysis_status ON leads(analysis_status);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score);

CREATE TABLE IF NOT EXISTS campaign_runs (
	id                TEXT PRIMARY KEY,
	campaign_id       TEXT NOT NULL DEFAULT '',
	geography         TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'running',
	industries        TEXT NOT NULL DEFAULT '[]',
	total_leads_found INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT NOT NULL DEFAULT '',
	started_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at      DATETIME
);

CREATE TABLE IF NOT EXISTS campaign_run_leads (
	run_id  TEXT NOT NULL REFERENCES campaign_runs(id),
	lead_id TEXT NOT NULL REFERENCES leads(id),
	PRIMARY KEY (run_id, lead_id)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqlitePlaceholder(int) string { return "?" }

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	signals, err := prepareLead(lead, uuid.NewString)
	if err != nil {
		return eris.Wrap(err, "sqlite: create lead")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		leadArgs(lead, signals)...,
	)
	return eris.Wrap(err, "sqlite: insert lead")
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)

	var r leadRow
	if err := r.scan(row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("lead", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return r.toLead()
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	clause, args := buildLeadFilter(filter, sqlitePlaceholder)
	return s.queryLeads(ctx, `SELECT `+leadColumns+` FROM leads`+clause, args...)
}

func (s *SQLiteStore) UpdateWorkflow(ctx context.Context, id string, update WorkflowUpdate) (*model.Lead, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = COALESCE(?, status), priority = COALESCE(?, priority), updated_at = ? WHERE id = ?`,
		optionalString(update.Status), optionalString(update.Priority), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update workflow %s", id)
	}
	if err := checkRowsAffected(res, "lead", id); err != nil {
		return nil, err
	}
	return s.GetLead(ctx, id)
}

func (s *SQLiteStore) ListBasicLeads(ctx context.Context, ids []string) ([]model.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	return s.queryLeads(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id IN (`+marks+`) AND analysis_status = 'basic' ORDER BY created_at ASC`,
		args...,
	)
}

func (s *SQLiteStore) CompleteEnrichment(ctx context.Context, lead *model.Lead) (bool, error) {
	signals, err := marshalSignals(lead.Signals)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET signals = ?, score = ?, notes = ?, analysis_status = 'complete', updated_at = ?
		WHERE id = ? AND analysis_status = 'basic'`,
		string(signals), lead.Score, lead.Notes, time.Now().UTC(), lead.ID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: complete enrichment %s", lead.ID)
	}
	return applied(res)
}

func (s *SQLiteStore) MarkAnalysisComplete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET analysis_status = 'complete', updated_at = ? WHERE id = ? AND analysis_status = 'basic'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: mark analysis complete %s", id)
	}
	return applied(res)
}

func (s *SQLiteStore) CreateCampaignRun(ctx context.Context, run *model.CampaignRun) error {
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
		return eris.Wrap(err, "sqlite: marshal industries")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaign_runs (id, campaign_id, geography, status, industries, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.CampaignID, run.Geography, string(run.Status), string(industries), run.StartedAt,
	)
	return eris.Wrap(err, "sqlite: insert campaign run")
}

func (s *SQLiteStore) GetCampaignRun(ctx context.Context, id string) (*model.CampaignRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM campaign_runs WHERE id = ?`, id)

	var (
		run         model.CampaignRun
		status      string
		industries  string
		completedAt sql.NullTime
	)
	err := row.Scan(&run.ID, &run.CampaignID, &run.Geography, &status, &industries,
		&run.TotalLeadsFound, &run.Error, &run.StartedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("campaign run", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get campaign run %s", id)
	}
	run.Status = model.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(industries), &run.Industries); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal industries")
	}
	return &run, nil
}

func (s *SQLiteStore) AddRunLeads(ctx context.Context, runID string, leadIDs []string) error {
	if len(leadIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO campaign_run_leads (run_id, lead_id) VALUES (?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare run lead insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, id := range leadIDs {
		if _, err := stmt.ExecContext(ctx, runID, id); err != nil {
			return eris.Wrapf(err, "sqlite: add run lead %s", id)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit run leads")
}

func (s *SQLiteStore) ListRunLeadIDs(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT lead_id FROM campaign_run_leads WHERE run_id = ? ORDER BY lead_id`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list run leads %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run lead")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: iterate run leads")
}

func (s *SQLiteStore) CompleteCampaignRun(ctx context.Context, runID string, industries []model.IndustryScore, totalLeads int) error {
	data, err := json.Marshal(nonNilIndustries(industries))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal industries")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE campaign_runs SET status = ?, industries = ?, total_leads_found = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusCompleted), string(data), totalLeads, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete campaign run %s", runID)
	}
	return checkRowsAffected(res, "campaign run", runID)
}

func (s *SQLiteStore) FailCampaignRun(ctx context.Context, runID string, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE campaign_runs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail campaign run %s", runID)
	}
	return checkRowsAffected(res, "campaign run", runID)
}

func (s *SQLiteStore) queryLeads(ctx context.Context, query string, args ...any) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		var r leadRow
		if err := r.scan(rows); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l, err := r.toLead()
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

func applied(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}
