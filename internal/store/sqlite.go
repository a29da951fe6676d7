package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/brochure-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	plan_name   TEXT NOT NULL DEFAULT '',
	sources     TEXT NOT NULL,
	dropped     TEXT NOT NULL DEFAULT '[]',
	model       TEXT NOT NULL,
	input_chars INTEGER NOT NULL DEFAULT 0,
	response    TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	sources, err := json.Marshal(nonNil(a.Sources))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sources")
	}
	dropped, err := json.Marshal(nonNil(a.Dropped))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal dropped")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, mode, plan_name, sources, dropped, model, input_chars, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Mode, a.PlanName, string(sources), string(dropped), a.Model, a.InputChars, a.Response, a.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert analysis %s", a.ID)
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, plan_name, sources, dropped, model, input_chars, response, created_at
		 FROM analyses WHERE id = ?`,
		id,
	)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: analysis %s", id)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, limit int) ([]model.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, plan_name, sources, dropped, model, input_chars, response, created_at
		 FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (*model.Analysis, error) {
	var a model.Analysis
	var sources, dropped string
	err := row.Scan(&a.ID, &a.Mode, &a.PlanName, &sources, &dropped, &a.Model, &a.InputChars, &a.Response, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis")
	}
	if err := json.Unmarshal([]byte(sources), &a.Sources); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal sources")
	}
	if err := json.Unmarshal([]byte(dropped), &a.Dropped); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal dropped")
	}
	if len(a.Dropped) == 0 {
		a.Dropped = nil
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
