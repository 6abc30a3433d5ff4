package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/selimozcann/LinkVerdict/internal/model"
)

// Postgres persists scan records in a scan_results table.
type Postgres struct {
	conn *sql.DB
}

// PostgresConfig contains database configuration.
type PostgresConfig struct {
	DSN string // PostgreSQL connection string
}

const migration = `
CREATE TABLE IF NOT EXISTS scan_results (
	scan_id      TEXT PRIMARY KEY,
	url          TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'processing',
	progress     DOUBLE PRECISION NOT NULL DEFAULT 0,
	message      TEXT NOT NULL DEFAULT 'Starting scan...',
	trace_result JSONB,
	verdict      JSONB,
	error        TEXT,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_update  TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
)`

// NewPostgres opens a connection pool, verifies it and runs the
// migration.
func NewPostgres(cfg PostgresConfig) (*Postgres, error) {
	conn, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if _, err := conn.Exec(migration); err != nil {
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	return &Postgres{conn: conn}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.conn.Close()
}

func (p *Postgres) Create(ctx context.Context, id, url string) error {
	_, err := p.conn.ExecContext(ctx,
		`INSERT INTO scan_results (scan_id, url) VALUES ($1, $2)`, id, url)
	if err != nil {
		return fmt.Errorf("failed to create scan record: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateProgress(ctx context.Context, id string, progress float64, message string) error {
	res, err := p.conn.ExecContext(ctx,
		`UPDATE scan_results SET progress = $2, message = $3, last_update = now() WHERE scan_id = $1`,
		id, progress, message)
	if err != nil {
		return fmt.Errorf("failed to update scan progress: %w", err)
	}
	return checkFound(res)
}

func (p *Postgres) Complete(ctx context.Context, id string, tr model.TraceResult, v model.Verdict) error {
	traceJSON, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	verdictJSON, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	res, err := p.conn.ExecContext(ctx,
		`UPDATE scan_results
		 SET status = $2, trace_result = $3, verdict = $4, last_update = now(), completed_at = now()
		 WHERE scan_id = $1`,
		id, StatusCompleted, traceJSON, verdictJSON)
	if err != nil {
		return fmt.Errorf("failed to complete scan record: %w", err)
	}
	return checkFound(res)
}

func (p *Postgres) Fail(ctx context.Context, id, errMsg string) error {
	res, err := p.conn.ExecContext(ctx,
		`UPDATE scan_results
		 SET status = $2, error = $3, last_update = now(), completed_at = now()
		 WHERE scan_id = $1`,
		id, StatusError, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark scan failed: %w", err)
	}
	return checkFound(res)
}

func (p *Postgres) Get(ctx context.Context, id string) (Record, error) {
	row := p.conn.QueryRowContext(ctx,
		`SELECT scan_id, url, status, progress, message, trace_result, verdict,
		        COALESCE(error, ''), started_at, last_update, completed_at
		 FROM scan_results WHERE scan_id = $1`, id)

	var (
		rec         Record
		traceJSON   []byte
		verdictJSON []byte
		completedAt sql.NullTime
	)
	err := row.Scan(&rec.ScanID, &rec.URL, &rec.Status, &rec.Progress, &rec.Message,
		&traceJSON, &verdictJSON, &rec.Error, &rec.StartedAt, &rec.LastUpdate, &completedAt)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load scan record: %w", err)
	}

	if len(traceJSON) > 0 {
		var tr model.TraceResult
		if err := json.Unmarshal(traceJSON, &tr); err != nil {
			return Record{}, fmt.Errorf("failed to unmarshal trace: %w", err)
		}
		rec.Trace = &tr
	}
	if len(verdictJSON) > 0 {
		var v model.Verdict
		if err := json.Unmarshal(verdictJSON, &v); err != nil {
			return Record{}, fmt.Errorf("failed to unmarshal verdict: %w", err)
		}
		rec.Verdict = &v
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return rec, nil
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
