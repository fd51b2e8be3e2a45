package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id           TEXT PRIMARY KEY,
	operation    TEXT NOT NULL,
	input        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	completed_at TEXT
);
CREATE TABLE IF NOT EXISTS artifacts (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
	step         TEXT NOT NULL,
	category     TEXT,
	content      BLOB,
	text_content TEXT,
	created_at   TEXT NOT NULL,
	UNIQUE (run_id, step)
);`

// sqliteTime keeps lexical order equal to chronological order
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteDB is a ledger stored in a single SQLite file
type SQLiteDB struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the ledger at path
func OpenSQLite(ctx context.Context, path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: pragmas are per connection and ":memory:" is per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=10000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	return &SQLiteDB{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database
func (s *SQLiteDB) Close() {
	_ = s.db.Close()
}

func (s *SQLiteDB) timestamp() string {
	return s.now().Format(sqliteTime)
}

func parseSQLiteTime(v string) (time.Time, error) {
	t, err := time.Parse(sqliteTime, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
	}
	return t, nil
}

// CreateRun creates a new pipeline run record and returns its ID
func (s *SQLiteDB) CreateRun(ctx context.Context, operation, input string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, operation, input, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), operation, input, StatusRunning, s.timestamp(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a pipeline run as finished
func (s *SQLiteDB) CompleteRun(ctx context.Context, runID uuid.UUID, status, source, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = ?, source = ?, error = ?, completed_at = ? WHERE id = ?`,
		status, source, errMsg, s.timestamp(), runID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveArtifact stores a JSON artifact for a pipeline run
func (s *SQLiteDB) SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, run_id, step, category, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, step) DO UPDATE SET category = excluded.category,
		   content = excluded.content, created_at = excluded.created_at`,
		uuid.NewString(), runID.String(), step, category, jsonBytes, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", step, err)
	}
	return nil
}

// SaveTextArtifact stores a text artifact for a pipeline run
func (s *SQLiteDB) SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, run_id, step, category, text_content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, step) DO UPDATE SET category = excluded.category,
		   text_content = excluded.text_content, created_at = excluded.created_at`,
		uuid.NewString(), runID.String(), step, category, text, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("failed to save text artifact %s: %w", step, err)
	}
	return nil
}

// GetArtifact retrieves a JSON artifact by run ID and step
func (s *SQLiteDB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM artifacts WHERE run_id = ? AND step = ?`,
		runID.String(), step,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", step, err)
	}
	return content, nil
}

// GetTextArtifact retrieves a text artifact by run ID and step
func (s *SQLiteDB) GetTextArtifact(ctx context.Context, runID uuid.UUID, step string) (string, error) {
	var text sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT text_content FROM artifacts WHERE run_id = ? AND step = ?`,
		runID.String(), step,
	).Scan(&text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get text artifact %s: %w", step, err)
	}
	return text.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		id        string
		createdAt string
		completed sql.NullString
	)
	if err := row.Scan(&id, &run.Operation, &run.Input, &run.Status, &run.Source, &run.Error, &createdAt, &completed); err != nil {
		return nil, err
	}

	var err error
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	if run.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	if completed.Valid {
		t, err := parseSQLiteTime(completed.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &t
	}
	return &run, nil
}

// GetRun retrieves a pipeline run by ID
func (s *SQLiteDB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanSQLiteRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE id = ?`, runID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent runs with optional filters
func (s *SQLiteDB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	if filters.Limit == 0 {
		filters.Limit = defaultListLimit
	}

	query := `SELECT ` + runColumns + ` FROM pipeline_runs WHERE 1=1`
	args := []any{}
	if filters.Operation != "" {
		query += " AND operation = ?"
		args = append(args, filters.Operation)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, filters.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a pipeline run and all its artifacts (via cascade)
func (s *SQLiteDB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_runs WHERE id = ?`, runID.String())
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// ListArtifacts retrieves the artifacts of a run in creation order
func (s *SQLiteDB) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]ArtifactSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, step, COALESCE(category, ''), created_at,
		        content IS NOT NULL, text_content IS NOT NULL
		 FROM artifacts WHERE run_id = ? ORDER BY created_at ASC, step ASC`,
		runID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []ArtifactSummary
	for rows.Next() {
		var (
			a         ArtifactSummary
			id        string
			createdAt string
		)
		if err := rows.Scan(&id, &a.Step, &a.Category, &createdAt, &a.HasJSON, &a.HasText); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid artifact id %q: %w", id, err)
		}
		if a.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
