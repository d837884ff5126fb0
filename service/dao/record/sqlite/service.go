package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"

	_ "modernc.org/sqlite"
)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS process_records (
    id             TEXT PRIMARY KEY,
    graph          TEXT NOT NULL,
    entry          TEXT NOT NULL,
    state          TEXT NOT NULL,
    error          TEXT,
    cleanup_errors TEXT,
    jobs           INTEGER NOT NULL,
    failed_jobs    INTEGER NOT NULL,
    escalations    INTEGER NOT NULL,
    duration_ms    INTEGER NOT NULL,
    created_at     DATETIME NOT NULL,
    finished_at    DATETIME NOT NULL
)`

const selectColumns = `SELECT id, graph, entry, state, error, cleanup_errors, jobs, failed_jobs,
	escalations, duration_ms, created_at, finished_at FROM process_records`

// Service stores process records in SQLite
type Service struct {
	db *sql.DB
}

var _ dao.Service[string, execution.Record] = (*Service)(nil)

// New opens the database at dsn and creates the records table
func New(dsn string) (*Service, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(createRecordsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create process_records table: %w", err)
	}
	return &Service{db: db}, nil
}

// Close closes the database
func (s *Service) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a record
func (s *Service) Save(ctx context.Context, r *execution.Record) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.ID == "" {
		return dao.ErrInvalidID
	}
	var cleanupErrors []byte
	if len(r.CleanupErrors) > 0 {
		var err error
		if cleanupErrors, err = json.Marshal(r.CleanupErrors); err != nil {
			return fmt.Errorf("marshal cleanup errors: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO process_records (
			id, graph, entry, state, error, cleanup_errors, jobs, failed_jobs,
			escalations, duration_ms, created_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Graph, r.Entry, r.State, nullString(r.Error), nullString(string(cleanupErrors)),
		r.Jobs, r.FailedJobs, r.Escalations, r.DurationMs, r.CreatedAt.UTC(), r.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Load returns a record by id
func (s *Service) Load(ctx context.Context, id string) (*execution.Record, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	ret, err := scan(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %v: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return ret, nil
}

// Delete removes a record
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM process_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %v: %w", id, dao.ErrNotFound)
	}
	return nil
}

// List returns records newest first, filtered by a State parameter
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Record, error) {
	query := selectColumns
	var args []interface{}
	if states := stateFilter(parameters); len(states) > 0 {
		query += ` WHERE state IN (?` + strings.Repeat(",?", len(states)-1) + `)`
		for _, state := range states {
			args = append(args, state)
		}
	}
	query += ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	var ret []*execution.Record
	for rows.Next() {
		record, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		ret = append(ret, record)
	}
	return ret, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(row scanner) (*execution.Record, error) {
	r := &execution.Record{}
	var errText, cleanupErrors sql.NullString
	var createdAt, finishedAt time.Time
	if err := row.Scan(&r.ID, &r.Graph, &r.Entry, &r.State, &errText, &cleanupErrors,
		&r.Jobs, &r.FailedJobs, &r.Escalations, &r.DurationMs, &createdAt, &finishedAt); err != nil {
		return nil, err
	}
	r.Error = errText.String
	if cleanupErrors.Valid && cleanupErrors.String != "" {
		if err := json.Unmarshal([]byte(cleanupErrors.String), &r.CleanupErrors); err != nil {
			return nil, err
		}
	}
	r.CreatedAt = createdAt
	r.FinishedAt = finishedAt
	return r, nil
}

func stateFilter(parameters []*dao.Parameter) []string {
	for _, parameter := range parameters {
		if parameter.Name != dao.StateParameter {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			return []string{actual}
		case []string:
			return actual
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
