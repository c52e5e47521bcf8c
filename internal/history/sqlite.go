//go:build sqlite
// +build sqlite

package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	logx "schedulerd/pkg/logx"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendRecord(ctx context.Context, r JobRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now()
	}
	cancelled := 0
	if r.Cancelled {
		cancelled = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_history(job_id, priority, run_at, enqueued_at, dispatched_at, completed_at, duration_ms, error, cancelled)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		r.JobID, r.Priority,
		r.RunAt.Format(time.RFC3339Nano), r.EnqueuedAt.Format(time.RFC3339Nano), r.DispatchedAt.Format(time.RFC3339Nano), r.CompletedAt.Format(time.RFC3339Nano),
		r.Duration.Milliseconds(), nullStr(r.Error), cancelled,
	)
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, limit int) ([]JobRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, priority, run_at, enqueued_at, dispatched_at, completed_at, duration_ms, error, cancelled
		 FROM job_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		var (
			r                                                    JobRecord
			runAt, enqueuedAt, dispatchedAt, completedAt         string
			durationMS                                           int64
			errStr                                               sql.NullString
			cancelled                                            int
		)
		if err := rows.Scan(&r.JobID, &r.Priority, &runAt, &enqueuedAt, &dispatchedAt, &completedAt, &durationMS, &errStr, &cancelled); err != nil {
			return nil, err
		}
		r.RunAt, _ = time.Parse(time.RFC3339Nano, runAt)
		r.EnqueuedAt, _ = time.Parse(time.RFC3339Nano, enqueuedAt)
		r.DispatchedAt, _ = time.Parse(time.RFC3339Nano, dispatchedAt)
		r.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Error = errStr.String
		r.Cancelled = cancelled != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
