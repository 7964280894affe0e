// Package history records validation runs in a local sqlite database.
package history

import (
	"context"
	"embed"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/odagate/odagate/internal/domain"
)

var log = logging.Logger("odagate/history")

//go:embed migrations/*.sql
var migrationsFS embed.FS

const busyTimeout = 10 * time.Second

// DB implements domain.RunHistory on sqlite.
type DB struct {
	db *sqlx.DB
}

// Open opens or creates the database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	pragmas := []string{
		"_pragma=journal_mode(WAL)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()),
	}
	dsn := fmt.Sprintf("file:%s?%s", path, strings.Join(pragmas, "&"))
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening history database %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debugw("history database ready", "path", path)
	return &DB{db: db}, nil
}

func migrate(db *sqlx.DB) error {
	// goose logs through the standard logger and offers no switch to silence it.
	stdlog.Default().SetOutput(io.Discard)
	defer stdlog.Default().SetOutput(os.Stderr)

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("applying history migrations: %w", err)
	}
	return nil
}

func (h *DB) Close() error { return h.db.Close() }

type runRow struct {
	RunID      string `db:"run_id"`
	Release    string `db:"release"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	Passed     bool   `db:"passed"`
	High       int    `db:"high"`
	Medium     int    `db:"medium"`
	Info       int    `db:"info"`
	ReportPath string `db:"report_path"`
	CommitHash string `db:"commit_hash"`
	Dirty      bool   `db:"dirty"`
}

func toRow(e domain.RunEntry) runRow {
	return runRow{
		RunID:      e.RunID,
		Release:    e.Release,
		StartedAt:  e.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt: e.FinishedAt.UTC().Format(time.RFC3339Nano),
		Passed:     e.Passed,
		High:       e.High,
		Medium:     e.Medium,
		Info:       e.Info,
		ReportPath: e.ReportPath,
		CommitHash: e.CommitHash,
		Dirty:      e.Dirty,
	}
}

func (r runRow) entry() (domain.RunEntry, error) {
	started, err := time.Parse(time.RFC3339Nano, r.StartedAt)
	if err != nil {
		return domain.RunEntry{}, fmt.Errorf("run %s: started_at: %w", r.RunID, err)
	}
	finished, err := time.Parse(time.RFC3339Nano, r.FinishedAt)
	if err != nil {
		return domain.RunEntry{}, fmt.Errorf("run %s: finished_at: %w", r.RunID, err)
	}
	return domain.RunEntry{
		RunID:      r.RunID,
		Release:    r.Release,
		StartedAt:  started,
		FinishedAt: finished,
		Passed:     r.Passed,
		High:       r.High,
		Medium:     r.Medium,
		Info:       r.Info,
		ReportPath: r.ReportPath,
		CommitHash: r.CommitHash,
		Dirty:      r.Dirty,
	}, nil
}

const insertRun = `INSERT INTO runs
	(run_id, release, started_at, finished_at, passed, high, medium, info, report_path, commit_hash, dirty)
	VALUES (:run_id, :release, :started_at, :finished_at, :passed, :high, :medium, :info, :report_path, :commit_hash, :dirty)`

// Record stores one run.
func (h *DB) Record(ctx context.Context, e domain.RunEntry) error {
	if _, err := h.db.NamedExecContext(ctx, insertRun, toRow(e)); err != nil {
		return fmt.Errorf("recording run %s: %w", e.RunID, err)
	}
	return nil
}

// List returns the most recent runs first. A non-positive limit returns all.
func (h *DB) List(ctx context.Context, limit int) ([]domain.RunEntry, error) {
	query := `SELECT * FROM runs ORDER BY started_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []runRow
	if err := h.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]domain.RunEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
