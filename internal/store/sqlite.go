package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

// sqliteStore is the default file-backed store.
type sqliteStore struct {
	db *sql.DB
}

// openSQLite opens (or creates) the delivery database under dataDir.
func openSQLite(dataDir string) (*sqliteStore, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("store: mkdir %s: %w", dataDir, err)
	}
	dbPath := filepath.Join(dataDir, "sent_jobs.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sent_jobs (
		job_id   TEXT PRIMARY KEY,
		title    TEXT NOT NULL,
		company  TEXT,
		url      TEXT,
		cv_score REAL NOT NULL DEFAULT 0,
		sent_at  TEXT NOT NULL,
		declined INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	slog.Info("store: sqlite opened", slog.String("path", dbPath))
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) IsNew(ctx context.Context, jobID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sent_jobs WHERE job_id = ?`, jobID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: is_new %s: %w", jobID, err)
	}
	return false, nil
}

func (s *sqliteStore) RecordSent(ctx context.Context, job jobs.Posting, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sent_jobs (job_id, title, company, url, cv_score, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.Title, job.Company, job.URL, job.CVScore, sentAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: record sent %s: %w", job.ID, err)
	}
	return nil
}

func (s *sqliteStore) MarkDeclined(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sent_jobs SET declined = 1 WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("store: mark declined %s: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, jobID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, title, company, url, cv_score, sent_at, declined
		 FROM sent_jobs WHERE job_id = ?`, jobID)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", jobID, err)
	}
	return rec, nil
}

func (s *sqliteStore) Active(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, title, company, url, cv_score, sent_at, declined
		 FROM sent_jobs WHERE declined = 0`)
	if err != nil {
		return nil, fmt.Errorf("store: active: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// scanRecord reads one row; sent_at is stored as RFC3339 text.
func scanRecord(scan func(...any) error) (*Record, error) {
	var rec Record
	var sentAt string
	var declined int
	if err := scan(&rec.JobID, &rec.Title, &rec.Company, &rec.URL, &rec.CVScore, &sentAt, &declined); err != nil {
		return nil, err
	}
	rec.SentAt, _ = time.Parse(time.RFC3339, sentAt)
	rec.Declined = declined != 0
	return &rec, nil
}
