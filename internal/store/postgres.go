package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

// pgStore backs the dedup store with Postgres for deployments that already
// run one; selected by Open when DATABASE_URL is set.
type pgStore struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, databaseURL string) (*pgStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("store: create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS sent_jobs (
		job_id   TEXT PRIMARY KEY,
		title    TEXT NOT NULL,
		company  TEXT,
		url      TEXT,
		cv_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		sent_at  TIMESTAMPTZ NOT NULL,
		declined BOOLEAN NOT NULL DEFAULT FALSE
	)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	slog.Info("store: postgres connected", slog.String("host", config.ConnConfig.Host))
	return &pgStore{pool: pool}, nil
}

func (s *pgStore) IsNew(ctx context.Context, jobID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM sent_jobs WHERE job_id = $1`, jobID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: is_new %s: %w", jobID, err)
	}
	return false, nil
}

func (s *pgStore) RecordSent(ctx context.Context, job jobs.Posting, sentAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sent_jobs (job_id, title, company, url, cv_score, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (job_id) DO NOTHING`,
		job.ID, job.Title, job.Company, job.URL, job.CVScore, sentAt.UTC())
	if err != nil {
		return fmt.Errorf("store: record sent %s: %w", job.ID, err)
	}
	return nil
}

func (s *pgStore) MarkDeclined(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE sent_jobs SET declined = TRUE WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("store: mark declined %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) Get(ctx context.Context, jobID string) (*Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, title, company, url, cv_score, sent_at, declined
		 FROM sent_jobs WHERE job_id = $1`, jobID).
		Scan(&rec.JobID, &rec.Title, &rec.Company, &rec.URL, &rec.CVScore, &rec.SentAt, &rec.Declined)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", jobID, err)
	}
	return &rec, nil
}

func (s *pgStore) Active(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT job_id, title, company, url, cv_score, sent_at, declined
		 FROM sent_jobs WHERE declined = FALSE`)
	if err != nil {
		return nil, fmt.Errorf("store: active: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.JobID, &rec.Title, &rec.Company, &rec.URL,
			&rec.CVScore, &rec.SentAt, &rec.Declined); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}
