// Package store persists delivery records for deduplication across runs.
// Records are append-only: a job id is recorded once when sent and only its
// declined flag ever changes afterwards.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Record is one delivered job. Enough descriptive fields are kept to
// re-render the job in chat without re-scraping.
type Record struct {
	JobID    string
	Title    string
	Company  string
	URL      string
	CVScore  float64
	SentAt   time.Time
	Declined bool
}

// Store is the dedup store. The process runs a single delivery path at a
// time, so check-then-insert needs no cross-caller atomicity.
type Store interface {
	// IsNew reports whether jobID has never been delivered or declined.
	IsNew(ctx context.Context, jobID string) (bool, error)
	// RecordSent inserts a delivery record. Inserting an existing id is a
	// no-op so a re-send attempt cannot duplicate history.
	RecordSent(ctx context.Context, job jobs.Posting, sentAt time.Time) error
	// MarkDeclined flips the declined flag; declined jobs leave the
	// candidate set permanently.
	MarkDeclined(ctx context.Context, jobID string) error
	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, jobID string) (*Record, error)
	// Active returns all non-declined records, in no guaranteed order.
	Active(ctx context.Context) ([]Record, error)
	Close() error
}

// Open picks the backend: Postgres when databaseURL is set, otherwise a
// SQLite file under dataDir.
func Open(ctx context.Context, databaseURL, dataDir string) (Store, error) {
	if databaseURL != "" {
		return openPostgres(ctx, databaseURL)
	}
	return openSQLite(dataDir)
}
