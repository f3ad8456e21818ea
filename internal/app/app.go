// Package app is the pipeline orchestrator: scheduled scrapes fill a pending
// queue, scheduled deliveries drain it to chat, and chat actions come back in
// through the Handler methods.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/go_jobbot/internal/config"
	"github.com/anatolykoptev/go_jobbot/internal/jobs"
	"github.com/anatolykoptev/go_jobbot/internal/store"
)

// jobSource yields candidate postings; satisfied by *scraper.Scraper.
type jobSource interface {
	Scrape(ctx context.Context, query, location string, radiusMiles, maxResults int) []jobs.Posting
}

// scorer ranks job text against the resume; satisfied by *ranker.Ranker.
type scorer interface {
	Score(ctx context.Context, jobText string) (float64, error)
	CacheStats() (hits, misses int64)
}

// deliverer pushes messages to the chat; satisfied by *telegram.Bot. Deliver
// returns the jobs that actually reached the chat, which may be any subset of
// the batch, not just a prefix.
type deliverer interface {
	Deliver(ctx context.Context, batch []jobs.Posting) []jobs.Posting
	SendText(ctx context.Context, text string) error
}

// healthReporter produces the /report body; satisfied by *monitor.Monitor.
type healthReporter interface {
	Report(ctx context.Context) string
}

// App owns the pending queue and the pipeline runs. Scheduled tasks and the
// Telegram long-poll run on separate goroutines, so the queue is mutex
// guarded.
type App struct {
	cfg    *config.Config
	source jobSource
	ranker scorer
	store  store.Store
	bot    deliverer
	health healthReporter

	mu      sync.Mutex
	pending []jobs.Posting

	// now is swappable for tests.
	now func() time.Time
}

func New(cfg *config.Config, source jobSource, ranker scorer, st store.Store, bot deliverer, health healthReporter) *App {
	return &App{
		cfg:    cfg,
		source: source,
		ranker: ranker,
		store:  st,
		bot:    bot,
		health: health,
		now:    time.Now,
	}
}

// RunScrape is the scheduled scrape task: fetch, score, filter, dedupe, and
// queue. Jobs already delivered, declined, or queued are dropped.
func (a *App) RunScrape(ctx context.Context) error {
	scraped := a.source.Scrape(ctx, a.cfg.Query, a.cfg.Location, int(a.cfg.RadiusMiles), a.cfg.MaxResultsPerScrape)
	if len(scraped) == 0 {
		slog.Info("app: scrape produced no postings")
		return nil
	}

	center := a.cfg.Center()
	limits := a.cfg.FilterLimits()

	var queued, filtered, dup int
	for _, job := range scraped {
		score, err := a.ranker.Score(ctx, jobText(job))
		if err != nil {
			// One failed scoring call should not sink the whole run.
			slog.Warn("app: scoring failed, skipping job", slog.String("job", job.ID), slog.Any("error", err))
			continue
		}
		job.CVScore = score

		if !jobs.Passes(job, score, center, limits) {
			filtered++
			continue
		}

		fresh, err := a.store.IsNew(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("app: dedup check: %w", err)
		}
		if !fresh || a.isPending(job.ID) {
			dup++
			continue
		}

		a.enqueue(job)
		queued++
	}

	slog.Info("app: scrape run complete",
		slog.Int("scraped", len(scraped)),
		slog.Int("queued", queued),
		slog.Int("filtered", filtered),
		slog.Int("duplicates", dup))
	return nil
}

// RunDelivery is the scheduled delivery task: drain up to MaxSendPerCycle
// queued jobs in batches and record each one that actually went out.
func (a *App) RunDelivery(ctx context.Context) error {
	_, err := a.deliverPending(ctx)
	return err
}

func (a *App) deliverPending(ctx context.Context) (int, error) {
	batch := a.takePending(a.cfg.MaxSendPerCycle)
	if len(batch) == 0 {
		slog.Info("app: nothing queued for delivery")
		return 0, nil
	}

	// Dedup history may only ever contain jobs that reached the chat, so
	// recording goes off the delivered set, never off a count: the bot skips
	// a failed send mid-batch and carries on, leaving gaps.
	total := 0
	var unsent []jobs.Posting
	for _, chunk := range jobs.Chunk(batch, a.cfg.BatchSize) {
		delivered := a.bot.Deliver(ctx, chunk)
		sentIDs := make(map[string]bool, len(delivered))
		for _, job := range delivered {
			if err := a.store.RecordSent(ctx, job, a.now()); err != nil {
				return total, fmt.Errorf("app: record sent %s: %w", job.ID, err)
			}
			sentIDs[job.ID] = true
			total++
		}
		for _, job := range chunk {
			if !sentIDs[job.ID] {
				// Bot already logged the failure; the next delivery slot
				// retries it.
				unsent = append(unsent, job)
			}
		}
	}
	if len(unsent) > 0 {
		a.requeue(unsent)
	}

	slog.Info("app: delivery run complete", slog.Int("sent", total), slog.Int("requeued", len(unsent)))
	return total, nil
}

// SendJobs is the /sendjobs command: a full scrape-and-deliver cycle now.
func (a *App) SendJobs(ctx context.Context) (int, error) {
	if err := a.RunScrape(ctx); err != nil {
		return 0, err
	}
	return a.deliverPending(ctx)
}

// SendTest is the /test command: deliver a single queued job, scraping first
// if the queue is empty.
func (a *App) SendTest(ctx context.Context) error {
	if a.pendingCount() == 0 {
		if err := a.RunScrape(ctx); err != nil {
			return err
		}
	}
	batch := a.takePending(1)
	if len(batch) == 0 {
		return fmt.Errorf("app: no job available")
	}
	delivered := a.bot.Deliver(ctx, batch)
	if len(delivered) == 0 {
		a.requeue(batch)
		return fmt.Errorf("app: test delivery failed")
	}
	return a.store.RecordSent(ctx, delivered[0], a.now())
}

// ErrAutoApplyUnsupported marks the permanent auto-apply stub: the board has
// no public application API.
var ErrAutoApplyUnsupported = errors.New("automated application not supported")

// AcceptJob handles an accept button press: try the automated application,
// fall back to the manual link when it cannot be done.
func (a *App) AcceptJob(ctx context.Context, jobID string) (string, error) {
	rec, err := a.store.Get(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("app: accept %s: %w", jobID, err)
	}
	if err := a.autoApply(ctx, rec); err != nil {
		slog.Info("app: auto-apply unavailable, falling back to manual link",
			slog.String("job", jobID), slog.Any("reason", err))
		return fmt.Sprintf("Couldn't apply automatically for %q. Apply manually: %s", rec.Title, rec.URL), nil
	}
	return fmt.Sprintf("Applied to %q.", rec.Title), nil
}

// autoApply would submit an application on the user's behalf.
func (a *App) autoApply(context.Context, *store.Record) error {
	return ErrAutoApplyUnsupported
}

// DeclineJob handles a decline button press: the job leaves the candidate set
// for good.
func (a *App) DeclineJob(ctx context.Context, jobID string) (string, error) {
	if err := a.store.MarkDeclined(ctx, jobID); err != nil {
		return "", fmt.Errorf("app: decline %s: %w", jobID, err)
	}
	slog.Info("app: job declined", slog.String("job", jobID))
	return "Declined. You won't see this job again.", nil
}

// Status renders the /status summary.
func (a *App) Status(ctx context.Context) string {
	active, err := a.store.Active(ctx)
	if err != nil {
		slog.Error("app: status query failed", slog.Any("error", err))
		return "Status unavailable, check the logs."
	}
	hits, misses := a.ranker.CacheStats()

	var b strings.Builder
	fmt.Fprintf(&b, "Queued for delivery: %d\n", a.pendingCount())
	fmt.Fprintf(&b, "Delivered (not declined): %d\n", len(active))
	fmt.Fprintf(&b, "Embedding cache: %d hits / %d misses\n", hits, misses)
	fmt.Fprintf(&b, "Search: %q near %s (%.0f mi)", a.cfg.Query, a.cfg.Location, a.cfg.RadiusMiles)
	return b.String()
}

// Report renders the /report system health body.
func (a *App) Report(ctx context.Context) string {
	return a.health.Report(ctx)
}

// jobText flattens a posting into the text that gets scored.
func jobText(job jobs.Posting) string {
	parts := []string{job.Title, job.Company, job.Location, job.JobType, job.SalaryText}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func (a *App) enqueue(job jobs.Posting) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, job)
}

func (a *App) requeue(batch []jobs.Posting) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(batch, a.pending...)
}

func (a *App) takePending(n int) []jobs.Posting {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n > len(a.pending) {
		n = len(a.pending)
	}
	batch := a.pending[:n]
	a.pending = a.pending[n:]
	return batch
}

func (a *App) isPending(jobID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, job := range a.pending {
		if job.ID == jobID {
			return true
		}
	}
	return false
}

func (a *App) pendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
