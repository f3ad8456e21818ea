// Package sched fires tasks at fixed local wall-clock times, daily. It wraps
// robfig/cron so next-occurrence math is computable without sleeping, which
// keeps the schedule testable against a simulated clock.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Times is a parsed list of daily "HH:MM" wall-clock times in one location.
type Times struct {
	raw       []string
	specs     []string
	loc       *time.Location
	schedules []cron.Schedule
}

// ParseTimes validates and parses entries like "08:30". Alert times are
// user-facing wall-clock values, so they live in the deployment's configured
// location rather than UTC.
func ParseTimes(entries []string, loc *time.Location) (*Times, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("sched: no times configured")
	}
	t := &Times{loc: loc}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		var hh, mm int
		if _, err := fmt.Sscanf(entry, "%d:%d", &hh, &mm); err != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
			return nil, fmt.Errorf("sched: invalid time %q (want HH:MM)", entry)
		}
		spec := fmt.Sprintf("CRON_TZ=%s %d %d * * *", loc.String(), mm, hh)
		schedule, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("sched: parse %q: %w", entry, err)
		}
		t.raw = append(t.raw, entry)
		t.specs = append(t.specs, spec)
		t.schedules = append(t.schedules, schedule)
	}
	return t, nil
}

// Next returns the earliest configured time strictly after now, wrapping to
// the first time of the next day when all of today's times have passed.
func (t *Times) Next(now time.Time) time.Time {
	var next time.Time
	for _, schedule := range t.schedules {
		candidate := schedule.Next(now)
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next.In(t.loc)
}

// String lists the configured times, for logs and /status.
func (t *Times) String() string {
	return strings.Join(t.raw, ",")
}

// Scheduler runs registered tasks daily at their configured times. A task
// error or panic is logged and the loop keeps going; the next scheduled
// occurrence is the retry mechanism.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// New creates a Scheduler; ctx is passed into every task body and cancels
// in-flight work on shutdown.
func New(ctx context.Context, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		ctx: ctx,
	}
}

// AddDaily registers task at each of the given times.
func (s *Scheduler) AddDaily(name string, times *Times, task func(context.Context) error) error {
	for i, spec := range times.specs {
		at := times.raw[i]
		if _, err := s.cron.AddFunc(spec, func() {
			slog.Info("sched: task firing", slog.String("task", name), slog.String("at", at))
			if err := task(s.ctx); err != nil {
				slog.Error("sched: task failed", slog.String("task", name), slog.Any("error", err))
			}
		}); err != nil {
			return fmt.Errorf("sched: add %s@%s: %w", name, at, err)
		}
	}
	slog.Info("sched: task registered", slog.String("task", name), slog.String("times", times.String()))
	return nil
}

// Start begins firing tasks in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("sched: stopped")
}
