// Package monitor samples host CPU and memory and pushes chat alerts when
// usage crosses the configured thresholds, plus a periodic health report.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Default thresholds and cadence.
const (
	DefaultCPUThreshold = 85.0
	DefaultMemThreshold = 90.0
	DefaultInterval     = time.Hour
)

// Notifier delivers alert text to the chat. Satisfied by *telegram.Bot.
type Notifier interface {
	SendText(ctx context.Context, text string) error
}

// Sample is one point-in-time reading of host usage, in percent.
type Sample struct {
	CPUPercent float64
	MemPercent float64
}

// Monitor runs the sampling loop.
type Monitor struct {
	notify       Notifier
	cpuThreshold float64
	memThreshold float64
	interval     time.Duration
	reportEvery  int // samples between unconditional reports; 0 disables

	// sample is swappable so tests never touch the real host.
	sample func(ctx context.Context) (Sample, error)
}

// Options configures New; zero values pick the defaults above.
type Options struct {
	CPUThreshold float64
	MemThreshold float64
	Interval     time.Duration
	ReportEvery  int
}

func New(notify Notifier, opts Options) *Monitor {
	m := &Monitor{
		notify:       notify,
		cpuThreshold: opts.CPUThreshold,
		memThreshold: opts.MemThreshold,
		interval:     opts.Interval,
		reportEvery:  opts.ReportEvery,
		sample:       hostSample,
	}
	if m.cpuThreshold <= 0 {
		m.cpuThreshold = DefaultCPUThreshold
	}
	if m.memThreshold <= 0 {
		m.memThreshold = DefaultMemThreshold
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	return m
}

// Run samples on a fixed interval until ctx is cancelled. A failed sample is
// logged and the loop keeps going; the host being busy is exactly when we
// want the next reading.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("monitor: started",
		slog.Duration("interval", m.interval),
		slog.Float64("cpu_threshold", m.cpuThreshold),
		slog.Float64("mem_threshold", m.memThreshold))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	samples := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor: stopped")
			return
		case <-ticker.C:
			samples++
			m.check(ctx, samples)
		}
	}
}

func (m *Monitor) check(ctx context.Context, n int) {
	s, err := m.sample(ctx)
	if err != nil {
		slog.Error("monitor: sample failed", slog.Any("error", err))
		return
	}
	slog.Debug("monitor: sample",
		slog.Float64("cpu", s.CPUPercent),
		slog.Float64("mem", s.MemPercent))

	if text := m.alertText(s); text != "" {
		if err := m.notify.SendText(ctx, text); err != nil {
			slog.Error("monitor: alert send failed", slog.Any("error", err))
		}
		return
	}

	if m.reportEvery > 0 && n%m.reportEvery == 0 {
		if err := m.notify.SendText(ctx, formatReport(s)); err != nil {
			slog.Error("monitor: report send failed", slog.Any("error", err))
		}
	}
}

// alertText returns a non-empty alert when any threshold is exceeded.
func (m *Monitor) alertText(s Sample) string {
	switch {
	case s.CPUPercent > m.cpuThreshold && s.MemPercent > m.memThreshold:
		return fmt.Sprintf("⚠️ High CPU (%.1f%%) and memory (%.1f%%) usage", s.CPUPercent, s.MemPercent)
	case s.CPUPercent > m.cpuThreshold:
		return fmt.Sprintf("⚠️ High CPU usage: %.1f%%", s.CPUPercent)
	case s.MemPercent > m.memThreshold:
		return fmt.Sprintf("⚠️ High memory usage: %.1f%%", s.MemPercent)
	}
	return ""
}

// Report returns the current health report on demand (the /report command).
func (m *Monitor) Report(ctx context.Context) string {
	s, err := m.sample(ctx)
	if err != nil {
		return fmt.Sprintf("Health check failed: %v", err)
	}
	return formatReport(s)
}

func formatReport(s Sample) string {
	return fmt.Sprintf("💚 System healthy\nCPU: %.1f%%\nMemory: %.1f%%", s.CPUPercent, s.MemPercent)
}

// hostSample reads real usage. The one-second CPU window blocks, so it
// respects ctx via the WithContext variants.
func hostSample(ctx context.Context) (Sample, error) {
	percents, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err != nil {
		return Sample{}, fmt.Errorf("monitor: cpu: %w", err)
	}
	var cpuPct float64
	if len(percents) > 0 {
		cpuPct = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("monitor: mem: %w", err)
	}
	return Sample{CPUPercent: cpuPct, MemPercent: vm.UsedPercent}, nil
}
