// Package config loads and validates all runtime configuration at startup.
// Fail-fast: a missing credential or unreadable resume stops the process
// before anything else is constructed. The resulting Config is immutable and
// passed into each component's constructor; there is no ambient lookup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

// Config holds every externally supplied value for one bot process.
type Config struct {
	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Search
	Query       string
	Location    string
	CenterLat   float64
	CenterLon   float64
	RadiusMiles float64

	// Filters
	MinHourlyWage    float64
	MinYearlyWage    float64
	NoSalaryCVCutoff float64
	MinCompanyRating float64

	// Pipeline sizing
	MaxResultsPerScrape int
	BatchSize           int
	MaxSendPerCycle     int
	ScrapeDelay         time.Duration // pause between result-page fetches

	// Schedule
	ScrapeTimes   []string
	DeliveryTimes []string
	Timezone      string

	// Ranking
	HFToken string
	HFModel string
	CVPath  string
	CVText  string // loaded from CVPath

	// Storage
	DatabaseURL string
	RedisURL    string
	DataDir     string

	// Monitoring
	ReportIntervalHours int
}

// Load reads .env (if present) and the environment, validates, and loads the
// resume text. Returns an error for anything that would only fail later at a
// worse time.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// A mistyped threshold must stop startup, not silently fall back to a
	// default and filter with the wrong floor. The parser collects every bad
	// value so one restart surfaces them all.
	p := &envParser{}
	cfg := &Config{
		TelegramToken:       os.Getenv("TELEGRAM_TOKEN"),
		Query:               p.Str("JOB_QUERY", "part time"),
		Location:            p.Str("LOCATION", "Leigh, WN7"),
		CenterLat:           p.Float("CENTER_LAT", 53.4975),
		CenterLon:           p.Float("CENTER_LON", -2.5196),
		RadiusMiles:         p.Float("SEARCH_RADIUS_MILES", 5),
		MinHourlyWage:       p.Float("MIN_HOURLY_WAGE", 11),
		MinYearlyWage:       p.Float("MIN_YEARLY_WAGE", 17500),
		NoSalaryCVCutoff:    p.Float("NO_SALARY_CV_CUTOFF", 0.9),
		MinCompanyRating:    p.Float("MIN_COMPANY_RATING", 6),
		MaxResultsPerScrape: p.Int("MAX_RESULTS_PER_SCRAPE", 33),
		BatchSize:           p.Int("BATCH_SIZE", 5),
		MaxSendPerCycle:     p.Int("MAX_SEND_PER_CYCLE", 8),
		ScrapeDelay:         p.Duration("SCRAPE_DELAY", time.Second),
		ScrapeTimes:         p.List("SCRAPE_TIMES", "08:30,13:45,17:00"),
		DeliveryTimes:       p.List("DELIVERY_TIMES", "09:00,18:00,21:00"),
		Timezone:            p.Str("TIMEZONE", "Europe/London"),
		HFToken:             os.Getenv("HF_API_TOKEN"),
		HFModel:             p.Str("HF_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
		CVPath:              p.Str("CV_TEXT_PATH", "cv.txt"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		DataDir:             p.Str("DATA_DIR", "data"),
		ReportIntervalHours: p.Int("REPORT_INTERVAL_HOURS", 5),
	}
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("config: TELEGRAM_TOKEN is required")
	}

	chatID := os.Getenv("TELEGRAM_CHAT_ID")
	if chatID == "" {
		return nil, fmt.Errorf("config: TELEGRAM_CHAT_ID is required")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("config: TELEGRAM_CHAT_ID must be an integer, got %q", chatID)
	}
	cfg.TelegramChatID = id

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("config: unknown TIMEZONE %q: %w", cfg.Timezone, err)
	}

	if cfg.MaxResultsPerScrape < 1 || cfg.BatchSize < 1 || cfg.MaxSendPerCycle < 1 {
		return nil, fmt.Errorf("config: scrape/batch/send limits must be positive")
	}
	if cfg.ScrapeDelay <= 0 {
		cfg.ScrapeDelay = time.Second
	}

	cv, err := os.ReadFile(cfg.CVPath)
	if err != nil {
		return nil, fmt.Errorf("config: read resume %s: %w", cfg.CVPath, err)
	}
	cfg.CVText = strings.TrimSpace(string(cv))
	if cfg.CVText == "" {
		return nil, fmt.Errorf("config: resume file %s is empty", cfg.CVPath)
	}

	return cfg, nil
}

// Center returns the search-center coordinates.
func (c *Config) Center() jobs.Coord {
	return jobs.Coord{Lat: c.CenterLat, Lon: c.CenterLon}
}

// FilterLimits maps config thresholds to the filter engine's input.
func (c *Config) FilterLimits() jobs.FilterLimits {
	return jobs.FilterLimits{
		RadiusMiles:      c.RadiusMiles,
		MinHourlyWage:    c.MinHourlyWage,
		MinYearlyWage:    c.MinYearlyWage,
		NoSalaryCVCutoff: c.NoSalaryCVCutoff,
		MinCompanyRating: c.MinCompanyRating,
	}
}

// MustLocation returns the parsed timezone; Load already validated it.
func (c *Config) MustLocation() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		panic(err)
	}
	return loc
}

// envParser reads typed environment values, collecting every parse failure.
// Unset keys take the fallback; set-but-malformed keys are errors.
type envParser struct {
	errs []error
}

func (p *envParser) Err() error {
	return errors.Join(p.errs...)
}

func (p *envParser) bad(key, value, kind string) {
	p.errs = append(p.errs, fmt.Errorf("%s: invalid %s %q", key, kind, value))
}

func (p *envParser) Str(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (p *envParser) Int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.bad(key, v, "integer")
		return fallback
	}
	return n
}

func (p *envParser) Float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.bad(key, v, "number")
		return fallback
	}
	return f
}

func (p *envParser) Duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.bad(key, v, "duration")
		return fallback
	}
	return d
}

func (p *envParser) List(key, fallback string) []string {
	raw := p.Str(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
