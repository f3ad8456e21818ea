package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setRequired gives Load the minimum viable environment plus a resume file.
func setRequired(t *testing.T) {
	t.Helper()
	cv := filepath.Join(t.TempDir(), "cv.txt")
	if err := os.WriteFile(cv, []byte("retail customer service python"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "424242")
	t.Setenv("CV_TEXT_PATH", cv)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.TelegramChatID != 424242 {
		t.Errorf("TelegramChatID = %d", cfg.TelegramChatID)
	}
	if cfg.Query != "part time" || cfg.Timezone != "Europe/London" {
		t.Errorf("defaults wrong: query=%q tz=%q", cfg.Query, cfg.Timezone)
	}
	if cfg.RadiusMiles != 5 || cfg.MinHourlyWage != 11 || cfg.MinYearlyWage != 17500 {
		t.Errorf("filter defaults wrong: %+v", cfg)
	}
	if len(cfg.ScrapeTimes) != 3 || cfg.ScrapeTimes[0] != "08:30" {
		t.Errorf("ScrapeTimes = %v", cfg.ScrapeTimes)
	}
	if cfg.CVText != "retail customer service python" {
		t.Errorf("CVText = %q", cfg.CVText)
	}

	center := cfg.Center()
	if center.Lat != 53.4975 || center.Lon != -2.5196 {
		t.Errorf("Center = %+v", center)
	}
	limits := cfg.FilterLimits()
	if limits.NoSalaryCVCutoff != 0.9 || limits.MinCompanyRating != 6 {
		t.Errorf("FilterLimits = %+v", limits)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("JOB_QUERY", "warehouse")
	t.Setenv("SEARCH_RADIUS_MILES", "8.5")
	t.Setenv("BATCH_SIZE", "3")
	t.Setenv("DELIVERY_TIMES", "10:00, 20:15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Query != "warehouse" || cfg.RadiusMiles != 8.5 || cfg.BatchSize != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.DeliveryTimes) != 2 || cfg.DeliveryTimes[1] != "20:15" {
		t.Errorf("DeliveryTimes = %v", cfg.DeliveryTimes)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_TOKEN", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TELEGRAM_TOKEN") {
		t.Errorf("want TELEGRAM_TOKEN error, got %v", err)
	}
}

func TestLoad_BadChatID(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TELEGRAM_CHAT_ID") {
		t.Errorf("want chat id error, got %v", err)
	}
}

func TestLoad_BadNumericsFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("MIN_HOURLY_WAGE", "eleven")
	t.Setenv("BATCH_SIZE", "5x")

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded with malformed numeric values")
	}
	// Both bad values are reported in one pass.
	for _, want := range []string{"MIN_HOURLY_WAGE", "BATCH_SIZE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %s: %v", want, err)
		}
	}
}

func TestLoad_BadDurationFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("SCRAPE_DELAY", "fast")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SCRAPE_DELAY") {
		t.Errorf("want SCRAPE_DELAY error, got %v", err)
	}
}

func TestLoad_BadTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TIMEZONE") {
		t.Errorf("want timezone error, got %v", err)
	}
}

func TestLoad_MissingResume(t *testing.T) {
	setRequired(t)
	t.Setenv("CV_TEXT_PATH", filepath.Join(t.TempDir(), "nope.txt"))

	if _, err := Load(); err == nil {
		t.Error("want resume read error")
	}
}
