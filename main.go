// go_jobbot — Telegram job alert bot.
//
// Scrapes part-time postings from Indeed on a daily schedule, scores them
// against a resume with sentence embeddings, filters by distance and salary,
// and delivers fresh matches to one Telegram chat with accept and decline
// buttons.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go_jobbot/internal/app"
	"github.com/anatolykoptev/go_jobbot/internal/config"
	"github.com/anatolykoptev/go_jobbot/internal/monitor"
	"github.com/anatolykoptev/go_jobbot/internal/ranker"
	"github.com/anatolykoptev/go_jobbot/internal/sched"
	"github.com/anatolykoptev/go_jobbot/internal/scraper"
	"github.com/anatolykoptev/go_jobbot/internal/store"
	"github.com/anatolykoptev/go_jobbot/internal/telegram"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	})))

	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc := cfg.MustLocation()

	slog.Info("starting go_jobbot",
		slog.String("version", version),
		slog.String("query", cfg.Query),
		slog.String("location", cfg.Location),
		slog.String("timezone", cfg.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	rnk, err := ranker.New(ranker.Options{
		Resume:   cfg.CVText,
		Model:    cfg.HFModel,
		HFToken:  cfg.HFToken,
		RedisURL: cfg.RedisURL,
	})
	if err != nil {
		return err
	}

	bot, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		return err
	}

	scr := scraper.New(scraper.Options{
		Center:      cfg.Center(),
		PagesPerSec: 1 / cfg.ScrapeDelay.Seconds(),
	})
	mon := monitor.New(bot, monitor.Options{ReportEvery: cfg.ReportIntervalHours})
	application := app.New(cfg, scr, rnk, st, bot, mon)
	bot.SetHandler(application)

	scrapeTimes, err := sched.ParseTimes(cfg.ScrapeTimes, loc)
	if err != nil {
		return err
	}
	deliveryTimes, err := sched.ParseTimes(cfg.DeliveryTimes, loc)
	if err != nil {
		return err
	}

	scheduler := sched.New(ctx, loc)
	if err := scheduler.AddDaily("scrape", scrapeTimes, application.RunScrape); err != nil {
		return err
	}
	if err := scheduler.AddDaily("delivery", deliveryTimes, application.RunDelivery); err != nil {
		return err
	}
	scheduler.Start()

	go mon.Run(ctx)
	go bot.Run(ctx)

	now := time.Now().In(loc)
	banner := fmt.Sprintf("🤖 Job bot online.\nNext scrape: %s\nNext delivery: %s",
		scrapeTimes.Next(now).Format("Mon 15:04"),
		deliveryTimes.Next(now).Format("Mon 15:04"))
	if err := bot.SendText(ctx, banner); err != nil {
		slog.Warn("startup banner failed", slog.Any("error", err))
	}

	<-ctx.Done()
	slog.Info("shutting down")
	scheduler.Stop()
	return nil
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
