// Package telegram delivers matched jobs to a single chat with accept and
// decline buttons, and long-polls that chat for commands and button presses.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

// Handler is the application side of the chat surface. Commands and button
// presses land here; replies come back as plain text.
type Handler interface {
	// SendJobs runs the on-demand scrape-and-deliver path, returning how
	// many jobs went out.
	SendJobs(ctx context.Context) (int, error)
	// SendTest delivers a single job immediately.
	SendTest(ctx context.Context) error
	// AcceptJob applies the accept action for a delivered job and returns
	// the text the original message should be replaced with.
	AcceptJob(ctx context.Context, jobID string) (string, error)
	// DeclineJob marks the job declined and returns the replacement text.
	DeclineJob(ctx context.Context, jobID string) (string, error)
	// Status returns a short pipeline status summary.
	Status(ctx context.Context) string
	// Report returns the system health report.
	Report(ctx context.Context) string
}

// sender is the slice of the Telegram API the bot uses; satisfied by
// *tgbotapi.BotAPI and by fakes in tests.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the delivery bot bound to one chat.
type Bot struct {
	api     sender
	updates UpdatesGetter
	chatID  int64
	handler Handler
	limiter *rate.Limiter
}

// UpdatesGetter is implemented by *tgbotapi.BotAPI.
type UpdatesGetter interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// New connects to the Telegram API. Fails fast on a bad token — missing chat
// credentials are a startup error, not something to retry.
func New(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	slog.Info("telegram: authorized", slog.String("bot", api.Self.UserName))
	return &Bot{
		api:     api,
		updates: api,
		chatID:  chatID,
		// One message per second keeps clear of Telegram's flood limits.
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}, nil
}

// SetHandler wires the application in; must be called before Run.
func (b *Bot) SetHandler(h Handler) { b.handler = h }

// Deliver sends each job as one message with accept/decline buttons, in list
// order, pacing sends against the rate limiter. A failed send is logged and
// the rest of the batch continues, so the sent jobs need not be a prefix of
// the batch. Returns exactly the jobs that reached the chat; callers record
// delivery from this, never from a count.
func (b *Bot) Deliver(ctx context.Context, batch []jobs.Posting) []jobs.Posting {
	var sent []jobs.Posting
	for _, job := range batch {
		if err := b.limiter.Wait(ctx); err != nil {
			slog.Warn("telegram: delivery cancelled", slog.Any("error", err))
			return sent
		}

		msg := tgbotapi.NewMessage(b.chatID, FormatJob(job))
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = jobKeyboard(job)

		if _, err := b.api.Send(msg); err != nil {
			slog.Error("telegram: send failed", slog.String("job", job.ID), slog.Any("error", err))
			continue
		}
		sent = append(sent, job)
	}
	slog.Info("telegram: batch delivered", slog.Int("sent", len(sent)), slog.Int("batch", len(batch)))
	return sent
}

// SendText sends a plain notification (startup banner, health alerts).
func (b *Bot) SendText(ctx context.Context, text string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		return fmt.Errorf("telegram: send text: %w", err)
	}
	return nil
}

// Run long-polls for updates until ctx is cancelled. Updates are keyed by an
// incrementing offset inside the library, so nothing is redelivered.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.updates.GetUpdatesChan(cfg)

	slog.Info("telegram: long-poll started", slog.Int64("chat_id", b.chatID))
	for {
		select {
		case <-ctx.Done():
			slog.Info("telegram: long-poll stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch routes one inbound update. Anything from a foreign chat is
// ignored outright.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message == nil || update.CallbackQuery.Message.Chat.ID != b.chatID {
			return
		}
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		if update.Message.Chat.ID != b.chatID {
			return
		}
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var reply string
	switch msg.Command() {
	case "start":
		reply = "Job alert bot running. Use /sendjobs to get the latest matches."
	case "help":
		reply = helpText
	case "status":
		reply = b.handler.Status(ctx)
	case "report":
		reply = b.handler.Report(ctx)
	case "sendjobs":
		n, err := b.handler.SendJobs(ctx)
		switch {
		case err != nil:
			slog.Error("telegram: /sendjobs failed", slog.Any("error", err))
			reply = "Job run failed, check the logs."
		case n == 0:
			reply = "No new jobs found right now. Try again later."
		default:
			return // jobs themselves were the reply
		}
	case "test":
		if err := b.handler.SendTest(ctx); err != nil {
			slog.Error("telegram: /test failed", slog.Any("error", err))
			reply = "No job available to send."
		} else {
			return
		}
	default:
		reply = "Unknown command. See /help."
	}

	if err := b.SendText(ctx, reply); err != nil {
		slog.Error("telegram: command reply failed", slog.String("command", msg.Command()), slog.Any("error", err))
	}
}

// handleCallback walks one button press through the action state machine:
// parse the payload, let the handler match and apply it, then replace the
// original message so buttons cannot fire twice.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		slog.Debug("telegram: callback ack failed", slog.Any("error", err))
	}

	action, err := ParseAction(query.Data)
	if err != nil {
		slog.Warn("telegram: bad callback", slog.Any("error", err))
		b.editMessage(query, "Invalid action.")
		return
	}

	var reply string
	switch action.Kind {
	case ActionAccept:
		reply, err = b.handler.AcceptJob(ctx, action.JobID)
	case ActionDecline:
		reply, err = b.handler.DeclineJob(ctx, action.JobID)
	}
	if err != nil {
		slog.Error("telegram: action failed",
			slog.String("action", string(action.Kind)),
			slog.String("job", action.JobID),
			slog.Any("error", err))
		reply = "Something went wrong applying that action."
	}
	b.editMessage(query, reply)
}

func (b *Bot) editMessage(query *tgbotapi.CallbackQuery, text string) {
	if query.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	if _, err := b.api.Send(edit); err != nil {
		slog.Error("telegram: edit failed", slog.Any("error", err))
	}
}

// jobKeyboard builds the accept/decline row for one posting.
func jobKeyboard(job jobs.Posting) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Accept "+buttonTitle(job.Title), callbackData(ActionAccept, job.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Decline "+buttonTitle(job.Title), callbackData(ActionDecline, job.ID)),
		),
	)
}
