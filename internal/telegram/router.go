package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"valen-bot/internal/metrics"
	"valen-bot/internal/stories/subscribers"
	"valen-bot/internal/telegram/cmds"
)

// Router dispatches inbound updates: commands manage the subscription,
// everything else from a known subscriber counts as an interaction.
type Router struct {
	bot          botApi
	subscribers  subscriberService
	notifier     notifierService
	adminChecker adminChecker
	status       *cmds.StatusCommand
	stats        *cmds.StatsCommand
	logger       *slog.Logger
}

type botApi interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type subscriberService interface {
	Subscribe(ctx context.Context, telegramID int64) (*subscribers.Subscriber, bool, error)
	Unsubscribe(ctx context.Context, telegramID int64) error
	RecordInteraction(ctx context.Context, telegramID int64, at time.Time) (bool, error)
}

type notifierService interface {
	SendWelcome(chatID int64) error
	SendGoodbye(chatID int64) error
	SendHelp(chatID int64) error
}

type adminChecker interface {
	IsAdmin(telegramID int64) bool
}

func NewRouter(
	bot botApi,
	subscriberSvc subscriberService,
	notifierSvc notifierService,
	adminChecker adminChecker,
	status *cmds.StatusCommand,
	stats *cmds.StatsCommand,
	logger *slog.Logger,
) *Router {
	return &Router{
		bot:          bot,
		subscribers:  subscriberSvc,
		notifier:     notifierSvc,
		adminChecker: adminChecker,
		status:       status,
		stats:        stats,
		logger:       logger,
	}
}

// SetupBotCommands publishes the command menu.
func (r *Router) SetupBotCommands() error {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Subscribe to daily reminders"},
		tgbotapi.BotCommand{Command: "stop", Description: "Pause all reminders"},
		tgbotapi.BotCommand{Command: "status", Description: "Show your check-in streak"},
		tgbotapi.BotCommand{Command: "help", Description: "How Valen works"},
	)
	_, err := r.bot.Request(commands)
	return err
}

// Route handles one update. Errors are returned for logging but must never
// take the update loop down.
func (r *Router) Route(update *tgbotapi.Update) error {
	ctx := context.Background()

	if update.Message == nil {
		return nil
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if update.Message.IsCommand() {
		return r.handleCommand(ctx, update, telegramID, chatID)
	}

	// Any non-command message (text, emoji, reply to a reminder) counts
	// as today's check-in. Unknown senders are ignored, never an error.
	recorded, err := r.subscribers.RecordInteraction(ctx, telegramID, update.Message.Time())
	if err != nil {
		return err
	}
	if recorded {
		metrics.Interactions.Inc()
		r.logger.Info("Recorded interaction", slog.Int64("telegram_id", telegramID))
	}

	return nil
}

func (r *Router) handleCommand(ctx context.Context, update *tgbotapi.Update, telegramID, chatID int64) error {
	switch update.Message.Command() {
	case "start":
		_, created, err := r.subscribers.Subscribe(ctx, telegramID)
		if err != nil {
			return err
		}
		r.logger.Info("Subscriber started",
			slog.Int64("telegram_id", telegramID),
			slog.Bool("created", created))
		return r.notifier.SendWelcome(chatID)

	case "stop":
		if err := r.subscribers.Unsubscribe(ctx, telegramID); err != nil {
			return err
		}
		r.logger.Info("Subscriber stopped", slog.Int64("telegram_id", telegramID))
		return r.notifier.SendGoodbye(chatID)

	case "status":
		return r.status.Execute(ctx, telegramID, chatID)

	case "stats":
		if !r.adminChecker.IsAdmin(telegramID) {
			return nil
		}
		return r.stats.Execute(ctx, chatID)

	case "help":
		return r.notifier.SendHelp(chatID)

	default:
		return r.notifier.SendHelp(chatID)
	}
}
