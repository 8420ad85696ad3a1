package environment

import (
	"context"
	"log/slog"
	"time"

	"valen-bot/internal/config"
	"valen-bot/internal/localization"
	"valen-bot/internal/notifier"
	"valen-bot/internal/storage"
	"valen-bot/internal/stories/subscribers"
	"valen-bot/internal/telegram"
	"valen-bot/internal/telegram/cmds"
	"valen-bot/internal/worker"

	"github.com/pkg/errors"
)

type Services struct {
	TelegramRouter *telegram.Router
	WorkerService  *worker.Service
}

func newServices(ctx context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	if clients.TelegramBot == nil {
		return nil, errors.New("telegram bot is not initialized")
	}

	loc, err := cfg.Reminders.Location()
	if err != nil {
		return nil, errors.Wrap(err, "resolve reminders timezone")
	}

	storageImpl := storage.New(clients.SQLiteDB.DB)
	if err := storageImpl.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "migrate storage")
	}

	localizer, err := localization.NewService()
	if err != nil {
		return nil, errors.Wrap(err, "load message catalog")
	}

	subscriberService := subscribers.NewService(storageImpl, loc, time.Now)

	notifierService := notifier.NewService(
		clients.TelegramBot,
		localizer,
		cfg.Telegram.AdminIDs,
		logger,
	)

	adminChecker := telegram.NewAdminChecker(&cfg.Telegram)

	statusCommand := cmds.NewStatusCommand(
		clients.TelegramBot,
		subscriberService,
		localizer,
		loc,
		cfg.Reminders.SilenceThresholdDays,
	)

	statsCommand := cmds.NewStatsCommand(
		clients.TelegramBot,
		storageImpl,
		localizer,
	)

	s.TelegramRouter = telegram.NewRouter(
		clients.TelegramBot,
		subscriberService,
		notifierService,
		adminChecker,
		statusCommand,
		statsCommand,
		logger,
	)

	s.WorkerService = worker.NewService(
		storageImpl,
		notifierService,
		worker.Config{
			FirstReminderHour:    cfg.Reminders.FirstHour,
			SecondReminderHour:   cfg.Reminders.SecondHour,
			SweepHour:            cfg.Reminders.SweepHour,
			SilenceThresholdDays: cfg.Reminders.SilenceThresholdDays,
			Location:             loc,
		},
		logger,
	)

	return &s, nil
}
