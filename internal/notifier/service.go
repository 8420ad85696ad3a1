package notifier

import (
	"log/slog"
)

const defaultLang = "en"

// Service turns a scheduler or router decision into exactly one outbound
// message per call. It never batches and it reports the transport error back
// to the caller, so bookkeeping that depends on confirmed delivery only
// advances on success.
type Service struct {
	bot       TelegramBot
	localizer Localizer
	adminIDs  []int64
	logger    *slog.Logger
}

func NewService(bot TelegramBot, localizer Localizer, adminIDs []int64, logger *slog.Logger) *Service {
	return &Service{
		bot:       bot,
		localizer: localizer,
		adminIDs:  adminIDs,
		logger:    logger,
	}
}

// SendReminder delivers the twice-daily journaling reminder.
func (s *Service) SendReminder(chatID int64) error {
	return s.bot.SendMessage(chatID, s.localizer.Get(defaultLang, "reminder.daily", nil))
}

// SendCheckIn delivers the friendly re-engagement message fired when a
// subscriber crosses the silence threshold.
func (s *Service) SendCheckIn(chatID int64) error {
	return s.bot.SendMessage(chatID, s.localizer.Get(defaultLang, "reminder.checkin", nil))
}

// NotifyAdmin alerts every configured administrator about a silent
// subscriber. With no admins configured this is a no-op. Individual admin
// delivery failures are logged and swallowed: the subscriber-facing flow must
// not depend on the admin being reachable.
func (s *Service) NotifyAdmin(telegramID int64, silentDays int) {
	if len(s.adminIDs) == 0 {
		return
	}

	text := s.localizer.Get(defaultLang, "admin.inactive_alert", map[string]interface{}{
		"telegram_id": telegramID,
		"days":        silentDays,
	})

	for _, adminID := range s.adminIDs {
		if err := s.bot.SendMessage(adminID, text); err != nil {
			s.logger.Error("failed to notify admin",
				slog.Int64("admin_id", adminID),
				slog.Int64("subscriber_id", telegramID),
				slog.Any("error", err))
		}
	}
}

// SendWelcome replies to /start.
func (s *Service) SendWelcome(chatID int64) error {
	return s.bot.SendMessage(chatID, s.localizer.Get(defaultLang, "subscribe.welcome", nil))
}

// SendGoodbye replies to /stop.
func (s *Service) SendGoodbye(chatID int64) error {
	return s.bot.SendMessage(chatID, s.localizer.Get(defaultLang, "subscribe.goodbye", nil))
}

// SendHelp replies to /help and to unrecognized commands.
func (s *Service) SendHelp(chatID int64) error {
	return s.bot.SendMessage(chatID, s.localizer.Get(defaultLang, "help.text", nil))
}
