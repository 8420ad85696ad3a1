package worker

import (
	"context"
	"time"

	"valen-bot/internal/stories/subscribers"
)

type (
	// Storage provides database operations for the scheduled passes.
	Storage interface {
		ListSubscribers(ctx context.Context, criteria subscribers.ListCriteria) ([]*subscribers.Subscriber, error)
		MarkReminderSent(ctx context.Context, telegramID int64, at time.Time) error
		ApplySweepResult(ctx context.Context, r subscribers.SweepResult) (bool, error)
	}

	// Notifier dispatches exactly one outbound message per call.
	Notifier interface {
		SendReminder(chatID int64) error
		SendCheckIn(chatID int64) error
		NotifyAdmin(telegramID int64, silentDays int)
	}
)
