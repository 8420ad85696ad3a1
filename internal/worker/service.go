package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"

	"valen-bot/internal/metrics"
	"valen-bot/internal/stories/subscribers"
)

const (
	SlotMorning = "morning"
	SlotEvening = "evening"
)

// Config carries the fixed trigger times. It is passed in at construction so
// tests can drive the passes directly with a fake clock instead of waiting on
// wall time.
type Config struct {
	FirstReminderHour    int
	SecondReminderHour   int
	SweepHour            int
	SilenceThresholdDays int
	Location             *time.Location
}

// Service runs the three daily triggers: two reminder passes and one
// inactivity sweep. Each trigger fires at a distinct local wall-clock time,
// so the passes never overlap; per-subscriber writes are still guarded in the
// store in case the host catches up on missed fire times concurrently.
type Service struct {
	storage  Storage
	notifier Notifier
	cfg      Config
	logger   *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func NewService(storage Storage, notifier Notifier, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(cfg.Location)),
		now:      time.Now,
	}
}

// Start registers the cron jobs and starts the scheduler.
func (s *Service) Start() error {
	s.logger.Info("Starting worker service",
		slog.Int("first_reminder_hour", s.cfg.FirstReminderHour),
		slog.Int("second_reminder_hour", s.cfg.SecondReminderHour),
		slog.Int("sweep_hour", s.cfg.SweepHour),
		slog.String("timezone", s.cfg.Location.String()))

	jobs := []struct {
		name string
		hour int
		run  func(ctx context.Context) error
	}{
		{"morning reminder", s.cfg.FirstReminderHour, func(ctx context.Context) error {
			return s.runReminderPass(ctx, SlotMorning)
		}},
		{"evening reminder", s.cfg.SecondReminderHour, func(ctx context.Context) error {
			return s.runReminderPass(ctx, SlotEvening)
		}},
		{"inactivity sweep", s.cfg.SweepHour, func(ctx context.Context) error {
			return s.runInactivitySweep(ctx)
		}},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(fmt.Sprintf("0 %d * * *", job.hour), func() {
			ctx := context.Background()
			if err := job.run(ctx); err != nil {
				s.logger.Error("Scheduled job failed",
					slog.String("job", job.name),
					slog.Any("error", err))
			}
		})
		if err != nil {
			return fmt.Errorf("add %s job: %w", job.name, err)
		}
	}

	s.cron.Start()
	s.logger.Info("Worker service started")

	return nil
}

// Stop stops the cron scheduler. Running jobs finish; future triggers halt.
func (s *Service) Stop() {
	s.logger.Info("Stopping worker service")
	s.cron.Stop()
	s.logger.Info("Worker service stopped")
}

// runReminderPass sends the reminder to every subscribed user. Reminders are
// unconditional: an interaction earlier the same day does not suppress the
// later slot. A failed delivery is logged and retried at the next scheduled
// slot only; it never unsubscribes the user and never stops the pass.
func (s *Service) runReminderPass(ctx context.Context, slot string) error {
	logger := s.logger.With(slog.String("run_id", uuid.NewString()), slog.String("slot", slot))
	logger.Info("Running reminder pass")

	subs, err := s.storage.ListSubscribers(ctx, subscribers.ListCriteria{Subscribed: lo.ToPtr(true)})
	if err != nil {
		// Store unavailable: skip the whole occurrence, the next slot
		// picks it up. No immediate retry.
		return fmt.Errorf("list subscribers: %w", err)
	}

	var sent, failed int
	for _, sub := range subs {
		if err := s.notifier.SendReminder(sub.TelegramID); err != nil {
			failed++
			metrics.ReminderFailures.WithLabelValues(slot).Inc()
			logger.Warn("Reminder delivery failed",
				slog.Int64("telegram_id", sub.TelegramID),
				slog.Any("error", err))
			continue
		}

		sent++
		metrics.RemindersSent.WithLabelValues(slot).Inc()
		if err := s.storage.MarkReminderSent(ctx, sub.TelegramID, s.now()); err != nil {
			logger.Error("Failed to record reminder delivery",
				slog.Int64("telegram_id", sub.TelegramID),
				slog.Any("error", err))
		}
	}

	logger.Info("Reminder pass completed", slog.Int("sent", sent), slog.Int("failed", failed))
	return nil
}

// runInactivitySweep recomputes each subscriber's silence streak from stored
// dates and escalates streaks that just crossed the threshold. Escalation is
// one-shot per streak: once escalated, repeated sweeps stay quiet until an
// interaction resets the state.
func (s *Service) runInactivitySweep(ctx context.Context) error {
	logger := s.logger.With(slog.String("run_id", uuid.NewString()))
	logger.Info("Running inactivity sweep")

	today := s.now().In(s.cfg.Location)

	subs, err := s.storage.ListSubscribers(ctx, subscribers.ListCriteria{Subscribed: lo.ToPtr(true)})
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}

	var escalations int
	for _, sub := range subs {
		if err := s.sweepSubscriber(ctx, logger, sub, today, &escalations); err != nil {
			logger.Error("Sweep failed for subscriber",
				slog.Int64("telegram_id", sub.TelegramID),
				slog.Any("error", err))
		}
	}

	metrics.SweepRuns.Inc()
	logger.Info("Inactivity sweep completed",
		slog.Int("subscribers", len(subs)),
		slog.Int("escalations", escalations))
	return nil
}

func (s *Service) sweepSubscriber(ctx context.Context, logger *slog.Logger, sub *subscribers.Subscriber, today time.Time, escalations *int) error {
	days := sub.SilentFor(today)
	escalated := sub.Escalated

	if sub.ShouldEscalate(today, s.cfg.SilenceThresholdDays) {
		// The check-in must be confirmed before the streak is marked
		// escalated; a failed send leaves escalated=false so the next
		// sweep tries again.
		if err := s.notifier.SendCheckIn(sub.TelegramID); err != nil {
			logger.Warn("Check-in delivery failed",
				slog.Int64("telegram_id", sub.TelegramID),
				slog.Any("error", err))
		} else {
			s.notifier.NotifyAdmin(sub.TelegramID, days)
			escalated = true
			*escalations++
			metrics.Escalations.Inc()
			logger.Info("Subscriber escalated",
				slog.Int64("telegram_id", sub.TelegramID),
				slog.Int("silent_days", days))
		}
	}

	if days == sub.SilentDays && escalated == sub.Escalated {
		return nil
	}

	applied, err := s.storage.ApplySweepResult(ctx, subscribers.SweepResult{
		TelegramID: sub.TelegramID,
		Seen:       sub.LastInteractionDate,
		SilentDays: days,
		Escalated:  escalated,
	})
	if err != nil {
		return fmt.Errorf("apply sweep result: %w", err)
	}
	if !applied {
		// An interaction or /stop landed between the read and the
		// write; their state wins.
		logger.Info("Sweep result discarded, record changed mid-sweep",
			slog.Int64("telegram_id", sub.TelegramID))
	}

	return nil
}
