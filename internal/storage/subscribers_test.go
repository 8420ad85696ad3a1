package storage

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"

	"valen-bot/internal/infra/sqlite3"
	"valen-bot/internal/stories/subscribers"
)

func newTestStorage(t *testing.T) *storageImpl {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite3.New(ctx, sqlite3.WithDSN(":memory:"), sqlite3.WithMaxOpenConns(1))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := New(db.DB)
	s.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustCreate(t *testing.T, s *storageImpl, telegramID int64, subscribed bool) *subscribers.Subscriber {
	t.Helper()

	sub, err := s.CreateSubscriber(context.Background(), subscribers.Subscriber{
		TelegramID: telegramID,
		Subscribed: subscribed,
	})
	if err != nil {
		t.Fatalf("create subscriber %d: %v", telegramID, err)
	}
	return sub
}

func TestCreateAndGetSubscriber(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	created := mustCreate(t, s, 42, true)
	if created.ID == 0 {
		t.Error("created subscriber has no id")
	}
	if created.LastInteractionDate != nil {
		t.Error("new subscriber must have no interaction history")
	}
	if created.SilentDays != 0 || created.Escalated {
		t.Errorf("new subscriber state: silent=%d escalated=%v, want 0/false", created.SilentDays, created.Escalated)
	}

	got, err := s.GetSubscriber(ctx, subscribers.GetCriteria{TelegramID: lo.ToPtr(int64(42))})
	if err != nil {
		t.Fatalf("get subscriber: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("get subscriber = %+v, want id %d", got, created.ID)
	}

	missing, err := s.GetSubscriber(ctx, subscribers.GetCriteria{TelegramID: lo.ToPtr(int64(99))})
	if err != nil {
		t.Fatalf("get missing subscriber: %v", err)
	}
	if missing != nil {
		t.Errorf("missing subscriber = %+v, want nil", missing)
	}
}

func TestRecordInteractionIsIdempotentAndMonotonic(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	mustCreate(t, s, 42, true)

	day := civil(2024, 3, 10)

	recorded, err := s.RecordInteraction(ctx, 42, day)
	if err != nil {
		t.Fatalf("record interaction: %v", err)
	}
	if !recorded {
		t.Fatal("first interaction not recorded")
	}

	// Same day again: the write re-applies harmlessly.
	recorded, err = s.RecordInteraction(ctx, 42, day)
	if err != nil {
		t.Fatalf("repeat interaction: %v", err)
	}
	if !recorded {
		t.Error("same-day interaction rejected")
	}

	// An older date must never roll the record back.
	recorded, err = s.RecordInteraction(ctx, 42, civil(2024, 3, 9))
	if err != nil {
		t.Fatalf("stale interaction: %v", err)
	}
	if recorded {
		t.Error("stale interaction overwrote a newer date")
	}

	sub, err := s.GetSubscriber(ctx, subscribers.GetCriteria{TelegramID: lo.ToPtr(int64(42))})
	if err != nil {
		t.Fatalf("get subscriber: %v", err)
	}
	if sub.LastInteractionDate == nil || !sub.LastInteractionDate.Equal(day) {
		t.Errorf("last interaction = %v, want %v", sub.LastInteractionDate, day)
	}

	// Unknown sender: nothing to update.
	recorded, err = s.RecordInteraction(ctx, 99, day)
	if err != nil {
		t.Fatalf("unknown sender: %v", err)
	}
	if recorded {
		t.Error("interaction recorded for unknown sender")
	}
}

func TestRecordInteractionClearsSilenceState(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	mustCreate(t, s, 42, true)

	// Put the record into an escalated silent streak first.
	seen := civil(2024, 3, 1)
	if _, err := s.RecordInteraction(ctx, 42, seen); err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
	applied, err := s.ApplySweepResult(ctx, subscribers.SweepResult{
		TelegramID: 42,
		Seen:       &seen,
		SilentDays: 3,
		Escalated:  true,
	})
	if err != nil || !applied {
		t.Fatalf("seed sweep: applied=%v err=%v", applied, err)
	}

	if _, err := s.RecordInteraction(ctx, 42, civil(2024, 3, 10)); err != nil {
		t.Fatalf("record interaction: %v", err)
	}

	sub, err := s.GetSubscriber(ctx, subscribers.GetCriteria{TelegramID: lo.ToPtr(int64(42))})
	if err != nil {
		t.Fatalf("get subscriber: %v", err)
	}
	if sub.SilentDays != 0 || sub.Escalated {
		t.Errorf("after interaction: silent=%d escalated=%v, want 0/false", sub.SilentDays, sub.Escalated)
	}
}

func TestApplySweepResultGuards(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	mustCreate(t, s, 42, true)

	// No interaction yet: the nil guard matches.
	applied, err := s.ApplySweepResult(ctx, subscribers.SweepResult{
		TelegramID: 42,
		Seen:       nil,
		SilentDays: 2,
	})
	if err != nil {
		t.Fatalf("apply sweep: %v", err)
	}
	if !applied {
		t.Fatal("sweep result discarded for an untouched record")
	}

	// An interaction lands after the sweep took its snapshot; the stale
	// sweep result must be discarded.
	if _, err := s.RecordInteraction(ctx, 42, civil(2024, 3, 10)); err != nil {
		t.Fatalf("record interaction: %v", err)
	}
	applied, err = s.ApplySweepResult(ctx, subscribers.SweepResult{
		TelegramID: 42,
		Seen:       nil,
		SilentDays: 3,
		Escalated:  true,
	})
	if err != nil {
		t.Fatalf("apply stale sweep: %v", err)
	}
	if applied {
		t.Error("stale sweep result clobbered a fresh interaction")
	}

	sub, err := s.GetSubscriber(ctx, subscribers.GetCriteria{TelegramID: lo.ToPtr(int64(42))})
	if err != nil {
		t.Fatalf("get subscriber: %v", err)
	}
	if sub.SilentDays != 0 || sub.Escalated {
		t.Errorf("record mutated by discarded sweep: silent=%d escalated=%v", sub.SilentDays, sub.Escalated)
	}

	// Unsubscribed records are off limits for sweeps.
	if _, err := s.UpdateSubscriber(ctx,
		subscribers.GetCriteria{TelegramID: lo.ToPtr(int64(42))},
		subscribers.UpdateParams{Subscribed: lo.ToPtr(false)},
	); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	seen := civil(2024, 3, 10)
	applied, err = s.ApplySweepResult(ctx, subscribers.SweepResult{
		TelegramID: 42,
		Seen:       &seen,
		SilentDays: 1,
	})
	if err != nil {
		t.Fatalf("apply sweep to unsubscribed: %v", err)
	}
	if applied {
		t.Error("sweep result applied to an unsubscribed record")
	}
}

func TestListSubscribersFiltersBySubscription(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	mustCreate(t, s, 1, true)
	mustCreate(t, s, 2, true)
	mustCreate(t, s, 3, false)

	subscribed, err := s.ListSubscribers(ctx, subscribers.ListCriteria{Subscribed: lo.ToPtr(true)})
	if err != nil {
		t.Fatalf("list subscribed: %v", err)
	}
	if len(subscribed) != 2 {
		t.Fatalf("subscribed count = %d, want 2", len(subscribed))
	}
	for _, sub := range subscribed {
		if !sub.Subscribed {
			t.Errorf("unsubscribed record %d in subscribed listing", sub.TelegramID)
		}
	}

	all, err := s.ListSubscribers(ctx, subscribers.ListCriteria{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("total count = %d, want 3", len(all))
	}
}

func TestMarkReminderSent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	mustCreate(t, s, 42, true)

	at := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	if err := s.MarkReminderSent(ctx, 42, at); err != nil {
		t.Fatalf("mark reminder sent: %v", err)
	}

	sub, err := s.GetSubscriber(ctx, subscribers.GetCriteria{TelegramID: lo.ToPtr(int64(42))})
	if err != nil {
		t.Fatalf("get subscriber: %v", err)
	}
	if sub.LastReminderAt == nil || !sub.LastReminderAt.Equal(at) {
		t.Errorf("last reminder at = %v, want %v", sub.LastReminderAt, at)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	mustCreate(t, s, 1, true)
	mustCreate(t, s, 2, true)
	mustCreate(t, s, 3, false)

	seen := civil(2024, 3, 1)
	if _, err := s.RecordInteraction(ctx, 2, seen); err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
	applied, err := s.ApplySweepResult(ctx, subscribers.SweepResult{
		TelegramID: 2,
		Seen:       &seen,
		SilentDays: 3,
		Escalated:  true,
	})
	if err != nil || !applied {
		t.Fatalf("seed sweep: applied=%v err=%v", applied, err)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.Subscribed != 2 {
		t.Errorf("subscribed = %d, want 2", stats.Subscribed)
	}
	if stats.Silent != 1 {
		t.Errorf("silent = %d, want 1", stats.Silent)
	}
	if stats.Escalated != 1 {
		t.Errorf("escalated = %d, want 1", stats.Escalated)
	}
}
